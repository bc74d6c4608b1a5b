package dsl

import (
	"fmt"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/aretw0/tilbot/pkg/project"
)

// Exit is the target that leaves the enclosing group.
const Exit = string(domain.ExitSentinel)

// Builder manages the construction of one graph level.
type Builder struct {
	name   string
	start  string
	order  []string
	blocks map[string]*BlockBuilder
}

// New creates a project builder whose conversation begins at start.
func New(start string) *Builder {
	return &Builder{
		start:  start,
		blocks: make(map[string]*BlockBuilder),
	}
}

// Name sets the project name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a new block in this level.
// If the block already exists, it returns the existing builder.
func (b *Builder) Add(id string) *BlockBuilder {
	if bb, ok := b.blocks[id]; ok {
		return bb
	}
	bb := &BlockBuilder{
		block: domain.Block{ID: domain.BlockID(id)},
	}
	b.blocks[id] = bb
	b.order = append(b.order, id)
	return bb
}

// Build assembles and validates the project.
func (b *Builder) Build() (*domain.Project, error) {
	p := &domain.Project{Name: b.name, Graph: *b.graph()}
	if err := project.Validate(p); err != nil {
		return nil, fmt.Errorf("failed to build project: %w", err)
	}
	return p, nil
}

// MustBuild is like Build but panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *domain.Project {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Loader builds the project and wraps it as a ports.ProjectLoader.
func (b *Builder) Loader() (ports.ProjectLoader, error) {
	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return ports.StaticLoader(p), nil
}

func (b *Builder) graph() *domain.Graph {
	g := &domain.Graph{
		StartingBlockID: domain.BlockID(b.start),
		Blocks:          make(map[domain.BlockID]*domain.Block, len(b.blocks)),
	}
	for _, id := range b.order {
		bb := b.blocks[id]
		block := bb.block
		if bb.body != nil {
			block.Body = bb.body.graph()
		}
		g.Blocks[block.ID] = &block
		g.Order = append(g.Order, block.ID)
	}
	return g
}
