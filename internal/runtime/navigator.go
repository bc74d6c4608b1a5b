package runtime

import (
	"slices"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/project"
)

// scope is one graph level on the navigation stack.
type scope struct {
	group domain.BlockID // owning group block; empty for the root
	graph *domain.Graph
}

// Navigator tracks the current block and the stack of entered groups.
// Each stack entry references the graph of one level, so lookups never
// re-walk the tree.
type Navigator struct {
	stack   []scope
	current domain.BlockID
}

// Mark is a saved navigator position.
type Mark struct {
	stack   []scope
	current domain.BlockID
}

// NewNavigator positions a navigator on the starting block of root.
func NewNavigator(root *domain.Graph) *Navigator {
	return &Navigator{
		stack:   []scope{{graph: root}},
		current: root.StartingBlockID,
	}
}

// Current returns the id of the current block.
func (n *Navigator) Current() domain.BlockID {
	return n.current
}

// Path returns the ids of the entered groups, outermost first.
// It is empty at the project root.
func (n *Navigator) Path() []domain.BlockID {
	path := make([]domain.BlockID, 0, len(n.stack)-1)
	for _, s := range n.stack[1:] {
		path = append(path, s.group)
	}
	return path
}

// Depth returns the group nesting depth.
func (n *Navigator) Depth() int {
	return len(n.stack) - 1
}

// Graph returns the innermost graph level.
func (n *Navigator) Graph() *domain.Graph {
	return n.stack[len(n.stack)-1].graph
}

// Resolve looks id up in the innermost graph level.
func (n *Navigator) Resolve(id domain.BlockID) (*domain.Block, error) {
	b, ok := n.Graph().Block(id)
	if !ok {
		return nil, &domain.GraphResolutionError{Path: n.Path(), ID: id}
	}
	return b, nil
}

// CurrentBlock resolves the current block.
func (n *Navigator) CurrentBlock() (*domain.Block, error) {
	return n.Resolve(n.current)
}

// MoveTo changes the current block within the innermost level.
// The id is resolved lazily, on the next CurrentBlock call.
func (n *Navigator) MoveTo(id domain.BlockID) {
	n.current = id
}

// Enter descends into a group and positions on its starting block.
func (n *Navigator) Enter(group *domain.Block) error {
	if !group.IsGroup() || group.Body == nil {
		return &domain.GraphResolutionError{Path: n.Path(), ID: group.ID, Segment: true}
	}
	if n.Depth() >= project.MaxDepth {
		return &domain.GraphResolutionError{Path: n.Path(), ID: group.ID, Segment: true}
	}
	n.stack = append(n.stack, scope{group: group.ID, graph: group.Body})
	n.current = group.Body.StartingBlockID
	return nil
}

// Exit leaves the innermost group and positions on the group block itself.
// It returns the group block, or false at the project root.
func (n *Navigator) Exit() (*domain.Block, bool) {
	if n.Depth() == 0 {
		return nil, false
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]

	group, ok := n.Graph().Block(top.group)
	if !ok {
		return nil, false
	}
	n.current = group.ID
	return group, true
}

// Seek walks path from the root and positions on id in the reached level.
// The navigator is left untouched when a path segment does not resolve.
func (n *Navigator) Seek(path []domain.BlockID, id domain.BlockID) error {
	stack := []scope{n.stack[0]}
	for i, seg := range path {
		g := stack[len(stack)-1].graph
		b, ok := g.Block(seg)
		if !ok || !b.IsGroup() || b.Body == nil {
			return &domain.GraphResolutionError{Path: slices.Clone(path[:i]), ID: seg, Segment: true}
		}
		stack = append(stack, scope{group: seg, graph: b.Body})
	}
	n.stack = stack
	n.current = id
	return nil
}

// Mark saves the current position.
func (n *Navigator) Mark() Mark {
	return Mark{stack: slices.Clone(n.stack), current: n.current}
}

// Restore returns to a saved position.
func (n *Navigator) Restore(m Mark) {
	n.stack = slices.Clone(m.stack)
	n.current = m.current
}
