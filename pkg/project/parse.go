package project

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// MaxDepth bounds group nesting. Deeper documents are rejected at load time.
const MaxDepth = 32

// blockDoc mirrors the on-disk shape of a block.
// Nested "blocks"/"starting_block_id" of groups are decoded separately to keep order.
type blockDoc struct {
	Type        string         `mapstructure:"type"`
	Content     string         `mapstructure:"content"`
	Delay       float64        `mapstructure:"delay"`
	Connectors  []connectorDoc `mapstructure:"connectors"`
	Items       []string       `mapstructure:"items"`
	TextInput   bool           `mapstructure:"text_input"`
	NumberInput bool           `mapstructure:"number_input"`
	Options     []string       `mapstructure:"options"`
}

type connectorDoc struct {
	Label   string     `mapstructure:"label"`
	Targets []string   `mapstructure:"targets"`
	Events  []eventDoc `mapstructure:"events"`
	FromID  string     `mapstructure:"from_id"`
}

type eventDoc struct {
	Type     string `mapstructure:"type"`
	VarName  string `mapstructure:"var_name"`
	VarValue string `mapstructure:"var_value"`
	Message  string `mapstructure:"message"`
}

// Parse decodes a project document. JSON and YAML are both accepted.
// Block declaration order is preserved. Parse does not validate; see Validate.
func Parse(data []byte) (*domain.Project, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty project document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("project document must be an object, got %s", kindName(root.Kind))
	}

	graph, err := decodeGraph(root, "", 0)
	if err != nil {
		return nil, err
	}

	p := &domain.Project{Graph: *graph}
	if name := lookup(root, "name"); name != nil && name.Kind == yaml.ScalarNode {
		p.Name = name.Value
	}
	return p, nil
}

// parseDocument reads JSON with encoding/json, since YAML rejects some valid
// JSON escapes such as "\/". Anything else, including YAML flow mappings
// that are not JSON, goes through yaml.v3.
func parseDocument(data []byte) (*yaml.Node, error) {
	var jsonErr error
	if isJSON(data) {
		doc, err := jsonDocument(data)
		if err == nil {
			return doc, nil
		}
		jsonErr = err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		if jsonErr != nil {
			return nil, jsonErr
		}
		return nil, err
	}
	return &doc, nil
}

// Load reads, parses and validates a project file.
func Load(path string) (*domain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// FileLoader implements ports.ProjectLoader for a document on disk.
type FileLoader struct {
	Path string
}

// Load reads the project file. The file is re-read on every call.
func (l FileLoader) Load(ctx context.Context) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(l.Path)
}

func decodeGraph(node *yaml.Node, where string, depth int) (*domain.Graph, error) {
	if depth > MaxDepth {
		return nil, &ValidationError{Where: where, Reason: fmt.Sprintf("groups nested deeper than %d levels", MaxDepth)}
	}

	g := &domain.Graph{Blocks: make(map[domain.BlockID]*domain.Block)}

	if start := lookup(node, "starting_block_id"); start != nil {
		if start.Kind != yaml.ScalarNode {
			return nil, &ValidationError{Where: join(where, "starting_block_id"), Reason: "must be a scalar id"}
		}
		if start.Tag != "!!null" {
			g.StartingBlockID = domain.BlockID(start.Value)
		}
	}

	blocks := lookup(node, "blocks")
	if blocks == nil || blocks.Tag == "!!null" {
		return g, nil
	}
	if blocks.Kind != yaml.MappingNode {
		return nil, &ValidationError{Where: join(where, "blocks"), Reason: "must be an object keyed by block id"}
	}

	for i := 0; i+1 < len(blocks.Content); i += 2 {
		key, val := blocks.Content[i], blocks.Content[i+1]
		id := domain.BlockID(key.Value)
		at := join(where, "blocks", key.Value)

		if _, dup := g.Blocks[id]; dup {
			return nil, &ValidationError{Where: at, Reason: "duplicate block id"}
		}

		block, err := decodeBlock(id, val, at, depth)
		if err != nil {
			return nil, err
		}
		g.Blocks[id] = block
		g.Order = append(g.Order, id)
	}
	return g, nil
}

func decodeBlock(id domain.BlockID, node *yaml.Node, where string, depth int) (*domain.Block, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ValidationError{Where: where, Reason: "block must be an object"}
	}

	var raw map[string]any
	if err := shallow(node, "blocks", "starting_block_id").Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}

	var doc blockDoc
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}

	block := &domain.Block{
		ID:          id,
		Type:        domain.BlockType(doc.Type),
		Content:     doc.Content,
		Delay:       doc.Delay,
		Items:       doc.Items,
		TextInput:   doc.TextInput,
		NumberInput: doc.NumberInput,
		Options:     doc.Options,
	}
	for _, c := range doc.Connectors {
		conn := domain.Connector{
			Label:  c.Label,
			FromID: domain.BlockID(c.FromID),
		}
		for _, t := range c.Targets {
			conn.Targets = append(conn.Targets, domain.BlockID(t))
		}
		for _, e := range c.Events {
			conn.Events = append(conn.Events, domain.Event(e))
		}
		block.Connectors = append(block.Connectors, conn)
	}

	if block.Type == domain.BlockGroup {
		body, err := decodeGraph(node, where, depth+1)
		if err != nil {
			return nil, err
		}
		block.Body = body
	}
	return block, nil
}

// lookup returns the value node of key in a mapping node.
func lookup(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// shallow returns a copy of a mapping node without the given keys.
func shallow(node *yaml.Node, drop ...string) *yaml.Node {
	out := *node
	out.Content = make([]*yaml.Node, 0, len(node.Content))
next:
	for i := 0; i+1 < len(node.Content); i += 2 {
		for _, d := range drop {
			if node.Content[i].Value == d {
				continue next
			}
		}
		out.Content = append(out.Content, node.Content[i], node.Content[i+1])
	}
	return &out
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "object"
}
