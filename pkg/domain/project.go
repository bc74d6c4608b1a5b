package domain

import (
	"sort"
	"strings"
)

// BlockID identifies a block within one graph level.
// Documents may use numbers or strings; both are normalized to their string form.
type BlockID string

// ExitSentinel is the target id that leaves the enclosing group.
const ExitSentinel BlockID = "-1"

// BlockType defines how a block is presented and how replies to it are matched.
type BlockType string

const (
	// BlockText asks an open question; replies are matched against label expressions.
	BlockText BlockType = "Text"
	// BlockMC offers its connector labels as options; replies must equal a label exactly.
	BlockMC BlockType = "MC"
	// BlockList offers a list of items plus optional free text/number input.
	BlockList BlockType = "List"
	// BlockAutoComplete offers a fixed option set for client-side completion.
	BlockAutoComplete BlockType = "AutoComplete"
	// BlockAuto is emitted and then advanced without waiting for the user.
	BlockAuto BlockType = "Auto"
	// BlockGroup owns a nested graph that is entered when the group is reached.
	BlockGroup BlockType = "Group"
	// BlockTrigger is never reached by traversal; its connectors are the global fallback.
	BlockTrigger BlockType = "Trigger"
)

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockText, BlockMC, BlockList, BlockAutoComplete, BlockAuto, BlockGroup, BlockTrigger:
		return true
	}
	return false
}

// Label tokens with special meaning.
const (
	ElseLabel    = "[else]"
	AndSeparator = " [and] "
)

// Event types attached to connectors.
const (
	EventMessage  = "message"
	EventVariable = "variable"
)

// Graph is one level of blocks: the project root or the body of a group.
type Graph struct {
	StartingBlockID BlockID            `json:"starting_block_id"`
	Blocks          map[BlockID]*Block `json:"blocks"`

	// Order lists block ids in document declaration order.
	Order []BlockID `json:"-"`
}

// Block looks up a block of this level.
func (g *Graph) Block(id BlockID) (*Block, bool) {
	if g == nil {
		return nil, false
	}
	b, ok := g.Blocks[id]
	return b, ok
}

// Each visits the blocks of this level in declaration order.
// Ids present in Blocks but missing from Order are visited last.
func (g *Graph) Each(fn func(*Block) bool) {
	if g == nil {
		return
	}
	seen := make(map[BlockID]struct{}, len(g.Order))
	for _, id := range g.Order {
		b, ok := g.Blocks[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		if !fn(b) {
			return
		}
	}
	if len(seen) == len(g.Blocks) {
		return
	}
	rest := make([]string, 0, len(g.Blocks)-len(seen))
	for id := range g.Blocks {
		if _, ok := seen[id]; !ok {
			rest = append(rest, string(id))
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		if !fn(g.Blocks[BlockID(id)]) {
			return
		}
	}
}

// Project is the root document a session executes.
// It is read-only once a session has started and may be shared between sessions.
type Project struct {
	Name string `json:"name,omitempty"`
	Graph
}

// Block is a node of the conversation graph.
type Block struct {
	ID         BlockID     `json:"id"`
	Type       BlockType   `json:"type"`
	Content    string      `json:"content"`
	Delay      float64     `json:"delay"` // seconds
	Connectors []Connector `json:"connectors"`

	// List configuration.
	Items       []string `json:"items,omitempty"`
	TextInput   bool     `json:"text_input,omitempty"`
	NumberInput bool     `json:"number_input,omitempty"`

	// AutoComplete configuration.
	Options []string `json:"options,omitempty"`

	// Body is the nested graph of a Group block.
	Body *Graph `json:"body,omitempty"`
}

// IsGroup reports whether the block owns a nested graph.
func (b *Block) IsGroup() bool {
	return b.Type == BlockGroup
}

// Connector is a labeled outgoing edge.
type Connector struct {
	Label string `json:"label"`

	// Targets lists destination ids. Only the first is followed; the rest are
	// kept so documents round-trip unchanged.
	Targets []BlockID `json:"targets"`
	Events  []Event   `json:"events,omitempty"`

	// FromID is set on a group's boundary connectors: it names the inner block
	// whose exit continues along this connector.
	FromID BlockID `json:"from_id,omitempty"`
}

// IsElse reports whether the connector is the block's fallback edge.
func (c *Connector) IsElse() bool {
	return c.Label == ElseLabel
}

// Target returns the followed destination, or false when there is none.
func (c *Connector) Target() (BlockID, bool) {
	if len(c.Targets) == 0 {
		return "", false
	}
	return c.Targets[0], true
}

// Segments splits a compound label into its AND-ed parts.
func (c *Connector) Segments() []string {
	return strings.Split(c.Label, AndSeparator)
}

// Event is a side effect declared on a connector.
type Event struct {
	Type     string `json:"type"`
	VarName  string `json:"var_name,omitempty"`
	VarValue string `json:"var_value,omitempty"`
	Message  string `json:"message,omitempty"`
}
