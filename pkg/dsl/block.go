package dsl

import "github.com/aretw0/tilbot/pkg/domain"

// BlockBuilder provides a fluent API for configuring a block.
type BlockBuilder struct {
	block domain.Block
	body  *Builder
}

func (n *BlockBuilder) typed(t domain.BlockType, content string) *BlockBuilder {
	n.block.Type = t
	n.block.Content = content
	return n
}

// Text asks an open question answered through label expressions.
func (n *BlockBuilder) Text(content string) *BlockBuilder {
	return n.typed(domain.BlockText, content)
}

// MC offers the connector labels as options.
func (n *BlockBuilder) MC(content string) *BlockBuilder {
	return n.typed(domain.BlockMC, content)
}

// List offers items, optionally accepting free text or numbers.
func (n *BlockBuilder) List(content string, items ...string) *BlockBuilder {
	n.block.Items = items
	return n.typed(domain.BlockList, content)
}

// Inputs toggles free text and number input on a List block.
func (n *BlockBuilder) Inputs(text, number bool) *BlockBuilder {
	n.block.TextInput = text
	n.block.NumberInput = number
	return n
}

// AutoComplete offers a fixed option set for completion.
func (n *BlockBuilder) AutoComplete(content string, options ...string) *BlockBuilder {
	n.block.Options = options
	return n.typed(domain.BlockAutoComplete, content)
}

// Auto is emitted and advanced without user input.
func (n *BlockBuilder) Auto(content string) *BlockBuilder {
	return n.typed(domain.BlockAuto, content)
}

// Trigger marks the block as a global fallback.
func (n *BlockBuilder) Trigger() *BlockBuilder {
	return n.typed(domain.BlockTrigger, "")
}

// Group turns the block into a group and returns the builder of its body.
func (n *BlockBuilder) Group(start string) *Builder {
	n.block.Type = domain.BlockGroup
	if n.body == nil {
		n.body = New(start)
	}
	n.body.start = start
	return n.body
}

// Delay sets the emission delay in seconds.
func (n *BlockBuilder) Delay(seconds float64) *BlockBuilder {
	n.block.Delay = seconds
	return n
}

// On adds a connector with a label expression.
func (n *BlockBuilder) On(label, target string) *BlockBuilder {
	n.block.Connectors = append(n.block.Connectors, domain.Connector{
		Label:   label,
		Targets: []domain.BlockID{domain.BlockID(target)},
	})
	return n
}

// Else adds the fallback connector.
func (n *BlockBuilder) Else(target string) *BlockBuilder {
	return n.On(domain.ElseLabel, target)
}

// Then adds an unlabeled connector, as used by Auto blocks.
func (n *BlockBuilder) Then(target string) *BlockBuilder {
	return n.On("", target)
}

// OnExit adds a group boundary connector continuing the exit of the inner block from.
func (n *BlockBuilder) OnExit(from, target string) *BlockBuilder {
	n.block.Connectors = append(n.block.Connectors, domain.Connector{
		Targets: []domain.BlockID{domain.BlockID(target)},
		FromID:  domain.BlockID(from),
	})
	return n
}

// Set attaches a variable event to the last connector.
func (n *BlockBuilder) Set(name, value string) *BlockBuilder {
	return n.event(domain.Event{Type: domain.EventVariable, VarName: name, VarValue: value})
}

// Random attaches an event binding name to a random row of table.
func (n *BlockBuilder) Random(name, table string) *BlockBuilder {
	return n.Set(name, "[random("+table+")]")
}

// Say attaches a message event to the last connector.
func (n *BlockBuilder) Say(message string) *BlockBuilder {
	return n.event(domain.Event{Type: domain.EventMessage, Message: message})
}

func (n *BlockBuilder) event(e domain.Event) *BlockBuilder {
	last := len(n.block.Connectors) - 1
	if last < 0 {
		return n
	}
	n.block.Connectors[last].Events = append(n.block.Connectors[last].Events, e)
	return n
}

// Build returns a copy of the underlying block without its group body.
func (n *BlockBuilder) Build() domain.Block {
	return n.block
}
