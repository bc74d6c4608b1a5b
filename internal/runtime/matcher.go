package runtime

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
)

// tagPattern finds the first bracketed token of a label or template.
var tagPattern = regexp.MustCompile(`\[([^\]]+)\]`)

const barcodePrefix = "barcode:"

// Match is a connector selected by an utterance.
type Match struct {
	Block     *domain.Block
	Connector *domain.Connector
	Captured  string
	Else      bool

	// Scope is the group path owning Block. Only set for trigger matches.
	Scope   []domain.BlockID
	Trigger bool
}

// Trigger is a Trigger block together with the group path that owns it.
type Trigger struct {
	Path  []domain.BlockID
	Block *domain.Block
}

// CollectTriggers lists every Trigger block of g in pre-order: a group's
// nested triggers come right after the group's own position.
func CollectTriggers(g *domain.Graph) []Trigger {
	var out []Trigger
	collectTriggers(g, nil, &out)
	return out
}

func collectTriggers(g *domain.Graph, path []domain.BlockID, out *[]Trigger) {
	g.Each(func(b *domain.Block) bool {
		if b.Type == domain.BlockTrigger {
			*out = append(*out, Trigger{Path: slices.Clone(path), Block: b})
		}
		if b.IsGroup() && b.Body != nil {
			collectTriggers(b.Body, append(slices.Clone(path), b.ID), out)
		}
		return true
	})
}

// Matcher evaluates utterances against connector labels.
type Matcher struct {
	vars    *Variables
	lookups *lookups
}

// Match selects the connector of block satisfied by utterance, or nil.
//   - MC: exact, case-sensitive equality with the label.
//   - Text, List, Trigger: label expressions, then the first [else].
//   - Any other type never matches.
//
// Connectors without a target are never selected.
func (m *Matcher) Match(ctx context.Context, block *domain.Block, utterance string) *Match {
	switch block.Type {
	case domain.BlockMC:
		for i := range block.Connectors {
			c := &block.Connectors[i]
			if _, ok := c.Target(); ok && c.Label == utterance {
				return &Match{Block: block, Connector: c}
			}
		}
		return nil

	case domain.BlockText, domain.BlockList, domain.BlockTrigger:
		if hit := m.labeled(ctx, block, utterance); hit != nil {
			return hit
		}
		if c := elseConnector(block); c != nil {
			return &Match{Block: block, Connector: c, Captured: utterance, Else: true}
		}
	}
	return nil
}

// MatchTriggers scans the triggers in order; the first full match wins.
// A trigger [else] is taken only if no trigger connector matched anywhere.
func (m *Matcher) MatchTriggers(ctx context.Context, triggers []Trigger, utterance string) *Match {
	var fallback *Match
	for _, t := range triggers {
		if hit := m.labeled(ctx, t.Block, utterance); hit != nil {
			hit.Scope = t.Path
			hit.Trigger = true
			return hit
		}
		if fallback == nil {
			if c := elseConnector(t.Block); c != nil {
				fallback = &Match{Block: t.Block, Connector: c, Else: true, Scope: t.Path, Trigger: true}
			}
		}
	}
	return fallback
}

func (m *Matcher) labeled(ctx context.Context, block *domain.Block, utterance string) *Match {
	for i := range block.Connectors {
		c := &block.Connectors[i]
		if c.IsElse() {
			continue
		}
		if _, ok := c.Target(); !ok {
			continue
		}
		if captured, ok := m.Expression(ctx, c.Label, utterance); ok {
			return &Match{Block: block, Connector: c, Captured: captured}
		}
	}
	return nil
}

func elseConnector(block *domain.Block) *domain.Connector {
	for i := range block.Connectors {
		c := &block.Connectors[i]
		if c.IsElse() {
			if _, ok := c.Target(); ok {
				return c
			}
			return nil
		}
	}
	return nil
}

// Expression evaluates a possibly compound label. Every " [and] " segment
// must match; evaluation stops at the first failing segment.
// The captured value is the capture of the last segment.
func (m *Matcher) Expression(ctx context.Context, label, utterance string) (string, bool) {
	var captured string
	for _, seg := range strings.Split(label, domain.AndSeparator) {
		c, ok := m.segment(ctx, seg, utterance)
		if !ok {
			return "", false
		}
		captured = c
	}
	return captured, true
}

func (m *Matcher) segment(ctx context.Context, seg, utterance string) (string, bool) {
	table, column, negate, ok := parseTag(seg)
	if !ok {
		plain := strings.ToLower(strings.Replace(utterance, barcodePrefix, "", 1))
		if strings.Contains(plain, strings.ToLower(seg)) {
			return utterance, true
		}
		return "", false
	}

	tokens := candidateTokens(utterance)
	if len(tokens) == 0 {
		return "", negate
	}

	if row, bound := m.vars.Row(table); bound {
		value, _ := row.Column(column)
		alternatives := splitAlternatives(value)
		for _, tok := range tokens {
			if containsAny(tok, alternatives) != negate {
				return tok, true
			}
		}
		return "", false
	}

	for _, tok := range tokens {
		found, err := m.lookups.rowMatches(ctx, table, column, tok)
		if err != nil {
			return "", false
		}
		if found != negate {
			return tok, true
		}
	}
	return "", false
}

// parseTag recognizes a bracketed [table.column] or [!table.column] segment.
func parseTag(seg string) (table, column string, negate, ok bool) {
	sub := tagPattern.FindStringSubmatch(seg)
	if sub == nil {
		return "", "", false, false
	}
	parts := strings.Split(sub[1], ".")
	if len(parts) != 2 {
		return "", "", false, false
	}
	table, column = parts[0], parts[1]
	if strings.HasPrefix(table, "!") {
		negate = true
		table = table[1:]
	}
	return table, column, negate, true
}

// candidateTokens splits an utterance on whitespace and strips scanner and
// punctuation noise from every token.
func candidateTokens(utterance string) []string {
	fields := strings.Fields(utterance)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimRight(strings.TrimPrefix(f, barcodePrefix), "?!")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func splitAlternatives(value string) []string {
	var out []string
	for _, alt := range strings.Split(value, "|") {
		if alt != "" {
			out = append(out, alt)
		}
	}
	return out
}

func containsAny(tok string, alternatives []string) bool {
	for _, alt := range alternatives {
		if strings.Contains(tok, alt) {
			return true
		}
	}
	return false
}
