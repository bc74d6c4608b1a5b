package runtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers RowMatches from a fixed table/column/value set.
type fakeProvider struct {
	mu      sync.Mutex
	values  map[string][]string // "table.column" -> values
	err     error
	queries []string
}

func (f *fakeProvider) RandomRow(ctx context.Context, table string) (domain.Row, error) {
	return nil, f.err
}

func (f *fakeProvider) RowMatches(ctx context.Context, table, column, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, value)
	if f.err != nil {
		return false, f.err
	}
	for _, v := range f.values[table+"."+column] {
		if strings.EqualFold(v, value) {
			return true, nil
		}
	}
	return false, nil
}

func newMatcher(p *fakeProvider) *Matcher {
	vars := NewVariables()
	l := &lookups{logger: logging.NewNop()}
	if p != nil {
		l.provider = p
	}
	return &Matcher{vars: vars, lookups: l}
}

func TestExpression(t *testing.T) {
	provider := &fakeProvider{values: map[string][]string{
		"fruits.name": {"apple", "pear"},
	}}
	m := newMatcher(provider)
	m.vars.Set("color", domain.Row{"name": "red|crimson", "empty": ""})
	m.vars.Set("plain", "not a row")

	tests := []struct {
		name      string
		label     string
		utterance string
		wantOK    bool
		wantCap   string
	}{
		{"plain contains", "Help", "I need HELP now", true, "I need HELP now"},
		{"plain miss", "help", "nothing here", false, ""},
		{"plain strips barcode", "1234", "barcode:1234", true, "barcode:1234"},
		{"plain empty label", "", "anything", true, "anything"},
		{"and both true", "need [and] help", "I need help", true, "I need help"},
		{"and one false", "need [and] pizza", "I need help", false, ""},
		{"and false first", "pizza [and] need", "I need help", false, ""},
		{"bound row", "[color.name]", "I like red things", true, "red"},
		{"bound row alternative", "[color.name]", "so crimson!", true, "crimson"},
		{"bound row substring of token", "[color.name]", "reddish", true, "reddish"},
		{"bound row is case sensitive", "[color.name]", "RED", false, ""},
		{"bound row miss", "[color.name]", "I like blue", false, ""},
		{"negated bound row", "[!color.name]", "I like blue", true, "I"},
		{"negated bound row all hit", "[!color.name]", "red crimson", false, ""},
		{"negated empty utterance", "[!color.name]", "   ", true, ""},
		{"positive empty utterance", "[color.name]", "", false, ""},
		{"empty column never hits", "[color.empty]", "x", false, ""},
		{"provider hit", "[fruits.name]", "an Apple? please", true, "Apple"},
		{"provider strips noise", "[fruits.name]", "barcode:pear!", true, "pear"},
		{"provider miss", "[fruits.name]", "a banana", false, ""},
		{"provider negated", "[!fruits.name]", "apple kiwi", true, "kiwi"},
		{"scalar variable uses provider", "[plain.name]", "pear", false, ""},
		{"compound tag and plain", "[color.name] [and] shirt", "red shirt", true, "red shirt"},
		{"compound captures last", "shirt [and] [color.name]", "red shirt", true, "red"},
		{"not a tag falls back to plain", "[menu]", "show [menu] please", true, "show [menu] please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Expression(context.Background(), tt.label, tt.utterance)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCap, got)
		})
	}
}

func TestExpression_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("down")}
	m := newMatcher(provider)

	_, ok := m.Expression(context.Background(), "[fruits.name]", "apple")
	assert.False(t, ok)

	// A failed query is not a "not found": negation does not turn it into a match.
	_, ok = m.Expression(context.Background(), "[!fruits.name]", "apple")
	assert.False(t, ok)

	noProvider := newMatcher(nil)
	_, ok = noProvider.Expression(context.Background(), "[!fruits.name]", "apple")
	assert.False(t, ok)
}

func TestExpression_ShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	m := newMatcher(provider)

	_, ok := m.Expression(context.Background(), "pizza [and] [fruits.name]", "apple")
	assert.False(t, ok)
	assert.Empty(t, provider.queries)
}

func TestMatch_MC(t *testing.T) {
	m := newMatcher(nil)
	block := &domain.Block{ID: "1", Type: domain.BlockMC, Connectors: []domain.Connector{
		{Label: "Ghost"},
		{Label: "Yes", Targets: []domain.BlockID{"2"}},
		{Label: "No", Targets: []domain.BlockID{"3"}},
		{Label: domain.ElseLabel, Targets: []domain.BlockID{"4"}},
	}}

	hit := m.Match(context.Background(), block, "Yes")
	require.NotNil(t, hit)
	assert.Equal(t, "Yes", hit.Connector.Label)
	assert.Empty(t, hit.Captured)

	assert.Nil(t, m.Match(context.Background(), block, "yes"))
	assert.Nil(t, m.Match(context.Background(), block, "Yes please"))
	assert.Nil(t, m.Match(context.Background(), block, "Maybe"), "MC never falls back to [else]")
	assert.Nil(t, m.Match(context.Background(), block, "Ghost"), "empty targets are never selected")
}

func TestMatch_Else(t *testing.T) {
	m := newMatcher(nil)

	t.Run("only else", func(t *testing.T) {
		block := &domain.Block{Type: domain.BlockText, Connectors: []domain.Connector{
			{Label: domain.ElseLabel, Targets: []domain.BlockID{"x"}},
		}}
		hit := m.Match(context.Background(), block, "whatever")
		require.NotNil(t, hit)
		assert.True(t, hit.Else)
		assert.Equal(t, "whatever", hit.Captured)
	})

	t.Run("else declared first loses to a match", func(t *testing.T) {
		block := &domain.Block{Type: domain.BlockList, Connectors: []domain.Connector{
			{Label: domain.ElseLabel, Targets: []domain.BlockID{"x"}},
			{Label: "pizza", Targets: []domain.BlockID{"p"}},
		}}
		hit := m.Match(context.Background(), block, "pizza please")
		require.NotNil(t, hit)
		assert.False(t, hit.Else)
		assert.Equal(t, domain.BlockID("p"), hit.Connector.Targets[0])
	})

	t.Run("first else wins", func(t *testing.T) {
		block := &domain.Block{Type: domain.BlockText, Connectors: []domain.Connector{
			{Label: domain.ElseLabel, Targets: []domain.BlockID{"a"}},
			{Label: domain.ElseLabel, Targets: []domain.BlockID{"b"}},
		}}
		hit := m.Match(context.Background(), block, "?")
		require.NotNil(t, hit)
		assert.Equal(t, domain.BlockID("a"), hit.Connector.Targets[0])
	})

	t.Run("no else stalls", func(t *testing.T) {
		block := &domain.Block{Type: domain.BlockText, Connectors: []domain.Connector{
			{Label: "pizza", Targets: []domain.BlockID{"p"}},
		}}
		assert.Nil(t, m.Match(context.Background(), block, "burger"))
	})

	t.Run("auto and autocomplete never match", func(t *testing.T) {
		for _, typ := range []domain.BlockType{domain.BlockAuto, domain.BlockAutoComplete} {
			block := &domain.Block{Type: typ, Connectors: []domain.Connector{
				{Label: "", Targets: []domain.BlockID{"p"}},
			}}
			assert.Nil(t, m.Match(context.Background(), block, "x"))
		}
	})
}

func TestMatchTriggers(t *testing.T) {
	m := newMatcher(nil)
	g := &domain.Graph{
		StartingBlockID: "1",
		Order:           []domain.BlockID{"t1", "grp", "t2"},
		Blocks: map[domain.BlockID]*domain.Block{
			"t1": {ID: "t1", Type: domain.BlockTrigger, Connectors: []domain.Connector{
				{Label: domain.ElseLabel, Targets: []domain.BlockID{"fallback"}},
				{Label: "menu", Targets: []domain.BlockID{"m1"}},
			}},
			"grp": {ID: "grp", Type: domain.BlockGroup, Body: &domain.Graph{
				StartingBlockID: "a",
				Order:           []domain.BlockID{"inner"},
				Blocks: map[domain.BlockID]*domain.Block{
					"inner": {ID: "inner", Type: domain.BlockTrigger, Connectors: []domain.Connector{
						{Label: "help", Targets: []domain.BlockID{"h"}},
					}},
				},
			}},
			"t2": {ID: "t2", Type: domain.BlockTrigger, Connectors: []domain.Connector{
				{Label: "help", Targets: []domain.BlockID{"h2"}},
			}},
		},
	}

	triggers := CollectTriggers(g)
	require.Len(t, triggers, 3)
	assert.Equal(t, domain.BlockID("inner"), triggers[1].Block.ID)
	assert.Equal(t, []domain.BlockID{"grp"}, triggers[1].Path)

	hit := m.MatchTriggers(context.Background(), triggers, "I need help")
	require.NotNil(t, hit)
	assert.Equal(t, domain.BlockID("inner"), hit.Block.ID)
	assert.Equal(t, []domain.BlockID{"grp"}, hit.Scope)
	assert.True(t, hit.Trigger)

	hit = m.MatchTriggers(context.Background(), triggers, "show the menu")
	require.NotNil(t, hit)
	assert.Equal(t, domain.BlockID("m1"), hit.Connector.Targets[0])

	hit = m.MatchTriggers(context.Background(), triggers, "gibberish")
	require.NotNil(t, hit)
	assert.True(t, hit.Else)
	assert.Empty(t, hit.Captured)
	assert.Equal(t, domain.BlockID("fallback"), hit.Connector.Targets[0])

	assert.Nil(t, m.MatchTriggers(context.Background(), triggers[1:], "gibberish"))
}
