package memory

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Provider implements ports.DataProvider over tables held in memory.
// Safe for concurrent use.
type Provider struct {
	mu     sync.RWMutex
	tables map[string][]domain.Row
	intn   func(n int) int
}

// Option configures a Provider.
type Option func(*Provider)

// WithRand replaces the random source used by RandomRow.
// intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(p *Provider) {
		p.intn = intn
	}
}

// WithTable seeds a table.
func WithTable(name string, rows ...domain.Row) Option {
	return func(p *Provider) {
		p.tables[name] = cloneRows(rows)
	}
}

// New creates an empty provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		tables: make(map[string][]domain.Row),
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTable replaces the rows of a table.
func (p *Provider) SetTable(name string, rows []domain.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[name] = cloneRows(rows)
}

// Tables returns the names of the loaded tables.
func (p *Provider) Tables() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.tables))
	for name := range p.tables {
		names = append(names, name)
	}
	return names
}

// RandomRow picks a row uniformly. An empty table yields (nil, nil).
func (p *Provider) RandomRow(ctx context.Context, table string) (domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	rows, ok := p.tables[table]
	if !ok {
		return nil, domain.ErrTableNotFound
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[p.intn(len(rows))].Clone(), nil
}

// RowMatches reports whether some row's column equals value, ignoring case.
func (p *Provider) RowMatches(ctx context.Context, table, column, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	rows, ok := p.tables[table]
	if !ok {
		return false, domain.ErrTableNotFound
	}
	for _, row := range rows {
		if v, ok := row.Column(column); ok && strings.EqualFold(v, value) {
			return true, nil
		}
	}
	return false, nil
}

func cloneRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
