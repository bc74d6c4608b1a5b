package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Provider implements ports.DataProvider using Redis.
//
// Layout, relative to the prefix:
//
//	tables                   SET of table names
//	table:<t>                LIST of JSON encoded rows
//	columns:<t>              SET of column names of <t>
//	index:<t>:<column>       SET of lower-cased column values
type Provider struct {
	client *backend.Client
	prefix string
	intn   func(n int) int
}

type Option func(*Provider)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(p *Provider) {
		p.prefix = prefix
	}
}

// WithRand replaces the random source used by RandomRow.
func WithRand(intn func(n int) int) Option {
	return func(p *Provider) {
		p.intn = intn
	}
}

// New creates a new Redis provider with options.
func New(address, password string, db int, opts ...Option) *Provider {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis provider from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		prefix: "tilbot:data:",
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func (p *Provider) tablesKey() string { return p.prefix + "tables" }
func (p *Provider) tableKey(t string) string { return p.prefix + "table:" + t }
func (p *Provider) columnsKey(t string) string { return p.prefix + "columns:" + t }
func (p *Provider) indexKey(t, col string) string { return p.prefix + "index:" + t + ":" + col }

func (p *Provider) tableExists(ctx context.Context, table string) error {
	ok, err := p.client.SIsMember(ctx, p.tablesKey(), table).Result()
	if err != nil {
		return fmt.Errorf("redis error looking up table: %w", err)
	}
	if !ok {
		return domain.ErrTableNotFound
	}
	return nil
}

// RandomRow returns a random row of table, or (nil, nil) when it is empty.
func (p *Provider) RandomRow(ctx context.Context, table string) (domain.Row, error) {
	if err := p.tableExists(ctx, table); err != nil {
		return nil, err
	}

	n, err := p.client.LLen(ctx, p.tableKey(table)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error reading table: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	raw, err := p.client.LIndex(ctx, p.tableKey(table), int64(p.intn(int(n)))).Result()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis error reading row: %w", err)
	}

	var row domain.Row
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal row: %w", err)
	}
	return row, nil
}

// RowMatches reports whether some row's column equals value, ignoring case.
func (p *Provider) RowMatches(ctx context.Context, table, column, value string) (bool, error) {
	if err := p.tableExists(ctx, table); err != nil {
		return false, err
	}
	ok, err := p.client.SIsMember(ctx, p.indexKey(table, column), strings.ToLower(value)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error matching row: %w", err)
	}
	return ok, nil
}

// Import replaces table with rows in a single transaction.
func (p *Provider) Import(ctx context.Context, table string, rows []domain.Row) error {
	oldColumns, err := p.client.SMembers(ctx, p.columnsKey(table)).Result()
	if err != nil {
		return fmt.Errorf("redis error reading columns: %w", err)
	}

	encoded := make([]any, 0, len(rows))
	index := make(map[string][]any)
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		encoded = append(encoded, data)
		for col, v := range r {
			index[col] = append(index[col], strings.ToLower(v))
		}
	}

	_, err = p.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, p.tableKey(table), p.columnsKey(table))
		for _, col := range oldColumns {
			pipe.Del(ctx, p.indexKey(table, col))
		}
		if len(encoded) > 0 {
			pipe.RPush(ctx, p.tableKey(table), encoded...)
		}
		for col, values := range index {
			pipe.SAdd(ctx, p.columnsKey(table), col)
			pipe.SAdd(ctx, p.indexKey(table, col), values...)
		}
		pipe.SAdd(ctx, p.tablesKey(), table)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import table to redis: %w", err)
	}
	return nil
}
