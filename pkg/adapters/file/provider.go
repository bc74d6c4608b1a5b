package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/pkg/adapters/memory"
	"github.com/aretw0/tilbot/pkg/domain"
)

// Provider serves tables read from a directory of CSV files.
// Each file is one table named after the file without its extension;
// the first record holds the column names.
type Provider struct {
	dir    string
	logger *slog.Logger
	opts   []memory.Option

	mu    sync.RWMutex
	inner *memory.Provider
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used while loading tables.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMemoryOptions forwards options to the in-memory table store.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(p *Provider) {
		p.opts = append(p.opts, opts...)
	}
}

// Open loads every CSV file of dir.
func Open(dir string, opts ...Option) (*Provider, error) {
	p := &Provider{dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the directory, replacing every table atomically.
func (p *Provider) Reload() error {
	paths, err := filepath.Glob(filepath.Join(p.dir, "*.csv"))
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	if _, err := os.Stat(p.dir); err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	inner := memory.New(p.opts...)
	for _, path := range paths {
		rows, err := ReadTable(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		inner.SetTable(name, rows)
		p.logger.Debug("table loaded", "table", name, "rows", len(rows))
	}

	p.mu.Lock()
	p.inner = inner
	p.mu.Unlock()
	return nil
}

func (p *Provider) current() *memory.Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inner
}

// RandomRow implements ports.DataProvider.
func (p *Provider) RandomRow(ctx context.Context, table string) (domain.Row, error) {
	return p.current().RandomRow(ctx, table)
}

// RowMatches implements ports.DataProvider.
func (p *Provider) RowMatches(ctx context.Context, table, column, value string) (bool, error) {
	return p.current().RowMatches(ctx, table, column, value)
}

// Tables returns the names of the loaded tables.
func (p *Provider) Tables() []string {
	return p.current().Tables()
}

// ReadTable parses one CSV file into rows keyed by the header record.
func ReadTable(path string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func parse(r io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		row := make(domain.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
}
