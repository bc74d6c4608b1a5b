package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
	_ "modernc.org/sqlite"
)

// Provider implements ports.DataProvider on a SQLite database.
// Every external table is a SQL table of the same name; all columns are read as text.
type Provider struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn.
func Open(dsn string) (*Provider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &Provider{db: db}, nil
}

// NewFromDB wraps an existing handle.
func NewFromDB(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// Close releases the database.
func (p *Provider) Close() error {
	return p.db.Close()
}

func (p *Provider) tableExists(ctx context.Context, table string) error {
	var one int
	err := p.db.QueryRowContext(ctx,
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up table %q: %w", table, err)
	}
	return nil
}

// hasColumn reports whether table has column. SQLite reads a double-quoted
// name that matches no column as a string literal, so RowMatches must not
// query an unknown column.
func (p *Provider) hasColumn(ctx context.Context, table, column string) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx,
		"SELECT 1 FROM pragma_table_info(?) WHERE name = ? COLLATE NOCASE", table, column).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up column %q: %w", column, err)
	}
	return true, nil
}

// RandomRow returns a random row of table, or (nil, nil) when it is empty.
func (p *Provider) RandomRow(ctx context.Context, table string) (domain.Row, error) {
	if err := p.tableExists(ctx, table); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, "SELECT * FROM "+quote(table)+" ORDER BY RANDOM() LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if !rows.Next() {
		return nil, rows.Err()
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	row := make(domain.Row, len(cols))
	for i, col := range cols {
		row[col] = values[i].String
	}
	return row, rows.Err()
}

// RowMatches reports whether some row's column equals value, ignoring ASCII case.
// An unknown column matches nothing.
func (p *Provider) RowMatches(ctx context.Context, table, column, value string) (bool, error) {
	if err := p.tableExists(ctx, table); err != nil {
		return false, err
	}
	if ok, err := p.hasColumn(ctx, table, column); !ok || err != nil {
		return false, err
	}

	query := "SELECT 1 FROM " + quote(table) + " WHERE " + quote(column) + " = ? COLLATE NOCASE LIMIT 1"
	var one int
	err := p.db.QueryRowContext(ctx, query, value).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query failed: %w", err)
	}
	return true, nil
}

// Import replaces table with rows. Columns are the union of the row keys.
func (p *Provider) Import(ctx context.Context, table string, rows []domain.Row) error {
	var cols []string
	for _, r := range rows {
		for c := range r {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	slices.Sort(cols)
	if len(cols) == 0 {
		cols = []string{"value"}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " TEXT"
		marks[i] = "?"
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+quote(table)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quote(table)+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]any, len(cols))
		for i, c := range cols {
			args[i] = r[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
