package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/tilbot/internal/config"
	"github.com/aretw0/tilbot/pkg/adapters/file"
	"github.com/aretw0/tilbot/pkg/adapters/redis"
	"github.com/aretw0/tilbot/pkg/adapters/sqlite"
	"github.com/aretw0/tilbot/pkg/domain"
)

type importer interface {
	Import(ctx context.Context, table string, rows []domain.Row) error
	Close() error
}

// ImportCSV copies a CSV file into the configured sqlite or redis store,
// replacing the table of the same name. An empty table defaults to the file
// name without its extension. It returns the number of rows written.
func ImportCSV(ctx context.Context, cfg config.Config, path, table string) (int, error) {
	if table == "" {
		table = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	rows, err := file.ReadTable(path)
	if err != nil {
		return 0, err
	}

	var dst importer
	switch cfg.Data.Driver {
	case "sqlite":
		p, err := sqlite.Open(cfg.Data.DSN)
		if err != nil {
			return 0, err
		}
		dst = p
	case "redis":
		dst = redis.New(cfg.Data.RedisAddr, cfg.Data.RedisPassword, cfg.Data.RedisDB,
			redis.WithPrefix(cfg.Data.RedisPrefix))
	default:
		return 0, fmt.Errorf("import needs the sqlite or redis driver, got %q", cfg.Data.Driver)
	}
	defer dst.Close()

	if err := dst.Import(ctx, table, rows); err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", table, err)
	}
	return len(rows), nil
}
