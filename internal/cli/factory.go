package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/tilbot"
	"github.com/aretw0/tilbot/internal/config"
	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/pkg/adapters/file"
	"github.com/aretw0/tilbot/pkg/adapters/memory"
	"github.com/aretw0/tilbot/pkg/adapters/redis"
	"github.com/aretw0/tilbot/pkg/adapters/sqlite"
	"github.com/aretw0/tilbot/pkg/observability"
	"github.com/aretw0/tilbot/pkg/ports"
)

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(w, level, cfg.LogFormat), nil
}

// Provider is an External Data Provider owned by the process.
type Provider interface {
	ports.DataProvider
	Close() error
}

type nopCloser struct {
	ports.DataProvider
}

func (nopCloser) Close() error { return nil }

// OpenProvider opens the data provider selected by cfg.Data.Driver.
func OpenProvider(cfg config.Config, logger *slog.Logger) (Provider, error) {
	switch cfg.Data.Driver {
	case "memory":
		return nopCloser{memory.New()}, nil
	case "csv":
		p, err := file.Open(cfg.Data.Dir, file.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Debug("csv tables loaded", "dir", cfg.Data.Dir, "tables", p.Tables())
		return nopCloser{p}, nil
	case "sqlite":
		return sqlite.Open(cfg.Data.DSN)
	case "redis":
		return redis.New(cfg.Data.RedisAddr, cfg.Data.RedisPassword, cfg.Data.RedisDB,
			redis.WithPrefix(cfg.Data.RedisPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown data driver %q", cfg.Data.Driver)
	}
}

// NewEngine loads cfg.Project with the standard CLI conventions: the
// configured settle delay, and per-event logging when debugging.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, provider ports.DataProvider, opts ...tilbot.Option) (*tilbot.Engine, error) {
	engineOpts := []tilbot.Option{
		tilbot.WithLogger(logger),
		tilbot.WithSettleDelay(cfg.SettleDelay),
	}
	if provider != nil {
		engineOpts = append(engineOpts, tilbot.WithProvider(provider))
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		engineOpts = append(engineOpts, tilbot.WithLifecycleHooks(observability.LogHooks(logger)))
	}

	engine, err := tilbot.Load(ctx, cfg.Project, append(engineOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
