package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/tilbot/internal/config"
	"github.com/aretw0/tilbot/internal/presentation/tui"
	"github.com/aretw0/tilbot/pkg/runner"
	"github.com/google/uuid"
)

// RunOptions configures one local session.
type RunOptions struct {
	Config config.Config
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer

	// JSON switches to newline-delimited JSON input and output.
	JSON bool
	// Interactive enables the banner and Markdown rendering.
	Interactive bool
	// Width is the terminal width used by the Markdown renderer.
	Width     int
	SessionID string
}

// RunSession runs one session against the configured project until it ends,
// the input ends or ctx is canceled.
func RunSession(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	cfg := opts.Config

	provider, err := OpenProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	engine, err := NewEngine(ctx, cfg, logger, provider)
	if err != nil {
		return err
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithIO(opts.In, opts.Out),
		runner.WithHeadless(opts.JSON),
		runner.WithMaxInputSize(cfg.MaxInputSize),
	}
	if opts.Interactive && !opts.JSON {
		tui.PrintBanner(opts.Out)
		runnerOpts = append(runnerOpts, runner.WithRenderer(tui.NewRenderer(opts.Width)))
	}

	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	logger.Debug("session starting", "session_id", id, "project", cfg.Project)
	return engine.RunLocal(ctx, id, runner.NewRunner(runnerOpts...))
}
