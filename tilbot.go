package tilbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/aretw0/tilbot/pkg/project"
	"github.com/aretw0/tilbot/pkg/runner"
)

// Version is set at build time with -ldflags "-X github.com/aretw0/tilbot.Version=...".
var Version = "dev"

// Session is one running conversation.
type Session = runtime.Session

// Outcome describes how one utterance was handled.
type Outcome = runtime.Outcome

// SessionOption configures a single session on top of the Engine options.
type SessionOption = runtime.Option

// WithSessionHooks adds hooks for one session only.
func WithSessionHooks(hooks domain.LifecycleHooks) SessionOption {
	return runtime.WithLifecycleHooks(hooks)
}

// Engine is the high-level entry point for the Tilbot library.
// It holds one validated project and starts any number of independent
// sessions against it.
type Engine struct {
	project  *domain.Project
	provider ports.DataProvider
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	settle   *time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProvider sets the External Data Provider shared by all sessions.
func WithProvider(p ports.DataProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithLifecycleHooks registers observability hooks for every session.
// Repeated options add to the hooks already registered.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithSettleDelay overrides the pause between an Auto block's emission and its advance.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.settle = &d
	}
}

// New loads the project once and validates it. Structural problems are
// reported here, before any session exists; lint warnings are logged.
func New(ctx context.Context, loader ports.ProjectLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("project loader is required")
	}
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	p, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if err := project.Validate(p); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	for _, w := range project.Lint(p) {
		e.logger.Warn("project lint", "where", w.Where, "warning", w.Message)
	}

	e.project = p
	return e, nil
}

// Load is New over a JSON or YAML project file.
func Load(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	return New(ctx, project.FileLoader{Path: path}, opts...)
}

// Project returns the loaded project. It must not be modified.
func (e *Engine) Project() *domain.Project {
	return e.project
}

// Start begins a session that delivers its messages to d.
func (e *Engine) Start(id string, d ports.Deliverer, opts ...SessionOption) (*Session, error) {
	base := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	if e.provider != nil {
		base = append(base, runtime.WithProvider(e.provider))
	}
	if e.settle != nil {
		base = append(base, runtime.WithSettleDelay(*e.settle))
	}
	return runtime.Start(id, e.project, d, append(base, opts...)...)
}

// RunLocal is the client-local shape: a single session driven by r until it
// ends, the input ends, or ctx is canceled.
func (e *Engine) RunLocal(ctx context.Context, id string, r *runner.Runner) error {
	s, err := e.Start(id, r, WithSessionHooks(r.Hooks()))
	if err != nil {
		return err
	}
	defer s.Close()
	return r.Run(ctx, s)
}
