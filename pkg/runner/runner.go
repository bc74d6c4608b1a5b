package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
)

// Session is the part of a running session the Runner drives.
type Session interface {
	Receive(ctx context.Context, utterance string) (runtime.Outcome, error)
	State() *domain.State
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner drives one local session from a terminal or pipe.
//
// A Runner is also the session's Deliverer and FailureReporter: pass it to
// the engine when starting the session, together with Hooks, then call Run.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Input/Output,
	// or a JSONHandler when Headless.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// MaxInputSize caps each utterance read by the default handlers.
	MaxInputSize int

	finished chan struct{}
	changed  chan struct{}
	once     sync.Once
	handler  sync.Once
}

// settlePoll bounds how long settle waits between state checks when the
// session was started without the Runner's hooks.
const settlePoll = 50 * time.Millisecond

var (
	_ ports.Deliverer       = (*Runner)(nil)
	_ ports.FailureReporter = (*Runner)(nil)
)

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Logger:   logging.NewNop(),
		finished: make(chan struct{}),
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	r.handler.Do(func() {
		if r.Handler != nil {
			return
		}
		if r.Headless {
			h := NewJSONHandler(r.Input, r.Output)
			h.Sanitizer = NewSanitizer(r.MaxInputSize)
			r.Handler = h
			return
		}
		opts := []TextHandlerOption{WithTextHandlerMaxInput(r.MaxInputSize)}
		if r.Renderer != nil {
			opts = append(opts, WithTextHandlerRenderer(r.Renderer))
		}
		r.Handler = NewTextHandler(r.Input, r.Output, opts...)
	})
	return r.Handler
}

// Deliver implements ports.Deliverer.
func (r *Runner) Deliver(ctx context.Context, sessionID string, msg domain.Message) error {
	return r.resolveHandler().Output(ctx, msg)
}

// ReportFailure implements ports.FailureReporter.
func (r *Runner) ReportFailure(ctx context.Context, sessionID string, err error) {
	if outErr := r.resolveHandler().SystemOutput(ctx, fmt.Sprintf("session failed: %v", err)); outErr != nil {
		r.Logger.Warn("failed to report session failure", "session_id", sessionID, "err", outErr)
	}
}

// Hooks lets the Runner notice when the session reaches a terminal state
// while it is waiting for input.
func (r *Runner) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChange: func(_ context.Context, e *domain.ChangeEvent) {
			if e.New != nil && e.New.Status == domain.StatusTerminal {
				r.once.Do(func() { close(r.finished) })
			}
			select {
			case r.changed <- struct{}{}:
			default:
			}
		},
	}
}

// Run feeds user input to s until the session is terminal, the input ends,
// the user types "exit" or "quit", or an interrupt arrives.
// It returns an error wrapping domain.ErrSessionFailed when the session failed.
func (r *Runner) Run(ctx context.Context, s Session) error {
	handler := r.resolveHandler()

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	runCtx, cancel := context.WithCancel(signals.Context())
	defer cancel()
	go func() {
		select {
		case <-r.finished:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		if st := s.State(); terminal(st) {
			return finish(st)
		}

		text, err := handler.Input(runCtx)
		if err != nil {
			signals.CheckRace()
			if st := s.State(); terminal(st) {
				return finish(st)
			}
			if signals.Context().Err() != nil {
				r.Logger.Debug("runner interrupted")
				return nil
			}
			if errors.Is(err, io.EOF) {
				// Show the replies to the last line before giving up the session.
				r.settle(runCtx, s)
				if st := s.State(); terminal(st) {
					return finish(st)
				}
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if text == "exit" || text == "quit" {
			return nil
		}

		out, err := s.Receive(runCtx, text)
		if err != nil {
			if st := s.State(); terminal(st) {
				return finish(st)
			}
			if runCtx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive error: %w", err)
		}
		if !out.Matched {
			r.Logger.Debug("utterance did not match", "utterance", text)
		}
	}
}

// settle waits until no emission is pending or ctx is done.
func (r *Runner) settle(ctx context.Context, s Session) {
	for {
		if st := s.State(); st == nil || st.Status != domain.StatusAwaitingEmission {
			return
		}
		select {
		case <-r.changed:
		case <-time.After(settlePoll):
		case <-ctx.Done():
			return
		}
	}
}

func terminal(st *domain.State) bool {
	return st != nil && st.Status == domain.StatusTerminal
}

func finish(st *domain.State) error {
	if st.Err != "" {
		return fmt.Errorf("%w: %s", domain.ErrSessionFailed, st.Err)
	}
	return nil
}
