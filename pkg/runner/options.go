package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless switches the default handler to JSON lines.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithIO sets the streams used by the default handler.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithMaxInputSize caps each utterance read by the default handlers.
// Non-positive values keep DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) {
		r.MaxInputSize = n
	}
}
