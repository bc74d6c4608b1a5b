package runner

import (
	"context"

	"github.com/aretw0/tilbot/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents one bot message. It is called from the session goroutine.
	Output(ctx context.Context, msg domain.Message) error

	// Input reads the next utterance from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (failures, notices), distinct from
	// bot content.
	SystemOutput(ctx context.Context, msg string) error
}
