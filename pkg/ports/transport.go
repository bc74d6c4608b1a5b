package ports

import (
	"context"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Deliverer is the outbound half of a transport: one call per emitted block.
type Deliverer interface {
	Deliver(ctx context.Context, sessionID string, msg domain.Message) error
}

// DelivererFunc adapts a plain function to a Deliverer.
type DelivererFunc func(ctx context.Context, sessionID string, msg domain.Message) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, sessionID string, msg domain.Message) error {
	return f(ctx, sessionID, msg)
}

// FailureReporter can be implemented by a Deliverer that wants to be told when a
// session stops because of a fatal error (e.g. a graph resolution failure).
type FailureReporter interface {
	ReportFailure(ctx context.Context, sessionID string, err error)
}
