package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEmit    EventType = "emit"
	EventMatch   EventType = "match"
	EventStall   EventType = "stall"
	EventLookup  EventType = "lookup"
	EventFailure EventType = "failure"
	EventChange  EventType = "state_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// EmitEvent is raised after a block's message was handed to the transport.
type EmitEvent struct {
	EventBase
	BlockID BlockID   `json:"block_id"`
	Path    []BlockID `json:"path"`
	Message Message   `json:"message"`
}

// MatchEvent is raised when an utterance selected a connector.
type MatchEvent struct {
	EventBase
	BlockID  BlockID `json:"block_id"`
	Label    string  `json:"label"`
	Target   BlockID `json:"target"`
	Captured string  `json:"captured,omitempty"`
	Trigger  bool    `json:"trigger,omitempty"`
	Else     bool    `json:"else,omitempty"`
}

// StallEvent is raised when an utterance produced no transition.
type StallEvent struct {
	EventBase
	BlockID   BlockID `json:"block_id"`
	Utterance string  `json:"utterance"`
}

// LookupEvent is raised for every External Data Provider query.
type LookupEvent struct {
	EventBase
	Kind   string `json:"kind"` // "random_row" or "row_matches"
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
	Found  bool   `json:"found"`
	Err    error  `json:"-"`
}

// FailureEvent is raised when a session ends because of a fatal error.
type FailureEvent struct {
	EventBase
	Err error `json:"-"`
}

// ChangeEvent carries the snapshots around a state change.
type ChangeEvent struct {
	EventBase
	Old *State `json:"old"`
	New *State `json:"new"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the session's own goroutine and must not block.
type LifecycleHooks struct {
	OnEmit    func(context.Context, *EmitEvent)
	OnMatch   func(context.Context, *MatchEvent)
	OnStall   func(context.Context, *StallEvent)
	OnLookup  func(context.Context, *LookupEvent)
	OnFailure func(context.Context, *FailureEvent)
	OnChange  func(context.Context, *ChangeEvent)
}

// MergeHooks fans every callback out to all non-nil hooks in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		out.OnEmit = chain(out.OnEmit, h.OnEmit)
		out.OnMatch = chain(out.OnMatch, h.OnMatch)
		out.OnStall = chain(out.OnStall, h.OnStall)
		out.OnLookup = chain(out.OnLookup, h.OnLookup)
		out.OnFailure = chain(out.OnFailure, h.OnFailure)
		out.OnChange = chain(out.OnChange, h.OnChange)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
