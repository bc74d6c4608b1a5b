package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionClosed is returned by operations on a session that was torn down.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionFailed is returned by operations on a session that hit a fatal error.
	ErrSessionFailed = errors.New("session failed")

	// ErrSessionNotFound is returned when a session ID is unknown to a registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoProvider is returned when an external lookup is needed but no provider is configured.
	ErrNoProvider = errors.New("no data provider configured")

	// ErrTableNotFound is returned by providers for unknown tables.
	ErrTableNotFound = errors.New("table not found")
)

// GraphResolutionError reports an id or path segment that does not exist in the graph.
// It is fatal to the session that hit it.
type GraphResolutionError struct {
	Path []BlockID
	ID   BlockID
	// Segment is set when a path entry (rather than the final id) is missing.
	Segment bool
}

func (e *GraphResolutionError) Error() string {
	where := "root"
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, p := range e.Path {
			parts[i] = string(p)
		}
		where = strings.Join(parts, "/")
	}
	if e.Segment {
		return fmt.Sprintf("group %q not found under %s", e.ID, where)
	}
	return fmt.Sprintf("block %q not found in %s", e.ID, where)
}
