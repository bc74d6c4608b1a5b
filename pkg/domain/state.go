package domain

// Status is the micro-state of a session's state machine.
type Status string

const (
	// StatusAwaitingEmission means a block was selected and its delayed send has not fired.
	StatusAwaitingEmission Status = "awaiting_emission"
	// StatusAwaitingInput means the last message was delivered and the session waits for input.
	StatusAwaitingInput Status = "awaiting_input"
	// StatusTerminal means the graph is exhausted or the session failed.
	StatusTerminal Status = "terminal"
)

// State is a read-only snapshot of a session.
type State struct {
	SessionID      string         `json:"session_id"`
	CurrentBlockID BlockID        `json:"current_block_id"`
	Path           []BlockID      `json:"path"`
	Variables      map[string]any `json:"variables"`
	Status         Status         `json:"status"`

	// Err holds the failure that ended the session, if any.
	Err string `json:"error,omitempty"`
}

// Depth returns the group nesting depth.
func (s *State) Depth() int {
	return len(s.Path)
}
