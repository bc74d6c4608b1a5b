package domain

import (
	"reflect"
	"slices"
)

// StateDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on debugging clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentBlockID *BlockID `json:"current_block_id,omitempty"`
	Status         *Status  `json:"status,omitempty"`

	// Path is sent whole whenever the nesting changed; null means unchanged
	// and an empty list means the session is back at the project root.
	Path []BlockID `json:"path"`

	// Variables contains only changed, added or deleted names.
	// For deletions, the name is present with a nil value.
	Variables map[string]any `json:"variables,omitempty"`

	Err *string `json:"error,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentBlockID != newState.CurrentBlockID {
		id := newState.CurrentBlockID
		diff.CurrentBlockID = &id
	}
	if oldState == nil || oldState.Status != newState.Status {
		st := newState.Status
		diff.Status = &st
	}
	if oldState == nil || !slices.Equal(oldState.Path, newState.Path) {
		diff.Path = append([]BlockID{}, newState.Path...)
	}
	if newState.Err != "" && (oldState == nil || oldState.Err != newState.Err) {
		msg := newState.Err
		diff.Err = &msg
	}

	diff.Variables = diffVariables(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old *State, new *State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Variables {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Variables {
		oldVal, exists := old.Variables[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Variables {
		if _, exists := new.Variables[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentBlockID == nil &&
		d.Status == nil &&
		d.Path == nil &&
		d.Err == nil &&
		len(d.Variables) == 0
}
