package runtime

import (
	"maps"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Variables is the per-session variable store.
// Values are plain strings or rows fetched from an external table.
type Variables struct {
	values map[string]any
}

// NewVariables creates an empty store.
func NewVariables() *Variables {
	return &Variables{values: make(map[string]any)}
}

// Set binds name to value, replacing any previous binding.
func (v *Variables) Set(name string, value any) {
	v.values[name] = value
}

// Get returns the value bound to name.
func (v *Variables) Get(name string) (any, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Row returns the value bound to name if it is a row.
func (v *Variables) Row(name string) (domain.Row, bool) {
	val, ok := v.values[name]
	if !ok {
		return nil, false
	}
	row, ok := val.(domain.Row)
	return row, ok
}

// Snapshot returns an independent copy of every binding.
func (v *Variables) Snapshot() map[string]any {
	out := maps.Clone(v.values)
	for k, val := range out {
		if row, ok := val.(domain.Row); ok {
			out[k] = row.Clone()
		}
	}
	return out
}
