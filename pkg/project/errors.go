package project

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a single structural problem in a project document.
type ValidationError struct {
	Where  string // slash separated location, e.g. "blocks/3/blocks/1"
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Where == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Where, e.Reason)
}

// AggregateError collects every problem found in one validation pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns the collected errors if err wraps an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
