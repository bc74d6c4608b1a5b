package project

import (
	"errors"
	"testing"

	"github.com/aretw0/tilbot/pkg/domain"
)

func mustParse(t *testing.T, doc string) *domain.Project {
	t.Helper()
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr int
	}{
		{
			name: "valid",
			doc:  `{"starting_block_id": 1, "blocks": {"1": {"type": "Text"}}}`,
		},
		{
			name:    "missing start",
			doc:     `{"blocks": {"1": {"type": "Text"}}}`,
			wantErr: 1,
		},
		{
			name:    "start not found",
			doc:     `{"starting_block_id": 9, "blocks": {"1": {"type": "Text"}}}`,
			wantErr: 1,
		},
		{
			name:    "start is trigger",
			doc:     `{"starting_block_id": 1, "blocks": {"1": {"type": "Trigger"}}}`,
			wantErr: 1,
		},
		{
			name:    "unknown type",
			doc:     `{"starting_block_id": 1, "blocks": {"1": {"type": "Text"}, "2": {"type": "text"}}}`,
			wantErr: 1,
		},
		{
			name:    "reserved id",
			doc:     `{"starting_block_id": 1, "blocks": {"1": {"type": "Text"}, "-1": {"type": "Text"}}}`,
			wantErr: 1,
		},
		{
			name:    "empty group",
			doc:     `{"starting_block_id": 1, "blocks": {"1": {"type": "Group", "starting_block_id": 1}}}`,
			wantErr: 1,
		},
		{
			name:    "group start missing",
			doc:     `{"starting_block_id": 1, "blocks": {"1": {"type": "Group", "blocks": {"a": {"type": "Text"}}}}}`,
			wantErr: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mustParse(t, tt.doc))
			if tt.wantErr == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var aggr *AggregateError
			if !errors.As(err, &aggr) {
				t.Fatalf("error should be *AggregateError, got %T", err)
			}
			if len(aggr.Errors) != tt.wantErr {
				t.Errorf("Validate() = %d errors, want %d: %v", len(aggr.Errors), tt.wantErr, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("errors.As(*ValidationError) failed for %v", err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestAggregateError_Message(t *testing.T) {
	one := &AggregateError{Errors: []error{&ValidationError{Where: "blocks/1", Reason: "bad"}}}
	if got := one.Error(); got != "blocks/1: bad" {
		t.Errorf("Error() = %q", got)
	}

	two := &AggregateError{Errors: []error{
		&ValidationError{Reason: "a"},
		&ValidationError{Reason: "b"},
	}}
	want := "2 validation errors:\n  1. a\n  2. b\n"
	if got := two.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
