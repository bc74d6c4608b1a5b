package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	awaiting := StatusAwaitingInput
	terminal := StatusTerminal

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "1",
				Status:         StatusAwaitingInput,
				Variables:      map[string]any{"a": "1"},
			},
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				CurrentBlockID: ptrTo(BlockID("1")),
				Status:         &awaiting,
				Path:           []BlockID{},
				Variables:      map[string]any{"a": "1"},
			},
		},
		{
			name: "No Changes",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "1",
				Status:         StatusAwaitingInput,
				Variables:      map[string]any{"a": "1"},
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "1",
				Status:         StatusAwaitingInput,
				Variables:      map[string]any{"a": "1"},
			},
			wantDiff: nil,
		},
		{
			name: "Status Change",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "9",
				Status:         StatusAwaitingInput,
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "9",
				Status:         StatusTerminal,
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Status:    &terminal,
			},
		},
		{
			name: "Group Entered",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "g",
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "1",
				Path:           []BlockID{"g"},
			},
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				CurrentBlockID: ptrTo(BlockID("1")),
				Path:           []BlockID{"g"},
			},
		},
		{
			name: "Variables Added & Modified",
			old: &State{
				Variables: map[string]any{"a": "1", "b": "old"},
			},
			new: &State{
				Variables: map[string]any{"a": "1", "b": "new", "c": Row{"col": "red"}},
			},
			wantDiff: &StateDiff{
				Variables: map[string]any{"b": "new", "c": Row{"col": "red"}},
			},
		},
		{
			name: "Variable Deletion",
			old: &State{
				Variables: map[string]any{"a": "1", "b": "2"},
			},
			new: &State{
				Variables: map[string]any{"a": "1"},
			},
			wantDiff: &StateDiff{
				Variables: map[string]any{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Variables, tt.wantDiff.Variables) {
				t.Errorf("Diff().Variables = %v, want %v", got.Variables, tt.wantDiff.Variables)
			}
			if !reflect.DeepEqual(got.Path, tt.wantDiff.Path) {
				t.Errorf("Diff().Path = %#v, want %#v", got.Path, tt.wantDiff.Path)
			}
			if !equalPtr(got.CurrentBlockID, tt.wantDiff.CurrentBlockID) {
				t.Errorf("Diff().CurrentBlockID = %v, want %v", got.CurrentBlockID, tt.wantDiff.CurrentBlockID)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Path Is Null", func(t *testing.T) {
		s1 := &State{CurrentBlockID: "1", Variables: map[string]any{"a": "1"}}
		s2 := &State{CurrentBlockID: "2", Variables: map[string]any{"a": "1"}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"path":null`) {
			t.Errorf("JSON should contain null path, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"variables"`) {
			t.Errorf("JSON should not contain 'variables' when unchanged, got: %s", string(bytes))
		}
	})

	t.Run("Back At Root Is Empty List", func(t *testing.T) {
		s1 := &State{CurrentBlockID: "1", Path: []BlockID{"g"}}
		s2 := &State{CurrentBlockID: "3"}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"path":[]`) {
			t.Errorf("JSON should contain empty path, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &State{Variables: map[string]any{"a": "1", "b": "2"}}
		s2 := &State{Variables: map[string]any{"a": "1"}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})
}

func ptrTo[T any](v T) *T {
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
