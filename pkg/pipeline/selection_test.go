package pipeline

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	s := NewSelection()

	s.Toggle("a")
	if !s.Has("a") || s.Len() != 1 {
		t.Fatal("toggle should add a missing id")
	}

	s.Toggle("a")
	if s.Has("a") || s.Len() != 0 {
		t.Fatal("toggle should remove a present id")
	}
}

// Select-all toggles between the full visible set and empty. A partial or
// stale selection is first replaced by the visible set, then cleared; only
// the empty and full states round-trip under a double apply.
func TestSelectAllToggle(t *testing.T) {
	visible := []string{"1", "2", "3"}
	full := []string{"1", "2", "3"}
	empty := []string{}

	tests := []struct {
		name        string
		prepare     func(s *Selection)
		afterFirst  []string
		afterSecond []string
	}{
		{"from empty", func(s *Selection) {}, full, empty},
		{"from partial", func(s *Selection) { s.Toggle("2") }, full, empty},
		{"from full", func(s *Selection) {
			for _, id := range visible {
				s.Toggle(id)
			}
		}, empty, full},
		{"with stale id", func(s *Selection) { s.Toggle("zz") }, full, empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection()
			tt.prepare(s)

			s.SelectAll(visible)
			if !reflect.DeepEqual(s.IDs(), tt.afterFirst) {
				t.Fatalf("first select-all: expected %v, got %v", tt.afterFirst, s.IDs())
			}

			s.SelectAll(visible)
			if !reflect.DeepEqual(s.IDs(), tt.afterSecond) {
				t.Fatalf("second select-all: expected %v, got %v", tt.afterSecond, s.IDs())
			}
		})
	}
}

// From the states select-all itself produces, applying it twice returns to
// the starting state.
func TestSelectAllDoubleApplyRoundTrip(t *testing.T) {
	visible := []string{"1", "2", "3"}

	s := NewSelection()

	// Empty → full → empty.
	before := s.IDs()
	s.SelectAll(visible)
	s.SelectAll(visible)
	if !reflect.DeepEqual(s.IDs(), before) {
		t.Fatalf("double select-all from empty must return to empty, got %v", s.IDs())
	}

	// Full → empty → full.
	s.SelectAll(visible)
	before = s.IDs()
	s.SelectAll(visible)
	s.SelectAll(visible)
	if !reflect.DeepEqual(s.IDs(), before) {
		t.Fatalf("double select-all from full must return to full, got %v", s.IDs())
	}
}

func TestSelectAllSemantics(t *testing.T) {
	visible := []string{"1", "2"}

	s := NewSelection()
	s.SelectAll(visible)
	if !reflect.DeepEqual(s.IDs(), []string{"1", "2"}) {
		t.Fatalf("select-all from empty should select the visible set, got %v", s.IDs())
	}

	s.SelectAll(visible)
	if s.Len() != 0 {
		t.Fatalf("select-all on a fully selected set should clear, got %v", s.IDs())
	}

	// A partial selection is replaced by the full visible set, never a
	// stale set from before filtering.
	s.Toggle("1")
	s.Toggle("obsolete")
	s.SelectAll(visible)
	if !reflect.DeepEqual(s.IDs(), []string{"1", "2"}) {
		t.Fatalf("select-all should replace with the current filtered set, got %v", s.IDs())
	}
}

func TestSelectionPrune(t *testing.T) {
	s := NewSelection()
	s.Toggle("1")
	s.Toggle("2")
	s.Toggle("3")

	s.Prune([]string{"2", "3", "4"})

	if !reflect.DeepEqual(s.IDs(), []string{"2", "3"}) {
		t.Fatalf("prune should drop ids hidden by the filter, got %v", s.IDs())
	}
}

func TestSelectionJSONRoundTrip(t *testing.T) {
	s := NewSelection()
	s.Toggle("b")
	s.Toggle("a")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["a","b"]` {
		t.Fatalf("selection should serialize as a sorted id array, got %s", data)
	}

	restored := NewSelection()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored.IDs(), s.IDs()) {
		t.Fatalf("round trip mismatch: %v vs %v", restored.IDs(), s.IDs())
	}
}
