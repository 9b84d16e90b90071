package pipeline

import (
	"encoding/json"
	"sort"
)

// Selection is the ephemeral multi-row selection set layered over a list
// view. It serializes as a sorted JSON array of ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids, sorted for deterministic output.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// SelectAll toggles between the full currently-filtered id set and empty:
// if every visible id is already selected (and nothing else is), it clears;
// otherwise it replaces the selection with exactly the visible set. A partial
// selection therefore goes full on the first apply and empty on the second.
func (s *Selection) SelectAll(visible []string) {
	if len(s.ids) == len(visible) {
		all := true
		for _, id := range visible {
			if !s.Has(id) {
				all = false
				break
			}
		}
		if all {
			s.Clear()
			return
		}
	}
	s.ids = make(map[string]struct{}, len(visible))
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// Prune drops selected ids that are no longer in the visible set, so rows
// hidden by a filter change stop counting toward bulk-action totals.
func (s *Selection) Prune(visible []string) {
	if len(s.ids) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// MarshalJSON encodes the selection as a sorted id array.
func (s *Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON id array.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}
