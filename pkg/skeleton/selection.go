package skeleton

import "sort"

// SelectionSet is the set of selected node or edge ids owned by an editing
// session. The zero value is an empty set ready to use.
type SelectionSet struct {
	ids map[string]struct{}
}

// NewSelectionSet creates a set holding ids
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id is selected
func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add selects id
func (s *SelectionSet) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Remove deselects id
func (s *SelectionSet) Remove(id string) {
	delete(s.ids, id)
}

// Toggle flips the selection of id and returns whether it is now selected
func (s *SelectionSet) Toggle(id string) bool {
	if s.Contains(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Replace makes ids the only selected ids
func (s *SelectionSet) Replace(ids ...string) {
	s.ids = nil
	for _, id := range ids {
		s.Add(id)
	}
}

// Clear deselects everything
func (s *SelectionSet) Clear() {
	s.ids = nil
}

// Len returns the number of selected ids
func (s *SelectionSet) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in sorted order
func (s *SelectionSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EdgeEvent is a pointer interaction with a rendered edge
type EdgeEvent int

const (
	// EdgeClick is a primary click on the edge
	EdgeClick EdgeEvent = iota
	// EdgeClickOutside is a primary click anywhere but the edge
	EdgeClickOutside
	// EdgeContextMenu is a secondary click on the edge
	EdgeContextMenu
)

// EdgeState is the selection state of one edge
type EdgeState int

const (
	EdgeUnselected EdgeState = iota
	EdgeSelected
)

// NextEdgeState applies event to state. onKeypoint tells whether an outside
// click landed on a keypoint, which keeps the edge selected. openMenu is true
// when the context menu should be shown; it never changes the selection.
func NextEdgeState(state EdgeState, event EdgeEvent, onKeypoint bool) (next EdgeState, openMenu bool) {
	switch event {
	case EdgeClick:
		if state == EdgeSelected {
			return EdgeUnselected, false
		}
		return EdgeSelected, false
	case EdgeClickOutside:
		if state == EdgeSelected && !onKeypoint {
			return EdgeUnselected, false
		}
		return state, false
	case EdgeContextMenu:
		return state, state == EdgeSelected
	}
	return state, false
}

// HandleEdgeEvent applies event to the edge's entry in the selection set
// and reports whether the context menu should open.
func HandleEdgeEvent(selection *SelectionSet, edgeID string, event EdgeEvent, onKeypoint bool) bool {
	state := EdgeUnselected
	if selection.Contains(edgeID) {
		state = EdgeSelected
	}

	next, openMenu := NextEdgeState(state, event, onKeypoint)
	if next == EdgeSelected {
		selection.Add(edgeID)
	} else {
		selection.Remove(edgeID)
	}
	return openMenu
}
