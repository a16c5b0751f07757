package picker

// SelectionSet is an insertion-ordered set of capability ids.
//
// Ids are not checked against any taxonomy; an id that does not resolve is
// kept and simply never rendered.
type SelectionSet struct {
	ids     []string
	members map[string]struct{}
}

// NewSelectionSet returns a set seeded with ids. Duplicates are collapsed.
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{}
	s.Replace(ids)
	return s
}

// Contains reports whether id is selected.
func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Add selects id. It reports whether the set changed.
func (s *SelectionSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	s.members[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove deselects id. It reports whether the set changed.
func (s *SelectionSet) Remove(id string) bool {
	if !s.Contains(id) {
		return false
	}
	delete(s.members, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips membership of id and returns the new state.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

// Replace discards the current selection and starts over from ids.
func (s *SelectionSet) Replace(ids []string) {
	s.ids = make([]string, 0, len(ids))
	s.members = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
}

// Snapshot returns the selected ids in insertion order. The slice is a copy.
func (s *SelectionSet) Snapshot() []string {
	return append(make([]string, 0, len(s.ids)), s.ids...)
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	return len(s.ids)
}
