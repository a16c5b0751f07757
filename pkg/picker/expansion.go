package picker

import "sort"

// ExpansionState tracks which nodes of the picker tree are expanded.
// Unknown ids are collapsed.
type ExpansionState struct {
	expanded map[string]bool
}

// NewExpansionState returns a state with every given level-1 id collapsed.
func NewExpansionState(levelOneIDs []string) *ExpansionState {
	e := &ExpansionState{}
	e.Initialize(levelOneIDs)
	return e
}

// Initialize resets the state: every given id is collapsed and all others are forgotten.
func (e *ExpansionState) Initialize(ids []string) {
	e.expanded = make(map[string]bool, len(ids))
	for _, id := range ids {
		e.expanded[id] = false
	}
}

// Toggle flips id and returns the new state. An unknown id becomes expanded.
func (e *ExpansionState) Toggle(id string) bool {
	if e.expanded == nil {
		e.expanded = make(map[string]bool)
	}
	e.expanded[id] = !e.expanded[id]
	return e.expanded[id]
}

// ForceExpand expands every given id. It never collapses anything.
func (e *ExpansionState) ForceExpand(ids []string) {
	if e.expanded == nil {
		e.expanded = make(map[string]bool, len(ids))
	}
	for _, id := range ids {
		e.expanded[id] = true
	}
}

// IsExpanded reports whether id is expanded.
func (e *ExpansionState) IsExpanded(id string) bool {
	return e.expanded[id]
}

// Expanded returns the expanded ids, sorted.
func (e *ExpansionState) Expanded() []string {
	out := make([]string, 0, len(e.expanded))
	for id, open := range e.expanded {
		if open {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
