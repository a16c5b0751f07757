package domain

// PickerDiff represents the changes between two picker states.
// It is designed to be serialized to JSON for partial updates on the client.
type PickerDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Query    *string   `json:"query,omitempty"`
	Level    *int      `json:"level,omitempty"`
	Category *Category `json:"category,omitempty"`

	Selection *SetDelta `json:"selection,omitempty"`
	Expansion *SetDelta `json:"expansion,omitempty"`
}

// SetDelta lists the IDs that entered and left a set.
type SetDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// DiffPicker calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func DiffPicker(oldState, newState *PickerState) *PickerDiff {
	if newState == nil {
		return nil
	}

	diff := &PickerDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Query != newState.Query {
		diff.Query = &newState.Query
	}
	if oldState == nil || oldState.Level != newState.Level {
		diff.Level = &newState.Level
	}
	if oldState == nil || oldState.Category != newState.Category {
		diff.Category = &newState.Category
	}

	var oldSelected, oldExpanded []string
	if oldState != nil {
		oldSelected = oldState.Selected
		oldExpanded = oldState.Expanded
	}
	diff.Selection = diffSet(oldSelected, newState.Selected)
	diff.Expansion = diffSet(oldExpanded, newState.Expanded)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffSet keeps the order of the inputs: additions in new order, removals in old order.
func diffSet(old, new []string) *SetDelta {
	oldSet := make(map[string]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, id := range new {
		newSet[id] = struct{}{}
	}

	delta := &SetDelta{}
	for _, id := range new {
		if _, ok := oldSet[id]; !ok {
			delta.Added = append(delta.Added, id)
		}
	}
	for _, id := range old {
		if _, ok := newSet[id]; !ok {
			delta.Removed = append(delta.Removed, id)
		}
	}

	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *PickerDiff) IsEmpty() bool {
	return d.Query == nil &&
		d.Level == nil &&
		d.Category == nil &&
		d.Selection == nil &&
		d.Expansion == nil
}
