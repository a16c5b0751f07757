package domain

import "time"

// PickerState is the serialisable snapshot of an open capability picker.
// It lives only as long as the picker session and is never written onto a Team.
type PickerState struct {
	SessionID string    `json:"session_id"`
	TeamID    string    `json:"team_id"`
	Query     string    `json:"query,omitempty"`
	Level     int       `json:"level,omitempty"`
	Category  Category  `json:"category,omitempty"`
	Selected  []string  `json:"selected"`
	Expanded  []string  `json:"expanded"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Clone returns a deep copy of the state.
func (s *PickerState) Clone() *PickerState {
	if s == nil {
		return nil
	}
	c := *s
	c.Selected = append([]string(nil), s.Selected...)
	c.Expanded = append([]string(nil), s.Expanded...)
	return &c
}

// PickerRow is one visible line of the picker tree.
type PickerRow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Level       int      `json:"level"`
	Category    Category `json:"category"`
	Domain      string   `json:"domain,omitempty"`
	Description string   `json:"description,omitempty"`
	HasChildren bool     `json:"has_children"`
	Expanded    bool     `json:"expanded"`
	Selected    bool     `json:"selected"`
	Matched     bool     `json:"matched"`
}

// PickerView is what a presentation driver renders.
type PickerView struct {
	SessionID string      `json:"session_id"`
	TeamID    string      `json:"team_id"`
	Query     string      `json:"query,omitempty"`
	Level     int         `json:"level,omitempty"`
	Category  Category    `json:"category,omitempty"`
	Rows      []PickerRow `json:"rows"`
	Selected  []string    `json:"selected"`

	// NoResults is set when a filter is active and nothing matched.
	NoResults bool `json:"no_results"`
}

// PickerActionType enumerates the user events a driver forwards to a picker.
type PickerActionType string

const (
	ActionSetQuery     PickerActionType = "set_query"
	ActionSetLevel     PickerActionType = "set_level"
	ActionSetCategory  PickerActionType = "set_category"
	ActionToggleExpand PickerActionType = "toggle_expand"
	ActionToggleSelect PickerActionType = "toggle_select"
)

// PickerAction is a single user event.
type PickerAction struct {
	Type     PickerActionType `json:"type"`
	NodeID   string           `json:"node_id,omitempty"`
	Query    string           `json:"query,omitempty"`
	Level    int              `json:"level,omitempty"`
	Category Category         `json:"category,omitempty"`
}
