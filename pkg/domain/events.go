package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFilter       EventType = "filter"
	EventPickerOpen   EventType = "picker_open"
	EventPickerClose  EventType = "picker_close"
	EventTeamModified EventType = "team_modified"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FilterEvent describes one Filter Engine evaluation.
type FilterEvent struct {
	EventBase
	Query        string        `json:"query,omitempty"`
	Level        int           `json:"level,omitempty"`
	Category     Category      `json:"category,omitempty"`
	Matches      int           `json:"matches"`
	VisibleRoots int           `json:"visible_roots"`
	Duration     time.Duration `json:"duration"`
}

// PickerOutcome tells how a picker session ended.
type PickerOutcome string

const (
	OutcomeConfirmed PickerOutcome = "confirmed"
	OutcomeCanceled  PickerOutcome = "canceled"
)

// PickerEvent represents a picker session opening or closing.
type PickerEvent struct {
	EventBase
	SessionID string        `json:"session_id"`
	TeamID    string        `json:"team_id"`
	Outcome   PickerOutcome `json:"outcome,omitempty"`
	Selected  int           `json:"selected"`
}

// TeamEvent represents a write to a team record.
type TeamEvent struct {
	EventBase
	TeamID  string `json:"team_id"`
	Deleted bool   `json:"deleted,omitempty"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnFilter      func(context.Context, *FilterEvent)
	OnPickerOpen  func(context.Context, *PickerEvent)
	OnPickerClose func(context.Context, *PickerEvent)
	OnTeamChange  func(context.Context, *TeamEvent)
}
