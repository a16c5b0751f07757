package picker

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/google/uuid"
)

// ErrUnknownAction is returned by Session.Apply for an unsupported action type.
var ErrUnknownAction = errors.New("unknown picker action")

// ErrInvalidAction is returned for an action with missing or bad arguments.
var ErrInvalidAction = errors.New("invalid picker action")

// Session is one open capability picker.
type Session struct {
	id       string
	teamID   string
	openedAt time.Time

	idx    *hierarchy.Index
	policy hierarchy.Policy
	query  hierarchy.Query
	result hierarchy.Result

	selection *SelectionSet
	expansion *ExpansionState
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. By default a random UUID is used.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithPolicy selects how a text query and a level filter combine.
func WithPolicy(p hierarchy.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithClock overrides the opening timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.openedAt = now()
	}
}

// Open starts a picker for teamID over idx, seeded with the team's current selection.
func Open(idx *hierarchy.Index, teamID string, selected []string, opts ...Option) *Session {
	s := &Session{
		teamID:   teamID,
		openedAt: time.Now().UTC(),
		idx:      idx,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}

	s.selection = NewSelectionSet(selected...)
	s.expansion = NewExpansionState(rootIDs(idx.Forest()))
	s.result = hierarchy.Apply(idx, s.query, s.policy)
	return s
}

// Restore rebuilds a session from a persisted state. The filter is re-run but
// nothing is force-expanded, so collapses made after the last search survive.
func Restore(idx *hierarchy.Index, st *domain.PickerState, opts ...Option) *Session {
	s := &Session{
		id:       st.SessionID,
		teamID:   st.TeamID,
		openedAt: st.OpenedAt,
		idx:      idx,
		query:    hierarchy.Query{Text: st.Query, Level: st.Level, Category: st.Category},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.selection = NewSelectionSet(st.Selected...)
	s.expansion = NewExpansionState(rootIDs(idx.Forest()))
	s.expansion.ForceExpand(st.Expanded)
	s.result = hierarchy.Apply(idx, s.query, s.policy)
	return s
}

func rootIDs(forest []*domain.CapabilityNode) []string {
	ids := make([]string, 0, len(forest))
	for _, n := range forest {
		if n != nil {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// TeamID returns the team the picker edits.
func (s *Session) TeamID() string { return s.teamID }

// Query returns the active filter.
func (s *Session) Query() hierarchy.Query { return s.query }

// Result returns the result of the active filter.
func (s *Session) Result() hierarchy.Result { return s.result }

// Selection exposes the selection set.
func (s *Session) Selection() *SelectionSet { return s.selection }

// Expansion exposes the expansion state.
func (s *Session) Expansion() *ExpansionState { return s.expansion }

// SetQuery changes the text filter and force-expands the path to every match.
func (s *Session) SetQuery(text string) {
	s.query.Text = text
	s.refilter()
}

// SetLevel changes the level filter. Values outside 1..MaxLevel disable it.
func (s *Session) SetLevel(level int) {
	if level < 0 || level > domain.MaxLevel {
		level = 0
	}
	s.query.Level = level
	s.refilter()
}

// SetCategory switches the tab. The empty category shows every tab.
func (s *Session) SetCategory(c domain.Category) error {
	if c != "" && !c.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidAction, c)
	}
	s.query.Category = c
	s.refilter()
	return nil
}

// ToggleExpand flips a node open or closed and returns the new state.
func (s *Session) ToggleExpand(id string) bool {
	return s.expansion.Toggle(id)
}

// ToggleSelect flips a node in or out of the selection and returns the new state.
func (s *Session) ToggleSelect(id string) bool {
	return s.selection.Toggle(id)
}

// Apply dispatches a driver event.
func (s *Session) Apply(a domain.PickerAction) error {
	switch a.Type {
	case domain.ActionSetQuery:
		s.SetQuery(a.Query)
	case domain.ActionSetLevel:
		s.SetLevel(a.Level)
	case domain.ActionSetCategory:
		return s.SetCategory(a.Category)
	case domain.ActionToggleExpand:
		if a.NodeID == "" {
			return fmt.Errorf("%w: %s requires node_id", ErrInvalidAction, a.Type)
		}
		s.ToggleExpand(a.NodeID)
	case domain.ActionToggleSelect:
		if a.NodeID == "" {
			return fmt.Errorf("%w: %s requires node_id", ErrInvalidAction, a.Type)
		}
		s.ToggleSelect(a.NodeID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return nil
}

func (s *Session) refilter() {
	s.result = hierarchy.Apply(s.idx, s.query, s.policy)
	s.expansion.ForceExpand(s.result.Expand.IDs())
}

// View returns the rows a driver should render: the visible roots and every
// descendant whose ancestors are all expanded, in pre-order.
func (s *Session) View() domain.PickerView {
	v := domain.PickerView{
		SessionID: s.id,
		TeamID:    s.teamID,
		Query:     s.query.Text,
		Level:     s.query.Level,
		Category:  s.query.Category,
		Rows:      []domain.PickerRow{},
		Selected:  s.selection.Snapshot(),
		NoResults: s.result.Empty(),
	}

	hierarchy.Walk(s.result.VisibleRoots, func(n *domain.CapabilityNode, _ int) bool {
		open := s.expansion.IsExpanded(n.ID)
		v.Rows = append(v.Rows, domain.PickerRow{
			ID:          n.ID,
			Name:        n.Name,
			Level:       n.Level,
			Category:    n.Category,
			Domain:      n.Domain,
			Description: n.Description,
			HasChildren: n.HasChildren(),
			Expanded:    open && n.HasChildren(),
			Selected:    s.selection.Contains(n.ID),
			Matched:     s.result.Matches.Contains(n.ID),
		})
		return open
	})
	return v
}

// Confirm returns the selection to persist onto the team.
func (s *Session) Confirm() []string {
	return s.selection.Snapshot()
}

// State captures the session for persistence between events.
func (s *Session) State() *domain.PickerState {
	return &domain.PickerState{
		SessionID: s.id,
		TeamID:    s.teamID,
		Query:     s.query.Text,
		Level:     s.query.Level,
		Category:  s.query.Category,
		Selected:  s.selection.Snapshot(),
		Expanded:  s.expansion.Expanded(),
		OpenedAt:  s.openedAt,
	}
}
