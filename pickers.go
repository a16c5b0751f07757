package teamboard

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/picker"
)

// OpenPicker starts a capability picker for a team, seeded with the team's
// current capabilities.
func (b *Board) OpenPicker(ctx context.Context, teamID string) (domain.PickerView, error) {
	team, err := b.teams.Load(ctx, teamID)
	if err != nil {
		return domain.PickerView{}, err
	}

	s := picker.Open(b.Taxonomy().Index(), team.ID, team.Capabilities,
		picker.WithPolicy(b.policy),
		picker.WithClock(b.now),
	)
	if err := b.sessions.Save(ctx, s.State()); err != nil {
		return domain.PickerView{}, fmt.Errorf("failed to save picker session: %w", err)
	}

	if b.hooks.OnPickerOpen != nil {
		b.hooks.OnPickerOpen(ctx, &domain.PickerEvent{
			EventBase: domain.EventBase{Timestamp: b.now(), Type: domain.EventPickerOpen},
			SessionID: s.ID(),
			TeamID:    team.ID,
			Selected:  s.Selection().Len(),
		})
	}
	return s.View(), nil
}

func (b *Board) restore(st *domain.PickerState) *picker.Session {
	return picker.Restore(b.Taxonomy().Index(), st, picker.WithPolicy(b.policy))
}

// Picker renders an open picker session.
func (b *Board) Picker(ctx context.Context, sessionID string) (domain.PickerView, error) {
	st, err := b.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.PickerView{}, err
	}
	return b.restore(st).View(), nil
}

// PickerState returns the persisted state of an open picker session.
func (b *Board) PickerState(ctx context.Context, sessionID string) (*domain.PickerState, error) {
	return b.sessions.Load(ctx, sessionID)
}

// ListPickers returns the ids of open picker sessions.
func (b *Board) ListPickers(ctx context.Context) ([]string, error) {
	return b.sessions.List(ctx)
}

// UpdatePicker applies one user event to a picker session and returns the new
// view together with what changed in the session state.
func (b *Board) UpdatePicker(ctx context.Context, sessionID string, action domain.PickerAction) (domain.PickerView, *domain.PickerDiff, error) {
	var (
		view   domain.PickerView
		before *domain.PickerState
		query  hierarchy.Query
		result hierarchy.Result
		took   time.Duration
	)

	after, err := b.sessions.Update(ctx, sessionID, func(st *domain.PickerState) error {
		before = st.Clone()
		s := b.restore(st)

		start := time.Now()
		if err := s.Apply(action); err != nil {
			return err
		}
		took = time.Since(start)

		*st = *s.State()
		view = s.View()
		query, result = s.Query(), s.Result()
		return nil
	})
	if err != nil {
		return domain.PickerView{}, nil, err
	}

	switch action.Type {
	case domain.ActionSetQuery, domain.ActionSetLevel, domain.ActionSetCategory:
		b.emitFilter(ctx, query, result, took)
	}
	return view, domain.DiffPicker(before, after), nil
}

// ConfirmPicker writes the picker's selection onto its team and closes the
// session.
func (b *Board) ConfirmPicker(ctx context.Context, sessionID string) (*domain.Team, error) {
	var (
		team     *domain.Team
		selected int
	)

	err := b.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := b.sessions.Store()
		st, err := store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		ids := b.restore(st).Confirm()
		selected = len(ids)

		team, err = b.SetCapabilities(ctx, st.TeamID, ids)
		if err != nil {
			return err
		}
		return store.Delete(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}

	b.emitPickerClose(ctx, sessionID, team.ID, domain.OutcomeConfirmed, selected)
	return team, nil
}

// CancelPicker discards a picker session. The team is not touched.
func (b *Board) CancelPicker(ctx context.Context, sessionID string) error {
	var teamID string
	err := b.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := b.sessions.Store()
		st, err := store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		teamID = st.TeamID
		return store.Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}

	b.emitPickerClose(ctx, sessionID, teamID, domain.OutcomeCanceled, 0)
	return nil
}

func (b *Board) emitPickerClose(ctx context.Context, sessionID, teamID string, outcome domain.PickerOutcome, selected int) {
	if b.hooks.OnPickerClose == nil {
		return
	}
	b.hooks.OnPickerClose(ctx, &domain.PickerEvent{
		EventBase: domain.EventBase{Timestamp: b.now(), Type: domain.EventPickerClose},
		SessionID: sessionID,
		TeamID:    teamID,
		Outcome:   outcome,
		Selected:  selected,
	})
}
