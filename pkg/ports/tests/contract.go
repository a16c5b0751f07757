package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeam(id, name string, created time.Time) *domain.Team {
	return &domain.Team{
		ID:          id,
		Name:        name,
		Description: "Contract fixture",
		Members:     []domain.Member{{Name: "Ada", Role: "Lead", Email: "ada@example.com"}},
		Links:       []domain.Link{{Title: "Wiki", URL: "https://wiki.example.com/" + id}},
		WorkingAgreement: domain.WorkingAgreement{
			Title: "How we work",
			Body:  "Stand-up at 09:30.",
		},
		Capabilities: []string{"tax-compliance", "treasury"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

// TeamStoreContract verifies that an adapter complies with ports.TeamStore.
// The store must start empty.
func TeamStoreContract(t *testing.T, store ports.TeamStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		team := newTeam("contract-1", "Payments", base)
		require.NoError(t, store.Save(ctx, team))

		loaded, err := store.Load(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, team.Name, loaded.Name)
		assert.Equal(t, team.Members, loaded.Members)
		assert.Equal(t, team.Links, loaded.Links)
		assert.Equal(t, team.WorkingAgreement.Body, loaded.WorkingAgreement.Body)
		assert.Equal(t, team.Capabilities, loaded.Capabilities)
		assert.True(t, team.CreatedAt.Equal(loaded.CreatedAt))

		require.NoError(t, store.Delete(ctx, team.ID))
	})

	t.Run("Copy semantics", func(t *testing.T) {
		team := newTeam("contract-copy", "Copy", base)
		require.NoError(t, store.Save(ctx, team))
		defer func() { _ = store.Delete(ctx, team.ID) }()

		team.Capabilities[0] = "mutated-after-save"
		loaded, err := store.Load(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, "tax-compliance", loaded.Capabilities[0])

		loaded.Capabilities[0] = "mutated-after-load"
		again, err := store.Load(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, "tax-compliance", again.Capabilities[0])
	})

	t.Run("Overwrite", func(t *testing.T) {
		team := newTeam("contract-overwrite", "Before", base)
		require.NoError(t, store.Save(ctx, team))
		defer func() { _ = store.Delete(ctx, team.ID) }()

		team.Name = "After"
		team.Capabilities = nil
		require.NoError(t, store.Save(ctx, team))

		loaded, err := store.Load(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", loaded.Name)
		assert.Empty(t, loaded.Capabilities)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrTeamNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		team := newTeam("contract-delete", "Gone", base)
		require.NoError(t, store.Save(ctx, team))

		require.NoError(t, store.Delete(ctx, team.ID))
		_, err := store.Load(ctx, team.ID)
		assert.ErrorIs(t, err, domain.ErrTeamNotFound)

		assert.ErrorIs(t, store.Delete(ctx, team.ID), domain.ErrTeamNotFound)
	})

	t.Run("List order", func(t *testing.T) {
		teams := []*domain.Team{
			newTeam("contract-c", "Zeta", base.Add(time.Hour)),
			newTeam("contract-a", "Beta", base),
			newTeam("contract-b", "Alpha", base),
		}
		for _, team := range teams {
			require.NoError(t, store.Save(ctx, team))
		}
		defer func() {
			for _, team := range teams {
				_ = store.Delete(ctx, team.ID)
			}
		}()

		list, err := store.List(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, team := range list {
			names = append(names, team.Name)
		}
		assert.Equal(t, []string{"Alpha", "Beta", "Zeta"}, names)
	})
}

// PickerStoreContract verifies that an adapter complies with ports.PickerStore.
func PickerStoreContract(t *testing.T, store ports.PickerStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := fmt.Sprintf("contract-picker-%d", time.Now().UnixNano())

	state := &domain.PickerState{
		SessionID: sessionID,
		TeamID:    "team-1",
		Query:     "regulations",
		Level:     3,
		Category:  domain.CategoryEnabling,
		Selected:  []string{"tax-compliance", "ghost"},
		Expanded:  []string{"finance-management", "taxes"},
		OpenedAt:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, state.TeamID, loaded.TeamID)
		assert.Equal(t, state.Query, loaded.Query)
		assert.Equal(t, state.Level, loaded.Level)
		assert.Equal(t, state.Category, loaded.Category)
		assert.Equal(t, state.Selected, loaded.Selected)
		assert.Equal(t, state.Expanded, loaded.Expanded)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, sessionID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrPickerNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))
		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrPickerNotFound)

		assert.NoError(t, store.Delete(ctx, sessionID), "delete is idempotent")

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, sessionID)
	})
}

// TaxonomyLoaderContract verifies that a loader builds a taxonomy containing
// every id in wantIDs, with the given parent relations.
func TaxonomyLoaderContract(t *testing.T, loader ports.TaxonomyLoader, wantIDs []string, wantParents map[string]string) {
	t.Helper()

	store, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, len(wantIDs), store.Len())

	for _, id := range wantIDs {
		n, ok := store.Lookup(id)
		if assert.True(t, ok, "missing %s", id) {
			assert.Equal(t, wantParents[id], n.ParentID, "parent of %s", id)
		}
	}
}
