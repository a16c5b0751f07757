package ports

import (
	"context"

	"github.com/aretw0/teamboard/pkg/domain"
)

// TeamStore persists team records.
// Implementations copy on the way in and on the way out: callers never share
// memory with the store.
type TeamStore interface {
	// Save creates or replaces the team with team.ID.
	Save(ctx context.Context, team *domain.Team) error

	// Load retrieves a team.
	// Returns domain.ErrTeamNotFound if the team does not exist.
	Load(ctx context.Context, id string) (*domain.Team, error)

	// Delete removes a team.
	// Returns domain.ErrTeamNotFound if the team does not exist.
	Delete(ctx context.Context, id string) error

	// List returns every team, oldest first; ties are broken by name.
	List(ctx context.Context) ([]*domain.Team, error)
}

// PickerStore keeps the state of open capability pickers between events.
// Nothing in it outlives the picker: confirm and cancel both delete the entry.
type PickerStore interface {
	Save(ctx context.Context, state *domain.PickerState) error

	// Load returns domain.ErrPickerNotFound if the session does not exist or expired.
	Load(ctx context.Context, sessionID string) (*domain.PickerState, error)

	// Delete is idempotent.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of the open sessions.
	List(ctx context.Context) ([]string, error)
}
