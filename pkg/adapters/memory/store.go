package memory

import (
	"context"
	"sync"

	"github.com/aretw0/teamboard/pkg/domain"
)

// Store implements ports.TeamStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Team
	mu   sync.RWMutex
}

// NewStore creates a new in-memory team store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Team),
	}
}

// Save stores a copy of the team.
func (s *Store) Save(ctx context.Context, team *domain.Team) error {
	copied := team.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[team.ID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored team by pointer.
func (s *Store) Load(ctx context.Context, id string) (*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	team, ok := s.data[id]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return team.Clone(), nil
}

// Delete removes the team.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(s.data, id)
	return nil
}

// List returns copies of every team, oldest first.
func (s *Store) List(ctx context.Context) ([]*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]*domain.Team, 0, len(s.data))
	for _, team := range s.data {
		teams = append(teams, team.Clone())
	}
	domain.SortTeams(teams)
	return teams, nil
}
