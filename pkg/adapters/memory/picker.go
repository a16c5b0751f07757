package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/teamboard/pkg/domain"
)

// PickerStore implements ports.PickerStore in memory.
type PickerStore struct {
	data map[string]*domain.PickerState
	mu   sync.RWMutex
}

// NewPickerStore creates an empty picker store.
func NewPickerStore() *PickerStore {
	return &PickerStore{
		data: make(map[string]*domain.PickerState),
	}
}

func (s *PickerStore) Save(ctx context.Context, state *domain.PickerState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.SessionID] = copied
	return nil
}

func (s *PickerStore) Load(ctx context.Context, sessionID string) (*domain.PickerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrPickerNotFound
	}
	return state.Clone(), nil
}

func (s *PickerStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *PickerStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
