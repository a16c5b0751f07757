package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teamboard/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// PickerStore implements ports.PickerStore using Redis.
// Every save refreshes the TTL, so only idle sessions expire.
type PickerStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewPickerStore creates a picker store from an existing client.
func NewPickerStore(client *backend.Client, opts ...Option) *PickerStore {
	o := buildOptions(opts)
	return &PickerStore{
		client: client,
		prefix: o.prefix,
		ttl:    o.ttl,
		now:    o.now,
	}
}

func (s *PickerStore) key(sessionID string) string {
	return s.prefix + "picker:" + sessionID
}

func (s *PickerStore) indexKey() string {
	return s.prefix + "pickers"
}

// Save persists the state and bumps its expiry in the index.
func (s *PickerStore) Save(ctx context.Context, state *domain.PickerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal picker state: %w", err)
	}

	// Score = expiry. Without a TTL, use a date far enough away.
	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(state.SessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: state.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save picker to redis: %w", err)
	}
	return nil
}

// Load retrieves the state. Expired sessions are reported as not found.
func (s *PickerStore) Load(ctx context.Context, sessionID string) (*domain.PickerState, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPickerNotFound
		}
		return nil, fmt.Errorf("failed to get picker from redis: %w", err)
	}

	var state domain.PickerState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal picker state: %w", err)
	}
	return &state, nil
}

// Delete removes the session.
func (s *PickerStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired entries from the index, then returns the rest.
func (s *PickerStore) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired pickers: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pickers: %w", err)
	}
	return ids, nil
}
