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

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "teamboard:"

// Store implements ports.TeamStore using Redis.
// Teams are JSON strings; a sorted set scored by creation time indexes them.
type Store struct {
	client *backend.Client
	prefix string
}

// DefaultPickerTTL bounds how long an idle picker session survives.
const DefaultPickerTTL = 30 * time.Minute

// Option configures a Store or PickerStore.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTTL sets the idle expiration of picker sessions. Zero disables
// expiration. Teams never expire.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock overrides the clock used to score the picker index.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, ttl: DefaultPickerTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient dials Redis with the given credentials.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// New creates a team store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(NewClient(address, password, db), opts...)
}

// NewFromClient creates a team store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{client: client, prefix: o.prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + "team:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "teams"
}

// Save writes the team and records it in the index.
func (s *Store) Save(ctx context.Context, team *domain.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(team.ID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(team.CreatedAt.Unix()),
		Member: team.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save team to redis: %w", err)
	}
	return nil
}

// Load retrieves a team.
func (s *Store) Load(ctx context.Context, id string) (*domain.Team, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team from redis: %w", err)
	}

	var team domain.Team
	if err := json.Unmarshal(val, &team); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team %s: %w", id, err)
	}
	return &team, nil
}

// Delete removes the team and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete team from redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// List fetches every indexed team in one round trip. Index entries whose
// value has vanished are skipped.
func (s *Store) List(ctx context.Context) ([]*domain.Team, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Team{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	teams := make([]*domain.Team, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var team domain.Team
		if err := json.Unmarshal([]byte(raw), &team); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team %s: %w", ids[i], err)
		}
		teams = append(teams, &team)
	}
	domain.SortTeams(teams)
	return teams, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
