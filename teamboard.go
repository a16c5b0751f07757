package teamboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/adapters/memory"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/picker"
	"github.com/aretw0/teamboard/pkg/ports"
	"github.com/aretw0/teamboard/pkg/session"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	"github.com/google/uuid"
)

// ErrNotWatchable is returned by WatchTaxonomy when the taxonomy source cannot
// report changes.
var ErrNotWatchable = errors.New("taxonomy loader does not support watching")

// Board is the high-level entry point: teams, the capability taxonomy and
// the picker sessions that tag teams with capabilities.
type Board struct {
	teams    ports.TeamStore
	sessions *session.Manager
	pickers  ports.PickerStore
	locker   ports.DistributedLocker

	loader   ports.TaxonomyLoader
	initial  *taxonomy.Store
	taxonomy *taxonomy.HotSwap

	policy hierarchy.Policy
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option defines a functional option for configuring the Board.
type Option func(*Board)

// WithTeamStore sets where teams are persisted (default: in memory).
func WithTeamStore(s ports.TeamStore) Option {
	return func(b *Board) {
		b.teams = s
	}
}

// WithPickerStore sets where open picker sessions live (default: in memory).
func WithPickerStore(s ports.PickerStore) Option {
	return func(b *Board) {
		b.pickers = s
	}
}

// WithLocker serialises picker events across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(b *Board) {
		b.locker = l
	}
}

// WithTaxonomy uses a fixed, already built taxonomy.
func WithTaxonomy(s *taxonomy.Store) Option {
	return func(b *Board) {
		b.initial = s
	}
}

// WithTaxonomyLoader loads the taxonomy from a source that can be reloaded.
func WithTaxonomyLoader(l ports.TaxonomyLoader) Option {
	return func(b *Board) {
		b.loader = l
	}
}

// WithPolicy selects how text and level filters combine.
func WithPolicy(p hierarchy.Policy) Option {
	return func(b *Board) {
		b.policy = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Board) {
		b.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		b.logger = logger
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

// New builds a Board. Without options it keeps everything in memory and
// serves the built-in taxonomy.
func New(ctx context.Context, opts ...Option) (*Board, error) {
	b := &Board{}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	if b.teams == nil {
		b.teams = memory.NewStore()
	}
	if b.pickers == nil {
		b.pickers = memory.NewPickerStore()
	}

	smOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		smOpts = append(smOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(b.pickers, smOpts...)

	initial := b.initial
	if initial == nil && b.loader != nil {
		s, err := b.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load taxonomy: %w", err)
		}
		initial = s
	}
	if initial == nil {
		initial = taxonomy.Default()
	}
	b.taxonomy = taxonomy.NewHotSwap(initial)

	b.logger.Debug("board ready",
		"taxonomy_source", initial.Source(),
		"taxonomy_version", initial.Version(),
		"capabilities", initial.Len(),
		"policy", b.policy,
	)
	return b, nil
}

// Taxonomy returns the taxonomy currently served.
func (b *Board) Taxonomy() *taxonomy.Store {
	return b.taxonomy.Current()
}

// Policy returns the configured filter policy.
func (b *Board) Policy() hierarchy.Policy {
	return b.policy
}

// SwapTaxonomy replaces the served taxonomy. Open pickers continue against
// the new one on their next event; ids that disappeared stay selected but are
// no longer rendered.
func (b *Board) SwapTaxonomy(next *taxonomy.Store) {
	prev := b.taxonomy.Swap(next)
	b.logger.Info("taxonomy swapped",
		"from_version", prev.Version(),
		"to_version", next.Version(),
		"capabilities", next.Len(),
	)
}

// ReloadTaxonomy rebuilds the taxonomy from the configured loader. On error
// the current taxonomy stays in place.
func (b *Board) ReloadTaxonomy(ctx context.Context) (*taxonomy.Store, error) {
	if b.loader == nil {
		return nil, fmt.Errorf("no taxonomy loader configured")
	}
	next, err := b.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload taxonomy: %w", err)
	}
	b.SwapTaxonomy(next)
	return next, nil
}

// WatchTaxonomy reloads the taxonomy whenever the loader reports a change,
// until ctx is done. It returns once watching has started.
func (b *Board) WatchTaxonomy(ctx context.Context) error {
	w, ok := b.loader.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for range changes {
			if _, err := b.ReloadTaxonomy(ctx); err != nil {
				b.logger.Warn("Taxonomy reload failed; keeping previous version", "err", err)
			}
		}
	}()
	return nil
}

// Search runs the Filter Engine over the current taxonomy.
func (b *Board) Search(ctx context.Context, q hierarchy.Query) hierarchy.Result {
	start := time.Now()
	res := hierarchy.Apply(b.Taxonomy().Index(), q, b.policy)
	b.emitFilter(ctx, q, res, time.Since(start))
	return res
}

// Capability looks up a node by id.
func (b *Board) Capability(id string) (*domain.CapabilityNode, error) {
	n, ok := b.Taxonomy().Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, id)
	}
	return n, nil
}

func (b *Board) emitFilter(ctx context.Context, q hierarchy.Query, res hierarchy.Result, d time.Duration) {
	if b.hooks.OnFilter == nil || !q.Active() {
		return
	}
	b.hooks.OnFilter(ctx, &domain.FilterEvent{
		EventBase:    domain.EventBase{Timestamp: b.now(), Type: domain.EventFilter},
		Query:        q.Text,
		Level:        q.Level,
		Category:     q.Category,
		Matches:      res.Matches.Len(),
		VisibleRoots: len(res.VisibleRoots),
		Duration:     d,
	})
}

func (b *Board) emitTeam(ctx context.Context, id string, deleted bool) {
	if b.hooks.OnTeamChange == nil {
		return
	}
	b.hooks.OnTeamChange(ctx, &domain.TeamEvent{
		EventBase: domain.EventBase{Timestamp: b.now(), Type: domain.EventTeamModified},
		TeamID:    id,
		Deleted:   deleted,
	})
}

// ListTeams returns every team, oldest first.
func (b *Board) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	return b.teams.List(ctx)
}

// GetTeam loads one team.
func (b *Board) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	return b.teams.Load(ctx, id)
}

// CreateTeam validates and stores a new team. A missing id is generated.
func (b *Board) CreateTeam(ctx context.Context, t *domain.Team) (*domain.Team, error) {
	team := t.Clone()
	if team.ID == "" {
		team.ID = uuid.NewString()
	} else if _, err := b.teams.Load(ctx, team.ID); err == nil {
		v := &domain.ValidationError{}
		v.Add("id", "already exists")
		return nil, v
	}

	now := b.now()
	team.CreatedAt = now
	team.UpdatedAt = now
	team.Capabilities = dedupe(team.Capabilities)
	if team.WorkingAgreement.Body != "" && team.WorkingAgreement.UpdatedAt.IsZero() {
		team.WorkingAgreement.UpdatedAt = now
	}

	if err := team.Validate(); err != nil {
		return nil, err
	}
	if err := b.teams.Save(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}
	b.emitTeam(ctx, team.ID, false)
	return team.Clone(), nil
}

// UpdateTeam replaces a team's editable fields. CreatedAt is preserved.
func (b *Board) UpdateTeam(ctx context.Context, t *domain.Team) (*domain.Team, error) {
	return b.modifyTeam(ctx, t.ID, func(current *domain.Team) {
		created := current.CreatedAt
		agreement := current.WorkingAgreement
		*current = *t.Clone()
		current.CreatedAt = created
		wa := current.WorkingAgreement
		if wa.Title == agreement.Title && wa.Body == agreement.Body {
			current.WorkingAgreement.UpdatedAt = agreement.UpdatedAt
		} else {
			current.WorkingAgreement.UpdatedAt = b.now()
		}
		current.Capabilities = dedupe(current.Capabilities)
	})
}

// UpdateWorkingAgreement replaces only the working agreement.
func (b *Board) UpdateWorkingAgreement(ctx context.Context, id string, wa domain.WorkingAgreement) (*domain.Team, error) {
	return b.modifyTeam(ctx, id, func(current *domain.Team) {
		wa.UpdatedAt = b.now()
		current.WorkingAgreement = wa
	})
}

// SetCapabilities replaces a team's capabilities without going through a
// picker. Duplicates collapse; ids unknown to the taxonomy are kept.
func (b *Board) SetCapabilities(ctx context.Context, id string, ids []string) (*domain.Team, error) {
	return b.modifyTeam(ctx, id, func(current *domain.Team) {
		current.Capabilities = dedupe(ids)
	})
}

func (b *Board) modifyTeam(ctx context.Context, id string, fn func(*domain.Team)) (*domain.Team, error) {
	var saved *domain.Team
	// Load-modify-save runs under a per-team lock so concurrent edits of
	// different fields are not lost.
	err := b.sessions.WithLock(ctx, teamLockKey(id), func(ctx context.Context) error {
		current, err := b.teams.Load(ctx, id)
		if err != nil {
			return err
		}
		fn(current)
		current.ID = id
		current.UpdatedAt = b.now()

		if err := current.Validate(); err != nil {
			return err
		}
		if err := b.teams.Save(ctx, current); err != nil {
			return fmt.Errorf("failed to save team: %w", err)
		}
		saved = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.emitTeam(ctx, id, false)
	return saved.Clone(), nil
}

func teamLockKey(id string) string {
	return "team:" + id
}

// DeleteTeam removes a team.
func (b *Board) DeleteTeam(ctx context.Context, id string) error {
	if err := b.teams.Delete(ctx, id); err != nil {
		return err
	}
	b.emitTeam(ctx, id, true)
	return nil
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return picker.NewSelectionSet(ids...).Snapshot()
}
