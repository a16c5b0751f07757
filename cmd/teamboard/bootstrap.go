package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/teamboard"
	"github.com/aretw0/teamboard/internal/config"
	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/adapters/file"
	loamAdapter "github.com/aretw0/teamboard/pkg/adapters/loam"
	"github.com/aretw0/teamboard/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/teamboard/pkg/adapters/redis"
	"github.com/aretw0/teamboard/pkg/adapters/sqlite"
	"github.com/aretw0/teamboard/pkg/observability"
	"github.com/aretw0/teamboard/pkg/persistence/middleware"
	"github.com/aretw0/teamboard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built from the loaded configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	board    *teamboard.Board
	registry *prometheus.Registry

	closers []func() error
}

// Close releases store connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", "err", err)
		}
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// setup loads the configuration and wires stores, taxonomy and hooks into a
// Board. Callers must Close the returned app.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logging.New(cfg.Level()))
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []teamboard.Option{
		teamboard.WithLogger(logger),
		teamboard.WithPolicy(cfg.Policy()),
		teamboard.WithLifecycleHooks(observability.Combine(
			observability.NewMetrics(a.registry).Hooks(),
			observability.LogHooks(logger),
		)),
	}

	teams, err := a.teamStore(ctx, &opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Store.EncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.Store.EncryptionKey, cfg.Store.EncryptionFallbackKeys...)
		if err != nil {
			a.Close()
			return nil, err
		}
		teams = middleware.Chain(teams, middleware.NewEncryptionMiddleware(keys))
		logger.Debug("Team encryption enabled", "fallback_keys", len(keys.FallbackKeys))
	}
	opts = append(opts, teamboard.WithTeamStore(teams))

	loader, err := taxonomyLoader(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if loader != nil {
		opts = append(opts, teamboard.WithTaxonomyLoader(loader))
	}

	board, err := teamboard.New(ctx, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.board = board

	tax := board.Taxonomy()
	logger.Info("Teamboard ready",
		"store", cfg.Store.Backend,
		"taxonomy", tax.Source(),
		"taxonomy_version", tax.Version(),
		"capabilities", tax.Len(),
	)
	return a, nil
}

// teamStore builds the configured team store. The redis backend also moves
// picker sessions and their lock to Redis so replicas share them.
func (a *app) teamStore(ctx context.Context, opts *[]teamboard.Option) (ports.TeamStore, error) {
	cfg := a.cfg
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		return file.New(cfg.Store.Dir), nil
	case "sqlite":
		store, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "redis":
		client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		*opts = append(*opts,
			teamboard.WithPickerStore(redisAdapter.NewPickerStore(client,
				redisAdapter.WithPrefix(cfg.Redis.Prefix),
				redisAdapter.WithTTL(cfg.Redis.PickerTTL),
			)),
			teamboard.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix)),
		)
		return redisAdapter.NewFromClient(client, redisAdapter.WithPrefix(cfg.Redis.Prefix)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// taxonomyLoader returns nil for the built-in taxonomy.
func taxonomyLoader(cfg *config.Config) (ports.TaxonomyLoader, error) {
	switch cfg.Taxonomy.Source {
	case "builtin":
		return nil, nil
	case "file":
		return file.NewTaxonomyLoader(cfg.Taxonomy.Path), nil
	case "loam":
		absPath, err := filepath.Abs(cfg.Taxonomy.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid taxonomy path: %w", err)
		}
		// The board never writes capabilities back; read-only keeps Loam out
		// of its sandbox mode and strict mode keeps numeric types stable.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		loader := loamAdapter.New(loam.NewTypedRepository[loamAdapter.CapabilityMetadata](repo))
		loader.Version = filepath.Base(absPath)
		return loader, nil
	}
	return nil, errors.New("unknown taxonomy source " + cfg.Taxonomy.Source)
}
