package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/teamboard/pkg/taxonomy"
)

// Loader builds the capability taxonomy from a Loam repository holding one
// document per capability, linked to its parent through the "parent" key.
type Loader struct {
	Repo *loam.TypedRepository[CapabilityMetadata]

	// Version labels the stores this loader builds.
	Version string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[CapabilityMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Load implements ports.TaxonomyLoader.
func (l *Loader) Load(ctx context.Context) (*taxonomy.Store, error) {
	flat, err := l.definitions(ctx)
	if err != nil {
		return nil, err
	}

	defs, err := taxonomy.Assemble(flat)
	if err != nil {
		return nil, err
	}
	store, err := taxonomy.Build(defs)
	if err != nil {
		return nil, err
	}
	return store.WithSource("loam", l.Version), nil
}

type ordered struct {
	def   taxonomy.Definition
	order int
}

func (l *Loader) definitions(ctx context.Context) ([]taxonomy.Definition, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	items := make([]ordered, 0, len(docs))

	for _, doc := range docs {
		meta := doc.Data

		// Documents may live in folders; the id is the bare file name.
		id := meta.ID
		if id == "" {
			id = path.Base(trimExtension(doc.ID))
		}

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: capability '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		desc := meta.Description
		if desc == "" {
			// List returns metadata only; the body needs a direct lookup.
			full, err := l.Repo.Get(ctx, trimExtension(doc.ID))
			if err != nil {
				return nil, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			desc = strings.TrimSpace(full.Content)
		}

		items = append(items, ordered{
			order: meta.Order,
			def: taxonomy.Definition{
				ID:          id,
				Name:        meta.Name,
				Level:       meta.Level,
				Category:    meta.Category,
				Domain:      meta.Domain,
				Description: desc,
				ParentID:    meta.Parent,
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].order != items[j].order {
			return items[i].order < items[j].order
		}
		return items[i].def.ID < items[j].def.ID
	})

	flat := make([]taxonomy.Definition, len(items))
	for i, it := range items {
		flat[i] = it.def
	}
	return flat, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. Bursts of file events collapse into a
// single pending signal.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
