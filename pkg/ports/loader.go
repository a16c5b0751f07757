package ports

import (
	"context"

	"github.com/aretw0/teamboard/pkg/taxonomy"
)

// TaxonomyLoader builds the capability taxonomy from its source.
type TaxonomyLoader interface {
	Load(ctx context.Context) (*taxonomy.Store, error)
}

// Watchable is implemented by loaders whose source can change while the
// server runs.
type Watchable interface {
	// Watch returns a channel that is signaled when the source changed and a
	// reload is due. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
