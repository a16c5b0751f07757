package memory

import (
	"context"

	"github.com/aretw0/teamboard/pkg/taxonomy"
)

// Loader implements ports.TaxonomyLoader over in-memory definitions.
type Loader struct {
	defs []taxonomy.Definition
}

// NewLoader creates a loader for nested definitions.
func NewLoader(defs ...taxonomy.Definition) *Loader {
	return &Loader{defs: defs}
}

// NewFlatLoader creates a loader for definitions that reference their parent
// by id instead of nesting.
func NewFlatLoader(flat ...taxonomy.Definition) (*Loader, error) {
	defs, err := taxonomy.Assemble(flat)
	if err != nil {
		return nil, err
	}
	return &Loader{defs: defs}, nil
}

// Load builds a fresh Store on every call.
func (l *Loader) Load(ctx context.Context) (*taxonomy.Store, error) {
	store, err := taxonomy.Build(l.defs)
	if err != nil {
		return nil, err
	}
	return store.WithSource("memory", ""), nil
}
