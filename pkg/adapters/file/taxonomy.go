package file

import (
	"context"

	"github.com/aretw0/teamboard/pkg/taxonomy"
)

// TaxonomyLoader implements ports.TaxonomyLoader over a single YAML or JSON
// taxonomy document.
type TaxonomyLoader struct {
	Path string
}

// NewTaxonomyLoader creates a loader for the document at path.
func NewTaxonomyLoader(path string) *TaxonomyLoader {
	return &TaxonomyLoader{Path: path}
}

// Load re-reads the document on every call.
func (l *TaxonomyLoader) Load(ctx context.Context) (*taxonomy.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return taxonomy.LoadFile(l.Path)
}
