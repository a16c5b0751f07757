package taxonomy

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
)

//go:embed data/capabilities.yaml
var builtin []byte

var (
	defaultOnce  sync.Once
	defaultStore *Store
)

// Default returns the built-in taxonomy. It panics if the embedded document
// is invalid, which is a build defect.
func Default() *Store {
	defaultOnce.Do(func() {
		f, err := Parse(builtin, "yaml")
		if err != nil {
			panic(fmt.Sprintf("taxonomy: embedded document: %v", err))
		}
		s, err := Build(f.Capabilities)
		if err != nil {
			panic(fmt.Sprintf("taxonomy: embedded document: %v", err))
		}
		s.version = f.Version
		s.source = "builtin"
		defaultStore = s
	})
	return defaultStore
}

// Store is a validated, immutable capability forest.
type Store struct {
	forest  []*domain.CapabilityNode
	size    int
	version string
	source  string

	once sync.Once
	idx  *hierarchy.Index
}

// Forest returns the level-1 nodes in authored order. Callers must not modify them.
func (s *Store) Forest() []*domain.CapabilityNode {
	return s.forest
}

// Roots returns the level-1 nodes of a category tab; empty means every tab.
func (s *Store) Roots(category domain.Category) []*domain.CapabilityNode {
	return s.Index().Roots(category)
}

// Lookup resolves a capability by id.
func (s *Store) Lookup(id string) (*domain.CapabilityNode, bool) {
	return s.Index().Lookup(id)
}

// Ancestors returns the ancestors of id, nearest first.
func (s *Store) Ancestors(id string) []*domain.CapabilityNode {
	return s.Index().Ancestors(id)
}

// Path returns the names from the level-1 ancestor down to id.
func (s *Store) Path(id string) []string {
	nodes := s.Index().Path(id)
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}

// Resolve splits ids into the nodes it knows and the ids it does not.
// Known nodes keep the order of ids.
func (s *Store) Resolve(ids []string) ([]*domain.CapabilityNode, []string) {
	var known []*domain.CapabilityNode
	var unknown []string
	for _, id := range ids {
		if n, ok := s.Lookup(id); ok {
			known = append(known, n)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

// Len returns the number of capabilities.
func (s *Store) Len() int {
	return s.size
}

// Version is the label declared by the source document, if any.
func (s *Store) Version() string {
	return s.version
}

// Source describes where the taxonomy came from ("builtin", a file path, a repository).
func (s *Store) Source() string {
	return s.source
}

// WithSource returns a copy of s sharing the same nodes but labelled differently.
func (s *Store) WithSource(source, version string) *Store {
	return &Store{forest: s.forest, size: s.size, source: source, version: version}
}

// Index returns the filter index over the forest, building it on first use.
func (s *Store) Index() *hierarchy.Index {
	s.once.Do(func() {
		s.idx = hierarchy.NewIndex(s.forest)
	})
	return s.idx
}

// HotSwap publishes the current Store to concurrent readers and lets a
// reload replace it atomically. Readers that already hold a Store keep using it.
type HotSwap struct {
	mu      sync.RWMutex
	current *Store
}

// NewHotSwap wraps an initial store.
func NewHotSwap(initial *Store) *HotSwap {
	return &HotSwap{current: initial}
}

// Current returns the active store.
func (h *HotSwap) Current() *Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap replaces the active store and returns the previous one.
func (h *HotSwap) Swap(next *Store) *Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.current
	h.current = next
	return prev
}
