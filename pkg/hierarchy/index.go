package hierarchy

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/aretw0/teamboard/pkg/domain"
)

// Index is a read-only lookup structure over a capability forest.
//
// Each node is assigned its pre-order position; match and expand sets are
// bitmaps over those positions. The subtree of the node at position p spans
// the contiguous range [p, end[p]).
type Index struct {
	forest []*domain.CapabilityNode
	order  []*domain.CapabilityNode
	end    []uint32
	pos    map[string]uint32

	// haystack holds the lower-cased name, domain and description of order[p].
	// Fields are matched one at a time so a query never spans two of them.
	haystack [][3]string
}

// NewIndex builds an Index over forest. The forest is never mutated.
func NewIndex(forest []*domain.CapabilityNode) *Index {
	idx := &Index{
		forest: forest,
		pos:    make(map[string]uint32),
	}
	idx.build(forest)
	return idx
}

func (x *Index) build(nodes []*domain.CapabilityNode) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, dup := x.pos[n.ID]; dup {
			continue
		}

		p := uint32(len(x.order))
		x.pos[n.ID] = p
		x.order = append(x.order, n)
		x.end = append(x.end, 0)
		x.haystack = append(x.haystack, searchText(n))

		x.build(n.Children)
		x.end[p] = uint32(len(x.order))
	}
}

func searchText(n *domain.CapabilityNode) [3]string {
	return [3]string{strings.ToLower(n.Name), strings.ToLower(n.Domain), strings.ToLower(n.Description)}
}

// contains reports whether any searchable field of order[p] contains needle.
func (x *Index) contains(p uint32, needle string) bool {
	for _, field := range x.haystack[p] {
		if strings.Contains(field, needle) {
			return true
		}
	}
	return false
}

// Forest returns the forest the index was built from.
func (x *Index) Forest() []*domain.CapabilityNode {
	return x.forest
}

// Len returns the number of indexed nodes.
func (x *Index) Len() int {
	return len(x.order)
}

// Nodes returns every indexed node in pre-order.
func (x *Index) Nodes() []*domain.CapabilityNode {
	return x.order
}

// Lookup resolves an ID.
func (x *Index) Lookup(id string) (*domain.CapabilityNode, bool) {
	p, ok := x.pos[id]
	if !ok {
		return nil, false
	}
	return x.order[p], true
}

// Roots returns the level-1 nodes of the given category tab, in forest order.
// An empty category returns every root.
func (x *Index) Roots(category domain.Category) []*domain.CapabilityNode {
	if category == "" {
		return x.forest
	}
	roots := make([]*domain.CapabilityNode, 0, len(x.forest))
	for _, r := range x.forest {
		if r != nil && r.Category == category {
			roots = append(roots, r)
		}
	}
	return roots
}

// Ancestors returns the ancestors of id, nearest first. The walk stops at the
// first ParentID that does not resolve, and on a repeated ID.
func (x *Index) Ancestors(id string) []*domain.CapabilityNode {
	var out []*domain.CapabilityNode
	n, ok := x.Lookup(id)
	if !ok {
		return out
	}

	seen := map[string]bool{n.ID: true}
	for parentID := n.ParentID; parentID != "" && !seen[parentID]; {
		parent, ok := x.Lookup(parentID)
		if !ok {
			break
		}
		seen[parentID] = true
		out = append(out, parent)
		parentID = parent.ParentID
	}
	return out
}

// Path returns the chain from the outermost resolvable ancestor down to id.
func (x *Index) Path(id string) []*domain.CapabilityNode {
	n, ok := x.Lookup(id)
	if !ok {
		return nil
	}
	anc := x.Ancestors(id)
	out := make([]*domain.CapabilityNode, 0, len(anc)+1)
	for i := len(anc) - 1; i >= 0; i-- {
		out = append(out, anc[i])
	}
	return append(out, n)
}

// expandChain adds id and every resolvable ancestor to bits. An ID that is
// already present has its whole chain present, so the walk stops there.
func (x *Index) expandChain(bits *roaring.Bitmap, id string) {
	for id != "" {
		p, ok := x.pos[id]
		if !ok || bits.Contains(p) {
			return
		}
		bits.Add(p)
		id = x.order[p].ParentID
	}
}

// subtrees returns the positions covered by the given roots and their descendants.
func (x *Index) subtrees(roots []*domain.CapabilityNode) *roaring.Bitmap {
	bits := roaring.New()
	for _, r := range roots {
		if r == nil {
			continue
		}
		if p, ok := x.pos[r.ID]; ok {
			bits.AddRange(uint64(p), uint64(x.end[p]))
		}
	}
	return bits
}
