package hierarchy

import "github.com/RoaringBitmap/roaring"

// IDSet is an immutable set of node IDs backed by a bitmap over the pre-order
// positions of an Index. Iteration yields IDs in forest order.
// The zero value is an empty set.
type IDSet struct {
	idx  *Index
	bits *roaring.Bitmap
}

func newIDSet(idx *Index, bits *roaring.Bitmap) IDSet {
	return IDSet{idx: idx, bits: bits}
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	if s.bits == nil || s.idx == nil {
		return false
	}
	pos, ok := s.idx.pos[id]
	return ok && s.bits.Contains(pos)
}

// Len returns the number of IDs in the set.
func (s IDSet) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.GetCardinality())
}

// IsEmpty reports whether the set has no members.
func (s IDSet) IsEmpty() bool {
	return s.Len() == 0
}

// IDs returns the members in forest (pre-order) order.
func (s IDSet) IDs() []string {
	out := make([]string, 0, s.Len())
	if s.bits == nil {
		return out
	}
	it := s.bits.Iterator()
	for it.HasNext() {
		out = append(out, s.idx.order[it.Next()].ID)
	}
	return out
}

// Union returns the IDs present in either set. Both sets must come from the same Index.
func (s IDSet) Union(o IDSet) IDSet {
	switch {
	case s.bits == nil:
		return o
	case o.bits == nil:
		return s
	}
	return newIDSet(s.idx, roaring.Or(s.bits, o.bits))
}

// Intersect returns the IDs present in both sets.
func (s IDSet) Intersect(o IDSet) IDSet {
	if s.bits == nil || o.bits == nil {
		return IDSet{}
	}
	return newIDSet(s.idx, roaring.And(s.bits, o.bits))
}

// Map returns the set as a lookup map, for callers that outlive the Index.
func (s IDSet) Map() map[string]bool {
	out := make(map[string]bool, s.Len())
	for _, id := range s.IDs() {
		out[id] = true
	}
	return out
}
