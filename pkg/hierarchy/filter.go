package hierarchy

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/aretw0/teamboard/pkg/domain"
)

// Result is the output of a filter.
type Result struct {
	// VisibleRoots are the level-1 nodes to show, in forest order. Their
	// children are never pruned.
	VisibleRoots []*domain.CapabilityNode

	// Expand holds the matches and all their ancestors; these are force-expanded.
	Expand IDSet

	// Matches holds the nodes that satisfied the predicate themselves.
	Matches IDSet

	// Filtered is set when a predicate was active.
	Filtered bool
}

// Empty reports the explicit "no results" state: a predicate was active and
// no root survived.
func (r Result) Empty() bool {
	return r.Filtered && len(r.VisibleRoots) == 0
}

// Predicate selects matching nodes.
type Predicate func(pos uint32, n *domain.CapabilityNode) bool

// Search runs the text filter over the whole forest.
func (x *Index) Search(query string) Result {
	return x.search(x.forest, query)
}

// Level runs the level filter over the whole forest. level <= 0 disables it.
func (x *Index) Level(level int) Result {
	return x.level(x.forest, level)
}

func (x *Index) search(roots []*domain.CapabilityNode, query string) Result {
	if query == "" {
		return Result{VisibleRoots: roots}
	}
	needle := strings.ToLower(query)
	return x.filter(roots, func(pos uint32, _ *domain.CapabilityNode) bool {
		return x.contains(pos, needle)
	})
}

func (x *Index) level(roots []*domain.CapabilityNode, level int) Result {
	if level <= 0 {
		return Result{VisibleRoots: roots}
	}
	return x.filter(roots, func(_ uint32, n *domain.CapabilityNode) bool {
		return n.Level == level
	})
}

// filter evaluates match over the subtrees of roots. Roots that are not part
// of the index are ignored.
func (x *Index) filter(roots []*domain.CapabilityNode, match Predicate) Result {
	matches := roaring.New()
	expand := roaring.New()

	scope := x.subtrees(roots)
	it := scope.Iterator()
	for it.HasNext() {
		p := it.Next()
		n := x.order[p]
		if match(p, n) {
			matches.Add(p)
			x.expandChain(expand, n.ID)
		}
	}

	visible := make([]*domain.CapabilityNode, 0, len(roots))
	for _, r := range roots {
		if r == nil {
			continue
		}
		if p, ok := x.pos[r.ID]; ok && expand.Contains(p) {
			visible = append(visible, r)
		}
	}

	return Result{
		VisibleRoots: visible,
		Expand:       newIDSet(x, expand),
		Matches:      newIDSet(x, matches),
		Filtered:     true,
	}
}

// Policy decides how a text query and a level filter combine.
type Policy int

const (
	// PolicyIntersect shows the roots that survive both filters and expands
	// the union of both expand sets. Matches are the nodes that satisfy the
	// text and the level at once.
	PolicyIntersect Policy = iota

	// PolicySequential applies the search first and then the level filter to
	// the already-reduced roots; the level step's expand set replaces the
	// search step's.
	PolicySequential
)

func (p Policy) String() string {
	switch p {
	case PolicyIntersect:
		return "intersect"
	case PolicySequential:
		return "sequential"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration value into a Policy. Empty means PolicyIntersect.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "intersect", "intersection":
		return PolicyIntersect, nil
	case "sequential", "legacy":
		return PolicySequential, nil
	default:
		return PolicyIntersect, fmt.Errorf("unknown filter policy %q", s)
	}
}

// Query bundles every filter input a picker can set.
type Query struct {
	Text     string
	Level    int
	Category domain.Category
}

// Active reports whether any predicate (text or level) is set. The category
// tab is a partition, not a predicate.
func (q Query) Active() bool {
	return q.Text != "" || q.Level > 0
}

// Apply evaluates q against idx under policy.
func Apply(idx *Index, q Query, policy Policy) Result {
	roots := idx.Roots(q.Category)

	hasText := q.Text != ""
	hasLevel := q.Level > 0

	switch {
	case !hasText && !hasLevel:
		return Result{VisibleRoots: roots}
	case !hasLevel:
		return idx.search(roots, q.Text)
	case !hasText:
		return idx.level(roots, q.Level)
	}

	if policy == PolicySequential {
		searched := idx.search(roots, q.Text)
		return idx.level(searched.VisibleRoots, q.Level)
	}

	searched := idx.search(roots, q.Text)
	leveled := idx.level(roots, q.Level)

	visible := make([]*domain.CapabilityNode, 0, len(searched.VisibleRoots))
	for _, r := range roots {
		if r != nil && searched.Expand.Contains(r.ID) && leveled.Expand.Contains(r.ID) {
			visible = append(visible, r)
		}
	}

	within := newIDSet(idx, idx.subtrees(visible))
	return Result{
		VisibleRoots: visible,
		Expand:       searched.Expand.Union(leveled.Expand),
		Matches:      searched.Matches.Intersect(leveled.Matches).Intersect(within),
		Filtered:     true,
	}
}
