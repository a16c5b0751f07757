package hierarchy_test

import (
	"strings"
	"testing"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_RegulationsScenario(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := idx.Search("regulations")

	assert.Equal(t, []string{"tax-compliance"}, res.Matches.IDs())
	assert.ElementsMatch(t, []string{"tax-compliance", "taxes", "finance-management"}, res.Expand.IDs())
	assert.Equal(t, []string{"finance-management"}, ids(res.VisibleRoots))
	assert.False(t, res.Empty())
}

func TestSearch_ChildrenAreNotPruned(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := idx.Search("regulations")

	require.Len(t, res.VisibleRoots, 1)
	assert.Len(t, res.VisibleRoots[0].Children, 2, "treasury must still be reachable")
	assert.False(t, res.Expand.Contains("treasury"))
}

func TestSearch_EmptyQuery(t *testing.T) {
	forest := fixtureForest()
	idx := hierarchy.NewIndex(forest)

	res := idx.Search("")

	assert.Equal(t, ids(forest), ids(res.VisibleRoots))
	assert.True(t, res.Expand.IsEmpty())
	assert.False(t, res.Filtered)
	assert.False(t, res.Empty())
}

func TestSearch_CaseInsensitiveAcrossFields(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	t.Run("Name", func(t *testing.T) {
		res := idx.Search("TREASURY")
		assert.Equal(t, []string{"treasury"}, res.Matches.IDs())
	})

	t.Run("Domain", func(t *testing.T) {
		res := idx.Search("customer")
		// Every customer node carries the Customer domain.
		assert.Equal(t, 4, res.Matches.Len())
		assert.Equal(t, []string{"customer-management"}, ids(res.VisibleRoots))
	})

	t.Run("Description", func(t *testing.T) {
		res := idx.Search("liquidity")
		assert.Equal(t, []string{"cash-management"}, res.Matches.IDs())
	})

	t.Run("No cross-field match", func(t *testing.T) {
		// "Tax Compliance" + "Finance" must not be glued together.
		res := idx.Search("compliancefinance")
		assert.True(t, res.Empty())
	})
}

func TestSearch_NoResults(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := idx.Search("zzz-not-there")

	assert.True(t, res.Empty())
	assert.Empty(t, res.VisibleRoots)
	assert.True(t, res.Matches.IsEmpty())
}

func TestSearch_DanglingParentEndsChain(t *testing.T) {
	orphan := &domain.CapabilityNode{ID: "orphan", Name: "Orphan Widget", Level: 2, ParentID: "missing"}
	root := &domain.CapabilityNode{ID: "root", Name: "Root", Level: 1, Children: []*domain.CapabilityNode{orphan}}
	idx := hierarchy.NewIndex([]*domain.CapabilityNode{root})

	res := idx.Search("widget")

	assert.Equal(t, []string{"orphan"}, res.Expand.IDs())
	assert.True(t, res.Empty(), "root is neither a match nor a resolvable ancestor")
}

func TestSearch_CyclicParentsTerminate(t *testing.T) {
	a := &domain.CapabilityNode{ID: "a", Name: "Alpha", Level: 1, ParentID: "b"}
	b := &domain.CapabilityNode{ID: "b", Name: "Beta", Level: 2, ParentID: "a"}
	a.Children = []*domain.CapabilityNode{b}
	idx := hierarchy.NewIndex([]*domain.CapabilityNode{a})

	res := idx.Search("beta")

	assert.ElementsMatch(t, []string{"a", "b"}, res.Expand.IDs())
	assert.Len(t, idx.Ancestors("b"), 1)
}

func TestLevel_Scenario(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := idx.Level(3)

	assert.Contains(t, ids(res.VisibleRoots), "finance-management")
	assert.True(t, res.Matches.Contains("tax-compliance"))
	assert.True(t, res.Expand.Contains("finance-management"))
	for _, id := range res.Matches.IDs() {
		n, _ := idx.Lookup(id)
		assert.Equal(t, 3, n.Level)
	}
}

func TestLevel_OnlyAncestorsBesideMatches(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	for level := 1; level <= 3; level++ {
		res := idx.Level(level)
		for _, id := range res.Expand.IDs() {
			n, ok := idx.Lookup(id)
			require.True(t, ok)
			if res.Matches.Contains(id) {
				assert.Equal(t, level, n.Level)
			} else {
				assert.Less(t, n.Level, level, "%s is neither a match nor an ancestor", id)
			}
		}
	}
}

func TestLevel_Disabled(t *testing.T) {
	forest := fixtureForest()
	idx := hierarchy.NewIndex(forest)

	res := idx.Level(0)

	assert.Equal(t, ids(forest), ids(res.VisibleRoots))
	assert.False(t, res.Filtered)
}

func TestApply_CategoryPartition(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := hierarchy.Apply(idx, hierarchy.Query{Category: domain.CategoryCore}, hierarchy.PolicyIntersect)
	assert.Equal(t, []string{"customer-management"}, ids(res.VisibleRoots))

	res = hierarchy.Apply(idx, hierarchy.Query{Text: "regulations", Category: domain.CategoryCore}, hierarchy.PolicyIntersect)
	assert.True(t, res.Empty(), "the match lives under the enabling tab")
}

func TestApply_Intersect(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	// Level 3 nodes exist under both roots; the text only matches under one.
	res := hierarchy.Apply(idx, hierarchy.Query{Text: "complaint", Level: 3}, hierarchy.PolicyIntersect)
	assert.Equal(t, []string{"customer-management"}, ids(res.VisibleRoots))
	assert.True(t, res.Expand.Contains("tax-compliance"), "expand is the union of both filters")
	assert.False(t, res.Matches.Contains("tax-compliance"), "matches are restricted to visible roots")
	assert.Equal(t, []string{"complaint-handling"}, res.Matches.IDs())

	// sales is level 2; its root survives both filters but nothing matches both.
	res = hierarchy.Apply(idx, hierarchy.Query{Text: "sales", Level: 3}, hierarchy.PolicyIntersect)
	assert.Equal(t, []string{"customer-management"}, ids(res.VisibleRoots))
	assert.True(t, res.Matches.IsEmpty())

	res = hierarchy.Apply(idx, hierarchy.Query{Text: "treasury", Level: 1}, hierarchy.PolicyIntersect)
	assert.Equal(t, []string{"finance-management"}, ids(res.VisibleRoots))
}

func TestApply_IntersectMatchesBothPredicates(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := hierarchy.Apply(idx, hierarchy.Query{Text: "tax", Level: 3}, hierarchy.PolicyIntersect)
	require.False(t, res.Matches.IsEmpty())
	for _, id := range res.Matches.IDs() {
		n, ok := idx.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, 3, n.Level, id)
		assert.Contains(t, strings.ToLower(n.Name+" "+n.Description), "tax", id)
	}
	assert.False(t, res.Matches.Contains("taxes"), "level 2 text match")
	assert.False(t, res.Matches.Contains("cash-management"), "level 3 without the text")

	res = hierarchy.Apply(idx, hierarchy.Query{Text: "finance", Level: 1}, hierarchy.PolicyIntersect)
	assert.Equal(t, []string{"finance-management"}, res.Matches.IDs())
}

func TestApply_IntersectBuiltinTaxonomy(t *testing.T) {
	idx := taxonomy.Default().Index()

	res := hierarchy.Apply(idx, hierarchy.Query{Text: "regulations", Level: 3}, hierarchy.PolicyIntersect)

	assert.Equal(t, []string{"tax-compliance"}, res.Matches.IDs())
	assert.Equal(t, []string{"finance-management"}, ids(res.VisibleRoots))
	assert.Less(t, res.Matches.Len(), res.Expand.Len())
}

func TestSearch_DoesNotSpanFields(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	// "Tax Compliance" followed by the domain "Finance".
	assert.True(t, idx.Search("compliance\x00finance").Matches.IsEmpty())
	assert.True(t, idx.Search("\x00").Empty())
	assert.True(t, idx.Search("tax compliance").Matches.Contains("tax-compliance"))
}

func TestApply_Sequential(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	res := hierarchy.Apply(idx, hierarchy.Query{Text: "complaint", Level: 3}, hierarchy.PolicySequential)

	assert.Equal(t, []string{"customer-management"}, ids(res.VisibleRoots))
	// The level step replaces the search step's expand set.
	assert.False(t, res.Expand.Contains("sales"))
	assert.ElementsMatch(t, []string{"customer-management", "customer-service", "complaint-handling"}, res.Expand.IDs())

	res = hierarchy.Apply(idx, hierarchy.Query{Text: "nothing-here", Level: 3}, hierarchy.PolicySequential)
	assert.True(t, res.Empty())
}

func TestParsePolicy(t *testing.T) {
	p, err := hierarchy.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.PolicyIntersect, p)

	p, err = hierarchy.ParsePolicy("Sequential")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.PolicySequential, p)
	assert.Equal(t, "sequential", p.String())

	_, err = hierarchy.ParsePolicy("union")
	assert.Error(t, err)
}

func TestSearch_Properties_BuiltinTaxonomy(t *testing.T) {
	store := taxonomy.Default()
	idx := store.Index()

	queries := []string{"a", "an", "man", "manage", "management", "tax", "taxes", "risk", "risk man", "data", "data gov"}

	t.Run("AncestorPreservation", func(t *testing.T) {
		for _, q := range queries {
			res := idx.Search(q)
			for _, id := range res.Matches.IDs() {
				for _, anc := range idx.Ancestors(id) {
					assert.True(t, res.Expand.Contains(anc.ID), "query %q: ancestor %s of %s not expanded", q, anc.ID, id)
				}
				path := idx.Path(id)
				assert.Contains(t, ids(res.VisibleRoots), path[0].ID)
			}
		}
	})

	t.Run("Monotonicity", func(t *testing.T) {
		for _, q1 := range queries {
			for _, q2 := range queries {
				if !strings.Contains(q2, q1) {
					continue
				}
				narrow := idx.Search(q2).Matches
				wide := idx.Search(q1).Matches
				assert.Equal(t, narrow.Len(), narrow.Intersect(wide).Len(), "%q should narrow %q", q2, q1)
			}
		}
	})

	t.Run("RegulationsScenario", func(t *testing.T) {
		res := idx.Search("regulations")
		assert.Equal(t, []string{"tax-compliance"}, res.Matches.IDs())
		assert.ElementsMatch(t, []string{"tax-compliance", "taxes", "finance-management"}, res.Expand.IDs())
		assert.Equal(t, []string{"finance-management"}, ids(res.VisibleRoots))
	})

	t.Run("LevelScenario", func(t *testing.T) {
		res := idx.Level(3)
		assert.Contains(t, ids(res.VisibleRoots), "finance-management")
		assert.True(t, res.Matches.Contains("tax-compliance"))
	})
}

func TestIndex_PathAndLookup(t *testing.T) {
	idx := hierarchy.NewIndex(fixtureForest())

	assert.Equal(t, []string{"finance-management", "taxes", "tax-compliance"}, ids(idx.Path("tax-compliance")))
	assert.Nil(t, idx.Path("unknown"))

	_, ok := idx.Lookup("sales")
	assert.True(t, ok)
	assert.Equal(t, 10, idx.Len())
}
