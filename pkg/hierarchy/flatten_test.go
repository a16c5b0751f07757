package hierarchy_test

import (
	"testing"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_PreOrder(t *testing.T) {
	got := ids(hierarchy.Flatten(fixtureForest()))

	assert.Equal(t, []string{
		"finance-management", "taxes", "tax-compliance", "tax-planning", "treasury", "cash-management",
		"customer-management", "customer-service", "complaint-handling", "sales",
	}, got)
}

func TestFlatten_EdgeCases(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		got := hierarchy.Flatten(nil)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Leaf", func(t *testing.T) {
		leaf := &domain.CapabilityNode{ID: "leaf"}
		assert.Equal(t, []string{"leaf"}, ids(hierarchy.Flatten([]*domain.CapabilityNode{leaf})))
	})

	t.Run("Repeated and nil entries", func(t *testing.T) {
		forest := fixtureForest()
		taxes := forest[0].Children[0]
		got := ids(hierarchy.Flatten([]*domain.CapabilityNode{nil, forest[0], taxes, nil}))
		assert.Len(t, got, 6)
		assert.Equal(t, "finance-management", got[0])
	})

	t.Run("Sub-forest", func(t *testing.T) {
		forest := fixtureForest()
		got := ids(hierarchy.Flatten(forest[1].Children))
		assert.Equal(t, []string{"customer-service", "complaint-handling", "sales"}, got)
	})
}

func TestFlatten_Properties_BuiltinTaxonomy(t *testing.T) {
	store := taxonomy.Default()
	forest := store.Forest()
	flat := hierarchy.Flatten(forest)

	// Completeness: every node exactly once.
	require.Equal(t, store.Len(), len(flat))
	position := make(map[string]int, len(flat))
	for i, n := range flat {
		_, dup := position[n.ID]
		require.False(t, dup, "duplicate id %s", n.ID)
		position[n.ID] = i
	}

	// Order: ancestors strictly before, descendants strictly after.
	idx := store.Index()
	for _, n := range flat {
		for _, anc := range idx.Ancestors(n.ID) {
			assert.Less(t, position[anc.ID], position[n.ID], "%s should precede %s", anc.ID, n.ID)
		}
		for _, d := range hierarchy.Flatten(n.Children) {
			assert.Greater(t, position[d.ID], position[n.ID], "%s should follow %s", d.ID, n.ID)
		}
	}
}

func TestWalk_DepthAndSkip(t *testing.T) {
	var visited []string
	depths := map[string]int{}
	hierarchy.Walk(fixtureForest(), func(n *domain.CapabilityNode, depth int) bool {
		visited = append(visited, n.ID)
		depths[n.ID] = depth
		return n.ID != "taxes"
	})

	assert.NotContains(t, visited, "tax-compliance")
	assert.Contains(t, visited, "treasury")
	assert.Equal(t, 0, depths["finance-management"])
	assert.Equal(t, 2, depths["cash-management"])
	assert.Equal(t, 10, hierarchy.Count(fixtureForest()))
}
