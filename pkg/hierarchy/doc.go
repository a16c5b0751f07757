/*
Package hierarchy implements traversal and filtering over the capability forest.

It provides the pre-order Flattener and the Filter Engine that answers text and
level queries while preserving hierarchical context: every ancestor of a match
is reported for force-expansion, and a level-1 node stays visible whenever it,
or anything beneath it, matches.

The package is pure and synchronous. An Index is immutable once built and can
be shared freely between goroutines.

# Usage

	idx := hierarchy.NewIndex(store.Forest())
	res := hierarchy.Apply(idx, hierarchy.Query{Text: "regulations"}, hierarchy.PolicyIntersect)
	for _, root := range res.VisibleRoots {
		fmt.Println(root.Name, res.Expand.Contains(root.ID))
	}
*/
package hierarchy
