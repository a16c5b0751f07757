package hierarchy

import "github.com/aretw0/teamboard/pkg/domain"

// Flatten returns the pre-order traversal of nodes: each node is immediately
// followed by the flattened sequence of its children. Every reachable node
// appears exactly once; repeated IDs and nil entries are skipped.
func Flatten(nodes []*domain.CapabilityNode) []*domain.CapabilityNode {
	out := make([]*domain.CapabilityNode, 0, len(nodes))
	Walk(nodes, func(n *domain.CapabilityNode, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Walk visits nodes in pre-order. depth is 0 for the nodes passed in.
// Returning false from fn skips the children of the visited node.
func Walk(nodes []*domain.CapabilityNode, fn func(n *domain.CapabilityNode, depth int) bool) {
	seen := make(map[string]struct{})
	walk(nodes, 0, seen, fn)
}

func walk(nodes []*domain.CapabilityNode, depth int, seen map[string]struct{}, fn func(*domain.CapabilityNode, int) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}

		if fn(n, depth) {
			walk(n.Children, depth+1, seen, fn)
		}
	}
}

// Count returns the number of distinct nodes reachable from nodes.
func Count(nodes []*domain.CapabilityNode) int {
	n := 0
	Walk(nodes, func(*domain.CapabilityNode, int) bool {
		n++
		return true
	})
	return n
}
