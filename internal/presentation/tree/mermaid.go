package tree

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
)

// Overlay marks nodes to highlight on the chart.
type Overlay struct {
	Matched  []string
	Selected []string
}

// Mermaid produces a Mermaid flowchart of the forest, one edge per
// parent/child pair. Shapes follow the level:
// - Level 1: ([Stadium])
// - Level 2: [Rectangle]
// - Level 3: (Rounded)
// Overlay classes are applied if provided.
func Mermaid(forest []*domain.CapabilityNode, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	hierarchy.Walk(forest, func(n *domain.CapabilityNode, _ int) bool {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "(", ")"
		switch n.Level {
		case 1:
			opener, closer = "([", "])"
		case 2:
			opener, closer = "[", "]"
		}

		// Escape double quotes for the Mermaid label
		label := strings.ReplaceAll(n.Name, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, c := range n.Children {
			if c != nil {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(c.ID)))
			}
		}
		return true
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme
		sb.WriteString("    classDef matched fill:#fff59d,stroke:#f9a825,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#c8e6c9,stroke:#2e7d32,stroke-width:3px,color:#000;\n")

		writeClass(&sb, overlay.Matched, "matched")
		writeClass(&sb, overlay.Selected, "selected")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if !seen[safeID] && safeID != "" {
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
		}
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
