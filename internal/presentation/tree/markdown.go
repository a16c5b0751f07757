// Package tree renders capability trees and teams as Markdown and Mermaid.
package tree

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/taxonomy"
)

// Markdown renders a picker view as a nested task list. Expanded nodes are
// marked with ▾ and collapsed parents with ▸.
func Markdown(view domain.PickerView) string {
	var sb strings.Builder

	if view.Query != "" || view.Level > 0 || view.Category != "" {
		sb.WriteString("_Filter:")
		if view.Query != "" {
			sb.WriteString(fmt.Sprintf(" “%s”", view.Query))
		}
		if view.Level > 0 {
			sb.WriteString(fmt.Sprintf(" level %d", view.Level))
		}
		if view.Category != "" {
			sb.WriteString(fmt.Sprintf(" %s", view.Category))
		}
		sb.WriteString("_\n\n")
	}

	if view.NoResults {
		sb.WriteString("_No capabilities match._\n")
		return sb.String()
	}

	for _, row := range view.Rows {
		sb.WriteString(strings.Repeat("  ", row.Level-1))

		box := "[ ]"
		if row.Selected {
			box = "[x]"
		}
		name := row.Name
		if row.Matched {
			name = "**" + name + "**"
		}
		sb.WriteString(fmt.Sprintf("- %s %s", box, name))

		if row.HasChildren {
			if row.Expanded {
				sb.WriteString(" ▾")
			} else {
				sb.WriteString(" ▸")
			}
		}
		sb.WriteString(fmt.Sprintf(" `%s`\n", row.ID))
	}
	return sb.String()
}

// Forest renders capabilities as a nested list down to maxLevel (0 means all).
func Forest(forest []*domain.CapabilityNode, maxLevel int) string {
	var sb strings.Builder
	var visit func(nodes []*domain.CapabilityNode)
	visit = func(nodes []*domain.CapabilityNode) {
		for _, n := range nodes {
			if n == nil || (maxLevel > 0 && n.Level > maxLevel) {
				continue
			}
			sb.WriteString(strings.Repeat("  ", n.Level-1))
			sb.WriteString(fmt.Sprintf("- %s `%s`\n", n.Name, n.ID))
			visit(n.Children)
		}
	}
	visit(forest)
	return sb.String()
}

// Capability renders one capability with its path and children.
func Capability(n *domain.CapabilityNode, path []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", n.Name))
	sb.WriteString(fmt.Sprintf("`%s` · level %d · %s", n.ID, n.Level, n.Category))
	if n.Domain != "" {
		sb.WriteString(" · " + n.Domain)
	}
	sb.WriteString("\n\n")
	if len(path) > 1 {
		sb.WriteString(strings.Join(path, " › ") + "\n\n")
	}
	if n.Description != "" {
		sb.WriteString(n.Description + "\n\n")
	}
	if len(n.Children) > 0 {
		sb.WriteString("## Children\n\n")
		for _, c := range n.Children {
			sb.WriteString(fmt.Sprintf("- %s `%s`\n", c.Name, c.ID))
		}
	}
	return sb.String()
}

// Team renders a team card. Capabilities are resolved against tax; ids the
// taxonomy no longer knows are listed separately.
func Team(t *domain.Team, tax *taxonomy.Store) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", t.Name))
	if t.Description != "" {
		sb.WriteString(t.Description + "\n\n")
	}

	if len(t.Members) > 0 {
		sb.WriteString("## Members\n\n")
		for _, m := range t.Members {
			line := "- " + m.Name
			if m.Role != "" {
				line += " (" + m.Role + ")"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	if len(t.Links) > 0 {
		sb.WriteString("## Links\n\n")
		for _, l := range t.Links {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", l.Title, l.URL))
		}
		sb.WriteString("\n")
	}

	wa := t.WorkingAgreement
	if wa.Title != "" || wa.Body != "" {
		title := wa.Title
		if title == "" {
			title = "Working Agreement"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", title, wa.Body))
	}

	sb.WriteString("## Capabilities\n\n")
	known, unknown := tax.Resolve(t.Capabilities)
	if len(known) == 0 && len(unknown) == 0 {
		sb.WriteString("_None yet._\n")
	}
	for _, n := range known {
		sb.WriteString(fmt.Sprintf("- %s\n", strings.Join(tax.Path(n.ID), " › ")))
	}
	for _, id := range unknown {
		sb.WriteString(fmt.Sprintf("- `%s` _(not in taxonomy %s)_\n", id, tax.Version()))
	}
	return sb.String()
}

// Results renders search matches as a flat list, each with its path.
func Results(tax *taxonomy.Store, ids []string) string {
	if len(ids) == 0 {
		return "_No capabilities match._\n"
	}
	var sb strings.Builder
	nodes, unknown := tax.Resolve(ids)
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("- **%s** `%s`", n.Name, n.ID))
		if path := tax.Path(n.ID); len(path) > 1 {
			sb.WriteString(" · " + strings.Join(path[:len(path)-1], " › "))
		}
		sb.WriteString("\n")
	}
	for _, id := range unknown {
		sb.WriteString(fmt.Sprintf("- `%s` _(not in taxonomy %s)_\n", id, tax.Version()))
	}
	return sb.String()
}
