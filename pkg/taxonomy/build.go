package taxonomy

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard/pkg/domain"
)

// Build validates defs and converts them into a Store.
//
// Every problem found is reported at once, wrapped in domain.ErrInvalidTaxonomy:
// missing or duplicate ids, missing names, unknown categories, children
// overriding their root's category, explicit levels or parents that disagree
// with the nesting, and nesting deeper than domain.MaxLevel.
func Build(defs []Definition) (*Store, error) {
	b := &builder{seen: make(map[string]bool)}
	forest := make([]*domain.CapabilityNode, 0, len(defs))
	for _, d := range defs {
		if n := b.node(d, nil); n != nil {
			forest = append(forest, n)
		}
	}
	if len(b.problems) > 0 {
		return nil, invalid(b.problems)
	}
	return &Store{forest: forest, size: b.count, source: "inline"}, nil
}

type builder struct {
	seen     map[string]bool
	count    int
	problems []string
}

func (b *builder) fail(id, format string, args ...any) {
	if id == "" {
		id = "<unnamed>"
	}
	b.problems = append(b.problems, id+": "+fmt.Sprintf(format, args...))
}

func (b *builder) node(d Definition, parent *domain.CapabilityNode) *domain.CapabilityNode {
	level := domain.LevelDomain
	if parent != nil {
		level = parent.Level + 1
	}

	id := strings.TrimSpace(d.ID)
	switch {
	case id == "":
		b.fail(d.Name, "missing id")
	case b.seen[id]:
		b.fail(id, "duplicate id")
	}
	b.seen[id] = true

	if strings.TrimSpace(d.Name) == "" {
		b.fail(id, "missing name")
	}
	if level > domain.MaxLevel {
		b.fail(id, "nested deeper than level %d", domain.MaxLevel)
	}
	if d.Level != 0 && d.Level != level {
		b.fail(id, "declares level %d but sits at level %d", d.Level, level)
	}

	n := &domain.CapabilityNode{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Level:       level,
		Category:    domain.Category(strings.ToLower(strings.TrimSpace(d.Category))),
		Domain:      strings.TrimSpace(d.Domain),
		Description: strings.TrimSpace(d.Description),
	}

	if parent == nil {
		if d.ParentID != "" {
			b.fail(id, "level-1 capability declares parent %q", d.ParentID)
		}
		if !n.Category.Valid() {
			b.fail(id, "unknown category %q", d.Category)
		}
		if n.Domain == "" {
			n.Domain = n.Name
		}
	} else {
		if d.ParentID != "" && d.ParentID != parent.ID {
			b.fail(id, "declares parent %q but is nested under %q", d.ParentID, parent.ID)
		}
		if n.Category != "" && n.Category != parent.Category {
			b.fail(id, "category %q differs from its root's %q", n.Category, parent.Category)
		}
		n.Category = parent.Category
		n.ParentID = parent.ID
		if n.Domain == "" {
			n.Domain = parent.Domain
		}
	}

	b.count++
	if len(d.Children) > 0 {
		n.Children = make([]*domain.CapabilityNode, 0, len(d.Children))
		for _, c := range d.Children {
			n.Children = append(n.Children, b.node(c, n))
		}
	}
	return n
}

func invalid(problems []string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidTaxonomy, strings.Join(problems, "; "))
}
