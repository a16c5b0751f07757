package domain

import "fmt"

// Category partitions the level-1 capabilities into the dashboard tabs.
type Category string

const (
	CategoryCore     Category = "core"
	CategoryEnabling Category = "enabling"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryCore || c == CategoryEnabling
}

// ParseCategory converts user input into a Category. The empty string means "all tabs".
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if s == "" || c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (want %q or %q)", s, CategoryCore, CategoryEnabling)
}

const (
	LevelDomain   = 1 // top-level domain
	LevelArea     = 2
	LevelSpecific = 3 // most specific capability

	MaxLevel = LevelSpecific
)

// CapabilityNode is one entry of the capability taxonomy.
//
// A node exclusively owns its Children. ParentID is a non-owning back-reference
// and is empty for level-1 nodes.
type CapabilityNode struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Level       int               `json:"level" yaml:"level"`
	Category    Category          `json:"category" yaml:"category"`
	Domain      string            `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	ParentID    string            `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Children    []*CapabilityNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsRoot reports whether the node is a top-level domain.
func (n *CapabilityNode) IsRoot() bool {
	return n.ParentID == ""
}

// IsLeaf reports whether the node has no children.
func (n *CapabilityNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// HasChildren is the inverse of IsLeaf. Only nodes with children carry a
// meaningful expansion state.
func (n *CapabilityNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Summary returns a copy of the node without its children.
func (n *CapabilityNode) Summary() CapabilityNode {
	c := *n
	c.Children = nil
	return c
}
