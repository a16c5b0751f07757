package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the authored form of a capability.
// Level and ParentID are optional; when present they must agree with the nesting.
type Definition struct {
	ID          string       `yaml:"id" json:"id" mapstructure:"id"`
	Name        string       `yaml:"name" json:"name" mapstructure:"name"`
	Level       int          `yaml:"level,omitempty" json:"level,omitempty" mapstructure:"level"`
	Category    string       `yaml:"category,omitempty" json:"category,omitempty" mapstructure:"category"`
	Domain      string       `yaml:"domain,omitempty" json:"domain,omitempty" mapstructure:"domain"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	ParentID    string       `yaml:"parent,omitempty" json:"parent,omitempty" mapstructure:"parent"`
	Children    []Definition `yaml:"children,omitempty" json:"children,omitempty" mapstructure:"children"`
}

// File is the on-disk document: a version label plus the level-1 definitions.
type File struct {
	Version      string       `yaml:"version" json:"version"`
	Capabilities []Definition `yaml:"capabilities" json:"capabilities"`
}

// Parse decodes a taxonomy document. format is "json" or "yaml" (the default).
func Parse(data []byte, format string) (*File, error) {
	var f File
	if format == "json" {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse taxonomy json: %w", err)
		}
		return &f, nil
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy yaml: %w", err)
	}
	return &f, nil
}

// LoadFile reads and builds a taxonomy from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	s, err := Build(f.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.version = f.Version
	s.source = path
	return s, nil
}

// Assemble nests a flat list of definitions by their ParentID. Sibling order
// follows the input order. Definitions whose parent is missing are reported,
// as are parent chains that loop.
func Assemble(flat []Definition) ([]Definition, error) {
	byParent := make(map[string][]int, len(flat))
	known := make(map[string]bool, len(flat))
	for i, d := range flat {
		known[d.ID] = true
		byParent[d.ParentID] = append(byParent[d.ParentID], i)
	}

	var problems []string
	for _, d := range flat {
		if d.ParentID != "" && !known[d.ParentID] {
			problems = append(problems, fmt.Sprintf("%s: unknown parent %q", d.ID, d.ParentID))
		}
	}

	placed := 0
	var nest func(parentID string, path map[string]bool) []Definition
	nest = func(parentID string, path map[string]bool) []Definition {
		var out []Definition
		for _, i := range byParent[parentID] {
			d := flat[i]
			if path[d.ID] {
				continue
			}
			placed++
			path[d.ID] = true
			d.Children = append(append([]Definition(nil), d.Children...), nest(d.ID, path)...)
			delete(path, d.ID)
			out = append(out, d)
		}
		return out
	}
	roots := nest("", map[string]bool{})

	if placed < len(flat) && len(problems) == 0 {
		problems = append(problems, "parent chain does not reach a level-1 capability")
	}
	if len(problems) > 0 {
		return nil, invalid(problems)
	}
	return roots, nil
}
