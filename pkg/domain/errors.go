package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrTeamNotFound is returned when a team ID cannot be found in the store.
var ErrTeamNotFound = errors.New("team not found")

// ErrPickerNotFound is returned when a picker session ID cannot be found in the store.
var ErrPickerNotFound = errors.New("picker session not found")

// ErrCapabilityNotFound is returned when a capability ID does not resolve in the taxonomy.
var ErrCapabilityNotFound = errors.New("capability not found")

// ErrInvalidTaxonomy is returned when a taxonomy definition is not a well-formed forest.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

// ErrInvalidTeam is the sentinel wrapped by ValidationError.
var ErrInvalidTeam = errors.New("invalid team")

// ValidationError carries field-level messages, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// Add records a message for a field. The first message for a field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid team: " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is(err, ErrInvalidTeam).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTeam
}
