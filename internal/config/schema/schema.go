// Package schema provides JSON Schema validation for the embedded
// configuration payload.
//
// A Document describes the shape of one configuration region: the root
// envelope or a single plugin's schema fragment. Fragments are combined
// by independent validation passes rather than schema composition
// keywords, so each plugin's schema stays self-contained and
// independently versionable. Validation is exhaustive: every violation
// across every document is collected into a single error list.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Document is a parsed JSON Schema. Only the subset of keywords the
// validator understands is modeled; unknown keywords are dropped on
// parse rather than rejected.
type Document struct {
	ID            string `json:"$id,omitempty"`
	SchemaVersion string `json:"$schema,omitempty"`

	// Title names the schema; it is carried on every validation error.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Type    Type `json:"type,omitempty"`
	Enum    []any `json:"enum,omitempty"`
	Const   any   `json:"const,omitempty"`
	Default any   `json:"default,omitempty"`

	// Object keywords.
	Properties           map[string]*Document `json:"properties,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
	Required             []string             `json:"required,omitempty"`

	// Numeric keywords.
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// String keywords.
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Array keywords.
	Items       *Document `json:"items,omitempty"`
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`
}

// Parse decodes a schema document from JSON bytes.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &d, nil
}

// GetProperty walks a dot-separated property path and returns the
// schema found there, or nil when the path leaves the declared
// properties.
func (d *Document) GetProperty(path string) *Document {
	if d == nil || path == "" {
		return d
	}

	cur := d
	for _, name := range strings.Split(path, ".") {
		if name == "" {
			continue
		}
		next, ok := cur.Properties[name]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// IsRequired reports whether the named property is listed as required.
func (d *Document) IsRequired(name string) bool {
	return slices.Contains(d.Required, name)
}

// AllowsAdditionalProperties reports whether undeclared properties
// pass validation. Absent additionalProperties means permissive,
// matching the JSON Schema default.
func (d *Document) AllowsAdditionalProperties() bool {
	return d.AdditionalProperties == nil || *d.AdditionalProperties
}

// Type holds a document's "type" keyword, which JSON Schema allows to
// be either a single name or a list of alternatives.
type Type struct {
	Types []string
}

// Is reports whether the type accepts the given JSON type name.
func (t Type) Is(name string) bool {
	return slices.Contains(t.Types, name)
}

// IsEmpty reports whether no type constraint was declared.
func (t Type) IsEmpty() bool {
	return len(t.Types) == 0
}

func (t Type) String() string {
	if len(t.Types) == 1 {
		return t.Types[0]
	}
	return fmt.Sprintf("%v", t.Types)
}

// UnmarshalJSON accepts "string" or ["string", "null"] forms.
func (t *Type) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		t.Types = []string{one}
		return nil
	}
	if err := json.Unmarshal(data, &t.Types); err != nil {
		return fmt.Errorf("type must be string or array of strings: %w", err)
	}
	return nil
}

// MarshalJSON writes a lone type back as a bare string so round
// tripping a parsed schema preserves the common single-type form.
func (t Type) MarshalJSON() ([]byte, error) {
	if len(t.Types) == 1 {
		return json.Marshal(t.Types[0])
	}
	return json.Marshal(t.Types)
}
