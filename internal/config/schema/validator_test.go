package schema

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`{
		"title": "envelope",
		"type": "object",
		"additionalProperties": true,
		"required": ["plugins"],
		"properties": {
			"plugins": {
				"type": "object"
			},
			"timeout": {
				"type": ["number", "null"],
				"minimum": 0
			}
		}
	}`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Title != "envelope" {
		t.Errorf("Title = %q, want %q", doc.Title, "envelope")
	}
	if !doc.Type.Is(TypeNameObject) {
		t.Errorf("Type = %v, want object", doc.Type)
	}
	if !doc.IsRequired("plugins") {
		t.Error("plugins should be required")
	}
	timeout := doc.GetProperty("timeout")
	if timeout == nil {
		t.Fatal("timeout property missing")
	}
	if !timeout.Type.Is(TypeNameNumber) || !timeout.Type.Is(TypeNameNull) {
		t.Errorf("timeout type = %v, want [number null]", timeout.Type)
	}
	if timeout.Minimum == nil || *timeout.Minimum != 0 {
		t.Errorf("timeout minimum = %v, want 0", timeout.Minimum)
	}

	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("Parse accepted malformed JSON")
	}
}

func TestValidateTypes(t *testing.T) {
	doc := Object().
		Title("test").
		Property("name", String().MinLength(1).Build()).
		Property("count", Integer().Minimum(0).Maximum(10).Build()).
		Property("ratio", Number().Build()).
		Property("enabled", Boolean().Build()).
		Property("tags", Array().Items(String().Build()).UniqueItems().Build()).
		Property("nested", Object().Property("inner", Boolean().Build()).Build()).
		Build()
	v := NewValidator(doc)

	tests := []struct {
		name     string
		data     map[string]any
		wantErrs int
	}{
		{
			name: "all valid",
			data: map[string]any{
				"name":    "pac",
				"count":   3.0,
				"ratio":   0.5,
				"enabled": true,
				"tags":    []any{"a", "b"},
				"nested":  map[string]any{"inner": false},
			},
		},
		{
			name:     "wrong scalar types",
			data:     map[string]any{"name": 1, "enabled": "yes"},
			wantErrs: 2,
		},
		{
			name:     "integer constraint",
			data:     map[string]any{"count": 3.5},
			wantErrs: 1,
		},
		{
			name:     "out of range",
			data:     map[string]any{"count": 42.0},
			wantErrs: 1,
		},
		{
			name:     "string too short",
			data:     map[string]any{"name": ""},
			wantErrs: 1,
		},
		{
			name:     "duplicate array items",
			data:     map[string]any{"tags": []any{"a", "a"}},
			wantErrs: 1,
		},
		{
			name:     "bad array element type",
			data:     map[string]any{"tags": []any{"a", 2}},
			wantErrs: 1,
		},
		{
			name:     "nested object error",
			data:     map[string]any{"nested": map[string]any{"inner": "nope"}},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if tt.wantErrs == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want *ValidationErrors", err)
			}
			if verrs.Len() != tt.wantErrs {
				t.Errorf("got %d errors, want %d: %v", verrs.Len(), tt.wantErrs, verrs)
			}
			for _, e := range verrs.Errors {
				if e.Schema != "test" {
					t.Errorf("error %v not tagged with schema title", e)
				}
			}
		})
	}
}

func TestValidateRequiredAndAdditional(t *testing.T) {
	doc := Object().
		Title("strict").
		Property("version", String().Build()).
		Required("version").
		AdditionalProperties(false).
		Build()
	v := NewValidator(doc)

	err := v.Validate(map[string]any{"stray": 1})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error = %v, want to match ErrValidationFailed", err)
	}
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want *ValidationErrors", err)
	}
	// Missing required version plus unknown stray property.
	if verrs.Len() != 2 {
		t.Fatalf("got %d errors, want 2: %v", verrs.Len(), verrs)
	}

	// Permissive envelope allows coexisting plugin sections.
	open := Object().Title("open").Property("version", String().Build()).Build()
	if err := NewValidator(open).Validate(map[string]any{"version": "1", "other": true}); err != nil {
		t.Errorf("additionalProperties default should allow unknown keys: %v", err)
	}
}

func TestValidateEnumConstPattern(t *testing.T) {
	doc := Object().
		Title("t").
		Property("mode", StringEnum("direct", "proxy").Build()).
		Property("marker", NewBuilder().Const("v1").Build()).
		Property("host", String().Pattern(`^[a-z0-9.-]+$`).Build()).
		Build()
	v := NewValidator(doc)

	if err := v.Validate(map[string]any{"mode": "proxy", "marker": "v1", "host": "youtube.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := v.Validate(map[string]any{"mode": "off", "marker": "v2", "host": "Bad Host"})
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want *ValidationErrors", err)
	}
	if verrs.Len() != 3 {
		t.Errorf("got %d errors, want 3: %v", verrs.Len(), verrs)
	}
}

func TestValidateMultipleOf(t *testing.T) {
	doc := Object().
		Title("versions").
		Property("version", Number().MultipleOf(0.01).Build()).
		Build()
	v := NewValidator(doc)

	if err := v.Validate(map[string]any{"version": 0.15}); err != nil {
		t.Errorf("0.15 should be a multiple of 0.01: %v", err)
	}
	if err := v.Validate(map[string]any{"version": 0.155}); err == nil {
		t.Error("0.155 should not be a multiple of 0.01")
	}
}

func TestValidatePath(t *testing.T) {
	doc := Object().
		Title("t").
		Property("proxies", Object().Property("enabled", Boolean().Build()).Build()).
		Build()
	v := NewValidator(doc)

	if err := v.ValidatePath("proxies.enabled", true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidatePath("proxies.enabled", "yes"); err == nil {
		t.Error("expected type error for string value")
	}
	// Paths outside the schema are not validated.
	if err := v.ValidatePath("unknown.path", 1); err != nil {
		t.Errorf("unexpected error for unschematized path: %v", err)
	}
}

func TestValidateIdempotent(t *testing.T) {
	doc := Object().
		Title("t").
		Property("a", Boolean().Build()).
		Property("b", Integer().Build()).
		Build()
	v := NewValidator(doc)
	data := map[string]any{"a": "bad", "b": "worse"}

	first := v.Validate(data)
	second := v.Validate(data)
	if first == nil || second == nil {
		t.Fatal("expected errors on both passes")
	}
	if first.Error() != second.Error() {
		t.Errorf("validation not idempotent:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestMaxErrors(t *testing.T) {
	doc := Object().
		Title("t").
		Property("a", Boolean().Build()).
		Property("b", Boolean().Build()).
		Property("c", Boolean().Build()).
		Build()
	v := NewValidator(doc).WithMaxErrors(2)

	err := v.Validate(map[string]any{"a": 1, "b": 1, "c": 1})
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want *ValidationErrors", err)
	}
	if verrs.Len() > 2 {
		t.Errorf("got %d errors, want at most 2", verrs.Len())
	}
}
