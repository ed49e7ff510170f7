package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed matches any aggregated validation failure via
// errors.Is, without callers needing the concrete *ValidationErrors.
var ErrValidationFailed = errors.New("schema validation failed")

// ValidationError is a single violation found while checking a tree
// against one schema document.
type ValidationError struct {
	// Schema is the title of the document that produced the error, so
	// a violation can be traced to the root envelope or to a specific
	// plugin fragment.
	Schema string

	// Path addresses the offending value, dot-separated.
	Path string

	// Message describes the violation.
	Message string

	// Value is the offending value; nil when the value is absent.
	Value any

	// Expected describes the accepted values, when known.
	Expected string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Schema != "" {
		b.WriteString(e.Schema)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors aggregates every violation from a validation pass.
// The zero value is ready to use.
type ValidationErrors struct {
	Errors []*ValidationError
}

// Error implements the error interface. All violations are listed;
// diagnostics against a malformed third-party tree need the full
// picture, not the first failure.
func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no validation errors"
	case 1:
		return e.Errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Add records a violation by path and message.
func (e *ValidationErrors) Add(path, message string) {
	e.AddError(&ValidationError{Path: path, Message: message})
}

// AddError records a prepared violation.
func (e *ValidationErrors) AddError(err *ValidationError) {
	e.Errors = append(e.Errors, err)
}

// Merge appends every violation from another list, preserving order.
func (e *ValidationErrors) Merge(other *ValidationErrors) {
	if other != nil {
		e.Errors = append(e.Errors, other.Errors...)
	}
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationErrors) HasErrors() bool { return len(e.Errors) > 0 }

// Len returns the number of recorded violations.
func (e *ValidationErrors) Len() int { return len(e.Errors) }

// Is implements error matching against ErrValidationFailed.
func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// AsError returns nil when no violations were recorded, otherwise the
// list itself. Callers build a list unconditionally and convert once.
func (e *ValidationErrors) AsError() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ErrorsForSchema filters violations down to those produced by the
// named document.
func (e *ValidationErrors) ErrorsForSchema(title string) []*ValidationError {
	var out []*ValidationError
	for _, err := range e.Errors {
		if err.Schema == title {
			out = append(out, err)
		}
	}
	return out
}

// ErrorsUnderPath filters violations down to a path and its subtree.
func (e *ValidationErrors) ErrorsUnderPath(path string) []*ValidationError {
	prefix := path + "."
	var out []*ValidationError
	for _, err := range e.Errors {
		if err.Path == path || strings.HasPrefix(err.Path, prefix) {
			out = append(out, err)
		}
	}
	return out
}

// NewTypeError reports a value of the wrong JSON type.
func NewTypeError(path string, expected string, actual any) *ValidationError {
	e := violation(path, fmt.Sprintf("value has type %T, want %s", actual, expected))
	e.Value = actual
	e.Expected = expected
	return e
}

// NewEnumError reports a value outside the allowed set.
func NewEnumError(path string, value any, allowed []any) *ValidationError {
	e := violation(path, fmt.Sprintf("value %v is not in the allowed set %v", value, allowed))
	e.Value = value
	e.Expected = fmt.Sprintf("one of %v", allowed)
	return e
}

// NewRangeError reports a number outside its bounds.
func NewRangeError(path string, value any, min, max *float64) *ValidationError {
	var bounds string
	switch {
	case min != nil && max != nil:
		bounds = fmt.Sprintf("between %v and %v", *min, *max)
	case min != nil:
		bounds = fmt.Sprintf(">= %v", *min)
	case max != nil:
		bounds = fmt.Sprintf("<= %v", *max)
	}
	e := violation(path, fmt.Sprintf("value %v outside allowed range (%s)", value, bounds))
	e.Value = value
	e.Expected = bounds
	return e
}

// NewPatternError reports a string that fails its regex.
func NewPatternError(path string, value, pattern string) *ValidationError {
	e := violation(path, fmt.Sprintf("string %q does not match %s", value, pattern))
	e.Value = value
	e.Expected = "pattern: " + pattern
	return e
}

// NewRequiredError reports an absent required property.
func NewRequiredError(path string) *ValidationError {
	return violation(path, "missing required property")
}

// NewUnknownPropertyError reports a property the schema forbids.
func NewUnknownPropertyError(path string) *ValidationError {
	return violation(path, "property not permitted by schema")
}

func violation(path, message string) *ValidationError {
	return &ValidationError{Path: path, Message: message}
}
