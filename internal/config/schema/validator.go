package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"sync"

	"github.com/dshills/pacconf/internal/config/tree"
)

// Validator validates configuration data against a single document.
//
// Validation is exhaustive: every violation is collected rather than
// stopping at the first failure, up to maxErrors. A Validator never
// mutates the data it inspects.
type Validator struct {
	doc *Document

	// maxErrors caps collected errors (0 = unlimited).
	maxErrors int

	// patternCache avoids recompiling regexes across calls.
	patternCache sync.Map // map[string]*regexp.Regexp
}

// NewValidator creates a validator for the given document.
func NewValidator(doc *Document) *Validator {
	return &Validator{
		doc:       doc,
		maxErrors: 100,
	}
}

// WithMaxErrors sets the maximum number of errors to collect.
func (v *Validator) WithMaxErrors(max int) *Validator {
	v.maxErrors = max
	return v
}

// Validate validates configuration data against the document.
// The returned error, if non-nil, is a *ValidationErrors whose entries
// carry the document title.
func (v *Validator) Validate(data map[string]any) error {
	if v.doc == nil {
		return nil
	}

	errs := &ValidationErrors{}
	v.validateValue("", data, v.doc, errs)
	for _, e := range errs.Errors {
		if e.Schema == "" {
			e.Schema = v.doc.Title
		}
	}
	return errs.AsError()
}

// ValidatePath validates a single value against the schema at path.
func (v *Validator) ValidatePath(path string, value any) error {
	if v.doc == nil {
		return nil
	}

	propDoc := v.doc.GetProperty(path)
	if propDoc == nil {
		return nil
	}

	errs := &ValidationErrors{}
	v.validateValue(path, value, propDoc, errs)
	for _, e := range errs.Errors {
		e.Schema = v.doc.Title
	}
	return errs.AsError()
}

func (v *Validator) validateValue(path string, value any, doc *Document, errs *ValidationErrors) {
	if doc == nil || (v.maxErrors > 0 && errs.Len() >= v.maxErrors) {
		return
	}

	if doc.Const != nil && !tree.Equal(value, doc.Const) {
		errs.Add(path, fmt.Sprintf("value must be %v", doc.Const))
	}

	if len(doc.Enum) > 0 {
		v.validateEnum(path, value, doc.Enum, errs)
	}

	if !doc.Type.IsEmpty() {
		v.validateType(path, value, doc, errs)
	} else if obj, ok := value.(map[string]any); ok {
		// Untyped object schemas still constrain structure.
		v.validateObject(path, obj, doc, errs)
	}
}

func (v *Validator) validateType(path string, value any, doc *Document, errs *ValidationErrors) {
	if value == nil {
		if !doc.Type.Is(TypeNameNull) {
			errs.AddError(NewTypeError(path, doc.Type.String(), value))
		}
		return
	}

	for _, typ := range doc.Type.Types {
		if !matchesType(value, typ) {
			continue
		}
		switch typ {
		case TypeNameString:
			v.validateString(path, value.(string), doc, errs)
		case TypeNameNumber, TypeNameInteger:
			v.validateNumber(path, value, doc, errs)
		case TypeNameArray:
			v.validateArray(path, value.([]any), doc, errs)
		case TypeNameObject:
			v.validateObject(path, value.(map[string]any), doc, errs)
		}
		return
	}

	errs.AddError(NewTypeError(path, doc.Type.String(), value))
}

func matchesType(value any, typ string) bool {
	switch typ {
	case TypeNameString:
		_, ok := value.(string)
		return ok
	case TypeNameNumber:
		_, ok := tree.AsFloat64(value)
		return ok
	case TypeNameInteger:
		return isInteger(value)
	case TypeNameBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNameArray:
		_, ok := value.([]any)
		return ok
	case TypeNameObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeNameNull:
		return value == nil
	default:
		return false
	}
}

func (v *Validator) validateString(path, value string, doc *Document, errs *ValidationErrors) {
	if doc.MinLength != nil && len(value) < *doc.MinLength {
		errs.Add(path, fmt.Sprintf("string length %d is less than minimum %d", len(value), *doc.MinLength))
	}
	if doc.MaxLength != nil && len(value) > *doc.MaxLength {
		errs.Add(path, fmt.Sprintf("string length %d is greater than maximum %d", len(value), *doc.MaxLength))
	}
	if doc.Pattern != "" && !v.matchPattern(value, doc.Pattern) {
		errs.AddError(NewPatternError(path, value, doc.Pattern))
	}
}

func (v *Validator) validateNumber(path string, value any, doc *Document, errs *ValidationErrors) {
	f, _ := tree.AsFloat64(value)

	if doc.Type.Is(TypeNameInteger) && !doc.Type.Is(TypeNameNumber) && !isInteger(value) {
		errs.Add(path, fmt.Sprintf("expected integer, got %v", value))
		return
	}

	if doc.Minimum != nil && f < *doc.Minimum {
		errs.AddError(NewRangeError(path, value, doc.Minimum, doc.Maximum))
	}
	if doc.Maximum != nil && f > *doc.Maximum {
		errs.AddError(NewRangeError(path, value, doc.Minimum, doc.Maximum))
	}
	if doc.ExclusiveMinimum != nil && f <= *doc.ExclusiveMinimum {
		errs.Add(path, fmt.Sprintf("value must be greater than %v", *doc.ExclusiveMinimum))
	}
	if doc.ExclusiveMaximum != nil && f >= *doc.ExclusiveMaximum {
		errs.Add(path, fmt.Sprintf("value must be less than %v", *doc.ExclusiveMaximum))
	}
	if doc.MultipleOf != nil && *doc.MultipleOf != 0 {
		remainder := math.Mod(f, *doc.MultipleOf)
		if math.Abs(remainder) > 1e-10 && math.Abs(remainder-*doc.MultipleOf) > 1e-10 {
			errs.Add(path, fmt.Sprintf("value must be a multiple of %v", *doc.MultipleOf))
		}
	}
}

func (v *Validator) validateArray(path string, arr []any, doc *Document, errs *ValidationErrors) {
	if doc.MinItems != nil && len(arr) < *doc.MinItems {
		errs.Add(path, fmt.Sprintf("array has %d items, minimum is %d", len(arr), *doc.MinItems))
	}
	if doc.MaxItems != nil && len(arr) > *doc.MaxItems {
		errs.Add(path, fmt.Sprintf("array has %d items, maximum is %d", len(arr), *doc.MaxItems))
	}

	if doc.UniqueItems {
		seen := make(map[string]bool)
		for i, item := range arr {
			// JSON marshaling gives a reliable comparison key.
			keyBytes, err := json.Marshal(item)
			var key string
			if err != nil {
				key = fmt.Sprintf("%v", item)
			} else {
				key = string(keyBytes)
			}
			if seen[key] {
				errs.Add(path, fmt.Sprintf("array items must be unique, duplicate at index %d", i))
				break
			}
			seen[key] = true
		}
	}

	if doc.Items != nil {
		for i, item := range arr {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			v.validateValue(itemPath, item, doc.Items, errs)
		}
	}
}

func (v *Validator) validateObject(path string, obj map[string]any, doc *Document, errs *ValidationErrors) {
	for _, req := range doc.Required {
		if _, exists := obj[req]; !exists {
			errs.AddError(NewRequiredError(joinPath(path, req)))
		}
	}

	// Sorted iteration keeps repeated validations byte-identical.
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		propPath := joinPath(path, name)
		if propDoc, ok := doc.Properties[name]; ok {
			v.validateValue(propPath, obj[name], propDoc, errs)
		} else if !doc.AllowsAdditionalProperties() {
			errs.AddError(NewUnknownPropertyError(propPath))
		}
	}
}

func (v *Validator) validateEnum(path string, value any, allowed []any, errs *ValidationErrors) {
	for _, a := range allowed {
		if tree.Equal(value, a) {
			return
		}
	}
	errs.AddError(NewEnumError(path, value, allowed))
}

func (v *Validator) matchPattern(value, pattern string) bool {
	if cached, ok := v.patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(value)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	v.patternCache.Store(pattern, re)
	return re.MatchString(value)
}

func isInteger(v any) bool {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return float32(int32(val)) == val
	case float64:
		return float64(int64(val)) == val
	default:
		return false
	}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
