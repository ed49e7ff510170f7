// Package merge deep-merges a mutable custom overlay onto an immutable
// default configuration tree.
//
// Merging is strict: a value present on both sides must keep its kind.
// Mappings merge recursively over the union of their keys; every other
// kind (including arrays) is treated as an opaque leaf and the overlay
// value replaces the default wholesale. Results never alias either
// input tree.
package merge

import (
	"errors"
	"fmt"

	"github.com/dshills/pacconf/internal/config/tree"
)

// Errors returned by merge operations.
var (
	// ErrMergeInput indicates neither side was defined. This is an
	// internal-contract violation; well-formed callers never trigger it.
	ErrMergeInput = errors.New("merge: neither side defined")

	// ErrTypeMismatch indicates the overlay changes the kind of a
	// default value.
	ErrTypeMismatch = errors.New("merge: type mismatch")
)

// TypeMismatchError reports an overlay value whose kind differs from
// the default value at the same path. Both values are carried for
// diagnostics.
type TypeMismatchError struct {
	// Path is the dot-separated path to the conflicting value.
	Path string
	// Default is the value from the default tree.
	Default any
	// Custom is the value from the overlay.
	Custom any
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %q: default is %s (%v), overlay is %s (%v)",
		e.Path, KindOf(e.Default), e.Default, KindOf(e.Custom), e.Custom)
}

// Is implements error matching against ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Kind classifies a configuration value for compatibility checks.
type Kind uint8

const (
	// KindNull is the JSON null value.
	KindNull Kind = iota
	// KindBool is a boolean scalar.
	KindBool
	// KindString is a string scalar.
	KindString
	// KindNumber is any numeric scalar.
	KindNumber
	// KindArray is a sequence, treated as an opaque leaf.
	KindArray
	// KindMapping is a nested mapping.
	KindMapping
	// KindUnknown is any value outside the JSON data model.
	KindUnknown
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// KindOf classifies a value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case map[string]any:
		return KindMapping
	case []any:
		return KindArray
	}
	if _, ok := tree.AsFloat64(v); ok {
		return KindNumber
	}
	return KindUnknown
}

// Merge combines a default value and a custom overlay value.
//
// If exactly one side is defined, the result is an independent deep
// copy of that side. If neither is defined, Merge fails with
// ErrMergeInput. If both are defined their kinds must match: mappings
// merge recursively over the union of keys, any other kind resolves to
// a copy of the overlay value. A kind mismatch fails with
// *TypeMismatchError. Neither input is ever mutated.
func Merge(def, custom any, defDefined, customDefined bool) (any, error) {
	return mergeValue("", def, custom, defDefined, customDefined)
}

// Trees merges two root mappings. A nil overlay is treated as empty.
func Trees(def, custom map[string]any) (map[string]any, error) {
	if custom == nil {
		custom = map[string]any{}
	}
	merged, err := mergeValue("", def, custom, true, true)
	if err != nil {
		return nil, err
	}
	return merged.(map[string]any), nil
}

func mergeValue(path string, def, custom any, defDefined, customDefined bool) (any, error) {
	switch {
	case !defDefined && !customDefined:
		return nil, fmt.Errorf("%w at %q", ErrMergeInput, path)
	case !customDefined:
		return tree.CloneValue(def), nil
	case !defDefined:
		return tree.CloneValue(custom), nil
	}

	defKind, customKind := KindOf(def), KindOf(custom)
	if defKind != customKind {
		return nil, &TypeMismatchError{Path: path, Default: def, Custom: custom}
	}

	if defKind == KindMapping {
		return mergeMaps(path, def.(map[string]any), custom.(map[string]any))
	}

	// Leaf present on both sides: the overlay wins outright. Arrays
	// replace wholesale, no element-wise reconciliation.
	return tree.CloneValue(custom), nil
}

func mergeMaps(path string, def, custom map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(def)+len(custom))

	for key, defVal := range def {
		customVal, inCustom := custom[key]
		merged, err := mergeValue(joinPath(path, key), defVal, customVal, true, inCustom)
		if err != nil {
			return nil, err
		}
		result[key] = merged
	}

	// Overlay-only keys introduce settings with no default.
	for key, customVal := range custom {
		if _, inDef := def[key]; inDef {
			continue
		}
		merged, err := mergeValue(joinPath(path, key), nil, customVal, false, true)
		if err != nil {
			return nil, err
		}
		result[key] = merged
	}

	return result, nil
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
