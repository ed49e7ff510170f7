// Package tree provides path-addressed access to nested configuration
// mappings.
//
// Configuration trees are plain map[string]any values holding
// JSON-decoded data. Paths are ASCII, dot-separated identifiers
// (e.g. "proxies.exceptions.ifHostProxied"). There is no escaping
// mechanism for literal dots in keys.
package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by path operations.
var (
	// ErrInvalidPath indicates a malformed path string (empty path or
	// empty segment).
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathNotFound indicates a strict read missed a segment.
	ErrPathNotFound = errors.New("path not found")

	// ErrPathConflict indicates an intermediate segment resolved to a
	// non-mapping value, so the walk cannot descend further.
	ErrPathConflict = errors.New("path conflicts with non-mapping value")
)

// Split breaks a dot-separated path into segments.
// An empty path or a path with an empty segment is invalid.
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(path, ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// Read walks root segment by segment and returns the value at path.
// If a segment is absent and mustExist is true, it fails with
// ErrPathNotFound; otherwise it reports a miss with ok=false. Read
// never mutates root and never creates nodes.
func Read(root map[string]any, path string, mustExist bool) (value any, ok bool, err error) {
	parts, err := Split(path)
	if err != nil {
		return nil, false, err
	}

	current := any(root)
	for i, part := range parts {
		m, isMap := current.(map[string]any)
		if !isMap {
			return nil, false, fmt.Errorf("%w: %q at segment %q", ErrPathConflict, path, parts[i-1])
		}

		val, exists := m[part]
		if !exists {
			if mustExist {
				return nil, false, fmt.Errorf("%w: %q at segment %q", ErrPathNotFound, path, part)
			}
			return nil, false, nil
		}
		current = val
	}

	return current, true, nil
}

// WritableRef walks root toward path, creating an empty mapping for
// every absent intermediate segment. The final segment is never
// created; the parent mapping and final key are returned so the caller
// can assign atomically. An existing non-mapping intermediate fails
// with ErrPathConflict.
func WritableRef(root map[string]any, path string) (parent map[string]any, key string, err error) {
	parts, err := Split(path)
	if err != nil {
		return nil, "", err
	}

	current := root
	for _, part := range parts[:len(parts)-1] {
		val, exists := current[part]
		if !exists {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, isMap := val.(map[string]any)
		if !isMap {
			return nil, "", fmt.Errorf("%w: %q at segment %q", ErrPathConflict, path, part)
		}
		current = next
	}

	return current, parts[len(parts)-1], nil
}

// Delete removes the value at path from root.
// Returns true if the value was found and deleted. Intermediate maps
// are left in place even when emptied.
func Delete(root map[string]any, path string) bool {
	parts, err := Split(path)
	if err != nil {
		return false
	}

	current := root
	for _, part := range parts[:len(parts)-1] {
		next, isMap := current[part].(map[string]any)
		if !isMap {
			return false
		}
		current = next
	}

	key := parts[len(parts)-1]
	if _, exists := current[key]; exists {
		delete(current, key)
		return true
	}
	return false
}

// Clone creates a deep copy of a tree.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = CloneValue(val)
	}
	return dst
}

// CloneValue creates a deep copy of a single value. Scalars are
// returned as-is; mappings and slices are copied recursively so the
// result never aliases src.
func CloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = CloneValue(val)
	}
	return dst
}

// Equal compares two values for deep equality. Numeric values compare
// by magnitude regardless of the concrete Go type.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return mapsEqual(va, vb)
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false
		}
		return slicesEqual(va, vb)
	}

	if fa, aNum := AsFloat64(a); aNum {
		fb, bNum := AsFloat64(b)
		return bNum && fa == fb
	}

	return a == b
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !Equal(va, vb) {
			return false
		}
	}
	return true
}

func slicesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// AsFloat64 converts any numeric value to float64.
// The second return reports whether the value was numeric.
func AsFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
