// Package plugin manages named, versioned configuration modules.
//
// Each plugin contributes one self-contained schema fragment and
// declares whether its presence in the configuration is mandatory. The
// registry always carries a reserved "plugins" entry describing the
// plugin section itself.
package plugin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/pacconf/internal/config/schema"
)

// ReservedName is the plugin describing the plugin section itself.
// It is registered automatically and always required.
const ReservedName = "plugins"

// Errors returned by registry operations.
var (
	// ErrDuplicatePlugin indicates a name was registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrPluginMissing indicates a required plugin has no entry in the
	// merged configuration.
	ErrPluginMissing = errors.New("required plugin missing from configuration")

	// ErrVersionIncompatible indicates a declared plugin version the
	// registry does not support.
	ErrVersionIncompatible = errors.New("plugin version incompatible")

	// ErrInvalidVersion indicates a version token that cannot be
	// interpreted.
	ErrInvalidVersion = errors.New("invalid version token")
)

// VersionError reports a version compatibility failure for one plugin.
type VersionError struct {
	// Plugin is the plugin name.
	Plugin string
	// Declared is the normalized version from the configuration.
	Declared string
	// Supported is the normalized version the registry supports.
	Supported string
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	return fmt.Sprintf("plugin %q declares version %s, supported version is %s",
		e.Plugin, e.Declared, e.Supported)
}

// Is implements error matching against ErrVersionIncompatible.
func (e *VersionError) Is(target error) bool {
	return target == ErrVersionIncompatible
}

// Descriptor describes one versioned configuration module.
// Descriptors are immutable once registered.
type Descriptor struct {
	// Name is the unique plugin identifier and its top-level section key.
	Name string

	// Version is the supported version token (dotted numeric string,
	// e.g. "0.0.0.15").
	Version string

	// Schema is the plugin's schema fragment. Nil disables schema
	// validation for this plugin.
	Schema *schema.Document

	// SchemaURL optionally points at an externally hosted schema.
	// It is carried as data; fetching is the caller's concern.
	SchemaURL string

	// Required marks the plugin as mandatory in the merged view.
	Required bool
}

// NormalizeVersion canonicalizes a version token.
//
// Accepted inputs are dotted numeric strings ("0.0.0.15", "v1.2") and
// JSON numbers (0.15 normalizes to "0.15"). Each dot-separated segment
// must be decimal digits; leading zeros are dropped per segment. The
// compatibility predicate is exact equality of normalized tokens.
func NormalizeVersion(token any) (string, error) {
	var raw string
	switch v := token.(type) {
	case string:
		raw = strings.TrimSpace(v)
		raw = strings.TrimPrefix(raw, "v")
		raw = strings.TrimPrefix(raw, "V")
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		raw = strconv.Itoa(v)
	case int64:
		raw = strconv.FormatInt(v, 10)
	default:
		return "", fmt.Errorf("%w: %T is not a version token", ErrInvalidVersion, token)
	}

	if raw == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidVersion)
	}

	segments := strings.Split(raw, ".")
	for i, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("%w: %q has an empty segment", ErrInvalidVersion, raw)
		}
		for _, c := range seg {
			if c < '0' || c > '9' {
				return "", fmt.Errorf("%w: %q has a non-numeric segment", ErrInvalidVersion, raw)
			}
		}
		trimmed := strings.TrimLeft(seg, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		segments[i] = trimmed
	}

	return strings.Join(segments, "."), nil
}

// Compatible reports whether a declared version token matches a
// supported one: exact equality after normalization.
func Compatible(declared, supported any) (bool, error) {
	d, err := NormalizeVersion(declared)
	if err != nil {
		return false, err
	}
	s, err := NormalizeVersion(supported)
	if err != nil {
		return false, err
	}
	return d == s, nil
}
