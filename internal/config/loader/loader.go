// Package loader decodes configuration trees and schema documents from
// JSON or YAML sources.
//
// Decoded trees are normalized to the JSON data model (string keys,
// float64 numbers) so they can flow through the merge engine and the
// schema validator regardless of source format.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/pacconf/internal/config/schema"
)

// Format identifies a source encoding.
type Format uint8

const (
	// FormatJSON is a JSON document.
	FormatJSON Format = iota
	// FormatYAML is a YAML document.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatForPath infers the format from a file extension.
// Unrecognized extensions default to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseTree decodes a configuration tree from data.
func ParseTree(data []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatJSON:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse JSON tree: %w", err)
		}
		return m, nil
	case FormatYAML:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML tree: %w", err)
		}
		return normalizeMap(raw), nil
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

// LoadTreeFile reads a configuration tree from a file, inferring the
// format from the extension.
func LoadTreeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTree(data, FormatForPath(path))
}

// ParseSchema decodes a schema document from data.
// YAML schemas are converted to JSON before parsing so the schema
// package only deals with one encoding.
func ParseSchema(data []byte, format Format) (*schema.Document, error) {
	switch format {
	case FormatJSON:
		return schema.Parse(data)
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML schema: %w", err)
		}
		jsonData, err := json.Marshal(normalizeValue(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML schema: %w", err)
		}
		return schema.Parse(jsonData)
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

// LoadSchemaFile reads a schema document from a file, inferring the
// format from the extension.
func LoadSchemaFile(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchema(data, FormatForPath(path))
}

// normalizeMap converts YAML-decoded values to JSON-compatible shapes.
func normalizeMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = normalizeValue(val)
	}
	return dst
}

func normalizeValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return normalizeMap(v)
	case map[any]any:
		// Older YAML shapes; keys must be strings in the JSON model.
		dst := make(map[string]any, len(v))
		for key, item := range v {
			dst[fmt.Sprintf("%v", key)] = normalizeValue(item)
		}
		return dst
	case []any:
		dst := make([]any, len(v))
		for i, item := range v {
			dst[i] = normalizeValue(item)
		}
		return dst
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return val
	}
}
