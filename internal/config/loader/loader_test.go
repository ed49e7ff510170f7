package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTreeJSON(t *testing.T) {
	data := []byte(`{"proxies": {"enabled": true, "port": 3128}, "hosts": ["a", "b"]}`)
	got, err := ParseTree(data, FormatJSON)
	if err != nil {
		t.Fatalf("ParseTree failed: %v", err)
	}

	want := map[string]any{
		"proxies": map[string]any{"enabled": true, "port": 3128.0},
		"hosts":   []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseTree([]byte(`{`), FormatJSON); err == nil {
		t.Error("ParseTree accepted malformed JSON")
	}
}

func TestParseTreeYAML(t *testing.T) {
	data := []byte(`
proxies:
  enabled: true
  port: 3128
hosts:
  - a
  - b
`)
	got, err := ParseTree(data, FormatYAML)
	if err != nil {
		t.Fatalf("ParseTree failed: %v", err)
	}

	// YAML integers are normalized to float64 to match JSON decoding.
	want := map[string]any{
		"proxies": map[string]any{"enabled": true, "port": 3128.0},
		"hosts":   []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSchemaYAML(t *testing.T) {
	data := []byte(`
title: proxies
type: object
properties:
  proxies:
    type: object
    properties:
      enabled:
        type: boolean
required:
  - proxies
`)
	doc, err := ParseSchema(data, FormatYAML)
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	if doc.Title != "proxies" {
		t.Errorf("Title = %q, want %q", doc.Title, "proxies")
	}
	if !doc.IsRequired("proxies") {
		t.Error("proxies should be required")
	}
	enabled := doc.GetProperty("proxies.enabled")
	if enabled == nil || !enabled.Type.Is("boolean") {
		t.Errorf("proxies.enabled schema = %+v, want boolean", enabled)
	}
}

func TestLoadFilesInferFormat(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tree.json")
	os.WriteFile(jsonPath, []byte(`{"a": 1}`), 0o644)
	yamlPath := filepath.Join(dir, "tree.yaml")
	os.WriteFile(yamlPath, []byte("a: 1\n"), 0o644)

	fromJSON, err := LoadTreeFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadTreeFile(json) failed: %v", err)
	}
	fromYAML, err := LoadTreeFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadTreeFile(yaml) failed: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Errorf("formats decode differently (-json +yaml):\n%s", diff)
	}

	if _, err := LoadTreeFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadTreeFile should fail for a missing file")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"config.json", FormatJSON},
		{"config.yaml", FormatYAML},
		{"config.YML", FormatYAML},
		{"config", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
