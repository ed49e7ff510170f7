// Package persist stores the custom overlay on disk and watches it for
// external changes.
//
// The overlay is saved as a standalone JSON document. Writes go
// through a temp file and rename so a crash never leaves a truncated
// overlay behind.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// SaveOverlay writes the overlay tree to path atomically.
func SaveOverlay(path string, overlay map[string]any) error {
	data, err := json.MarshalIndent(overlay, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".overlay-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp overlay file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set overlay permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close overlay file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace overlay file: %w", err)
	}

	slog.Debug("overlay saved", "path", path, "bytes", len(data))
	return nil
}

// LoadOverlay reads the overlay tree from path.
// An absent file is not an error; it yields an empty overlay, matching
// a client that has never customized anything.
func LoadOverlay(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read overlay file: %w", err)
	}

	var overlay map[string]any
	if err := json.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to decode overlay file %s: %w", path, err)
	}
	if overlay == nil {
		overlay = map[string]any{}
	}
	return overlay, nil
}
