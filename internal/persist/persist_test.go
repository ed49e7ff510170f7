package persist

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	overlay := map[string]any{
		"proxies": map[string]any{
			"exceptions": map[string]any{
				"ifHostProxied": map[string]any{"youtube.com": true},
			},
		},
	}

	if err := SaveOverlay(path, overlay); err != nil {
		t.Fatalf("SaveOverlay failed: %v", err)
	}

	got, err := LoadOverlay(path)
	if err != nil {
		t.Fatalf("LoadOverlay failed: %v", err)
	}
	if diff := cmp.Diff(overlay, got); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("overlay file mode = %v, want 0600", info.Mode().Perm())
		}
	}
}

func TestLoadOverlayMissingFile(t *testing.T) {
	got, err := LoadOverlay(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadOverlay failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("missing file should yield an empty overlay, got %v", got)
	}
}

func TestLoadOverlayMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	os.WriteFile(path, []byte("{broken"), 0o600)

	if _, err := LoadOverlay(path); err == nil {
		t.Error("LoadOverlay accepted malformed JSON")
	}
}

func TestSaveOverlayReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.json")

	if err := SaveOverlay(path, map[string]any{"a": 1.0}); err != nil {
		t.Fatal(err)
	}
	if err := SaveOverlay(path, map[string]any{"a": 2.0}); err != nil {
		t.Fatal(err)
	}

	got, err := LoadOverlay(path)
	if err != nil {
		t.Fatal(err)
	}
	if got["a"] != 2.0 {
		t.Errorf("a = %v, want 2", got["a"])
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWatcherDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	if err := SaveOverlay(path, map[string]any{"a": 1.0}); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w := NewWatcher(path, func(p string) {
		select {
		case changed <- p:
		default:
		}
	}, WithInterval(10*time.Millisecond))

	w.Start()
	defer w.Stop()
	if !w.IsRunning() {
		t.Fatal("watcher not running after Start")
	}

	// Ensure the mtime moves forward on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		if p != path {
			t.Errorf("handler path = %q, want %q", p, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	w.Stop()
	if w.IsRunning() {
		t.Error("watcher still running after Stop")
	}
}
