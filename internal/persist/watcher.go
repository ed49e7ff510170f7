package persist

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// Handler is called when the watched overlay file changes.
type Handler func(path string)

// Watcher polls a single overlay file for modification so embedders
// can reload the overlay while a session is running.
type Watcher struct {
	path     string
	interval time.Duration
	handler  Handler

	mu      sync.Mutex
	modTime time.Time
	done    chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher creates a watcher for the overlay file at path.
// The handler runs on the watcher's goroutine; it should hand off any
// slow work.
func NewWatcher(path string, handler Handler, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     path,
		handler:  handler,
		interval: 500 * time.Millisecond,
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins polling. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.loop(w.done)
}

// Stop stops polling and waits for the poll goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	done := w.done
	w.done = nil
	w.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	w.wg.Wait()
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done != nil
}

func (w *Watcher) loop(done <-chan struct{}) {
	defer w.wg.Done()

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return
		case <-tick.C:
			if w.fileChanged() && w.handler != nil {
				slog.Debug("overlay file changed", "path", w.path)
				w.handler(w.path)
			}
		}
	}
}

// fileChanged stats the overlay and reports whether its mtime advanced
// past the last one seen. A missing file is not a change; the watcher
// keeps polling so it picks the file up once recreated.
func (w *Watcher) fileChanged() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().After(w.modTime) {
		return false
	}
	w.modTime = info.ModTime()
	return true
}
