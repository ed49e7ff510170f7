// Package notify delivers configuration change events to subscribers.
//
// The store emits an event whenever a customization is written or
// removed, when the whole overlay is reloaded from disk, and when the
// embedded default tree is swapped out. Subscribers register for all
// changes or for a path subtree.
package notify

import "sync"

// ChangeType classifies a configuration change event.
type ChangeType int

const (
	// ChangeSet indicates a customization was written.
	ChangeSet ChangeType = iota

	// ChangeUnset indicates a customization was removed, reverting
	// the path to its default.
	ChangeUnset

	// ChangeOverlayLoad indicates the whole overlay was replaced,
	// typically after a reload from disk.
	ChangeOverlayLoad

	// ChangeDefaultSwap indicates the embedded default tree was
	// replaced, typically after a script update.
	ChangeDefaultSwap
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeUnset:
		return "unset"
	case ChangeOverlayLoad:
		return "overlay-load"
	case ChangeDefaultSwap:
		return "default-swap"
	default:
		return "unknown"
	}
}

// Change is a single configuration change event.
type Change struct {
	// Path is the dot-separated address of the changed setting.
	// Empty for whole-tree events (overlay load, default swap).
	Path string

	// Type classifies the change.
	Type ChangeType

	// Value is the newly written value for set events, nil otherwise.
	Value any
}

// Observer receives change events.
type Observer func(Change)

// Subscription is a handle to an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.notifier != nil {
		s.notifier.cancel(s.id)
	}
}

// Notifier fans change events out to registered observers.
// Delivery is synchronous and happens outside the notifier's lock, so
// observers may subscribe or cancel from within a callback.
type Notifier struct {
	mu     sync.RWMutex
	global map[uint64]Observer
	byPath map[string]map[uint64]Observer
	nextID uint64
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{
		global: make(map[uint64]Observer),
		byPath: make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.global[id] = obs
	return &Subscription{id: id, notifier: n}
}

// SubscribePath registers an observer for changes at path or below.
// Subscribing to "proxies" receives changes to "proxies.exceptions".
// Whole-tree events reach every path subscriber.
func (n *Notifier) SubscribePath(path string, obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.byPath[path] == nil {
		n.byPath[path] = make(map[uint64]Observer)
	}
	n.byPath[path][id] = obs
	return &Subscription{id: id, notifier: n}
}

// Notify delivers a change to all matching observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.global))
	for _, obs := range n.global {
		observers = append(observers, obs)
	}
	if change.Path == "" {
		for _, pathObs := range n.byPath {
			for _, obs := range pathObs {
				observers = append(observers, obs)
			}
		}
	} else {
		for path, pathObs := range n.byPath {
			if path == change.Path || isAncestor(path, change.Path) {
				for _, obs := range pathObs {
					observers = append(observers, obs)
				}
			}
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) cancel(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.global, id)
	for path, observers := range n.byPath {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.byPath, path)
		}
	}
}

// isAncestor reports whether parent addresses a subtree containing
// child, e.g. "proxies" contains "proxies.exceptions".
func isAncestor(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}
