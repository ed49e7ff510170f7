package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/pacconf/internal/config/merge"
	"github.com/dshills/pacconf/internal/config/notify"
	"github.com/dshills/pacconf/internal/config/plugin"
	"github.com/dshills/pacconf/internal/config/schema"
	"github.com/dshills/pacconf/internal/config/tree"
)

// Store owns the default tree and the custom overlay and mediates all
// path-addressed access through merging and validation.
//
// Thread safety: all mutation and any read that triggers recomputation
// take the store's write lock; reads in the clean state take the read
// lock and serve cloned snapshots, so they may run concurrently.
type Store struct {
	mu sync.RWMutex

	registry  *plugin.Registry
	validator *schema.MultiValidator
	notifier  *notify.Notifier

	// def is the immutable baseline; replaced only via ReplaceDefault.
	def map[string]any

	// overlay holds only client-changed values.
	overlay map[string]any

	// merged is the last known-valid merged view.
	merged map[string]any

	// dirty marks merged as stale relative to the overlay.
	dirty bool
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	root *schema.Document
}

// WithRootSchema overrides the default root envelope schema.
func WithRootSchema(doc *schema.Document) Option {
	return func(o *storeOptions) {
		o.root = doc
	}
}

// DefaultRootSchema returns the built-in envelope schema: the payload
// is an object whose required "plugins" section is itself an object,
// with additional top-level sections allowed so plugin sections can
// coexist.
func DefaultRootSchema() *schema.Document {
	return schema.Object().
		Title("root").
		Required(plugin.ReservedName).
		Property(plugin.ReservedName, schema.Object().Build()).
		Build()
}

// New creates a Store from a default tree and a plugin registry.
//
// The default tree is validated standalone (as if the overlay were
// empty) against the root schema and every registered plugin schema;
// any failure is fatal since an invalid baseline cannot be safely
// overlaid. The tree is cloned, so the caller's copy stays independent.
func New(defaultTree map[string]any, registry *plugin.Registry, opts ...Option) (*Store, error) {
	if registry == nil {
		registry = plugin.NewRegistry()
	}

	options := storeOptions{root: DefaultRootSchema()}
	for _, opt := range opts {
		opt(&options)
	}

	mv := schema.NewMultiValidator(options.root)
	names, docs := registry.Fragments()
	for i, name := range names {
		mv.AddFragment(name, docs[i])
	}

	s := &Store{
		registry:  registry,
		validator: mv,
		notifier:  notify.New(),
		def:       tree.Clone(defaultTree),
		overlay:   make(map[string]any),
	}

	merged, err := s.mergeAndValidate(s.def, nil)
	if err != nil {
		return nil, fmt.Errorf("default tree rejected: %w", err)
	}
	s.merged = merged

	return s, nil
}

// Get returns the value at path in the merged view.
//
// If the store is dirty the merged view is recomputed and re-validated
// first; a merge or validation failure is returned and the store stays
// dirty. With strict=true a missing path fails with
// tree.ErrPathNotFound; otherwise a miss reports ok=false. Composite
// values are returned as independent clones.
func (s *Store) Get(path string, strict bool) (any, bool, error) {
	if err := s.ensureClean(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok, err := tree.Read(s.merged, path, strict)
	if err != nil || !ok {
		return nil, false, err
	}
	return tree.CloneValue(val), true, nil
}

// Set assigns a value at path in the custom overlay, creating
// intermediate overlay mappings as needed, and marks the store dirty.
//
// Kind conflicts with the default tree are not checked here; they
// surface on the next read or Validate, and the overlay retains the
// offending value so the caller can decide whether to fix or revert.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	parent, key, err := tree.WritableRef(s.overlay, path)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	parent[key] = tree.CloneValue(value)
	s.dirty = true
	s.mu.Unlock()

	s.notifier.Notify(notify.Change{
		Path:  path,
		Type:  notify.ChangeSet,
		Value: tree.CloneValue(value),
	})
	return nil
}

// CustomRef exposes a direct, mutable reference into the overlay at
// path, for building nested custom structures without a full merge
// round-trip. It never touches the default tree.
//
// With mustExist=false absent intermediate mappings are created; the
// final segment is not, so the returned value may be nil. The store is
// marked dirty since the caller may mutate the reference afterward.
func (s *Store) CustomRef(path string, mustExist bool) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mustExist {
		val, _, err := tree.Read(s.overlay, path, true)
		if err != nil {
			return nil, err
		}
		s.dirty = true
		return val, nil
	}

	parent, key, err := tree.WritableRef(s.overlay, path)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return parent[key], nil
}

// Unset removes a path from the overlay, reverting it to the default.
// Returns true if a value was removed.
func (s *Store) Unset(path string) bool {
	s.mu.Lock()
	removed := tree.Delete(s.overlay, path)
	if removed {
		s.dirty = true
	}
	s.mu.Unlock()

	if removed {
		s.notifier.Notify(notify.Change{Path: path, Type: notify.ChangeUnset})
	}
	return removed
}

// Validate forces recomputation and validation of the merged view
// without reading a value. On success the store becomes clean.
func (s *Store) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked()
}

// Dirty reports whether the merged view is stale relative to the overlay.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MergedView returns an independent snapshot of the validated merged
// tree, recomputing it first if the store is dirty.
func (s *Store) MergedView() (map[string]any, error) {
	if err := s.ensureClean(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.Clone(s.merged), nil
}

// Overlay returns an independent snapshot of the custom overlay, for
// persistence by the storage collaborator.
func (s *Store) Overlay() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.Clone(s.overlay)
}

// LoadOverlay replaces the overlay wholesale (the persistence reload
// path) and marks the store dirty. The tree is cloned.
func (s *Store) LoadOverlay(overlay map[string]any) {
	s.mu.Lock()
	s.overlay = tree.Clone(overlay)
	if s.overlay == nil {
		s.overlay = make(map[string]any)
	}
	s.dirty = true
	s.mu.Unlock()

	s.notifier.Notify(notify.Change{Type: notify.ChangeOverlayLoad})
}

// ReplaceDefault validates newTree standalone and then swaps it in as
// the baseline atomically. The overlay is preserved; the store is
// marked dirty so the next read reconciles the overlay against the new
// defaults.
func (s *Store) ReplaceDefault(newTree map[string]any) error {
	s.mu.Lock()
	if _, err := s.mergeAndValidate(newTree, nil); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("replacement default tree rejected: %w", err)
	}
	s.def = tree.Clone(newTree)
	s.dirty = true
	s.mu.Unlock()

	s.notifier.Notify(notify.Change{Type: notify.ChangeDefaultSwap})
	return nil
}

// Registry returns the plugin registry backing this store.
func (s *Store) Registry() *plugin.Registry {
	return s.registry
}

// Subscribe registers an observer for every configuration change.
func (s *Store) Subscribe(obs notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(obs)
}

// SubscribePath registers an observer for changes at path or below.
// Whole-tree events (overlay load, default swap) reach it too.
func (s *Store) SubscribePath(path string, obs notify.Observer) *notify.Subscription {
	return s.notifier.SubscribePath(path, obs)
}

// ensureClean recomputes the merged view if the store is dirty.
func (s *Store) ensureClean() error {
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if !dirty {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.refreshLocked()
}

// refreshLocked recomputes and validates the merged view.
// The caller must hold the write lock. On failure the store remains
// dirty and the previous merged snapshot is kept.
func (s *Store) refreshLocked() error {
	merged, err := s.mergeAndValidate(s.def, s.overlay)
	if err != nil {
		return err
	}

	s.merged = merged
	s.dirty = false
	return nil
}

// mergeAndValidate merges a default tree with an overlay and checks
// the result against the schemas, the plugin-section envelope rules,
// and the registry's required plugins.
func (s *Store) mergeAndValidate(def, overlay map[string]any) (map[string]any, error) {
	merged, err := merge.Trees(def, overlay)
	if err != nil {
		return nil, err
	}

	errs := &schema.ValidationErrors{}
	if err := s.validator.Validate(merged); err != nil {
		if verrs, ok := err.(*schema.ValidationErrors); ok {
			errs.Merge(verrs)
		} else {
			errs.Add("", err.Error())
		}
	}
	checkPluginSection(merged, errs)
	if err := errs.AsError(); err != nil {
		return nil, err
	}

	if err := s.registry.ResolveRequired(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// checkPluginSection enforces the envelope rule the static schemas
// cannot express: every entry advertised under "plugins" must be a
// mapping carrying an interpretable version token.
func checkPluginSection(merged map[string]any, errs *schema.ValidationErrors) {
	section, ok := merged[plugin.ReservedName].(map[string]any)
	if !ok {
		// Presence and type of the section are the root schema's job.
		return
	}

	for _, name := range sortedKeys(section) {
		entryPath := plugin.ReservedName + "." + name
		entry, ok := section[name].(map[string]any)
		if !ok {
			errs.AddError(&schema.ValidationError{
				Schema:  "root",
				Path:    entryPath,
				Message: "plugin entry must be an object",
				Value:   section[name],
			})
			continue
		}
		if _, err := plugin.NormalizeVersion(entry["version"]); err != nil {
			errs.AddError(&schema.ValidationError{
				Schema:  "root",
				Path:    entryPath + ".version",
				Message: err.Error(),
				Value:   entry["version"],
			})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
