package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/pacconf/internal/config/schema"
)

// Registry maps plugin names to descriptors. Keys are unique and
// insertion order is preserved only for deterministic reporting; it
// carries no semantic weight.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Descriptor
}

// NewRegistry creates a registry pre-populated with the reserved
// "plugins" descriptor, which asserts the envelope shape of the plugin
// section: every entry is an object carrying a version token.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]Descriptor),
	}
	// Self-referential bootstrap entry.
	r.byName[ReservedName] = Descriptor{
		Name:     ReservedName,
		Version:  "1",
		Schema:   reservedSchema(),
		Required: true,
	}
	r.order = append(r.order, ReservedName)
	return r
}

func reservedSchema() *schema.Document {
	entry := schema.Object().
		Property("version", schema.NewBuilder().Type(schema.TypeNameString, schema.TypeNameNumber).Build()).
		Property("schemaUrl", schema.String().Build()).
		Required("version").
		Build()
	// Entries other than the self-descriptive one are open-ended by
	// name; their per-entry shape is enforced by the envelope check in
	// the store, not by this static fragment.
	return schema.Object().
		Title(ReservedName).
		Property(ReservedName, schema.Object().
			Property(ReservedName, entry).
			Required(ReservedName).
			Build()).
		Required(ReservedName).
		Build()
}

// Register adds a plugin descriptor keyed by name.
// Registering the same name twice fails with ErrDuplicatePlugin.
func (r *Registry) Register(desc Descriptor) error {
	if desc.Name == "" {
		return errors.New("plugin name must not be empty")
	}
	if _, err := NormalizeVersion(desc.Version); err != nil {
		return fmt.Errorf("plugin %q: %w", desc.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[desc.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, desc.Name)
	}
	r.byName[desc.Name] = desc
	r.order = append(r.order, desc.Name)
	return nil
}

// Get returns the descriptor for a plugin name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byName[name]
	return desc, ok
}

// Names returns all registered plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Fragments returns the registered schema fragments in registration
// order, paired with their plugin names. Descriptors without a schema
// are skipped.
func (r *Registry) Fragments() ([]string, []*schema.Document) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	var docs []*schema.Document
	for _, name := range r.order {
		desc := r.byName[name]
		if desc.Schema == nil {
			continue
		}
		names = append(names, name)
		docs = append(docs, desc.Schema)
	}
	return names, docs
}

// ResolveRequired checks that every required descriptor appears under
// the plugins section of the merged view with a compatible version.
// Entries present in the merged view but unknown to the registry are
// ignored; the root schema's additionalProperties policy governs those.
// All problems are reported, joined into a single error.
func (r *Registry) ResolveRequired(merged map[string]any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	section, _ := merged[ReservedName].(map[string]any)

	var problems []error
	for _, name := range r.order {
		desc := r.byName[name]
		if !desc.Required {
			continue
		}

		entry, ok := section[name].(map[string]any)
		if !ok {
			problems = append(problems, fmt.Errorf("%w: %q", ErrPluginMissing, name))
			continue
		}

		declared, err := NormalizeVersion(entry["version"])
		if err != nil {
			problems = append(problems, fmt.Errorf("plugin %q: %w", name, err))
			continue
		}
		supported, err := NormalizeVersion(desc.Version)
		if err != nil {
			problems = append(problems, fmt.Errorf("plugin %q: %w", name, err))
			continue
		}
		if declared != supported {
			problems = append(problems, &VersionError{
				Plugin:    name,
				Declared:  declared,
				Supported: supported,
			})
		}
	}

	return errors.Join(problems...)
}
