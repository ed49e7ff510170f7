// Package config provides the configuration overlay engine for a PAC
// script's embedded configuration payload.
//
// The payload is a versioned, modular JSON document. The engine keeps
// two trees: an immutable default tree shipped inside the script and a
// sparse custom overlay holding only the values the client changed.
// Reads are served from a merged view derived from both trees; the
// merged view must satisfy the root envelope schema and every
// registered plugin's schema fragment.
//
// # Architecture
//
//	┌───────────────────────────┐
//	│  Custom overlay (sparse)  │  ← mutable, persisted by the client
//	├───────────────────────────┤
//	│  Default tree (shipped)   │  ← immutable baseline
//	└───────────────────────────┘
//	             │ merge (strict kind checks)
//	             ▼
//	        Merged view ── validated against root + plugin schemas
//
// # Sub-packages
//
//   - tree: dot-path addressing, deep clone, deep equality
//   - merge: strict deep merge of default and overlay
//   - plugin: versioned plugin descriptors and the registry
//   - schema: JSON Schema documents and exhaustive validation
//   - loader: JSON/YAML decoding of trees and schema documents
//   - notify: change notification for subscribers
//
// # Basic Usage
//
//	reg := plugin.NewRegistry()
//	reg.Register(plugin.Descriptor{Name: "anticensorship", Version: "0.0.0.15", Required: true})
//
//	store, err := config.New(defaultTree, reg)
//	if err != nil {
//	    // invalid baseline: the store refuses to exist
//	}
//
//	v, ok, err := store.Get("proxies.exceptions.ifHostProxied.youtube.com", true)
//	err = store.Set("proxies.exceptions.ifHostProxied.youtube.com", true)
//
// After a Set the store is dirty; the next read recomputes the merged
// view and re-validates it. A failing validation is returned to the
// caller and the overlay keeps the offending value, so the caller can
// inspect, fix, or Unset the specific path.
package config
