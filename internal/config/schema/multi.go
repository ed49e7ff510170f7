package schema

// MultiValidator validates a merged configuration tree against the
// root envelope schema plus every registered plugin schema fragment.
//
// Each fragment is validated independently against the full tree, so a
// fragment only asserts facts about its own named section(s) and must
// allow additional properties at its root for plugins to coexist.
// Errors from all documents are aggregated into one list, root first,
// then fragments in registration order.
type MultiValidator struct {
	root      *Validator
	order     []string
	fragments map[string]*Validator
}

// NewMultiValidator creates a multi-document validator with the given
// root envelope document.
func NewMultiValidator(root *Document) *MultiValidator {
	return &MultiValidator{
		root:      NewValidator(root),
		fragments: make(map[string]*Validator),
	}
}

// AddFragment registers a named plugin schema fragment.
// Registering the same name again replaces the previous fragment. A
// nil document removes validation for that name without error.
func (m *MultiValidator) AddFragment(name string, doc *Document) {
	if doc == nil {
		if _, ok := m.fragments[name]; ok {
			delete(m.fragments, name)
			m.order = removeName(m.order, name)
		}
		return
	}
	if doc.Title == "" {
		// Errors need an identifiable origin.
		clone := *doc
		clone.Title = name
		doc = &clone
	}
	if _, ok := m.fragments[name]; !ok {
		m.order = append(m.order, name)
	}
	m.fragments[name] = NewValidator(doc)
}

// FragmentNames returns registered fragment names in registration order.
func (m *MultiValidator) FragmentNames() []string {
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// Validate checks data against the root document and every fragment.
// All violations are collected; the returned error is either nil or a
// *ValidationErrors. Validate never mutates data.
func (m *MultiValidator) Validate(data map[string]any) error {
	all := &ValidationErrors{}

	if err := m.root.Validate(data); err != nil {
		if verrs, ok := err.(*ValidationErrors); ok {
			all.Merge(verrs)
		} else {
			all.Add("", err.Error())
		}
	}

	for _, name := range m.order {
		if err := m.fragments[name].Validate(data); err != nil {
			if verrs, ok := err.(*ValidationErrors); ok {
				all.Merge(verrs)
			} else {
				all.Add("", err.Error())
			}
		}
	}

	return all.AsError()
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
