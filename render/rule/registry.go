package rule

import (
	"fmt"

	"github.com/joshuapare/markpatch/pkg/mdast"
)

// Table maps every node kind to its built-in rule. Indexing by kind keeps
// the set of defaults closed and checkable with Validate.
type Table[H comparable] [mdast.NumKinds]Rule[H]

// Registry resolves the rule for a node kind: an override when one is
// registered, the default from the table otherwise.
//
// Overrides may be changed before or between reconciliation passes, never
// during one.
type Registry[H comparable] struct {
	defaults  Table[H]
	overrides map[mdast.Kind]Rule[H]
}

// NewRegistry creates a registry backed by the given defaults.
func NewRegistry[H comparable](defaults Table[H]) *Registry[H] {
	return &Registry[H]{
		defaults:  defaults,
		overrides: make(map[mdast.Kind]Rule[H]),
	}
}

// Register installs r for kind, replacing any previous override.
func (reg *Registry[H]) Register(kind mdast.Kind, r Rule[H]) {
	reg.overrides[kind] = r
}

// Unregister removes the override for kind, restoring the default.
func (reg *Registry[H]) Unregister(kind mdast.Kind) {
	delete(reg.overrides, kind)
}

// Overridden reports whether kind has an override installed.
func (reg *Registry[H]) Overridden(kind mdast.Kind) bool {
	_, ok := reg.overrides[kind]
	return ok
}

// Lookup returns the rule for kind.
func (reg *Registry[H]) Lookup(kind mdast.Kind) (Rule[H], error) {
	if r, ok := reg.overrides[kind]; ok && r != nil {
		return r, nil
	}
	if kind.Valid() && reg.defaults[kind] != nil {
		return reg.defaults[kind], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingRule, kind)
}

// Validate checks that every kind resolves to a rule.
func (reg *Registry[H]) Validate() error {
	for _, kind := range mdast.Kinds() {
		if _, err := reg.Lookup(kind); err != nil {
			return err
		}
	}
	return nil
}
