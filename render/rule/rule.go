// Package rule defines the contract between the reconciler and the code that
// turns individual mdast nodes into output handles.
//
// A Rule creates the output for one node kind and syncs mutable attributes
// onto an existing output. Rules never attach children themselves: the
// reconciler does that through the output container. A Rule that derives its
// own presentation from child content (image alt text, heading anchors) also
// implements ChildrenObserver.
//
// Output handles are opaque to the reconciler. H is the handle type of the
// output technology, for example *html.Node.
package rule

import (
	"errors"
	"fmt"

	"github.com/joshuapare/markpatch/pkg/mdast"
)

// ErrMissingRule is returned when no rule is registered for a node kind.
var ErrMissingRule = errors.New("rule: no rule registered for node kind")

// Output is what a Rule creates for a node.
type Output[H comparable] struct {
	// Root is the handle attached to the parent's container.
	Root H
	// Container is where child outputs are attached. The zero value means
	// Root itself is the container.
	Container H
}

// Children returns the handle children are attached to.
func (o Output[H]) Children() H {
	var zero H
	if o.Container == zero {
		return o.Root
	}
	return o.Container
}

// Rule creates and updates the output of one node kind.
type Rule[H comparable] interface {
	// Create builds a fresh output for n, without children.
	Create(n *mdast.Node) (Output[H], error)
	// Update syncs n's attributes onto an output built for a node of the
	// same kind.
	Update(n *mdast.Node, out Output[H]) error
}

// ChildrenObserver is implemented by rules that need to react once all
// children of a node have been attached or patched.
type ChildrenObserver[H comparable] interface {
	ChildrenChanged(n *mdast.Node, out Output[H]) error
}

// Funcs adapts plain functions to Rule. A nil UpdateFn makes Update a no-op;
// a non-nil ChildrenFn is called from ChildrenChanged.
type Funcs[H comparable] struct {
	CreateFn   func(n *mdast.Node) (Output[H], error)
	UpdateFn   func(n *mdast.Node, out Output[H]) error
	ChildrenFn func(n *mdast.Node, out Output[H]) error
}

// Create calls CreateFn.
func (f Funcs[H]) Create(n *mdast.Node) (Output[H], error) {
	if f.CreateFn == nil {
		return Output[H]{}, fmt.Errorf("%w: %s has no create function", ErrMissingRule, n.Kind)
	}
	return f.CreateFn(n)
}

// Update calls UpdateFn when set.
func (f Funcs[H]) Update(n *mdast.Node, out Output[H]) error {
	if f.UpdateFn == nil {
		return nil
	}
	return f.UpdateFn(n, out)
}

// ChildrenChanged calls ChildrenFn when set.
func (f Funcs[H]) ChildrenChanged(n *mdast.Node, out Output[H]) error {
	if f.ChildrenFn == nil {
		return nil
	}
	return f.ChildrenFn(n, out)
}
