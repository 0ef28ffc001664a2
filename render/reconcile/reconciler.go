package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/fingerprint"
	"github.com/joshuapare/markpatch/render/output"
	"github.com/joshuapare/markpatch/render/rule"
	"github.com/joshuapare/markpatch/render/subtree"
)

// Reconciler incrementally renders markdown trees into an output tree of
// handles of type H.
type Reconciler[H comparable] struct {
	tree  output.Tree[H]
	rules *rule.Registry[H]
	log   *slog.Logger
	cache *subtree.Cache
	// parked holds old children detached ahead of reuse in the current
	// pass. Those still parked when the pass ends were dropped.
	parked map[*mdast.Node]struct{}

	prev    *mdast.Node
	prevOut H
	stats   Stats
	running bool
}

// New creates a reconciler that edits tree using the rules in rules.
func New[H comparable](tree output.Tree[H], rules *rule.Registry[H], opts Options) *Reconciler[H] {
	return &Reconciler[H]{
		tree:  tree,
		rules: rules,
		log:   opts.logger(),
		cache:  subtree.New(),
		parked: make(map[*mdast.Node]struct{}),
	}
}

// OutputOf returns the output bound to n by a previous pass.
func OutputOf[H comparable](n *mdast.Node) (rule.Output[H], bool) {
	out, ok := n.Output.(rule.Output[H])
	return out, ok
}

func outputOf[H comparable](n *mdast.Node) rule.Output[H] {
	out, _ := n.Output.(rule.Output[H])
	return out
}

// Reconcile renders root, reusing the output of the previously rendered
// tree wherever content is unchanged, and returns the root output handle.
//
// On success root becomes the remembered tree and must not be mutated
// afterwards. When root is content-identical to the remembered tree nothing
// is touched and the remembered tree is kept.
func (r *Reconciler[H]) Reconcile(root *mdast.Node) (H, error) {
	var zero H
	if root == nil {
		return zero, ErrNilRoot
	}
	if r.running {
		return zero, ErrReentrant
	}
	r.running = true
	defer func() { r.running = false }()

	r.stats = Stats{}
	fingerprint.Hash(root)

	if r.prev == nil {
		out, err := r.build(root)
		r.endPass()
		if err != nil {
			r.Reset()
			return zero, err
		}
		r.finish(root, out.Root)
		return out.Root, nil
	}

	if fingerprint.EnsureHashed(r.prev) {
		r.stats.Rehashed = true
	}
	if r.prev.Hash.Node == root.Hash.Node {
		// The remembered tree already carries the bindings for this content.
		r.stats.Identical = true
		r.logPass()
		return r.prevOut, nil
	}

	out, err := r.patch(r.prev, root, zero)
	r.endPass()
	if err != nil {
		r.Reset()
		return zero, err
	}
	r.finish(root, out)
	return out, nil
}

// Stats returns the counters of the last pass.
func (r *Reconciler[H]) Stats() Stats {
	return r.stats
}

// Root returns the remembered tree, or nil before the first pass.
func (r *Reconciler[H]) Root() *mdast.Node {
	return r.prev
}

// Output returns the root handle of the remembered tree.
func (r *Reconciler[H]) Output() H {
	return r.prevOut
}

// Reset forgets the remembered tree. The next pass renders from scratch.
func (r *Reconciler[H]) Reset() {
	var zero H
	r.prev = nil
	r.prevOut = zero
	r.cache.Clear()
	clear(r.parked)
}

// endPass counts parked children that were never reused as removed and
// empties the cache.
func (r *Reconciler[H]) endPass() {
	r.stats.Removed += len(r.parked)
	clear(r.parked)
	r.cache.Clear()
}

// take removes a cached node with the given fingerprint from the cache.
func (r *Reconciler[H]) take(hash uint64) (*mdast.Node, bool) {
	n, ok := r.cache.Use(hash)
	if ok {
		delete(r.parked, n)
	}
	return n, ok
}

func (r *Reconciler[H]) finish(root *mdast.Node, out H) {
	r.prev = root
	r.prevOut = out
	r.logPass()
}

func (r *Reconciler[H]) logPass() {
	s := r.stats
	r.log.Debug("reconcile pass",
		"created", s.Created,
		"updated", s.Updated,
		"replaced", s.Replaced,
		"moved", s.Moved,
		"removed", s.Removed,
		"kept", s.Kept,
		"skipped", s.Skipped,
		"identical", s.Identical,
	)
}

// compatible reports whether an output built for old can be updated in place
// to represent n.
func compatible(old, n *mdast.Node) bool {
	if old.Kind != n.Kind {
		return false
	}
	switch n.Kind {
	case mdast.KindList:
		return old.List.Kind == n.List.Kind
	case mdast.KindHeading:
		return old.Level == n.Level
	}
	return true
}

// patch transforms the output of old so it represents n, and returns the
// root handle now standing for n. parent is the container holding old's
// output, zero for the tree root.
func (r *Reconciler[H]) patch(old, n *mdast.Node, parent H) (H, error) {
	var zero H
	if old.Hash.Node == n.Hash.Node {
		return zero, fmt.Errorf("%w: patch of identical %s nodes", ErrInvariant, n.Kind)
	}

	out := outputOf[H](old)
	if old.Hash.Attr != n.Hash.Attr {
		if !compatible(old, n) {
			return r.replace(old, n, parent)
		}
		rl, err := r.rules.Lookup(n.Kind)
		if err != nil {
			return zero, err
		}
		if err := rl.Update(n, out); err != nil {
			return zero, fmt.Errorf("update %s: %w", n.Kind, err)
		}
		r.stats.Updated++
	}
	n.Output = out

	if old.Hash.Children == n.Hash.Children {
		n.AdoptChildren(old)
		r.stats.Skipped++
		return out.Root, nil
	}

	if err := r.align(old, n, out.Children()); err != nil {
		return zero, err
	}
	if err := r.childrenChanged(n, out); err != nil {
		return zero, err
	}
	return out.Root, nil
}

// replace swaps the output of old for a fresh output of n at the same
// position. Old is cached so its descendants can still be reused below n.
func (r *Reconciler[H]) replace(old, n *mdast.Node, parent H) (H, error) {
	var zero H
	rl, out, err := r.create(n)
	if err != nil {
		return zero, err
	}
	if parent != zero {
		oldRoot := outputOf[H](old).Root
		r.tree.InsertBefore(parent, out.Root, oldRoot)
		r.tree.Detach(oldRoot)
	}
	r.stats.Replaced++

	r.cache.Push(old)
	if err := r.fill(n, rl, out); err != nil {
		return zero, err
	}
	return out.Root, nil
}

// materialize returns the output for n, taking a cached subtree with the
// same fingerprint when one exists. A reused node takes n's place in the
// tree. The returned handle is detached.
func (r *Reconciler[H]) materialize(n *mdast.Node) (rule.Output[H], error) {
	if cached, ok := r.take(n.Hash.Node); ok {
		out := outputOf[H](cached)
		r.tree.Detach(out.Root)
		n.ReplaceWith(cached)
		r.stats.Moved++
		return out, nil
	}
	return r.build(n)
}

// build creates the output for n through its rule and materializes every
// child into it.
func (r *Reconciler[H]) build(n *mdast.Node) (rule.Output[H], error) {
	rl, out, err := r.create(n)
	if err != nil {
		return rule.Output[H]{}, err
	}
	if err := r.fill(n, rl, out); err != nil {
		return rule.Output[H]{}, err
	}
	return out, nil
}

func (r *Reconciler[H]) create(n *mdast.Node) (rule.Rule[H], rule.Output[H], error) {
	rl, err := r.rules.Lookup(n.Kind)
	if err != nil {
		return nil, rule.Output[H]{}, err
	}
	out, err := rl.Create(n)
	if err != nil {
		return nil, rule.Output[H]{}, fmt.Errorf("create %s: %w", n.Kind, err)
	}
	n.Output = out
	r.stats.Created++
	return rl, out, nil
}

// fill attaches the outputs of n's children to a freshly created out.
func (r *Reconciler[H]) fill(n *mdast.Node, rl rule.Rule[H], out rule.Output[H]) error {
	container := out.Children()
	for c := range n.Children() {
		childOut, err := r.materialize(c)
		if err != nil {
			return err
		}
		r.tree.Append(container, childOut.Root)
	}

	if obs, ok := rl.(rule.ChildrenObserver[H]); ok {
		if err := obs.ChildrenChanged(n, out); err != nil {
			return fmt.Errorf("children of %s: %w", n.Kind, err)
		}
	}
	return nil
}

func (r *Reconciler[H]) childrenChanged(n *mdast.Node, out rule.Output[H]) error {
	rl, err := r.rules.Lookup(n.Kind)
	if err != nil {
		return err
	}
	obs, ok := rl.(rule.ChildrenObserver[H])
	if !ok {
		return nil
	}
	if err := obs.ChildrenChanged(n, out); err != nil {
		return fmt.Errorf("children of %s: %w", n.Kind, err)
	}
	return nil
}
