// Package reconcile keeps an output tree in sync with successive versions of
// a markdown syntax tree while touching as little of the output as possible.
//
// # Overview
//
// A Reconciler remembers the tree it rendered last. Each call to Reconcile
// fingerprints the new tree, compares it against the remembered one and
// applies only the structural edits and attribute updates needed to make the
// output reflect the new tree. Output handles of unchanged content keep
// their identity across passes.
//
// # Pass Structure
//
// A pass walks the old and new trees in parallel:
//
//   - Equal fingerprints: the old node, with its output, is spliced into the
//     new tree. Nothing is touched in the output.
//   - Attributes changed, same kind: the rule's Update syncs the new
//     attributes onto the existing output.
//   - Kind changed (or list type, or heading level): the old output is
//     replaced by a freshly created one in the same position.
//   - Children changed: the child lists are aligned, see below.
//
// # Child Alignment
//
// Runs of equal children at both ends of a list are kept in place. In the
// interior, old children whose content reappears anywhere in the new list
// are detached into a per-pass subtree cache, and new children are matched
// against the cache first. This also recognises content moved between
// parents. Remaining children are paired by position and patched; leftovers
// are removed. Newly placed outputs are inserted in a final backward pass so
// every insertion has a stable reference sibling.
//
// # Usage
//
//	rec := reconcile.New(tree, registry, reconcile.DefaultOptions())
//	out, err := rec.Reconcile(doc)
//	// later
//	out, err = rec.Reconcile(nextDoc)
//	stats := rec.Stats()
//
// The root handle is never attached by the reconciler. When the root node
// itself is replaced, Reconcile returns a new root handle and the caller
// swaps it into place.
//
// # Errors
//
// Rule failures, missing rules and internal invariant violations are
// returned from Reconcile. After an error the output tree is in an
// unspecified state; the reconciler forgets its previous tree so the next
// pass renders from scratch.
//
// # Thread Safety
//
// A Reconciler is not safe for concurrent use. A reentrant call from inside a
// rule fails with ErrReentrant.
package reconcile
