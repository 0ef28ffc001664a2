package reconcile

import "github.com/joshuapare/markpatch/pkg/mdast"

// slot is the output that will stand at one interior position of the new
// child list once alignment is done.
type slot[H comparable] struct {
	root H
	// attached is set when root already sits in the container at the right
	// relative position.
	attached bool
}

// align transforms the children of old, whose outputs live in container,
// into the children of n. On return n's children carry valid outputs and
// the container holds them in order.
//
// Equal runs at both ends are kept in place. Every old interior child whose
// content reappears in the new interior is detached up front and reattached
// from the cache, so moving one child within an interior of K children
// costs K detach and insert pairs rather than one.
func (r *Reconciler[H]) align(old, n *mdast.Node, container H) error {
	oldKids := old.ChildSlice()
	newKids := n.ChildSlice()

	// Equal runs at both ends stay where they are.
	start := 0
	for start < len(oldKids) && start < len(newKids) &&
		oldKids[start].Hash.Node == newKids[start].Hash.Node {
		newKids[start].ReplaceWith(oldKids[start])
		r.stats.Kept++
		start++
	}
	oldEnd, newEnd := len(oldKids), len(newKids)
	for oldEnd > start && newEnd > start &&
		oldKids[oldEnd-1].Hash.Node == newKids[newEnd-1].Hash.Node {
		newKids[newEnd-1].ReplaceWith(oldKids[oldEnd-1])
		r.stats.Kept++
		oldEnd--
		newEnd--
	}

	var ref H
	if oldEnd < len(oldKids) {
		ref = outputOf[H](oldKids[oldEnd]).Root
	}
	oldMid := oldKids[start:oldEnd]
	newMid := newKids[start:newEnd]

	// Old children whose content reappears in the new interior go to the
	// cache so they can be picked up at their new position.
	needed := make(map[uint64]int, len(newMid))
	for _, c := range newMid {
		needed[c.Hash.Node]++
	}
	rest := make([]*mdast.Node, 0, len(oldMid))
	for _, c := range oldMid {
		if needed[c.Hash.Node] > 0 {
			needed[c.Hash.Node]--
			r.tree.Detach(outputOf[H](c).Root)
			r.cache.Push(c)
			r.parked[c] = struct{}{}
			continue
		}
		rest = append(rest, c)
	}

	slots := make([]slot[H], 0, len(newMid))
	next := 0
	for _, c := range newMid {
		if cached, ok := r.take(c.Hash.Node); ok {
			root := outputOf[H](cached).Root
			r.tree.Detach(root)
			c.ReplaceWith(cached)
			r.stats.Moved++
			slots = append(slots, slot[H]{root: root})
			continue
		}

		if next < len(rest) {
			o := rest[next]
			next++
			if o.Hash.Node == c.Hash.Node {
				c.ReplaceWith(o)
				r.stats.Kept++
				slots = append(slots, slot[H]{root: outputOf[H](o).Root, attached: true})
				continue
			}
			root, err := r.patch(o, c, container)
			if err != nil {
				return err
			}
			slots = append(slots, slot[H]{root: root, attached: true})
			continue
		}

		out, err := r.build(c)
		if err != nil {
			return err
		}
		slots = append(slots, slot[H]{root: out.Root})
	}

	for _, o := range rest[next:] {
		r.tree.Detach(outputOf[H](o).Root)
		r.cache.Push(o)
		r.stats.Removed++
	}

	// Place from the back so each insertion has its final successor in place.
	for i := len(slots) - 1; i >= 0; i-- {
		s := slots[i]
		if !s.attached {
			r.tree.InsertBefore(container, s.root, ref)
		}
		ref = s.root
	}
	return nil
}
