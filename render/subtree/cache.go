// Package subtree implements the per-pass cache of detached subtrees that
// lets the reconciler recognise content that moved rather than changed.
//
// The cache is a multimap from a node's fingerprint to an insertion-ordered
// set of nodes carrying that fingerprint. Pushing a node registers it and,
// recursively, every descendant, so reuse works at any granularity. Taking a
// node out with Use consumes its whole subtree and invalidates every cached
// ancestor: an ancestor is no longer whole once part of it has been moved
// elsewhere.
//
// A cache lives for one reconciliation pass and must be cleared afterwards.
package subtree

import (
	"github.com/joshuapare/markpatch/internal/orderedset"
	"github.com/joshuapare/markpatch/pkg/mdast"
)

// Cache is an ordered multimap from fingerprint to detached nodes.
// It is not safe for concurrent use.
type Cache struct {
	buckets map[uint64]*orderedset.Set[*mdast.Node]
	size    int
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{buckets: make(map[uint64]*orderedset.Set[*mdast.Node])}
}

// Len returns the number of cached nodes, counting descendants.
func (c *Cache) Len() int {
	return c.size
}

// Has reports whether a node with the given fingerprint is available.
func (c *Cache) Has(hash uint64) bool {
	b, ok := c.buckets[hash]
	return ok && b.Len() > 0
}

// Contains reports whether n itself is cached.
func (c *Cache) Contains(n *mdast.Node) bool {
	b, ok := c.buckets[n.Hash.Node]
	return ok && b.Has(n)
}

// Push caches n and every descendant of n.
func (c *Cache) Push(n *mdast.Node) {
	mdast.Walk(n, func(d *mdast.Node) bool {
		c.add(d)
		return true
	})
}

// Use removes and returns the oldest cached node with the given fingerprint.
// The node's descendants and any cached ancestors are dropped from the cache.
func (c *Cache) Use(hash uint64) (*mdast.Node, bool) {
	b, ok := c.buckets[hash]
	if !ok {
		return nil, false
	}
	n, ok := b.Shift()
	if !ok {
		return nil, false
	}
	c.size--
	if b.Len() == 0 {
		delete(c.buckets, hash)
	}

	for child := n.FirstChild; child != nil; child = child.Next {
		mdast.Walk(child, func(d *mdast.Node) bool {
			c.Delete(d)
			return true
		})
	}
	for p := n.Parent; p != nil; p = p.Parent {
		c.Delete(p)
	}
	return n, true
}

// Delete removes n from the cache and reports whether it was present.
// Descendants are left alone.
func (c *Cache) Delete(n *mdast.Node) bool {
	b, ok := c.buckets[n.Hash.Node]
	if !ok || !b.Delete(n) {
		return false
	}
	c.size--
	if b.Len() == 0 {
		delete(c.buckets, n.Hash.Node)
	}
	return true
}

// Clear empties the cache.
func (c *Cache) Clear() {
	clear(c.buckets)
	c.size = 0
}

func (c *Cache) add(n *mdast.Node) {
	b, ok := c.buckets[n.Hash.Node]
	if !ok {
		b = orderedset.New[*mdast.Node]()
		c.buckets[n.Hash.Node] = b
	}
	if b.Has(n) {
		return
	}
	b.Push(n)
	c.size++
}
