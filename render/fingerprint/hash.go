// Package fingerprint computes structural hashes over mdast trees.
//
// Every node gets three values: Attr (kind plus the attributes that apply to
// the kind), Children (the ordered fold of each child's Node hash, followed
// by the child count) and Node (Attr combined with Children, then passed
// through a nonlinear finalizer). Hashing is post-order, so a change to any
// attribute or descendant changes the Node hash of every ancestor while
// leaving unrelated subtrees untouched.
//
// The combine step is a rolling polynomial h' = (k*h + x) mod M over the
// Mersenne prime M = 2^61-1. The finalizer applied at every node boundary
// keeps a subtree's contribution from being linear in its descendants, so
// regrouping the same children under a different nesting changes the hash.
// Collisions are not detected.
package fingerprint

import (
	"math/bits"
	"strconv"

	"github.com/joshuapare/markpatch/pkg/mdast"
)

const (
	// modulus is the Mersenne prime 2^61-1.
	modulus = 1<<61 - 1

	// charMul folds characters of a serialized attribute. It exceeds the
	// largest rune so per-character contributions cannot alias.
	charMul = 1_000_000_007

	// intMul folds integers (attribute hashes, child hashes).
	intMul = 998_244_353

	// absent marks an attribute that does not apply to the node's kind.
	absent = 0x9e3779b97f4a7c15 % modulus
)

// mulmod returns a*b mod 2^61-1 for a, b < 2^61.
func mulmod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	// 2^64 = 8 * 2^61, and 2^61 is congruent to 1.
	r := (hi<<3 | lo>>61) + (lo & modulus)
	r = (r & modulus) + (r >> 61)
	if r >= modulus {
		r -= modulus
	}
	return r
}

// roller is the rolling combine state.
type roller struct {
	h uint64
}

func (r *roller) addInt(x uint64) {
	r.h = (mulmod(r.h, intMul) + x%modulus) % modulus
}

func (r *roller) addString(s string) {
	for _, c := range s {
		r.h = (mulmod(r.h, charMul) + uint64(c)) % modulus
	}
}

// Combine folds x into h.
func Combine(h, x uint64) uint64 {
	r := roller{h: h}
	r.addInt(x)
	return r.h
}

// String hashes the characters of s.
func String(s string) uint64 {
	var r roller
	r.addString(s)
	return r.h
}

// stringField, intField and boolField serialize one attribute. The leading
// tag keeps values of different types, and the empty string, apart.
func stringField(s string) uint64 {
	var r roller
	r.addString("s")
	r.addString(s)
	return r.h
}

func intField(v int) uint64 {
	var r roller
	r.addString("i")
	r.addString(strconv.Itoa(v))
	return r.h
}

func boolField(v bool) uint64 {
	if v {
		return String("btrue")
	}
	return String("bfalse")
}

// Attr returns the attribute hash of n. The tuple layout is fixed:
// kind, literal, destination, title, info, level, list kind, list tightness,
// list start, list delimiter. Fields that do not apply to n.Kind hash as
// absent whatever their stored value.
func Attr(n *mdast.Node) uint64 {
	var r roller
	r.addInt(String(n.Kind.String()))

	if n.Kind.HasLiteral() {
		r.addInt(stringField(n.Literal))
	} else {
		r.addInt(absent)
	}

	if n.Kind.HasDestination() {
		r.addInt(stringField(n.Destination))
		r.addInt(stringField(n.Title))
	} else {
		r.addInt(absent)
		r.addInt(absent)
	}

	if n.Kind == mdast.KindCodeBlock {
		r.addInt(stringField(n.Info))
	} else {
		r.addInt(absent)
	}

	if n.Kind == mdast.KindHeading {
		r.addInt(intField(n.Level))
	} else {
		r.addInt(absent)
	}

	if n.Kind == mdast.KindList {
		r.addInt(stringField(n.List.Kind.String()))
		r.addInt(boolField(n.List.Tight))
		r.addInt(intField(n.List.Start))
		r.addInt(intField(int(n.List.Delimiter)))
	} else {
		r.addInt(absent)
		r.addInt(absent)
		r.addInt(absent)
		r.addInt(absent)
	}
	return r.h
}

// Hash fingerprints every node of the tree rooted at root, bottom-up, and
// returns root.
func Hash(root *mdast.Node) *mdast.Node {
	hashNode(root)
	return root
}

// EnsureHashed re-hashes root when its fingerprint is missing.
// It reports whether a re-hash was needed.
func EnsureHashed(root *mdast.Node) bool {
	if root.Hash.Valid {
		return false
	}
	hashNode(root)
	return true
}

func hashNode(n *mdast.Node) uint64 {
	var children roller
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		children.addInt(hashNode(c))
		count++
	}
	children.addInt(uint64(count))

	attr := Attr(n)
	node := nodeHash(attr, children.h)
	n.Hash = mdast.Fingerprint{
		Attr:     attr,
		Children: children.h,
		Node:     node,
		Valid:    true,
	}
	return node
}

// nodeHash combines the attribute and children hashes of a node.
func nodeHash(attr, children uint64) uint64 {
	return finalize(Combine(Combine(0, attr), children))
}

// finalize is the splitmix64 mix reduced into the field.
func finalize(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x % modulus
}
