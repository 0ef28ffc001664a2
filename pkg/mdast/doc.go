// Package mdast provides the in-memory markdown syntax tree consumed by the
// incremental renderer.
//
// A tree is a set of Nodes linked through parent, first/last child and
// previous/next sibling pointers. Every structural operation (Unlink,
// AppendChild, InsertBefore, InsertAfter, ReplaceWith) is O(1), which is what
// the child aligner relies on when it relinks nodes between two generations of
// a document.
//
// # Core Types
//
// Node carries a Kind from a closed set, the attributes that apply to that
// kind (literal text, link destination and title, heading level, list data,
// code block info string), the structural links, and two slots owned by the
// renderer: the structural Fingerprint and the opaque Output binding.
//
// # Generations
//
// A parser produces a fresh tree for every edit. Trees are treated as
// immutable once fingerprinted; code that mutates attributes out of band must
// call Invalidate so that the next reconciliation re-hashes the tree.
//
// # Usage Example
//
//	doc := mdast.NewDocument(
//		mdast.NewHeading(1, mdast.NewText("Title")),
//		mdast.NewParagraph(mdast.NewText("hello "), mdast.NewEmph(mdast.NewText("world"))),
//	)
//	mdast.Dump(os.Stdout, doc)
package mdast
