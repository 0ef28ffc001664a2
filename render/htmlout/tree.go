// Package htmlout renders mdast trees into golang.org/x/net/html node trees.
//
// It provides the output.Tree implementation for *html.Node, a rule table
// covering every built-in node kind and optional rules that replace the
// defaults for raw HTML and images.
package htmlout

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tree applies structural edits to *html.Node trees.
type Tree struct{}

// Append attaches child as the last child of parent.
func (Tree) Append(parent, child *html.Node) {
	detach(child)
	parent.AppendChild(child)
}

// InsertBefore attaches child before ref, or appends when ref is nil.
func (Tree) InsertBefore(parent, child, ref *html.Node) {
	detach(child)
	if ref == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, ref)
}

// Detach removes child from its parent.
func (Tree) Detach(child *html.Node) {
	detach(child)
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// setOptionalAttr sets key when val is non-empty and removes it otherwise.
func setOptionalAttr(n *html.Node, key, val string) {
	if val == "" {
		removeAttr(n, key)
		return
	}
	setAttr(n, key, val)
}

// textContent concatenates the text nodes below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func clearChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Render writes n and its descendants as HTML.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderString returns the HTML of n.
func RenderString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderInner writes the children of n without n itself.
func RenderInner(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}
