// Package markdown parses CommonMark source into mdast trees.
//
// Parsing is delegated to goldmark; this package maps goldmark's syntax tree
// onto the closed set of mdast node kinds. Goldmark nodes without an mdast
// counterpart are flattened: their children are attached to the nearest
// mapped ancestor.
package markdown

import (
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/joshuapare/markpatch/internal/mmfile"
	"github.com/joshuapare/markpatch/pkg/mdast"
)

// ErrEmptyPath is returned by ParseFile for an empty path.
var ErrEmptyPath = errors.New("markdown: empty path")

// Options configures a Parser.
type Options struct {
	// Linkify turns bare URLs into links.
	Linkify bool
}

// DefaultOptions returns plain CommonMark parsing.
func DefaultOptions() Options {
	return Options{}
}

// Parser converts markdown source into mdast trees.
type Parser struct {
	md goldmark.Markdown
}

// New creates a parser.
func New(opts Options) *Parser {
	var gopts []goldmark.Option
	if opts.Linkify {
		gopts = append(gopts, goldmark.WithExtensions(extension.Linkify))
	}
	return &Parser{md: goldmark.New(gopts...)}
}

var defaultParser = New(DefaultOptions())

// Parse parses src with the default parser.
func Parse(src []byte) *mdast.Node {
	return defaultParser.Parse(src)
}

// ParseFile parses the file at path with the default parser.
func ParseFile(path string) (*mdast.Node, error) {
	return defaultParser.ParseFile(path)
}

// Parse parses src into a Document. The returned tree does not reference
// src.
func (p *Parser) Parse(src []byte) *mdast.Node {
	root := p.md.Parser().Parse(text.NewReader(src))
	doc := mdast.NewDocument()
	c := converter{src: src}
	c.children(root, doc)

	// Text segments are raw source; escapes and entities resolve once
	// adjacent segments have been merged.
	mdast.Walk(doc, func(n *mdast.Node) bool {
		if n.Kind == mdast.KindText {
			n.Literal = unescape(n.Literal)
		}
		return true
	})
	return doc
}

func unescape(s string) string {
	if !strings.ContainsAny(s, "\\&") {
		return s
	}
	b := util.ResolveNumericReferences([]byte(s))
	b = util.ResolveEntityNames(b)
	return string(util.UnescapePunctuations(b))
}

// ParseFile memory-maps the file at path and parses it.
func (p *Parser) ParseFile(path string) (*mdast.Node, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	var doc *mdast.Node
	err := mmfile.With(path, func(data []byte) error {
		doc = p.Parse(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type converter struct {
	src []byte
}

func (c *converter) children(n gast.Node, parent *mdast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		c.convert(child, parent)
	}
}

// container appends node to parent and converts the children of n into it.
func (c *converter) container(node *mdast.Node, n gast.Node, parent *mdast.Node) {
	parent.AppendChild(node)
	c.children(n, node)
}

func (c *converter) convert(n gast.Node, parent *mdast.Node) {
	switch n := n.(type) {
	// Blocks
	case *gast.Paragraph:
		c.container(mdast.NewParagraph(), n, parent)
	case *gast.TextBlock:
		// Tight list items hold their inlines directly.
		c.children(n, parent)
	case *gast.Heading:
		c.container(mdast.NewHeading(n.Level), n, parent)
	case *gast.ThematicBreak:
		parent.AppendChild(mdast.NewThematicBreak())
	case *gast.CodeBlock:
		parent.AppendChild(mdast.NewCodeBlock("", c.lines(n.Lines())))
	case *gast.FencedCodeBlock:
		info := ""
		if n.Info != nil {
			info = string(n.Info.Segment.Value(c.src))
		}
		parent.AppendChild(mdast.NewCodeBlock(info, c.lines(n.Lines())))
	case *gast.Blockquote:
		c.container(mdast.NewBlockQuote(), n, parent)
	case *gast.List:
		data := mdast.ListData{Kind: mdast.ListBullet, Tight: n.IsTight, Delimiter: n.Marker}
		if n.IsOrdered() {
			data.Kind = mdast.ListOrdered
			data.Start = n.Start
		}
		c.container(mdast.NewList(data), n, parent)
	case *gast.ListItem:
		c.container(mdast.NewItem(), n, parent)
	case *gast.HTMLBlock:
		literal := c.lines(n.Lines())
		if n.HasClosure() {
			literal += string(n.ClosureLine.Value(c.src))
		}
		parent.AppendChild(mdast.NewHTMLBlock(literal))

	// Inlines
	case *gast.Text:
		c.text(parent, string(n.Segment.Value(c.src)))
		switch {
		case n.HardLineBreak():
			parent.AppendChild(mdast.NewHardBreak())
		case n.SoftLineBreak():
			parent.AppendChild(mdast.NewSoftBreak())
		}
	case *gast.String:
		c.text(parent, string(n.Value))
	case *gast.CodeSpan:
		parent.AppendChild(mdast.NewCode(c.inlineText(n)))
	case *gast.Emphasis:
		if n.Level >= 2 {
			c.container(mdast.NewStrong(), n, parent)
		} else {
			c.container(mdast.NewEmph(), n, parent)
		}
	case *gast.Link:
		c.container(mdast.NewLink(string(n.Destination), string(n.Title)), n, parent)
	case *gast.Image:
		c.container(mdast.NewImage(string(n.Destination), string(n.Title)), n, parent)
	case *gast.AutoLink:
		link := mdast.NewLink(string(n.URL(c.src)), "", mdast.NewText(string(n.Label(c.src))))
		parent.AppendChild(link)
	case *gast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(c.src))
		}
		parent.AppendChild(mdast.NewHTMLInline(sb.String()))

	default:
		c.children(n, parent)
	}
}

// text appends s to parent, merging it into a preceding text node.
func (c *converter) text(parent *mdast.Node, s string) {
	if s == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Kind == mdast.KindText {
		last.Literal += s
		return
	}
	parent.AppendChild(mdast.NewText(s))
}

func (c *converter) lines(lines *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

// inlineText collects the text of a code span, with line endings turned
// into spaces.
func (c *converter) inlineText(n gast.Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *gast.Text:
			sb.Write(t.Segment.Value(c.src))
		case *gast.String:
			sb.Write(t.Value)
		}
	}
	return strings.ReplaceAll(sb.String(), "\n", " ")
}
