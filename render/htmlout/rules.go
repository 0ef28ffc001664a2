package htmlout

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/rule"
)

// Output is the rule output for HTML handles.
type Output = rule.Output[*html.Node]

// Options configures the default rules.
type Options struct {
	// Logger receives warnings about degraded content. Nil discards.
	Logger *slog.Logger
	// HeadingIDs adds an id derived from the heading text to every heading.
	HeadingIDs bool
	// CodeClassPrefix is prepended to the language of fenced code blocks to
	// form the class of the code element.
	CodeClassPrefix string
}

// DefaultOptions returns the options used by NewRegistry when none are
// given.
func DefaultOptions() Options {
	return Options{
		HeadingIDs:      true,
		CodeClassPrefix: "language-",
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Rules returns the default rule for every node kind.
func Rules(opts Options) rule.Table[*html.Node] {
	var table rule.Table[*html.Node]
	for _, kind := range mdast.Kinds() {
		table[kind] = defaultRule(kind, opts)
	}
	return table
}

// NewRegistry returns a registry backed by Rules(opts).
func NewRegistry(opts Options) *rule.Registry[*html.Node] {
	return rule.NewRegistry(Rules(opts))
}

func defaultRule(kind mdast.Kind, opts Options) rule.Rule[*html.Node] {
	switch kind {
	case mdast.KindText:
		return textRule{}
	case mdast.KindSoftBreak:
		return softBreakRule{}
	case mdast.KindHardBreak:
		return elementRule{atom.Br}
	case mdast.KindEmph:
		return elementRule{atom.Em}
	case mdast.KindStrong:
		return elementRule{atom.Strong}
	case mdast.KindHTMLInline:
		return rawRule{log: opts.logger()}
	case mdast.KindLink:
		return linkRule{}
	case mdast.KindImage:
		return imageRule{}
	case mdast.KindCode:
		return codeRule{}
	case mdast.KindParagraph:
		return elementRule{atom.P}
	case mdast.KindBlockQuote:
		return elementRule{atom.Blockquote}
	case mdast.KindItem:
		return elementRule{atom.Li}
	case mdast.KindList:
		return listRule{}
	case mdast.KindHeading:
		return headingRule{ids: opts.HeadingIDs}
	case mdast.KindCodeBlock:
		return codeBlockRule{prefix: opts.CodeClassPrefix}
	case mdast.KindHTMLBlock:
		return rawRule{log: opts.logger(), block: true}
	case mdast.KindThematicBreak:
		return elementRule{atom.Hr}
	case mdast.KindDocument:
		return elementRule{atom.Div}
	}
	return nil
}

// elementRule renders a kind as a single element without attributes.
type elementRule struct {
	tag atom.Atom
}

func (r elementRule) Create(*mdast.Node) (Output, error) {
	return Output{Root: element(r.tag)}, nil
}

func (elementRule) Update(*mdast.Node, Output) error { return nil }

type textRule struct{}

func (textRule) Create(n *mdast.Node) (Output, error) {
	return Output{Root: text(n.Literal)}, nil
}

func (textRule) Update(n *mdast.Node, out Output) error {
	out.Root.Data = n.Literal
	return nil
}

type softBreakRule struct{}

func (softBreakRule) Create(*mdast.Node) (Output, error) {
	return Output{Root: text("\n")}, nil
}

func (softBreakRule) Update(*mdast.Node, Output) error { return nil }

// rawRule degrades raw HTML to its literal text.
type rawRule struct {
	log   *slog.Logger
	block bool
}

func (r rawRule) Create(n *mdast.Node) (Output, error) {
	r.log.Warn("raw html is not supported", "kind", n.Kind.String())
	if !r.block {
		return Output{Root: text(n.Literal)}, nil
	}
	div := element(atom.Div)
	div.AppendChild(text(n.Literal))
	return Output{Root: div}, nil
}

func (r rawRule) Update(n *mdast.Node, out Output) error {
	r.log.Warn("raw html is not supported", "kind", n.Kind.String())
	target := out.Root
	if r.block {
		target = out.Root.FirstChild
	}
	if target == nil || target.Type != html.TextNode {
		return fmt.Errorf("raw html output has unexpected shape")
	}
	target.Data = n.Literal
	return nil
}

type linkRule struct{}

func (r linkRule) Create(n *mdast.Node) (Output, error) {
	a := element(atom.A)
	return Output{Root: a}, r.Update(n, Output{Root: a})
}

func (linkRule) Update(n *mdast.Node, out Output) error {
	setAttr(out.Root, "href", n.Destination)
	setOptionalAttr(out.Root, "title", n.Title)
	return nil
}

// imageRule renders an img element. The node's children are attached to a
// detached holder and only contribute the alt text.
type imageRule struct{}

func (r imageRule) Create(n *mdast.Node) (Output, error) {
	out := Output{Root: element(atom.Img), Container: element(atom.Span)}
	return out, r.Update(n, out)
}

func (r imageRule) Update(n *mdast.Node, out Output) error {
	setAttr(out.Root, "src", n.Destination)
	setOptionalAttr(out.Root, "title", n.Title)
	return r.ChildrenChanged(n, out)
}

func (imageRule) ChildrenChanged(_ *mdast.Node, out Output) error {
	setAttr(out.Root, "alt", textContent(out.Container))
	return nil
}

type codeRule struct{}

func (codeRule) Create(n *mdast.Node) (Output, error) {
	code := element(atom.Code)
	code.AppendChild(text(n.Literal))
	return Output{Root: code}, nil
}

func (codeRule) Update(n *mdast.Node, out Output) error {
	if out.Root.FirstChild == nil {
		return fmt.Errorf("code output has no text")
	}
	out.Root.FirstChild.Data = n.Literal
	return nil
}

type listRule struct{}

func (r listRule) Create(n *mdast.Node) (Output, error) {
	tag := atom.Ul
	if n.List.Kind == mdast.ListOrdered {
		tag = atom.Ol
	}
	out := Output{Root: element(tag)}
	return out, r.Update(n, out)
}

func (listRule) Update(n *mdast.Node, out Output) error {
	if n.List.Kind == mdast.ListOrdered && n.List.Start != 1 {
		setAttr(out.Root, "start", strconv.Itoa(n.List.Start))
	} else {
		removeAttr(out.Root, "start")
	}
	return nil
}

var headingTags = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

type headingRule struct {
	ids bool
}

func (headingRule) Create(n *mdast.Node) (Output, error) {
	level := min(max(n.Level, 1), len(headingTags))
	return Output{Root: element(headingTags[level-1])}, nil
}

func (headingRule) Update(*mdast.Node, Output) error { return nil }

func (r headingRule) ChildrenChanged(n *mdast.Node, out Output) error {
	if r.ids {
		setOptionalAttr(out.Root, "id", Slug(plainText(n)))
	}
	return nil
}

// codeBlockRule renders pre > code, with the first word of the info string
// as the language class.
type codeBlockRule struct {
	prefix string
}

func (r codeBlockRule) Create(n *mdast.Node) (Output, error) {
	pre := element(atom.Pre)
	code := element(atom.Code)
	code.AppendChild(text(""))
	pre.AppendChild(code)
	out := Output{Root: pre}
	return out, r.Update(n, out)
}

func (r codeBlockRule) Update(n *mdast.Node, out Output) error {
	code := out.Root.FirstChild
	if code == nil || code.FirstChild == nil {
		return fmt.Errorf("code block output has unexpected shape")
	}
	class := ""
	if lang := Language(n.Info); lang != "" {
		class = r.prefix + lang
	}
	setOptionalAttr(code, "class", class)
	code.FirstChild.Data = n.Literal
	return nil
}

// Language returns the first word of a fenced code block's info string.
func Language(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var (
	_ rule.ChildrenObserver[*html.Node] = imageRule{}
	_ rule.ChildrenObserver[*html.Node] = headingRule{}
)
