package htmlout

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/rule"
)

// SanitizedHTML returns a rule for HTMLInline or HTMLBlock nodes that keeps
// raw HTML after passing it through policy, instead of degrading it to
// text. Inline content is wrapped in a span, block content in a div. A nil
// policy uses bluemonday's UGC policy.
func SanitizedHTML(policy *bluemonday.Policy) rule.Rule[*html.Node] {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return sanitizedRule{policy: policy}
}

type sanitizedRule struct {
	policy *bluemonday.Policy
}

func (r sanitizedRule) Create(n *mdast.Node) (Output, error) {
	tag := atom.Span
	if n.Kind == mdast.KindHTMLBlock {
		tag = atom.Div
	}
	out := Output{Root: element(tag)}
	return out, r.Update(n, out)
}

func (r sanitizedRule) Update(n *mdast.Node, out Output) error {
	clean := r.policy.Sanitize(n.Literal)
	nodes, err := html.ParseFragment(strings.NewReader(clean), out.Root)
	if err != nil {
		return fmt.Errorf("parse sanitized html: %w", err)
	}
	clearChildren(out.Root)
	for _, c := range nodes {
		out.Root.AppendChild(c)
	}
	return nil
}

// PlaceholderImage returns a rule for Image nodes that defers loading. The
// image renders as a figure holding a load button, the title as caption, a
// link to the source and the alt content:
//
//	<figure class="image-placeholder" data-src="...">
//	  <div class="loader">
//	    <button type="button">load</button>
//	    <figcaption>title</figcaption>
//	    <a href="..." target="_blank">...</a>
//	    <p class="alt">children</p>
//	  </div>
//	</figure>
//
// Children render into the alt paragraph, which is the rule's container.
// The figure keeps its identity across edits, so a client-side loader
// attached to it survives reconciliation.
func PlaceholderImage() rule.Rule[*html.Node] {
	return placeholderRule{}
}

type placeholderRule struct{}

func (r placeholderRule) Create(n *mdast.Node) (Output, error) {
	figure := element(atom.Figure)
	setAttr(figure, "class", "image-placeholder")

	loader := element(atom.Div)
	setAttr(loader, "class", "loader")
	button := element(atom.Button)
	setAttr(button, "type", "button")
	button.AppendChild(text("load"))
	caption := element(atom.Figcaption)
	link := element(atom.A)
	setAttr(link, "target", "_blank")
	alt := element(atom.P)
	setAttr(alt, "class", "alt")

	loader.AppendChild(button)
	loader.AppendChild(caption)
	loader.AppendChild(link)
	loader.AppendChild(alt)
	figure.AppendChild(loader)

	out := Output{Root: figure, Container: alt}
	return out, r.Update(n, out)
}

func (placeholderRule) Update(n *mdast.Node, out Output) error {
	loader := out.Root.FirstChild
	if loader == nil {
		return fmt.Errorf("placeholder output has no loader")
	}
	caption := loader.FirstChild.NextSibling
	link := caption.NextSibling

	setAttr(out.Root, "data-src", n.Destination)
	setOptionalAttr(out.Root, "data-title", n.Title)

	clearChildren(caption)
	if n.Title != "" {
		caption.AppendChild(text(n.Title))
	}
	setAttr(link, "href", n.Destination)
	clearChildren(link)
	link.AppendChild(text(n.Destination))
	return nil
}
