// Package preview keeps a live HTML preview of a markdown document.
//
// A Session parses each new version of the source, reconciles it against
// the previous version and serializes the resulting HTML. The preview host
// element and every unchanged element below it keep their identity across
// updates.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joshuapare/markpatch/pkg/markdown"
	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/htmlout"
	"github.com/joshuapare/markpatch/render/output"
	"github.com/joshuapare/markpatch/render/reconcile"
)

// RawMode selects how raw HTML in the source is rendered.
type RawMode uint8

const (
	// RawEscape shows raw HTML as text.
	RawEscape RawMode = iota
	// RawSanitize keeps raw HTML after sanitizing it.
	RawSanitize
)

// String returns the config name of the mode.
func (m RawMode) String() string {
	switch m {
	case RawEscape:
		return "escape"
	case RawSanitize:
		return "sanitize"
	default:
		return fmt.Sprintf("RawMode(%d)", m)
	}
}

// ParseRawMode parses a config name.
func ParseRawMode(s string) (RawMode, error) {
	switch strings.ToLower(s) {
	case "", "escape":
		return RawEscape, nil
	case "sanitize":
		return RawSanitize, nil
	}
	return 0, fmt.Errorf("preview: unknown raw html mode %q", s)
}

// ImageMode selects how images are rendered.
type ImageMode uint8

const (
	// ImageInline renders img elements.
	ImageInline ImageMode = iota
	// ImagePlaceholder renders a figure that loads the image on demand.
	ImagePlaceholder
)

// String returns the config name of the mode.
func (m ImageMode) String() string {
	switch m {
	case ImageInline:
		return "inline"
	case ImagePlaceholder:
		return "placeholder"
	default:
		return fmt.Sprintf("ImageMode(%d)", m)
	}
}

// ParseImageMode parses a config name.
func ParseImageMode(s string) (ImageMode, error) {
	switch strings.ToLower(s) {
	case "", "inline":
		return ImageInline, nil
	case "placeholder":
		return ImagePlaceholder, nil
	}
	return 0, fmt.Errorf("preview: unknown image mode %q", s)
}

// Options configures a Session.
type Options struct {
	Parser markdown.Options
	HTML   htmlout.Options
	Raw    RawMode
	Images ImageMode
	// Policy sanitizes raw HTML in RawSanitize mode. Nil uses the UGC
	// policy.
	Policy *bluemonday.Policy
	// Trace records every output mutation of the last update.
	Trace bool
	// Logger is shared with the renderer and reconciler. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns escaped raw HTML, inline images and heading ids.
func DefaultOptions() Options {
	return Options{
		Parser: markdown.DefaultOptions(),
		HTML:   htmlout.DefaultOptions(),
	}
}

// Result describes one update.
type Result struct {
	HTML  string
	Stats reconcile.Stats
	// Swapped is set when the document root element was replaced.
	Swapped bool
}

// Session is a live preview. It is not safe for concurrent use.
type Session struct {
	parser *markdown.Parser
	rec    *reconcile.Reconciler[*html.Node]
	trace  *output.Recorder[*html.Node]
	host   *html.Node
}

// New creates a session with an empty preview.
func New(opts Options) *Session {
	htmlOpts := opts.HTML
	if htmlOpts.Logger == nil {
		htmlOpts.Logger = opts.Logger
	}
	reg := htmlout.NewRegistry(htmlOpts)
	if opts.Raw == RawSanitize {
		sanitized := htmlout.SanitizedHTML(opts.Policy)
		reg.Register(mdast.KindHTMLInline, sanitized)
		reg.Register(mdast.KindHTMLBlock, sanitized)
	}
	if opts.Images == ImagePlaceholder {
		reg.Register(mdast.KindImage, htmlout.PlaceholderImage())
	}

	s := &Session{
		parser: markdown.New(opts.Parser),
		host:   &html.Node{Type: html.ElementNode, Data: "main", DataAtom: atom.Main},
	}
	var tree output.Tree[*html.Node] = htmlout.Tree{}
	if opts.Trace {
		s.trace = output.NewRecorder(tree)
		tree = s.trace
	}
	s.rec = reconcile.New(tree, reg, reconcile.Options{Logger: opts.Logger})
	return s
}

// Update renders a new version of the source.
func (s *Session) Update(src []byte) (Result, error) {
	return s.apply(s.parser.Parse(src))
}

// UpdateFile renders the current content of the file at path.
func (s *Session) UpdateFile(path string) (Result, error) {
	doc, err := s.parser.ParseFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}
	return s.apply(doc)
}

func (s *Session) apply(doc *mdast.Node) (Result, error) {
	if s.trace != nil {
		s.trace.Reset()
	}
	out, err := s.rec.Reconcile(doc)
	if err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}

	res := Result{Stats: s.rec.Stats()}
	if out.Parent != s.host {
		for s.host.FirstChild != nil {
			s.host.RemoveChild(s.host.FirstChild)
		}
		s.host.AppendChild(out)
		res.Swapped = true
	}

	var buf bytes.Buffer
	if err := htmlout.RenderInner(&buf, s.host); err != nil {
		return Result{}, fmt.Errorf("preview: render: %w", err)
	}
	res.HTML = buf.String()
	return res, nil
}

// Host returns the element the document is rendered into.
func (s *Session) Host() *html.Node {
	return s.host
}

// Tree returns the remembered syntax tree, or nil before the first update.
func (s *Session) Tree() *mdast.Node {
	return s.rec.Root()
}

// Ops returns the mutations of the last update. It is empty unless the
// session was created with Trace.
func (s *Session) Ops() []output.Op[*html.Node] {
	if s.trace == nil {
		return nil
	}
	return s.trace.Ops()
}

// Render writes the current preview HTML.
func (s *Session) Render(w io.Writer) error {
	return htmlout.RenderInner(w, s.host)
}

// Reset drops the remembered document; the next update renders from scratch.
func (s *Session) Reset() {
	s.rec.Reset()
}
