package mdast

// New creates a node of the given kind with children appended in order.
func New(kind Kind, children ...*Node) *Node {
	n := &Node{Kind: kind}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// NewDocument creates a document root.
func NewDocument(children ...*Node) *Node {
	return New(KindDocument, children...)
}

// NewText creates a text leaf.
func NewText(literal string) *Node {
	return &Node{Kind: KindText, Literal: literal}
}

// NewSoftBreak creates a soft line break.
func NewSoftBreak() *Node {
	return &Node{Kind: KindSoftBreak}
}

// NewHardBreak creates a hard line break.
func NewHardBreak() *Node {
	return &Node{Kind: KindHardBreak}
}

// NewEmph creates an emphasis span.
func NewEmph(children ...*Node) *Node {
	return New(KindEmph, children...)
}

// NewStrong creates a strong emphasis span.
func NewStrong(children ...*Node) *Node {
	return New(KindStrong, children...)
}

// NewHTMLInline creates a raw inline markup leaf.
func NewHTMLInline(literal string) *Node {
	return &Node{Kind: KindHTMLInline, Literal: literal}
}

// NewLink creates a link with the given destination and title.
func NewLink(destination, title string, children ...*Node) *Node {
	n := New(KindLink, children...)
	n.Destination = destination
	n.Title = title
	return n
}

// NewImage creates an image. The children form its alt text.
func NewImage(destination, title string, children ...*Node) *Node {
	n := New(KindImage, children...)
	n.Destination = destination
	n.Title = title
	return n
}

// NewCode creates a code span.
func NewCode(literal string) *Node {
	return &Node{Kind: KindCode, Literal: literal}
}

// NewParagraph creates a paragraph.
func NewParagraph(children ...*Node) *Node {
	return New(KindParagraph, children...)
}

// NewBlockQuote creates a block quote.
func NewBlockQuote(children ...*Node) *Node {
	return New(KindBlockQuote, children...)
}

// NewItem creates a list item.
func NewItem(children ...*Node) *Node {
	return New(KindItem, children...)
}

// NewList creates a list with the given attributes.
func NewList(data ListData, items ...*Node) *Node {
	n := New(KindList, items...)
	n.List = data
	return n
}

// NewBulletList creates a tight bullet list using '-' markers.
func NewBulletList(items ...*Node) *Node {
	return NewList(ListData{Kind: ListBullet, Tight: true, Delimiter: '-'}, items...)
}

// NewOrderedList creates a tight ordered list starting at start.
func NewOrderedList(start int, items ...*Node) *Node {
	return NewList(ListData{Kind: ListOrdered, Tight: true, Start: start, Delimiter: '.'}, items...)
}

// NewHeading creates a heading of the given level.
func NewHeading(level int, children ...*Node) *Node {
	n := New(KindHeading, children...)
	n.Level = level
	return n
}

// NewCodeBlock creates a code block with an info string.
func NewCodeBlock(info, literal string) *Node {
	return &Node{Kind: KindCodeBlock, Info: info, Literal: literal}
}

// NewHTMLBlock creates a raw block markup leaf.
func NewHTMLBlock(literal string) *Node {
	return &Node{Kind: KindHTMLBlock, Literal: literal}
}

// NewThematicBreak creates a horizontal rule.
func NewThematicBreak() *Node {
	return &Node{Kind: KindThematicBreak}
}
