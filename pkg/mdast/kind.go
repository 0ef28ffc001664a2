package mdast

// Kind identifies the type of a Node. The set is closed.
type Kind uint8

const (
	KindText Kind = iota
	KindSoftBreak
	KindHardBreak
	KindEmph
	KindStrong
	KindHTMLInline // raw inline markup
	KindLink
	KindImage
	KindCode // code span
	KindParagraph
	KindBlockQuote
	KindItem
	KindList
	KindHeading
	KindCodeBlock
	KindHTMLBlock // raw block markup
	KindThematicBreak
	KindDocument

	// NumKinds is the number of node kinds. Tables indexed by Kind use it as
	// their length.
	NumKinds = int(KindDocument) + 1
)

var kindNames = [NumKinds]string{
	KindText:          "Text",
	KindSoftBreak:     "Softbreak",
	KindHardBreak:     "Hardbreak",
	KindEmph:          "Emph",
	KindStrong:        "Strong",
	KindHTMLInline:    "HTMLInline",
	KindLink:          "Link",
	KindImage:         "Image",
	KindCode:          "Code",
	KindParagraph:     "Paragraph",
	KindBlockQuote:    "BlockQuote",
	KindItem:          "Item",
	KindList:          "List",
	KindHeading:       "Heading",
	KindCodeBlock:     "CodeBlock",
	KindHTMLBlock:     "HTMLBlock",
	KindThematicBreak: "ThematicBreak",
	KindDocument:      "Document",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return "Unknown"
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return int(k) < NumKinds
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// HasLiteral reports whether the Literal attribute applies to nodes of kind k.
func (k Kind) HasLiteral() bool {
	switch k {
	case KindText, KindHTMLInline, KindCode, KindCodeBlock, KindHTMLBlock:
		return true
	}
	return false
}

// HasDestination reports whether Destination and Title apply to kind k.
func (k Kind) HasDestination() bool {
	return k == KindLink || k == KindImage
}

// ListKind distinguishes bullet lists from ordered lists.
type ListKind uint8

const (
	ListBullet ListKind = iota
	ListOrdered
)

// String returns the list kind name.
func (l ListKind) String() string {
	switch l {
	case ListBullet:
		return "Bullet"
	case ListOrdered:
		return "Ordered"
	default:
		return "Unknown"
	}
}

// ListData holds the attributes of a List node.
type ListData struct {
	Kind  ListKind
	Tight bool
	// Start is the number of the first item. Only meaningful for ordered lists.
	Start int
	// Delimiter is the marker character: '.' or ')' for ordered lists,
	// '-', '*' or '+' for bullet lists.
	Delimiter byte
}
