package mdast

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions controls the output of Dump.
type DumpOptions struct {
	IndentSize int  // spaces per depth level. Default: 2
	ShowHashes bool // print fingerprints next to each node
}

// Dump writes a human-readable outline of the tree rooted at n.
func Dump(w io.Writer, n *Node) error {
	return DumpWith(w, n, DumpOptions{})
}

// DumpWith writes an outline of the tree rooted at n using opts.
func DumpWith(w io.Writer, n *Node, opts DumpOptions) error {
	if opts.IndentSize <= 0 {
		opts.IndentSize = 2
	}
	return dumpNode(w, n, 0, opts)
}

func dumpNode(w io.Writer, n *Node, depth int, opts DumpOptions) error {
	indent := strings.Repeat(" ", depth*opts.IndentSize)

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(n.Kind.String())
	writeAttrs(&b, n)
	if opts.ShowHashes {
		if n.Hash.Valid {
			fmt.Fprintf(&b, " #%016x (attr=%x children=%x)", n.Hash.Node, n.Hash.Attr, n.Hash.Children)
		} else {
			b.WriteString(" #stale")
		}
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for c := n.FirstChild; c != nil; c = c.Next {
		if err := dumpNode(w, c, depth+1, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeAttrs(b *strings.Builder, n *Node) {
	if n.Kind.HasLiteral() {
		fmt.Fprintf(b, " %q", n.Literal)
	}
	if n.Kind.HasDestination() {
		fmt.Fprintf(b, " dest=%q", n.Destination)
		if n.Title != "" {
			fmt.Fprintf(b, " title=%q", n.Title)
		}
	}
	switch n.Kind {
	case KindHeading:
		fmt.Fprintf(b, " level=%d", n.Level)
	case KindCodeBlock:
		if n.Info != "" {
			fmt.Fprintf(b, " info=%q", n.Info)
		}
	case KindList:
		fmt.Fprintf(b, " %s tight=%t", n.List.Kind, n.List.Tight)
		if n.List.Kind == ListOrdered {
			fmt.Fprintf(b, " start=%d", n.List.Start)
		}
		if n.List.Delimiter != 0 {
			fmt.Fprintf(b, " delim=%q", n.List.Delimiter)
		}
	}
}
