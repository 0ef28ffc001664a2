package htmlout

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshuapare/markpatch/pkg/mdast"
)

// Slug turns heading text into an anchor id: lower-cased, letters and
// digits kept, every other run collapsed into a single hyphen.
func Slug(s string) string {
	var sb strings.Builder
	pending := false
	for _, r := range cases.Lower(language.Und).String(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	return sb.String()
}

// plainText concatenates the literal text below n, skipping raw HTML.
func plainText(n *mdast.Node) string {
	var sb strings.Builder
	mdast.Walk(n, func(d *mdast.Node) bool {
		switch d.Kind {
		case mdast.KindText, mdast.KindCode:
			sb.WriteString(d.Literal)
		case mdast.KindSoftBreak, mdast.KindHardBreak:
			sb.WriteByte(' ')
		}
		return true
	})
	return sb.String()
}
