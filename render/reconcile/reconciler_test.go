package reconcile

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/fingerprint"
	"github.com/joshuapare/markpatch/render/output"
	"github.com/joshuapare/markpatch/render/rule"
)

// el is a minimal output element.
type el struct {
	tag    string
	text   string
	parent *el
	kids   []*el
}

func (e *el) String() string {
	var sb strings.Builder
	sb.WriteString(e.tag)
	sb.WriteString(e.text)
	sb.WriteByte('(')
	for i, k := range e.kids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (e *el) flatText() string {
	var sb strings.Builder
	for _, k := range e.kids {
		if k.tag == "Text" {
			sb.WriteString(k.text)
		}
		sb.WriteString(k.flatText())
	}
	return sb.String()
}

// elTree panics on a reference that is not a child of the parent, which
// catches misplaced insertions.
type elTree struct{}

func (elTree) Append(parent, child *el) { elTree{}.InsertBefore(parent, child, nil) }

func (elTree) InsertBefore(parent, child, ref *el) {
	detachEl(child)
	child.parent = parent
	if ref == nil {
		parent.kids = append(parent.kids, child)
		return
	}
	i := slices.Index(parent.kids, ref)
	if i < 0 {
		panic(fmt.Sprintf("insert %s: reference %s is not a child of %s", child.tag, ref.tag, parent.tag))
	}
	parent.kids = slices.Insert(parent.kids, i, child)
}

func (elTree) Detach(child *el) { detachEl(child) }

func detachEl(c *el) {
	if c.parent == nil {
		return
	}
	i := slices.Index(c.parent.kids, c)
	c.parent.kids = slices.Delete(c.parent.kids, i, i+1)
	c.parent = nil
}

func tagFor(n *mdast.Node) string {
	switch n.Kind {
	case mdast.KindHeading:
		return fmt.Sprintf("Heading%d", n.Level)
	case mdast.KindList:
		return "List" + n.List.Kind.String()
	}
	return n.Kind.String()
}

func textFor(n *mdast.Node) string {
	switch {
	case n.Kind.HasLiteral():
		return n.Literal
	case n.Kind == mdast.KindLink:
		return n.Destination
	case n.Kind == mdast.KindList:
		return fmt.Sprintf("%d", n.List.Start)
	}
	return ""
}

// expected renders what the output for n must look like.
func expected(n *mdast.Node) string {
	var sb strings.Builder
	sb.WriteString(tagFor(n))
	if n.Kind == mdast.KindImage {
		var alt strings.Builder
		mdast.Walk(n, func(d *mdast.Node) bool {
			if d.Kind == mdast.KindText {
				alt.WriteString(d.Literal)
			}
			return true
		})
		sb.WriteString(n.Destination + "|" + alt.String() + "()")
		return sb.String()
	}
	sb.WriteString(textFor(n))
	sb.WriteByte('(')
	i := 0
	for c := range n.Children() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(expected(c))
		i++
	}
	sb.WriteByte(')')
	return sb.String()
}

type counter struct {
	creates  map[mdast.Kind]int
	updates  map[mdast.Kind]int
	children map[mdast.Kind]int
}

func newCounter() *counter {
	return &counter{
		creates:  map[mdast.Kind]int{},
		updates:  map[mdast.Kind]int{},
		children: map[mdast.Kind]int{},
	}
}

func sum(m map[mdast.Kind]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func (c *counter) reset() {
	clear(c.creates)
	clear(c.updates)
	clear(c.children)
}

func newRules(c *counter) *rule.Registry[*el] {
	var table rule.Table[*el]
	for _, k := range mdast.Kinds() {
		table[k] = rule.Funcs[*el]{
			CreateFn: func(n *mdast.Node) (rule.Output[*el], error) {
				c.creates[n.Kind]++
				return rule.Output[*el]{Root: &el{tag: tagFor(n), text: textFor(n)}}, nil
			},
			UpdateFn: func(n *mdast.Node, out rule.Output[*el]) error {
				c.updates[n.Kind]++
				out.Root.text = textFor(n)
				return nil
			},
			ChildrenFn: func(n *mdast.Node, out rule.Output[*el]) error {
				c.children[n.Kind]++
				return nil
			},
		}
	}

	// Images keep their children in a detached holder and show them as
	// text on the root.
	altText := func(n *mdast.Node, out rule.Output[*el]) {
		out.Root.text = n.Destination + "|" + out.Container.flatText()
	}
	table[mdast.KindImage] = rule.Funcs[*el]{
		CreateFn: func(n *mdast.Node) (rule.Output[*el], error) {
			c.creates[n.Kind]++
			return rule.Output[*el]{Root: &el{tag: "Image"}, Container: &el{tag: "holder"}}, nil
		},
		UpdateFn: func(n *mdast.Node, out rule.Output[*el]) error {
			c.updates[n.Kind]++
			altText(n, out)
			return nil
		},
		ChildrenFn: func(n *mdast.Node, out rule.Output[*el]) error {
			c.children[n.Kind]++
			altText(n, out)
			return nil
		},
	}
	return rule.NewRegistry(table)
}

type fixture struct {
	rec   *Reconciler[*el]
	ops   *output.Recorder[*el]
	count *counter
	rules *rule.Registry[*el]
}

func newFixture() *fixture {
	f := &fixture{ops: output.NewRecorder[*el](elTree{}), count: newCounter()}
	f.rules = newRules(f.count)
	f.rec = New[*el](f.ops, f.rules, DefaultOptions())
	return f
}

// pass reconciles doc after clearing the counters and checks the output
// against doc.
func (f *fixture) pass(t *testing.T, doc *mdast.Node) *el {
	t.Helper()
	f.ops.Reset()
	f.count.reset()
	want := expected(doc)
	out, err := f.rec.Reconcile(doc)
	require.NoError(t, err)
	require.Equal(t, want, out.String())
	checkBindings(t, f.rec.Root())
	return out
}

func checkBindings(t *testing.T, root *mdast.Node) {
	t.Helper()
	mdast.Walk(root, func(n *mdast.Node) bool {
		out, ok := OutputOf[*el](n)
		require.True(t, ok, "%s has no output", n.Kind)
		if n.Parent != nil {
			require.Same(t, outputOf[*el](n.Parent).Children(), out.Root.parent, "%s is attached to the wrong container", n.Kind)
		}
		return true
	})
}

func para(s string) *mdast.Node {
	return mdast.NewParagraph(mdast.NewText(s))
}

func docOf(words ...string) *mdast.Node {
	doc := mdast.NewDocument()
	for _, w := range words {
		doc.AppendChild(para(w))
	}
	return doc
}

func TestFirstPassBuildsEverything(t *testing.T) {
	f := newFixture()
	out := f.pass(t, docOf("a", "b"))

	require.Equal(t, "Document(Paragraph(Texta()),Paragraph(Textb()))", out.String())
	require.Equal(t, 5, f.rec.Stats().Created)
	require.Equal(t, 5, sum(f.count.creates))
	require.Equal(t, 4, f.ops.Count(output.OpInsert))
	require.Equal(t, 5, sum(f.count.children))
	require.Same(t, out, f.rec.Output())
}

func TestIdenticalPassDoesNothing(t *testing.T) {
	f := newFixture()
	first := f.pass(t, docOf("a", "b", "c"))
	remembered := f.rec.Root()

	out := f.pass(t, docOf("a", "b", "c"))

	require.Same(t, first, out)
	require.Zero(t, f.ops.Len())
	require.Zero(t, sum(f.count.creates)+sum(f.count.updates)+sum(f.count.children))
	require.True(t, f.rec.Stats().Identical)
	require.Same(t, remembered, f.rec.Root())

	// The remembered tree itself is also a no-op.
	_, err := f.rec.Reconcile(f.rec.Root())
	require.NoError(t, err)
	require.Zero(t, f.ops.Len())
}

func TestSingleLeafEditUpdatesOnlyTheLeaf(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a", "b", "c"))
	paras := slices.Clone(before.kids)
	leaf := paras[1].kids[0]

	out := f.pass(t, docOf("a", "B", "c"))

	require.Same(t, before, out)
	require.Zero(t, f.ops.Len())
	require.Zero(t, sum(f.count.creates))
	require.Equal(t, map[mdast.Kind]int{mdast.KindText: 1}, f.count.updates)
	require.Equal(t, paras, out.kids)
	require.Same(t, leaf, out.kids[1].kids[0])
	require.Equal(t, "B", leaf.text)

	s := f.rec.Stats()
	require.Equal(t, 1, s.Updated)
	require.Equal(t, 2, s.Kept)
	require.Equal(t, 1, s.Mutations())
}

func TestInsertInMiddle(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a", "c"))
	a, c := before.kids[0], before.kids[1]

	out := f.pass(t, docOf("a", "b", "c"))

	require.Len(t, out.kids, 3)
	require.Same(t, a, out.kids[0])
	require.Same(t, c, out.kids[2])
	require.Equal(t, 2, sum(f.count.creates))
	require.Zero(t, sum(f.count.updates))
	require.Equal(t, 2, f.ops.Count(output.OpInsert))
	require.Zero(t, f.ops.Count(output.OpDetach))
	last := f.ops.Ops()[f.ops.Len()-1]
	require.Same(t, c, last.Ref)
}

func TestRemoveFromList(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a", "b", "c"))
	a, b, c := before.kids[0], before.kids[1], before.kids[2]

	out := f.pass(t, docOf("a", "c"))

	require.Equal(t, []*el{a, c}, out.kids)
	require.Nil(t, b.parent)
	require.Equal(t, 1, f.ops.Len())
	require.Equal(t, output.OpDetach, f.ops.Ops()[0].Type)
	require.Zero(t, sum(f.count.updates))
	require.Zero(t, sum(f.count.creates))
	require.Equal(t, 1, f.rec.Stats().Removed)
}

func TestReorderReusesHandles(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a", "b", "c"))
	a, b, c := before.kids[0], before.kids[1], before.kids[2]

	out := f.pass(t, docOf("c", "a", "b"))

	require.Equal(t, []*el{c, a, b}, out.kids)
	require.Zero(t, sum(f.count.creates))
	require.Zero(t, sum(f.count.updates))
	require.Equal(t, 3, f.rec.Stats().Moved)
}

func TestMoveAcrossParents(t *testing.T) {
	f := newFixture()
	before := f.pass(t, mdast.NewDocument(
		mdast.NewBlockQuote(para("x"), para("y")),
		para("z"),
	))
	quote := before.kids[0]
	x, y := quote.kids[0], quote.kids[1]

	out := f.pass(t, mdast.NewDocument(
		mdast.NewBlockQuote(para("y")),
		para("x"),
		para("z"),
	))

	require.Same(t, quote, out.kids[0])
	require.Equal(t, []*el{y}, quote.kids)
	require.Same(t, x, out.kids[1])
	require.Zero(t, sum(f.count.creates))
	s := f.rec.Stats()
	require.Equal(t, 1, s.Moved)
	require.Equal(t, 1, s.Removed)
}

func TestHeadingLevelChangeReplaces(t *testing.T) {
	f := newFixture()
	before := f.pass(t, mdast.NewDocument(mdast.NewHeading(1, mdast.NewText("t")), para("p")))
	h1 := before.kids[0]
	text := h1.kids[0]

	out := f.pass(t, mdast.NewDocument(mdast.NewHeading(2, mdast.NewText("t")), para("p")))

	require.NotSame(t, h1, out.kids[0])
	require.Nil(t, h1.parent)
	require.Equal(t, "Heading2", out.kids[0].tag)
	require.Same(t, text, out.kids[0].kids[0])
	require.Equal(t, map[mdast.Kind]int{mdast.KindHeading: 1}, f.count.creates)
	s := f.rec.Stats()
	require.Equal(t, 1, s.Replaced)
	require.Equal(t, 1, s.Moved)
}

func TestListKindChangeReplaces(t *testing.T) {
	f := newFixture()
	item := func() *mdast.Node { return mdast.NewItem(para("i")) }
	before := f.pass(t, mdast.NewDocument(mdast.NewBulletList(item())))
	oldItem := before.kids[0].kids[0]

	out := f.pass(t, mdast.NewDocument(mdast.NewOrderedList(1, item())))

	require.Equal(t, "ListOrdered", out.kids[0].tag)
	require.Same(t, oldItem, out.kids[0].kids[0])
	require.Equal(t, 1, f.rec.Stats().Replaced)
}

func TestCompatibleAttributeChangeUpdatesInPlace(t *testing.T) {
	f := newFixture()
	link := func(dest string) *mdast.Node {
		return mdast.NewDocument(mdast.NewParagraph(mdast.NewLink(dest, "", mdast.NewText("x"))))
	}
	before := f.pass(t, link("/a"))
	handle := before.kids[0].kids[0]

	out := f.pass(t, link("/b"))

	require.Same(t, handle, out.kids[0].kids[0])
	require.Equal(t, "/b", handle.text)
	require.Equal(t, map[mdast.Kind]int{mdast.KindLink: 1}, f.count.updates)
	require.Zero(t, f.ops.Len())
	require.Equal(t, 1, f.rec.Stats().Skipped)

	// Ordered list start is an attribute too.
	f.pass(t, mdast.NewDocument(mdast.NewOrderedList(1, mdast.NewItem(para("a")))))
	f.pass(t, mdast.NewDocument(mdast.NewOrderedList(4, mdast.NewItem(para("a")))))
	require.Equal(t, map[mdast.Kind]int{mdast.KindList: 1}, f.count.updates)
}

func TestRootReplacement(t *testing.T) {
	f := newFixture()
	before := f.pass(t, para("a"))
	text := before.kids[0]

	out := f.pass(t, mdast.NewHeading(1, mdast.NewText("a")))

	require.NotSame(t, before, out)
	require.Same(t, text, out.kids[0])
	require.Same(t, out, f.rec.Output())
	// The root handle is never attached or detached by the reconciler.
	for _, op := range f.ops.Ops() {
		require.NotSame(t, before, op.Child)
	}
}

func TestChildrenObserverSeesNewChildren(t *testing.T) {
	f := newFixture()
	img := func(alt string) *mdast.Node {
		return mdast.NewDocument(mdast.NewParagraph(mdast.NewImage("src.png", "", mdast.NewText(alt))))
	}
	before := f.pass(t, img("cat"))
	handle := before.kids[0].kids[0]
	require.Equal(t, "src.png|cat", handle.text)

	f.pass(t, img("dog"))

	require.Equal(t, "src.png|dog", handle.text)
	require.Equal(t, 1, f.count.children[mdast.KindImage])
	require.Equal(t, 1, f.count.updates[mdast.KindText])
}

func TestDuplicateContent(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a", "a"))
	first := before.kids[0]

	out := f.pass(t, docOf("a"))

	require.Equal(t, []*el{first}, out.kids)
	require.Equal(t, 1, f.rec.Stats().Removed)

	f.pass(t, docOf("a", "a", "a"))
	require.Equal(t, 4, sum(f.count.creates))
}

func TestStaleRememberedTreeIsRehashed(t *testing.T) {
	f := newFixture()
	f.pass(t, docOf("a"))
	f.rec.Root().FirstChild.FirstChild.Invalidate()

	f.pass(t, docOf("a"))

	require.True(t, f.rec.Stats().Rehashed)
	require.True(t, f.rec.Stats().Identical)
}

func TestMissingRuleResetsState(t *testing.T) {
	f := newFixture()
	f.pass(t, docOf("a"))
	f.rules.Register(mdast.KindThematicBreak, rule.Funcs[*el]{})

	_, err := f.rec.Reconcile(mdast.NewDocument(para("a"), mdast.NewThematicBreak()))

	require.ErrorIs(t, err, rule.ErrMissingRule)
	require.Nil(t, f.rec.Root())
	require.Nil(t, f.rec.Output())

	f.rules.Unregister(mdast.KindThematicBreak)
	f.pass(t, mdast.NewDocument(para("a"), mdast.NewThematicBreak()))
	require.Equal(t, 4, f.rec.Stats().Created)
}

func TestRuleErrorIsWrapped(t *testing.T) {
	f := newFixture()
	boom := fmt.Errorf("boom")
	f.rules.Register(mdast.KindCode, rule.Funcs[*el]{
		CreateFn: func(n *mdast.Node) (rule.Output[*el], error) {
			return rule.Output[*el]{}, boom
		},
	})

	_, err := f.rec.Reconcile(mdast.NewDocument(mdast.NewParagraph(mdast.NewCode("x"))))

	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "create Code")
	require.Nil(t, f.rec.Root())
}

func TestReentrantCallFails(t *testing.T) {
	f := newFixture()
	var inner error
	f.rules.Register(mdast.KindThematicBreak, rule.Funcs[*el]{
		CreateFn: func(n *mdast.Node) (rule.Output[*el], error) {
			_, inner = f.rec.Reconcile(mdast.NewDocument())
			return rule.Output[*el]{Root: &el{tag: "hr"}}, nil
		},
	})

	_, err := f.rec.Reconcile(mdast.NewDocument(mdast.NewThematicBreak()))

	require.NoError(t, err)
	require.ErrorIs(t, inner, ErrReentrant)
}

func TestNilRoot(t *testing.T) {
	f := newFixture()
	_, err := f.rec.Reconcile(nil)
	require.ErrorIs(t, err, ErrNilRoot)
}

func TestPatchOfIdenticalNodesIsAnInvariantError(t *testing.T) {
	f := newFixture()
	a := fingerprint.Hash(para("a"))
	b := fingerprint.Hash(para("a"))

	_, err := f.rec.patch(a, b, nil)

	require.ErrorIs(t, err, ErrInvariant)
}

func TestResetForcesFullRender(t *testing.T) {
	f := newFixture()
	before := f.pass(t, docOf("a"))
	f.rec.Reset()

	out := f.pass(t, docOf("a"))

	require.NotSame(t, before, out)
	require.Equal(t, 3, f.rec.Stats().Created)
}

func TestDebugRecordPerPass(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := New[*el](elTree{}, newRules(newCounter()), Options{Logger: logger})

	_, err := rec.Reconcile(docOf("a"))
	require.NoError(t, err)
	_, err = rec.Reconcile(docOf("a"))
	require.NoError(t, err)

	require.Equal(t, 2, strings.Count(buf.String(), "reconcile pass"))
	require.Contains(t, buf.String(), "identical=true")
}

func randomInline(rng *rand.Rand) *mdast.Node {
	words := []string{"a", "b", "c"}
	if rng.IntN(4) == 0 {
		return mdast.NewEmph(mdast.NewText(words[rng.IntN(len(words))]))
	}
	return mdast.NewText(words[rng.IntN(len(words))])
}

func randomBlock(rng *rand.Rand, depth int) *mdast.Node {
	k := rng.IntN(5)
	switch {
	case k == 0 && depth > 0:
		q := mdast.NewBlockQuote()
		for range 1 + rng.IntN(2) {
			q.AppendChild(randomBlock(rng, depth-1))
		}
		return q
	case k == 1 && depth > 0:
		var list *mdast.Node
		if rng.IntN(2) == 0 {
			list = mdast.NewBulletList()
		} else {
			list = mdast.NewOrderedList(1 + rng.IntN(2))
		}
		for range 1 + rng.IntN(3) {
			list.AppendChild(mdast.NewItem(randomBlock(rng, depth-1)))
		}
		return list
	case k == 2:
		return mdast.NewHeading(1+rng.IntN(2), randomInline(rng))
	}
	p := mdast.NewParagraph()
	for range 1 + rng.IntN(3) {
		p.AppendChild(randomInline(rng))
	}
	return p
}

func randomDoc(rng *rand.Rand) *mdast.Node {
	doc := mdast.NewDocument()
	for range rng.IntN(6) {
		doc.AppendChild(randomBlock(rng, 2))
	}
	return doc
}

func TestRandomSequencesMatchFreshRender(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	f := newFixture()
	for i := range 300 {
		doc := randomDoc(rng)
		want := expected(doc)
		out, err := f.rec.Reconcile(doc)
		require.NoError(t, err, "pass %d", i)
		require.Equal(t, want, out.String(), "pass %d", i)
		checkBindings(t, f.rec.Root())
	}
}

func TestRegroupedChildrenAreNotIdentical(t *testing.T) {
	bq := mdast.NewBlockQuote
	f := newFixture()
	f.pass(t, mdast.NewDocument(bq(para("p"), bq(bq(para("q"))))))

	f.pass(t, mdast.NewDocument(bq(bq(para("p"), bq(para("q"))))))
	require.False(t, f.rec.Stats().Identical)

	f.pass(t, mdast.NewDocument(mdast.NewEmph(mdast.NewText("x"), mdast.NewEmph(mdast.NewText("y")))))
	f.pass(t, mdast.NewDocument(mdast.NewEmph(mdast.NewEmph(mdast.NewText("x"), mdast.NewText("y")))))
	require.False(t, f.rec.Stats().Identical)
}

func TestUnclaimedParkedChildCountsAsRemoved(t *testing.T) {
	f := newFixture()
	before := f.pass(t, mdast.NewDocument(
		para("x"),
		mdast.NewBlockQuote(para("x"), para("w")),
		para("e"),
	))
	outer := before.kids[0]
	quote := before.kids[1]
	inner := quote.kids[0]

	// The heading replaces the outer x first, so the quote's own x, parked
	// for reuse, loses the cache slot to the older outer x.
	out := f.pass(t, mdast.NewDocument(
		mdast.NewHeading(1, mdast.NewText("n")),
		mdast.NewBlockQuote(para("v"), para("x")),
		para("e"),
	))

	require.Same(t, quote, out.kids[1])
	require.Same(t, outer, quote.kids[1])
	require.Nil(t, inner.parent)

	s := f.rec.Stats()
	require.Equal(t, 1, s.Replaced)
	require.Equal(t, 1, s.Moved)
	require.Equal(t, 1, s.Removed)
}
