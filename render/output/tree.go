// Package output defines the structural mutations the reconciler performs on
// an output tree, and a recorder that logs them.
package output

// Tree applies structural edits to an output tree of handles of type H.
// Implementations wrap a concrete technology (an HTML node tree, a widget
// toolkit); the reconciler never inspects handles beyond these calls.
type Tree[H comparable] interface {
	// Append attaches child as the last child of parent.
	Append(parent, child H)
	// InsertBefore attaches child to parent immediately before ref. A zero
	// ref appends. child is detached from any previous parent first.
	InsertBefore(parent, child, ref H)
	// Detach removes child from its parent. Detaching a detached handle is a
	// no-op.
	Detach(child H)
}

// OpType is the kind of a recorded mutation.
type OpType uint8

const (
	// OpInsert attaches a handle (Append or InsertBefore).
	OpInsert OpType = iota
	// OpDetach removes a handle from its parent.
	OpDetach
)

// String returns the name of the operation.
func (t OpType) String() string {
	switch t {
	case OpInsert:
		return "insert"
	case OpDetach:
		return "detach"
	default:
		return "unknown"
	}
}

// Op is one recorded mutation.
type Op[H comparable] struct {
	Type   OpType
	Parent H // zero for OpDetach
	Child  H
	Ref    H // zero when appending
}

// Recorder decorates a Tree and keeps a log of every mutation passed
// through it.
type Recorder[H comparable] struct {
	inner Tree[H]
	ops   []Op[H]
}

// NewRecorder wraps inner. A nil inner records without applying.
func NewRecorder[H comparable](inner Tree[H]) *Recorder[H] {
	return &Recorder[H]{inner: inner}
}

// Append records and applies an append.
func (r *Recorder[H]) Append(parent, child H) {
	r.ops = append(r.ops, Op[H]{Type: OpInsert, Parent: parent, Child: child})
	if r.inner != nil {
		r.inner.Append(parent, child)
	}
}

// InsertBefore records and applies an insertion.
func (r *Recorder[H]) InsertBefore(parent, child, ref H) {
	r.ops = append(r.ops, Op[H]{Type: OpInsert, Parent: parent, Child: child, Ref: ref})
	if r.inner != nil {
		r.inner.InsertBefore(parent, child, ref)
	}
}

// Detach records and applies a detach.
func (r *Recorder[H]) Detach(child H) {
	r.ops = append(r.ops, Op[H]{Type: OpDetach, Child: child})
	if r.inner != nil {
		r.inner.Detach(child)
	}
}

// Ops returns the recorded mutations in order.
func (r *Recorder[H]) Ops() []Op[H] {
	return r.ops
}

// Count returns how many mutations of type t were recorded.
func (r *Recorder[H]) Count(t OpType) int {
	n := 0
	for _, op := range r.ops {
		if op.Type == t {
			n++
		}
	}
	return n
}

// Len returns the number of recorded mutations.
func (r *Recorder[H]) Len() int {
	return len(r.ops)
}

// Reset drops the log.
func (r *Recorder[H]) Reset() {
	r.ops = r.ops[:0]
}
