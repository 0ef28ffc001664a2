package reconcile

import (
	"errors"
	"io"
	"log/slog"
)

var (
	// ErrInvariant signals an internal inconsistency, such as being asked to
	// patch two nodes with identical fingerprints.
	ErrInvariant = errors.New("reconcile: invariant violated")

	// ErrReentrant is returned when Reconcile is called while a pass is
	// already running on the same Reconciler.
	ErrReentrant = errors.New("reconcile: pass already in progress")

	// ErrNilRoot is returned when Reconcile is given no tree.
	ErrNilRoot = errors.New("reconcile: nil root")
)

// Options configures a Reconciler.
type Options struct {
	// Logger receives a debug record per pass. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns options with logging disabled.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Stats counts what the last pass did.
type Stats struct {
	Created  int // outputs built by a rule's Create
	Updated  int // outputs updated in place
	Replaced int // outputs replaced because the node kind changed
	Moved    int // subtrees reused from the cache
	Removed  int // old children whose output was dropped
	Kept     int // children kept in place because their content was equal
	Skipped  int // patched nodes whose children needed no work

	// Identical is set when the whole tree was unchanged.
	Identical bool
	// Rehashed is set when the remembered tree had a stale fingerprint.
	Rehashed bool
}

// Mutations returns the number of outputs created, updated, replaced, moved
// or removed.
func (s Stats) Mutations() int {
	return s.Created + s.Updated + s.Replaced + s.Moved + s.Removed
}
