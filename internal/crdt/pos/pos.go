// Package pos implements Position: a path plus the (site, clock) pair that
// makes every generated identifier globally unique even when two replicas
// independently allocate at the same interior point.
package pos

import (
	"github.com/edirooss/seqcrdt/internal/crdt/path"
)

// ErrPathTooLong is returned by New when the supplied digit sequence
// exceeds path.MaxLevel. Re-exported so callers need not import the path
// package just to check this error.
type ErrPathTooLong = path.ErrPathTooLong

// Position is the globally unique, totally ordered identifier of one
// character: (site, clock, path). Order key is (path, site, clock) in that
// order — clock is compared last but still participates in the key, which
// is what prevents an insert/delete/insert cycle at the same interior path
// from reusing an identifier (spec.md §4.2).
type Position struct {
	site  uint16
	clock uint16
	path  path.Path
}

// New constructs a Position. Fails with ErrPathTooLong when len(digits) >
// path.MaxLevel.
func New(site, clock uint16, digits []path.Digit) (Position, error) {
	p, err := path.New(digits)
	if err != nil {
		return Position{}, err
	}
	return Position{site: site, clock: clock, path: p}, nil
}

// FromPath builds a Position from an already-constructed Path, skipping
// digit validation. Used internally by the allocation algorithm, which
// already holds a valid Path.
func FromPath(site, clock uint16, p path.Path) Position {
	return Position{site: site, clock: clock, path: p}
}

// First returns the lowest sentinel Position, site 0 clock 0 over
// path.First().
func First() Position { return Position{path: path.First()} }

// Last returns the highest sentinel Position, site 0 clock 0 over
// path.Last().
func Last() Position { return Position{path: path.Last()} }

// SiteID returns the replica identifier that allocated this Position.
func (p Position) SiteID() uint16 { return p.site }

// Clock returns the per-site logical clock value at allocation time.
func (p Position) Clock() uint16 { return p.clock }

// Path returns the position's path.
func (p Position) Path() path.Path { return p.path }

// IsHeap reports whether the underlying path is heap-allocated.
func (p Position) IsHeap() bool { return p.path.IsHeap() }

// IsInline reports whether the underlying path is stored inline.
func (p Position) IsInline() bool { return p.path.IsInline() }

// Clone returns an independent deep copy of p. Since Path and Position
// values never share mutable backing state once constructed (New always
// copies its input), Clone is a plain value copy — kept as a named method
// so callers don't need to reason about Go's value semantics to get an
// independent copy.
func (p Position) Clone() Position { return p }

// Cmp returns -1, 0, or 1 comparing p and q by (path, site, clock), in that
// order. Shared with Storage's ordered-index comparator and with range-
// bound arithmetic, so ordering is derived in exactly one place — see
// SPEC_FULL.md §C.2.
func (p Position) Cmp(q Position) int {
	if c := p.path.Compare(q.path); c != 0 {
		return c
	}
	if p.site != q.site {
		if p.site < q.site {
			return -1
		}
		return 1
	}
	switch {
	case p.clock < q.clock:
		return -1
	case p.clock > q.clock:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts strictly before q.
func (p Position) Less(q Position) bool { return p.Cmp(q) < 0 }

// Equal reports whether p and q carry the same (path, site, clock) tuple.
func (p Position) Equal(q Position) bool { return p.Cmp(q) == 0 }
