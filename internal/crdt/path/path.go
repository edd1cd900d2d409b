// Package path implements the CRDT's position path: an immutable, ordered
// sequence of 32-bit digits used to place a character in the document's
// virtual order.
package path

import "fmt"

// Digit is one component of a Path. Digit 0 is reserved as "absent" (the
// zero-padding marker returned by At for indices past the end of a path).
type Digit = uint32

const (
	// MaxLevel is the largest number of digits a Path may hold.
	MaxLevel = 65535

	// Level0End is the reserved level-0 upper sentinel: the first digit of
	// LAST. Generated paths must never place this value, or the all-ones
	// value below, at level 0 of a freshly allocated path.
	Level0End Digit = 0xFFFFFFFE

	// reservedTagDigit is the value that, in a byte-aliased layout, collides
	// with the heap-discriminant tag byte (see doc.go). No well-formed
	// generated path may carry it at level 0; Path.New accepts it only to
	// let callers construct the one exercising value invariant #5 requires.
	reservedTagDigit Digit = 0xFFFFFFFF

	inlineCap = 3
)

// ErrPathTooLong is returned when a digit sequence exceeds MaxLevel.
type ErrPathTooLong struct{ Len int }

func (e ErrPathTooLong) Error() string {
	return fmt.Sprintf("path: length %d exceeds maximum of %d digits", e.Len, MaxLevel)
}

// Path is a finite ordered sequence of digits, length 1..=MaxLevel.
//
// Representation: up to inlineCap digits are stored inline; longer paths
// spill to a heap-allocated slice. heap reports which form is in use. This
// mirrors the tagged-union layout spec'd for the source language (a single
// byte discriminant aliasing an unused high byte of the inline payload) but
// keeps the discriminant as an explicit field rather than reaching for
// unsafe pointer aliasing — see DESIGN.md.
type Path struct {
	length uint16
	heap   bool
	inline [inlineCap]Digit
	digits []Digit // non-nil iff heap
}

// New constructs a Path from digits. Fails with ErrPathTooLong when
// len(digits) > MaxLevel.
func New(digits []Digit) (Path, error) {
	if len(digits) == 0 {
		return Path{}, fmt.Errorf("path: empty digit sequence")
	}
	if len(digits) > MaxLevel {
		return Path{}, ErrPathTooLong{Len: len(digits)}
	}

	p := Path{length: uint16(len(digits))}
	if len(digits) <= inlineCap && !forcesHeap(digits) {
		copy(p.inline[:], digits)
		return p, nil
	}

	p.heap = true
	p.digits = append([]Digit(nil), digits...)
	return p, nil
}

// forcesHeap reports whether digits, though short enough to be inline,
// must still spill to the heap form. The one case: a level-0 digit equal to
// reservedTagDigit would, under the byte-aliased layout this type emulates,
// read back as the heap tag itself. Emulating that collision keeps
// IsHeap()'s observable behavior faithful to invariant #5 even though this
// implementation does not perform literal byte aliasing.
func forcesHeap(digits []Digit) bool {
	return digits[0] == reservedTagDigit
}

// First returns the lowest sentinel path, [0].
func First() Path {
	p, _ := New([]Digit{0})
	return p
}

// Last returns the highest sentinel path, [Level0End].
func Last() Path {
	p, _ := New([]Digit{Level0End})
	return p
}

// Len returns the number of digits (the path's level count).
func (p Path) Len() int { return int(p.length) }

// IsHeap reports whether the path's digits are heap-allocated.
func (p Path) IsHeap() bool { return p.heap }

// IsInline reports whether the path's digits are stored inline.
func (p Path) IsInline() bool { return !p.heap }

// At returns the digit at level i, or 0 ("absent") if i >= Len().
func (p Path) At(i int) Digit {
	if i < 0 || i >= p.Len() {
		return 0
	}
	if p.heap {
		return p.digits[i]
	}
	return p.inline[i]
}

// Digits returns a copy of the path's digit sequence.
func (p Path) Digits() []Digit {
	out := make([]Digit, p.Len())
	for i := range out {
		out[i] = p.At(i)
	}
	return out
}

// Compare returns -1, 0, or 1 comparing p and q lexicographically: a
// shorter path that is a strict prefix of a longer one sorts before it.
func (p Path) Compare(q Path) int {
	n := p.Len()
	if q.Len() < n {
		n = q.Len()
	}
	for i := 0; i < n; i++ {
		a, b := p.At(i), q.At(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	switch {
	case p.Len() < q.Len():
		return -1
	case p.Len() > q.Len():
		return 1
	default:
		return 0
	}
}

// Equal reports whether p and q carry the same digit sequence.
func (p Path) Equal(q Path) bool { return p.Compare(q) == 0 }

// Less reports whether p sorts strictly before q.
func (p Path) Less(q Path) bool { return p.Compare(q) < 0 }

// WithDigit returns a new path equal to p's first prefixLen digits followed
// by digit — the "left[..k] concatenated with the drawn digit" construction
// step of the allocation algorithm.
func WithDigit(prefix Path, prefixLen int, digit Digit) (Path, error) {
	out := make([]Digit, prefixLen+1)
	for i := 0; i < prefixLen; i++ {
		out[i] = prefix.At(i)
	}
	out[prefixLen] = digit
	return New(out)
}
