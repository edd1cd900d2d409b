// Package alloc implements the four Logoot/LSEQ interior-point strategies:
// given a half-open digit range at some level, narrow it to a non-empty
// sub-range a uniform random digit will be drawn from.
package alloc

import (
	"sync"

	"github.com/edirooss/seqcrdt/internal/crdt/path"
)

// DefaultLimit is the default bias window for BoundaryPlus, BoundaryMinus
// and Boundaries.
const DefaultLimit = 1024

// Strategy narrows [lo, hi) at the given level to a non-empty sub-range.
// Implementations must never return an empty range when given a non-empty
// one: the caller (internal/crdt/algorithm) has already guaranteed hi > lo.
type Strategy interface {
	Reduce(lo, hi path.Digit, level int) (path.Digit, path.Digit)
}

// Boundary picks the single digit adjacent to lo: [lo, lo+1). Pathological
// for dense concurrent inserts — kept for testing and benchmarking, per
// spec.md §4.3.
type Boundary struct{}

func (Boundary) Reduce(lo, hi path.Digit, _ int) (path.Digit, path.Digit) {
	return lo, lo + 1
}

// BoundaryPlus biases new digits toward the left boundary: [lo, min(hi,
// lo+limit)).
type BoundaryPlus struct{ Limit path.Digit }

// NewBoundaryPlus returns a BoundaryPlus using DefaultLimit when limit <= 0.
func NewBoundaryPlus(limit path.Digit) BoundaryPlus {
	return BoundaryPlus{Limit: withDefault(limit)}
}

func (s BoundaryPlus) Reduce(lo, hi path.Digit, _ int) (path.Digit, path.Digit) {
	upper := lo + withDefault(s.Limit)
	if upper > hi || upper < lo /* overflow */ {
		upper = hi
	}
	return lo, upper
}

// BoundaryMinus biases new digits toward the right boundary: [max(lo,
// hi-limit), hi).
type BoundaryMinus struct{ Limit path.Digit }

// NewBoundaryMinus returns a BoundaryMinus using DefaultLimit when limit <= 0.
func NewBoundaryMinus(limit path.Digit) BoundaryMinus {
	return BoundaryMinus{Limit: withDefault(limit)}
}

func (s BoundaryMinus) Reduce(lo, hi path.Digit, _ int) (path.Digit, path.Digit) {
	limit := withDefault(s.Limit)
	lower := lo
	if hi-limit > lo && hi >= limit { // guard against underflow
		lower = hi - limit
	}
	return lower, hi
}

// Boundaries is the LSEQ "adaptive" strategy: the first time a level is
// used it flips a fair coin and records plus/minus; every later allocation
// at that level reuses the recorded choice. State is a small map behind a
// mutex, owned exclusively by this Allocator instance (never shared across
// Algorithms, spec.md §5).
type Boundaries struct {
	Limit path.Digit

	mu      sync.Mutex
	choices map[int]bool // level -> true(plus)/false(minus)
	coin    func() bool
}

// NewBoundaries returns a Boundaries strategy using DefaultLimit when limit
// <= 0 and the provided coin function to decide each level's first choice
// (typically rng.Intn(2) == 0 from the owning Algorithm).
func NewBoundaries(limit path.Digit, coin func() bool) *Boundaries {
	return &Boundaries{
		Limit:   withDefault(limit),
		choices: make(map[int]bool),
		coin:    coin,
	}
}

func (s *Boundaries) Reduce(lo, hi path.Digit, level int) (path.Digit, path.Digit) {
	s.mu.Lock()
	plus, seen := s.choices[level]
	if !seen {
		plus = s.coin()
		s.choices[level] = plus
	}
	s.mu.Unlock()

	if plus {
		return BoundaryPlus{Limit: s.Limit}.Reduce(lo, hi, level)
	}
	return BoundaryMinus{Limit: s.Limit}.Reduce(lo, hi, level)
}

func withDefault(limit path.Digit) path.Digit {
	if limit == 0 {
		return DefaultLimit
	}
	return limit
}
