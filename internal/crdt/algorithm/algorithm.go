// Package algorithm drives the Logoot/LSEQ allocation across path levels:
// given a left and right bound, it finds the divergence level, narrows the
// interior digit range with a pluggable alloc.Strategy, and samples a
// uniform random digit — the "25% of the core" component of spec.md §2.
package algorithm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/edirooss/seqcrdt/internal/crdt/alloc"
	"github.com/edirooss/seqcrdt/internal/crdt/path"
)

// Algorithm owns a seedable random number generator and an Allocator
// strategy by value, never shared across instances (spec.md §5 "Random
// number generators are per-Algorithm and never shared").
type Algorithm struct {
	rng      *rand.Rand
	strategy alloc.Strategy
}

// New constructs an Algorithm with the given seed and strategy. A nil
// strategy defaults to BoundaryPlus(alloc.DefaultLimit).
func New(seed int64, strategy alloc.Strategy) *Algorithm {
	if strategy == nil {
		strategy = alloc.NewBoundaryPlus(alloc.DefaultLimit)
	}
	return &Algorithm{rng: rand.New(rand.NewSource(seed)), strategy: strategy}
}

// NewBoundary returns an Algorithm using the Boundary strategy (testing /
// benchmarking only — grows identifiers fastest under dense inserts).
func NewBoundary(seed int64) *Algorithm { return New(seed, alloc.Boundary{}) }

// NewBoundaryPlus returns an Algorithm biased toward the left boundary.
func NewBoundaryPlus(seed int64, limit uint32) *Algorithm {
	return New(seed, alloc.NewBoundaryPlus(limit))
}

// NewBoundaryMinus returns an Algorithm biased toward the right boundary.
func NewBoundaryMinus(seed int64, limit uint32) *Algorithm {
	return New(seed, alloc.NewBoundaryMinus(limit))
}

// NewBoundaries returns an Algorithm using the adaptive per-level strategy.
// The per-level coin flip draws from the Algorithm's own RNG, so a fixed
// seed reproduces both the flips and the sampled digits.
func NewBoundaries(seed int64, limit uint32) *Algorithm {
	a := &Algorithm{rng: rand.New(rand.NewSource(seed))}
	a.strategy = alloc.NewBoundaries(limit, func() bool { return a.rng.Intn(2) == 0 })
	return a
}

// Generator is a lazy, unbounded sequence of paths strictly between an
// original left and right bound, each element strictly greater than the
// last. Expressed as an explicit Next() state machine rather than a
// coroutine, per spec.md §9.
type Generator struct {
	a     *Algorithm
	left  path.Path
	right path.Path
}

// Generate returns a Generator producing paths strictly between left and
// right in ascending order. Consumers must call Next only as many times as
// needed; the sequence has no fixed length.
func (a *Algorithm) Generate(left, right path.Path) *Generator {
	return &Generator{a: a, left: left, right: right}
}

// Next produces the next path in the sequence.
func (g *Generator) Next() (path.Path, error) {
	p, err := nextPath(g.a.rng, g.a.strategy, g.left, g.right)
	if err != nil {
		return path.Path{}, err
	}
	g.left = p
	return p, nil
}

// GenerateOne returns the first element of Generate(left, right).
func (a *Algorithm) GenerateOne(left, right path.Path) (path.Path, error) {
	return a.Generate(left, right).Next()
}

// GenerateMany divides the interval at the divergence level into count
// evenly spaced sub-ranges and draws one digit from each, per spec.md
// §4.4's batch-generation note. Paths are returned in ascending order and
// interleave predictably with any single GenerateOne call made afterward
// against the same (left, right) bounds.
func (a *Algorithm) GenerateMany(count int, left, right path.Path) ([]path.Path, error) {
	if count <= 0 {
		return nil, nil
	}
	if !left.Less(right) {
		return nil, fmt.Errorf("algorithm: left must be strictly less than right")
	}
	k, err := divergenceLevel(left, right)
	if err != nil {
		return nil, err
	}

	for {
		lhs, rhs, err := interval(left, right, k)
		if err != nil {
			return nil, err
		}
		avail := int64(rhs) - int64(lhs)
		if avail >= int64(count) {
			step := avail / int64(count)
			if step < 1 {
				step = 1
			}
			out := make([]path.Path, count)
			cur := lhs
			for i := 0; i < count; i++ {
				if cur >= rhs {
					cur = rhs - 1
				}
				p, err := path.WithDigit(left, k, uint32(cur))
				if err != nil {
					return nil, err
				}
				out[i] = p
				cur += step
			}
			return out, nil
		}
		k++
	}
}

// nextPath implements the per-path algorithm of spec.md §4.4 steps 1-5.
func nextPath(rng *rand.Rand, strategy alloc.Strategy, left, right path.Path) (path.Path, error) {
	if !left.Less(right) {
		return path.Path{}, fmt.Errorf("algorithm: left must be strictly less than right")
	}
	k, err := divergenceLevel(left, right)
	if err != nil {
		return path.Path{}, err
	}

	for {
		lhs, rhs, err := interval(left, right, k)
		if err != nil {
			return path.Path{}, err
		}
		if rhs > lhs {
			lo, hi := strategy.Reduce(uint32(lhs), uint32(rhs), k)
			digit := lo
			if hi > lo+1 {
				digit = lo + uint32(rng.Int63n(int64(hi-lo)))
			}
			return path.WithDigit(left, k, digit)
		}
		k++
		if err := ensureLevel(k); err != nil {
			return path.Path{}, err
		}
	}
}

// interval computes [lhs, rhs) at level k per spec.md §4.4 step 2: lhs =
// left[k]+1 (1 if absent), rhs = right[k] if present, else MaxUint32 —
// except at level 0, where an absent right digit means rhs is bounded by
// the reserved LEVEL0_END sentinel rather than the full digit space.
func interval(left, right path.Path, k int) (lhs, rhs uint64, err error) {
	if err := ensureLevel(k); err != nil {
		return 0, 0, err
	}
	lhs = uint64(left.At(k)) + 1
	switch {
	case k < right.Len():
		rhs = uint64(right.At(k))
	case k == 0:
		rhs = uint64(path.Level0End)
	default:
		rhs = uint64(math.MaxUint32)
	}
	return lhs, rhs, nil
}

func ensureLevel(k int) error {
	if k >= path.MaxLevel {
		return path.ErrPathTooLong{Len: k + 1}
	}
	return nil
}

// divergenceLevel returns the first level at which left and right differ.
// If left is a strict prefix of right, the divergence level is left.Len().
// It is a caller error for right to be a prefix of left, or for the two
// paths to be equal — both mean left is not strictly less than right.
func divergenceLevel(left, right path.Path) (int, error) {
	n := left.Len()
	if right.Len() < n {
		n = right.Len()
	}
	for i := 0; i < n; i++ {
		if left.At(i) != right.At(i) {
			return i, nil
		}
	}
	switch {
	case left.Len() < right.Len():
		return left.Len(), nil
	case right.Len() < left.Len():
		return 0, fmt.Errorf("algorithm: right is a prefix of left, left is not < right")
	default:
		return 0, fmt.Errorf("algorithm: left and right paths are equal")
	}
}
