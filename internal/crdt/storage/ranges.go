package storage

import "github.com/edirooss/seqcrdt/internal/crdt/pos"

// Range describes a half-open-by-default sub-range of Position bounds.
// A nil Lo/Hi means unbounded on that side. Bounded sides default to
// exclusive-at-Hi/inclusive-at-Lo like Go's slice convention unless
// LoExclusive/HiInclusive override that — following the "standard range
// convention" spec.md §4.6 defers to.
type Range struct {
	Lo *pos.Position
	Hi *pos.Position

	LoExclusive bool // Lo is present but excluded
	HiInclusive bool // Hi is present and included
}

// Unbounded returns the range covering the entire document.
func Unbounded() Range { return Range{} }

// From returns a range starting at lo (inclusive) with no upper bound.
func From(lo pos.Position) Range { return Range{Lo: &lo} }

// To returns a range with no lower bound, ending at hi (exclusive).
func To(hi pos.Position) Range { return Range{Hi: &hi} }

// Between returns the half-open range [lo, hi).
func Between(lo, hi pos.Position) Range { return Range{Lo: &lo, Hi: &hi} }

// includesSentinelStart reports whether FIRST should surface in results.
// Open Question #1 (spec.md §9), resolved: sentinels are excluded iff the
// corresponding bound is unbounded.
func (r Range) includesSentinelStart() bool { return r.Lo != nil }

func (r Range) includesSentinelEnd() bool { return r.Hi != nil }

// VisitCharacters calls fn for every (Position, rune) in r, in ascending
// order, stopping early if fn returns false. FIRST/LAST are visited only
// when the matching bound is explicitly set (see includesSentinelStart/
// End); otherwise they're skipped even though they always exist in the
// underlying index.
func (s *Storage) VisitCharacters(r Range, fn func(pos.Position, rune) bool) {
	lo := pos.First()
	if r.Lo != nil {
		lo = *r.Lo
	}

	visit := func(item entry) bool {
		if item.pos.Equal(pos.First()) && !r.includesSentinelStart() {
			return true
		}
		if item.pos.Equal(pos.Last()) && !r.includesSentinelEnd() {
			return true
		}
		if r.Hi != nil {
			cmp := item.pos.Cmp(*r.Hi)
			if cmp > 0 || (cmp == 0 && !r.HiInclusive) {
				return false
			}
		}
		return fn(item.pos, item.ch)
	}

	if r.Lo != nil && r.LoExclusive {
		s.tree.AscendGreaterOrEqual(entry{pos: lo}, func(item entry) bool {
			if item.pos.Equal(lo) {
				return true
			}
			return visit(item)
		})
		return
	}
	s.tree.AscendGreaterOrEqual(entry{pos: lo}, visit)
}

// VisitNewlines calls fn for every entry in the newline index within r,
// ascending, stopping early if fn returns false. Unlike VisitCharacters,
// FIRST and LAST are never filtered out here: the newline index always
// contains both (spec.md §4.5) as the document's implicit first and last
// line boundaries, independent of the characters/string sentinel-
// visibility rule (Open Question #1, which applies only to character
// views).
func (s *Storage) VisitNewlines(r Range, fn func(pos.Position) bool) {
	lo := pos.First()
	if r.Lo != nil {
		lo = *r.Lo
	}
	s.newlines.AscendGreaterOrEqual(lo, func(p pos.Position) bool {
		if r.Lo != nil && r.LoExclusive && p.Equal(lo) {
			return true
		}
		if r.Hi != nil {
			cmp := p.Cmp(*r.Hi)
			if cmp > 0 || (cmp == 0 && !r.HiInclusive) {
				return false
			}
		}
		return fn(p)
	})
}
