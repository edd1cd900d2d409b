// Package ranges provides character, grapheme, and line views over a
// Storage's half-open sub-ranges (spec.md §4.6), the 5% "leaves" layer
// atop the core.
package ranges

import (
	"strings"

	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/edirooss/seqcrdt/internal/crdt/storage"
	"github.com/rivo/uniseg"
)

// CharacterEntry pairs a Position with its character.
type CharacterEntry struct {
	Pos pos.Position
	Ch  rune
}

// Characters collects every (Position, rune) in r, excluding FIRST/LAST
// when the corresponding bound of r is unbounded (storage.Range's
// sentinel-visibility rule).
func Characters(s *storage.Storage, r storage.Range) []CharacterEntry {
	var out []CharacterEntry
	s.VisitCharacters(r, func(p pos.Position, ch rune) bool {
		out = append(out, CharacterEntry{Pos: p, Ch: ch})
		return true
	})
	return out
}

// String collects the characters of r into a string.
func String(s *storage.Storage, r storage.Range) string {
	var b strings.Builder
	s.VisitCharacters(r, func(_ pos.Position, ch rune) bool {
		b.WriteRune(ch)
		return true
	})
	return b.String()
}

// GraphemeRange marks one Unicode grapheme cluster: Start is its first
// character's Position, End is the Position one past the cluster's last
// character (or pos.Last() when the cluster reaches the end of r).
type GraphemeRange struct {
	Start pos.Position
	End   pos.Position
}

// Graphemes segments r into grapheme clusters, delegating boundary
// detection to rivo/uniseg — the external Unicode-segmentation
// collaborator spec.md §9 assumes is available. The core only buffers the
// resulting sliding window of characters; it never reimplements the
// Unicode tables itself.
func Graphemes(s *storage.Storage, r storage.Range) []GraphemeRange {
	chars := Characters(s, r)
	if len(chars) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, c := range chars {
		sb.WriteRune(c.Ch)
	}

	gr := uniseg.NewGraphemes(sb.String())
	var out []GraphemeRange
	idx := 0
	for gr.Next() {
		start := idx
		idx += len(gr.Runes())
		out = append(out, GraphemeRange{
			Start: chars[start].Pos,
			End:   boundaryPos(chars, idx),
		})
	}
	return out
}

func boundaryPos(chars []CharacterEntry, idx int) pos.Position {
	if idx < len(chars) {
		return chars[idx].Pos
	}
	return pos.Last()
}

// LineRange marks one line as the half-open span between two adjacent
// entries of the newline index.
type LineRange struct {
	Start pos.Position
	End   pos.Position
}

// Lines returns adjacent pairs of positions from the newline index
// restricted to r, each pair describing one line (spec.md §4.6). FIRST and
// LAST always anchor the first and last line, per the newline index's own
// invariant (spec.md §4.5) — independent of r's sentinel-visibility rule,
// which governs Characters/String, not Lines.
func Lines(s *storage.Storage, r storage.Range) []LineRange {
	var boundaries []pos.Position
	s.VisitNewlines(r, func(p pos.Position) bool {
		boundaries = append(boundaries, p)
		return true
	})

	var out []LineRange
	for i := 0; i+1 < len(boundaries); i++ {
		out = append(out, LineRange{Start: boundaries[i], End: boundaries[i+1]})
	}
	return out
}
