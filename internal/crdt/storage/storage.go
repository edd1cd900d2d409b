// Package storage maintains the sorted mapping from Position to character
// that backs a single replica's view of the document, plus a secondary
// sorted set of newline positions. It is the 20% of the core budget
// (spec.md §2) that turns Path/Position/Algorithm into something a caller
// can actually insert into and read from.
//
// Space Complexity:
//   - O(n): one B-tree node per live character (plus the two pinned
//     sentinels) in the primary index, one per newline in the secondary
//     index.
//
// Concurrency Model (spec.md §5):
//   - A Storage instance is exclusively owned by one executor at a time;
//     the core itself performs no internal synchronization beyond making
//     every exported method safe to call from a single goroutine at a
//     time. Callers that need concurrent access (internal/httpapi does, via
//     internal/snapshot) wrap a Storage in their own mutex rather than
//     asking this type to coordinate.
package storage

import (
	"fmt"

	"github.com/edirooss/seqcrdt/internal/crdt/alloc"
	"github.com/edirooss/seqcrdt/internal/crdt/algorithm"
	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/google/btree"
)

type Storage struct {
	site  uint16
	clock uint16

	tree     *btree.BTreeG[entry]
	newlines *btree.BTreeG[pos.Position]

	algo *algorithm.Algorithm
}

type entry struct {
	pos pos.Position
	ch  rune
}

func entryLess(a, b entry) bool { return a.pos.Less(b.pos) }
func posLess(a, b pos.Position) bool { return a.Less(b) }

const btreeDegree = 32

// SentinelStart and SentinelEnd are the placeholder characters pinned at
// FIRST and LAST respectively (spec.md §6).
const (
	SentinelStart = '␂' // U+2402 START OF TEXT
	SentinelEnd   = '␃' // U+2403 END OF TEXT
)

// New returns an empty Storage for the given local site, with both
// sentinels present in both indices. algo allocates new Positions on
// Insert/Sparse/Dense/Extend; a nil algo defaults to
// algorithm.NewBoundaryPlus seeded with site+1.
func New(site uint16, algo *algorithm.Algorithm) *Storage {
	if algo == nil {
		algo = algorithm.NewBoundaryPlus(int64(site)+1, alloc.DefaultLimit)
	}
	s := &Storage{
		site:     site,
		tree:     btree.NewG(btreeDegree, entryLess),
		newlines: btree.NewG(btreeDegree, posLess),
		algo:     algo,
	}
	s.tree.ReplaceOrInsert(entry{pos: pos.First(), ch: SentinelStart})
	s.tree.ReplaceOrInsert(entry{pos: pos.Last(), ch: SentinelEnd})
	// The newline index always contains FIRST and LAST (spec.md §4.5):
	// they anchor the first and last line even when the document holds no
	// '\n' characters of its own.
	s.newlines.ReplaceOrInsert(pos.First())
	s.newlines.ReplaceOrInsert(pos.Last())
	return s
}

// Len returns the number of entries including both sentinels.
func (s *Storage) Len() int { return s.tree.Len() }

// Site returns this Storage's local site identifier.
func (s *Storage) Site() uint16 { return s.site }

// Algo returns the Algorithm this Storage allocates new Positions with.
func (s *Storage) Algo() *algorithm.Algorithm { return s.algo }

// NextClock increments the per-instance logical clock with wrapping add
// and returns the new value. Kept at 16 bits per spec.md's own default
// (Open Question #3): under sustained writes exceeding 65536 inserts from
// one site without a garbage-collection cycle the clock wraps silently.
// This is tolerated because path growth, not clock uniqueness alone,
// carries uniqueness across the (site, path) history in practice — a
// replica inserting 65536+ times at the same interior point has already
// driven deep path descent (spec.md §4.4's saturation note), so the
// (path, site, clock) tuple as a whole does not collide even after wrap.
func (s *Storage) NextClock() uint16 {
	s.clock++
	return s.clock
}

// Insert allocates a new Position strictly between before's immediate
// predecessor and before, and inserts ch there. Returns the allocated
// Position and true on success. Returns false, without mutating the
// Storage, when before is not an existing key or the allocated Position
// already exists (a CRDT never overwrites). Inserting before Position.Last()
// is permitted (Open Question #2): it allocates between the current last
// non-sentinel entry and LAST, exactly like Extend.
func (s *Storage) Insert(ch rune, before pos.Position) (pos.Position, bool) {
	if !s.tree.Has(entry{pos: before}) {
		return pos.Position{}, false
	}

	left, ok := s.predecessor(before)
	if !ok {
		return pos.Position{}, false
	}

	p, err := s.algo.GenerateOne(left.pos.Path(), before.Path())
	if err != nil {
		return pos.Position{}, false
	}

	newPos := pos.FromPath(s.site, s.clock+1, p)
	if s.tree.Has(entry{pos: newPos}) {
		return pos.Position{}, false
	}
	s.NextClock()

	s.tree.ReplaceOrInsert(entry{pos: newPos, ch: ch})
	if ch == '\n' {
		s.newlines.ReplaceOrInsert(newPos)
	}
	return newPos, true
}

// Remove deletes the entry at pos, returning its character and true.
// Sentinels are immovable: removing FIRST or LAST returns (0, false), as
// does removing any position not present.
func (s *Storage) Remove(p pos.Position) (rune, bool) {
	if p.Equal(pos.First()) || p.Equal(pos.Last()) {
		return 0, false
	}
	item, ok := s.tree.Delete(entry{pos: p})
	if !ok {
		return 0, false
	}
	if item.ch == '\n' {
		s.newlines.Delete(p)
	}
	return item.ch, true
}

// Extend appends ch after the current last non-sentinel position.
func (s *Storage) Extend(ch rune) (pos.Position, bool) {
	return s.Insert(ch, pos.Last())
}

// ExtendString appends each rune of str in order after the current last
// non-sentinel position.
func (s *Storage) ExtendString(str string) error {
	for _, r := range str {
		if _, ok := s.Extend(r); !ok {
			return fmt.Errorf("storage: extend failed at rune %q", r)
		}
	}
	return nil
}

// ExtendPairs inserts each (Position, rune) pair directly, without
// allocating new Positions — used to apply remotely-generated insert
// records during replication (spec.md §5). pairs need not be pre-sorted.
func (s *Storage) ExtendPairs(pairs []PositionChar) {
	for _, pc := range pairs {
		s.tree.ReplaceOrInsert(entry{pos: pc.Pos, ch: pc.Ch})
		if pc.Ch == '\n' {
			s.newlines.ReplaceOrInsert(pc.Pos)
		}
	}
}

// PositionChar pairs a Position with its character, the unit of a
// replicated insert record (spec.md §5).
type PositionChar struct {
	Pos pos.Position
	Ch  rune
}

// predecessor returns the immediate predecessor of p in the primary
// index. p must already be present.
func (s *Storage) predecessor(p pos.Position) (entry, bool) {
	var left entry
	found := false
	s.tree.DescendLessOrEqual(entry{pos: p}, func(item entry) bool {
		if item.pos.Equal(p) {
			return true // skip the pivot itself, keep descending
		}
		left = item
		found = true
		return false
	})
	return left, found
}

// lastNonSentinel returns the entry immediately preceding LAST — the
// current end of the document, or FIRST when the document is empty.
func (s *Storage) lastNonSentinel() entry {
	left, _ := s.predecessor(pos.Last())
	return left
}

// Sparse bulk-loads s by generating len([]rune(s)) paths between FIRST
// and LAST via the batch strategy (spec.md §4.4), giving the
// interleaving-friendly distribution the algorithm favors. Fails with
// ErrStringTooLarge when the rune count meets or exceeds the level-0
// digit space.
func Sparse(site uint16, algo *algorithm.Algorithm, s string) (*Storage, error) {
	runes := []rune(s)
	if uint64(len(runes)) >= uint64(path.Level0End) {
		return nil, ErrStringTooLarge{Len: len(runes)}
	}

	st := New(site, algo)
	if len(runes) == 0 {
		return st, nil
	}

	paths, err := st.algo.GenerateMany(len(runes), path.First(), path.Last())
	if err != nil {
		return nil, fmt.Errorf("storage: sparse bulk allocation: %w", err)
	}
	for i, r := range runes {
		p := pos.FromPath(st.site, st.NextClock(), paths[i])
		st.tree.ReplaceOrInsert(entry{pos: p, ch: r})
		if r == '\n' {
			st.newlines.ReplaceOrInsert(p)
		}
	}
	return st, nil
}

// Dense bulk-loads s assigning paths [1], [2], ... [n] — the debug/
// benchmark constructor of spec.md §4.5, demonstrating worst-case
// identifier growth under subsequent inserts between adjacent entries.
func Dense(site uint16, algo *algorithm.Algorithm, s string) (*Storage, error) {
	runes := []rune(s)
	if uint64(len(runes)) >= uint64(path.Level0End) {
		return nil, ErrStringTooLarge{Len: len(runes)}
	}

	st := New(site, algo)
	for i, r := range runes {
		p, err := path.New([]path.Digit{uint32(i + 1)})
		if err != nil {
			return nil, err
		}
		position := pos.FromPath(st.site, st.NextClock(), p)
		st.tree.ReplaceOrInsert(entry{pos: position, ch: r})
		if r == '\n' {
			st.newlines.ReplaceOrInsert(position)
		}
	}
	return st, nil
}

// ErrStringTooLarge is returned by Sparse/Dense when the source string's
// rune count meets or exceeds the level-0 digit space.
type ErrStringTooLarge struct{ Len int }

func (e ErrStringTooLarge) Error() string {
	return fmt.Sprintf("storage: source of %d runes exceeds level-0 digit space", e.Len)
}
