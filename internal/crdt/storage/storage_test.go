package storage

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/edirooss/seqcrdt/internal/crdt/algorithm"
	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlgo(seed int64) *algorithm.Algorithm {
	return algorithm.NewBoundaryPlus(seed, 1024)
}

func docString(t *testing.T, s *Storage) string {
	t.Helper()
	var out []rune
	s.VisitCharacters(Unbounded(), func(_ pos.Position, ch rune) bool {
		out = append(out, ch)
		return true
	})
	return string(out)
}

// S1
func TestSparseRoundTrips(t *testing.T) {
	st, err := Sparse(0, testAlgo(1), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", docString(t, st))
	assert.Equal(t, 5, st.Len()) // 3 chars + 2 sentinels

	seen := map[uint16]bool{}
	st.VisitCharacters(Unbounded(), func(p pos.Position, _ rune) bool {
		assert.False(t, seen[p.Clock()], "clocks must be distinct within one site's allocations")
		seen[p.Clock()] = true
		assert.True(t, pos.First().Less(p))
		assert.True(t, p.Less(pos.Last()))
		return true
	})
}

// S2
func TestInsertBetweenExistingEntries(t *testing.T) {
	st, err := Sparse(0, testAlgo(2), "ac")
	require.NoError(t, err)

	var cPos pos.Position
	st.VisitCharacters(Unbounded(), func(p pos.Position, ch rune) bool {
		if ch == 'c' {
			cPos = p
		}
		return true
	})

	_, ok := st.Insert('b', cPos)
	require.True(t, ok)
	assert.Equal(t, "abc", docString(t, st))
}

// S3
func TestInsertBeforeFirstSentinelFails(t *testing.T) {
	st := New(0, testAlgo(3))
	_, ok := st.Insert('d', pos.First())
	assert.False(t, ok)
}

// S4
func TestInsertAgainstMissingAnchorFails(t *testing.T) {
	st := New(0, testAlgo(4))
	p, err := pos.New(0, 777, []path.Digit{5})
	require.NoError(t, err)

	_, ok := st.Insert('d', p)
	assert.False(t, ok, "anchor not present in storage")

	st.tree.ReplaceOrInsert(entry{pos: p, ch: 'e'})
	_, ok = st.Insert('d', p)
	assert.True(t, ok)
	assert.Contains(t, docString(t, st), "de")
}

// S5 (dense)
func TestDenseAssignsSequentialSingleDigitPaths(t *testing.T) {
	st, err := Dense(0, testAlgo(5), "abcd")
	require.NoError(t, err)
	assert.Equal(t, "abcd", docString(t, st))

	var digits []path.Digit
	st.VisitCharacters(Unbounded(), func(p pos.Position, _ rune) bool {
		digits = append(digits, p.Path().At(0))
		return true
	})
	assert.Equal(t, []path.Digit{1, 2, 3, 4}, digits)
}

func TestRemoveReturnsCharacterThenNotFound(t *testing.T) {
	st, err := Sparse(0, testAlgo(6), "x")
	require.NoError(t, err)

	var target pos.Position
	st.VisitCharacters(Unbounded(), func(p pos.Position, ch rune) bool {
		if ch == 'x' {
			target = p
		}
		return true
	})

	ch, ok := st.Remove(target)
	require.True(t, ok)
	assert.Equal(t, 'x', ch)

	_, ok = st.Remove(target)
	assert.False(t, ok)
}

func TestRemoveSentinelAlwaysFails(t *testing.T) {
	st := New(0, testAlgo(7))
	_, ok := st.Remove(pos.First())
	assert.False(t, ok)
	_, ok = st.Remove(pos.Last())
	assert.False(t, ok)
}

func TestNewlineIndexShrinksOnRemove(t *testing.T) {
	st, err := Sparse(0, testAlgo(8), "a\nb\nc")
	require.NoError(t, err)

	var newlines []pos.Position
	st.VisitNewlines(Unbounded(), func(p pos.Position) bool {
		newlines = append(newlines, p)
		return true
	})
	// FIRST and LAST always anchor the newline index (spec.md §4.5), plus
	// the two '\n' characters in "a\nb\nc".
	require.Len(t, newlines, 4)

	var actualNewline pos.Position
	for _, p := range newlines {
		if !p.Equal(pos.First()) && !p.Equal(pos.Last()) {
			actualNewline = p
			break
		}
	}

	_, ok := st.Remove(actualNewline)
	require.True(t, ok)

	var after []pos.Position
	st.VisitNewlines(Unbounded(), func(p pos.Position) bool {
		after = append(after, p)
		return true
	})
	assert.Len(t, after, 3)
}

func TestCharactersExcludesSentinelsByDefault(t *testing.T) {
	st, err := Sparse(0, testAlgo(9), "hi")
	require.NoError(t, err)

	count := 0
	st.VisitCharacters(Unbounded(), func(_ pos.Position, _ rune) bool {
		count++
		return true
	})
	assert.Equal(t, 2, count)
	assert.Equal(t, 4, st.Len()) // 2 chars + 2 sentinels
}

func TestExtendAppendsAfterLastNonSentinel(t *testing.T) {
	st, err := Sparse(0, testAlgo(10), "ab")
	require.NoError(t, err)

	_, ok := st.Extend('c')
	require.True(t, ok)
	assert.Equal(t, "abc", docString(t, st))
}

func TestExtendStringAppendsInOrder(t *testing.T) {
	st := New(0, testAlgo(11))
	require.NoError(t, st.ExtendString("hello"))
	assert.Equal(t, "hello", docString(t, st))
}

// S1, property form: Sparse followed by a full read-back always reproduces
// the source string, for arbitrary Unicode input.
func TestQuickSparseRoundTripsArbitraryStrings(t *testing.T) {
	f := func(s string) bool {
		st, err := Sparse(1, testAlgo(int64(len(s))+1), s)
		if err != nil {
			return uint64(len([]rune(s))) >= uint64(path.Level0End)
		}
		return docString(t, st) == s
	}
	require.NoError(t, quick.Check(f, nil))
}

// opSeq drives TestQuickRandomEditSequencePreservesOrderInvariants: each
// byte selects append-at-end, insert-before-a-live-entry, or remove-a-live-
// entry, plus (for inserts) which letter to write.
type opSeq []byte

func (opSeq) Generate(rng *rand.Rand, size int) reflect.Value {
	n := rng.Intn(40)
	ops := make(opSeq, n)
	rng.Read(ops)
	return reflect.ValueOf(ops)
}

// Invariants 6-8 (spec.md §8): no allocated Position is ever duplicated or
// lost, and ascending iteration order stays a total order, across arbitrary
// interleavings of insert-at-end, insert-in-the-middle, and remove.
func TestQuickRandomEditSequencePreservesOrderInvariants(t *testing.T) {
	f := func(ops opSeq) bool {
		st := New(0, testAlgo(int64(len(ops))+1))
		var alive []pos.Position

		for _, b := range ops {
			switch b % 3 {
			case 0, 1:
				before := pos.Last()
				if b%3 == 1 && len(alive) > 0 {
					before = alive[int(b)%len(alive)]
				}
				ch := rune('a' + int(b)%26)
				p, ok := st.Insert(ch, before)
				if !ok {
					continue
				}
				alive = append(alive, p)
			case 2:
				if len(alive) == 0 {
					continue
				}
				idx := int(b) % len(alive)
				if _, ok := st.Remove(alive[idx]); !ok {
					return false
				}
				alive = append(alive[:idx], alive[idx+1:]...)
			}
		}

		if st.Len() != len(alive)+2 {
			return false
		}
		var seen []pos.Position
		st.VisitCharacters(Unbounded(), func(p pos.Position, _ rune) bool {
			seen = append(seen, p)
			return true
		})
		for i := 1; i < len(seen); i++ {
			if !seen[i-1].Less(seen[i]) {
				return false
			}
		}
		return len(seen) == len(alive)
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200}))
}

// S6: two sites independently insert after the same shared anchor; merging
// both resulting (Position, rune) pairs via ExtendPairs must converge to the
// same document regardless of delivery order (invariant #10).
func TestExtendPairsConvergesAcrossDeliveryOrder(t *testing.T) {
	anchor := pos.Last()

	siteA := New(1, testAlgo(101))
	pA, ok := siteA.Insert('A', anchor)
	require.True(t, ok)

	siteB := New(2, testAlgo(102))
	pB, ok := siteB.Insert('B', anchor)
	require.True(t, ok)

	recA := PositionChar{Pos: pA, Ch: 'A'}
	recB := PositionChar{Pos: pB, Ch: 'B'}

	deliveredAB := New(0, testAlgo(103))
	deliveredAB.ExtendPairs([]PositionChar{recA, recB})

	deliveredBA := New(0, testAlgo(104))
	deliveredBA.ExtendPairs([]PositionChar{recB, recA})

	assert.Equal(t, docString(t, deliveredAB), docString(t, deliveredBA))
}

