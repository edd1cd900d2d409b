// Layout note.
//
// The language this CRDT was originally specified for packs Path into a
// fixed 16-byte value: up to 3 digits inline, or a heap pointer, discriminated
// by a single tag byte placed so that, in the inline form, it overlaps the
// high byte of an unused payload slot — a byte that can only read 0xFF when
// the level-0 digit is 0xFFFFFFFF, which is otherwise a reserved, never-
// generated value. Go has no safe way to alias a struct field onto a byte
// of a [3]uint32 without unsafe.Pointer, and nothing elsewhere in this tree
// reaches for unsafe. Path instead carries the discriminant as its own
// field (heap bool) and emulates the one externally observable consequence
// of the aliasing trick — that a level-0 digit of 0xFFFFFFFF always reports
// IsHeap() — via forcesHeap in path.go. Either encoding satisfies the CRDT
// contract; the 16-byte size is a performance nicety, not a correctness
// requirement (spec.md §9).
package path
