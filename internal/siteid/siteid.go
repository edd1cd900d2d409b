// Package siteid maintains the bijection between a replica's stable UUID
// and the 16-bit site identifier a Position embeds (spec.md §4.3): a small,
// in-memory, RWMutex-guarded pair of lookup tables rather than a
// database-backed registry.
package siteid

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrTableFull is returned by Register when all 65535 non-zero site IDs are
// taken.
var ErrTableFull = errors.New("siteid: table full")

// ErrUnknownSite is returned by UUID when no site is registered under id.
var ErrUnknownSite = errors.New("siteid: unknown site")

// Table is a bidirectional, concurrency-safe UUID<->uint16 registry. The
// zero value is not usable; construct with New.
type Table struct {
	mu     sync.RWMutex
	byUUID map[uuid.UUID]uint16
	byID   map[uint16]uuid.UUID
	next   uint16
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		byUUID: make(map[uuid.UUID]uint16),
		byID:   make(map[uint16]uuid.UUID),
	}
}

// Register returns the site ID bound to u, allocating one if u has never
// been seen. Allocation is monotonic starting at 1 (0 is reserved: it's
// the site value pos.First()/pos.Last() carry, and must never be handed
// out to a real replica). Returns ErrTableFull once every non-zero id is
// in use.
func (t *Table) Register(u uuid.UUID) (uint16, error) {
	t.mu.RLock()
	if id, ok := t.byUUID[u]; ok {
		t.mu.RUnlock()
		return id, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.byUUID[u]; ok {
		return id, nil
	}
	if len(t.byID) >= 0xFFFF {
		return 0, ErrTableFull
	}

	for attempts := 0; attempts < 0xFFFF; attempts++ {
		t.next++ // wraps 0xFFFF -> 0x0000 -> 0x0001, skipping the reserved 0 id
		if t.next == 0 {
			continue
		}
		if _, taken := t.byID[t.next]; !taken {
			id := t.next
			t.byUUID[u] = id
			t.byID[id] = u
			return id, nil
		}
	}
	return 0, ErrTableFull
}

// UUID returns the UUID registered under id.
func (t *Table) UUID(id uint16) (uuid.UUID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.byID[id]
	if !ok {
		return uuid.UUID{}, ErrUnknownSite
	}
	return u, nil
}

// Len reports how many sites are currently registered.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
