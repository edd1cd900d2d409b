// Package snapshot mirrors a single in-memory storage.Storage to Redis for
// durability: Redis holds the durable per-entry documents, the in-memory
// Storage is the read-optimized materialization, and a boot-time reconcile
// pass rebuilds the latter from the former.
//
// Concurrency Model:
//   - writeMu serializes the write path (Insert/Remove/Extend) into a
//     single lane, ensuring Redis I/O ordering matches application order.
//   - mu (RWMutex) guards the embedded Storage itself, since
//     storage.Storage assumes single-goroutine use.
//   - Persistence happens after the in-memory mutation: the CRDT allocation
//     algorithm needs the in-memory predecessor lookup to produce the new
//     Position in the first place, so there is no Redis-then-apply ordering
//     to preserve. Redis remains the source of truth across process
//     restarts via reconcile, not across individual writes.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/edirooss/seqcrdt/internal/crdt/algorithm"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/edirooss/seqcrdt/internal/crdt/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by Insert when the anchor Position does not
// exist, and by Remove when the target Position does not exist, in the
// naming style of a plain repository-layer not-found sentinel: callers
// dispatch on it with errors.Is at the HTTP boundary rather than parsing
// the underlying storage.Storage's boolean refusal.
var ErrNotFound = errors.New("snapshot: position not found")

// Store wraps a storage.Storage with a Redis-backed durable mirror.
type Store struct {
	log       *zap.Logger
	rdb       *redis.Client
	keyPrefix string // Redis hash key for this document's records

	writeMu sync.Mutex
	mu      sync.RWMutex
	doc     *storage.Storage

	sg singleflight.Group
}

// Open constructs a Store for the given site and Redis key prefix,
// reconciling any existing records under that prefix into memory before
// returning. The prefix is exclusive to this process: no other writer may
// operate under it concurrently.
func Open(ctx context.Context, log *zap.Logger, rdb *redis.Client, keyPrefix string, site uint16, algo *algorithm.Algorithm) (*Store, error) {
	if rdb == nil {
		return nil, fmt.Errorf("snapshot: nil redis client")
	}
	if keyPrefix == "" {
		return nil, fmt.Errorf("snapshot: empty keyPrefix")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		log:       log.Named("snapshot"),
		rdb:       rdb,
		keyPrefix: keyPrefix,
		doc:       storage.New(site, algo),
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: reconcile: %w", err)
	}
	return s, nil
}

// Insert allocates and inserts ch before the given anchor, persisting the
// new entry to Redis on success. Returns ErrNotFound when before does not
// exist in the document.
func (s *Store) Insert(ctx context.Context, ch rune, before pos.Position) (pos.Position, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	p, ok := s.doc.Insert(ch, before)
	s.mu.Unlock()
	if !ok {
		return pos.Position{}, ErrNotFound
	}

	if err := s.persist(ctx, p, ch); err != nil {
		s.mu.Lock()
		s.doc.Remove(p)
		s.mu.Unlock()
		return pos.Position{}, fmt.Errorf("snapshot: persist insert: %w", err)
	}
	return p, nil
}

// Extend appends ch after the current last non-sentinel entry.
func (s *Store) Extend(ctx context.Context, ch rune) (pos.Position, error) {
	return s.Insert(ctx, ch, pos.Last())
}

// Remove deletes the entry at p, purging its Redis record on success.
// Returns ErrNotFound when p does not exist (including either sentinel).
func (s *Store) Remove(ctx context.Context, p pos.Position) (rune, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	ch, ok := s.doc.Remove(p)
	s.mu.Unlock()
	if !ok {
		return 0, ErrNotFound
	}

	if err := s.purge(ctx, p); err != nil {
		s.mu.Lock()
		s.doc.ExtendPairs([]storage.PositionChar{{Pos: p, Ch: ch}})
		s.mu.Unlock()
		return 0, fmt.Errorf("snapshot: persist remove: %w", err)
	}
	return ch, nil
}

// View runs fn against the underlying Storage under a read lock. fn must
// not retain s.doc past its call.
func (s *Store) View(fn func(*storage.Storage)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Reload discards the in-memory state and rebuilds it from Redis,
// coalescing concurrent callers into a single Redis pass via singleflight.
func (s *Store) Reload(ctx context.Context) error {
	_, err, _ := s.sg.Do("reload", func() (any, error) {
		return nil, s.reconcile(ctx)
	})
	return err
}

func (s *Store) persist(ctx context.Context, p pos.Position, ch rune) error {
	b, err := encodeRecord(p, ch)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.keyPrefix, fieldKey(p), b).Err()
}

func (s *Store) purge(ctx context.Context, p pos.Position) error {
	return s.rdb.HDel(ctx, s.keyPrefix, fieldKey(p)).Err()
}

// reconcile loads every record under keyPrefix and rebuilds the in-memory
// Storage from scratch. Malformed records are logged and skipped rather
// than failing the whole load.
func (s *Store) reconcile(ctx context.Context) error {
	site, algo := s.currentSiteAlgo()

	raw, err := s.rdb.HGetAll(ctx, s.keyPrefix).Result()
	if err != nil {
		return fmt.Errorf("hgetall %s: %w", s.keyPrefix, err)
	}

	fresh := storage.New(site, algo)
	pairs := make([]storage.PositionChar, 0, len(raw))
	skipped := 0
	for field, val := range raw {
		p, ch, err := decodeRecord([]byte(val))
		if err != nil {
			s.log.Warn("reconcile: skipping malformed record",
				zap.String("field", field), zap.Error(err))
			skipped++
			continue
		}
		pairs = append(pairs, storage.PositionChar{Pos: p, Ch: ch})
	}
	fresh.ExtendPairs(pairs)

	s.log.Info("reconcile: complete",
		zap.String("prefix", strings.TrimSuffix(s.keyPrefix, ":")),
		zap.Int("loaded", len(pairs)),
		zap.Int("skipped", skipped),
	)

	s.mu.Lock()
	s.doc = fresh
	s.mu.Unlock()
	return nil
}

func (s *Store) currentSiteAlgo() (uint16, *algorithm.Algorithm) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Site(), s.doc.Algo()
}
