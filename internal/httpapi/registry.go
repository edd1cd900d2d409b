package httpapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/edirooss/seqcrdt/internal/config"
	"github.com/edirooss/seqcrdt/internal/snapshot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Registry owns the set of live documents this process serves, each backed
// by its own snapshot.Store under a document-scoped Redis key prefix: the
// single place that knows how to look up, and lazily create, a
// per-resource stateful object.
type Registry struct {
	log       *zap.Logger
	rdb       *redis.Client
	keyPrefix string
	site      uint16
	cfg       config.Config

	mu   sync.RWMutex
	docs map[string]*snapshot.Store
}

// NewRegistry constructs an empty Registry. site is this process's own
// allocation identity, registered once at startup via internal/siteid. cfg
// supplies the allocator strategy/limit/seed every newly opened document's
// snapshot.Store allocates with (config.Config.NewAlgorithm).
func NewRegistry(log *zap.Logger, rdb *redis.Client, keyPrefix string, site uint16, cfg config.Config) *Registry {
	return &Registry{
		log:       log.Named("registry"),
		rdb:       rdb,
		keyPrefix: keyPrefix,
		site:      site,
		cfg:       cfg,
		docs:      make(map[string]*snapshot.Store),
	}
}

// Open returns the snapshot.Store for docID, opening (and reconciling) it
// from Redis on first reference.
func (r *Registry) Open(ctx context.Context, docID string) (*snapshot.Store, error) {
	r.mu.RLock()
	s, ok := r.docs[docID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.docs[docID]; ok {
		return s, nil
	}

	prefix := fmt.Sprintf("%sdoc:%s", r.keyPrefix, docID)
	algo := r.cfg.NewAlgorithm(r.site)
	s, err := snapshot.Open(ctx, r.log, r.rdb, prefix, r.site, algo)
	if err != nil {
		return nil, fmt.Errorf("open document %q: %w", docID, err)
	}
	r.docs[docID] = s
	return s, nil
}
