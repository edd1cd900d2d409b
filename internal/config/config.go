// Package config holds the environment-driven settings for cmd/crdtd: a
// typed, defaulted options struct built from process environment
// variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/edirooss/seqcrdt/internal/crdt/algorithm"
)

// Config is the process-wide configuration for the crdtd service.
type Config struct {
	// Env selects the logging/CORS posture: "dev" or "production".
	Env string

	// Addr is the HTTP listen address.
	Addr string

	// RedisAddr is the snapshot store's Redis endpoint.
	RedisAddr string
	// RedisKeyPrefix namespaces this instance's keys, per
	// internal/snapshot's exclusive-prefix-ownership rule.
	RedisKeyPrefix string

	// AllocStrategy selects the alloc.Strategy NewAlgorithm builds: one of
	// "boundary", "boundary-plus", "boundary-minus", "boundaries". Unknown
	// or empty values fall back to "boundary-plus".
	AllocStrategy string
	// AllocLimit bounds BoundaryPlus/BoundaryMinus/Boundaries step sizes
	// (spec.md §4.4).
	AllocLimit uint32
	// RNGSeed seeds every Algorithm NewAlgorithm builds. Zero means
	// time-seeded: each call derives a seed from the wall clock and the
	// requesting site ID, per spec.md §5's "per-Algorithm, never shared"
	// RNG rule.
	RNGSeed int64

	// SnapshotRefreshTimeout is read from SNAPSHOT_REFRESH_TIMEOUT and
	// defaulted, but nothing applies it: snapshot.Store.Reload runs under the
	// caller's context only, with no timeout of its own.
	SnapshotRefreshTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "127.0.0.1:6379"
	}
	if c.RedisKeyPrefix == "" {
		c.RedisKeyPrefix = "seqcrdt:"
	}
	if c.AllocStrategy == "" {
		c.AllocStrategy = "boundary-plus"
	}
	if c.AllocLimit == 0 {
		c.AllocLimit = 1024
	}
	if c.SnapshotRefreshTimeout <= 0 {
		c.SnapshotRefreshTimeout = 500 * time.Millisecond
	}
}

// FromEnv builds a Config from process environment variables, applying
// defaults for anything unset or malformed.
func FromEnv() Config {
	c := Config{
		Env:            os.Getenv("ENV"),
		Addr:           os.Getenv("ADDR"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisKeyPrefix: os.Getenv("REDIS_KEY_PREFIX"),
		AllocStrategy:  os.Getenv("ALLOC_STRATEGY"),
	}
	if v, err := strconv.ParseUint(os.Getenv("ALLOC_LIMIT"), 10, 32); err == nil {
		c.AllocLimit = uint32(v)
	}
	if v, err := strconv.ParseInt(os.Getenv("RNG_SEED"), 10, 64); err == nil {
		c.RNGSeed = v
	}
	if v, err := time.ParseDuration(os.Getenv("SNAPSHOT_REFRESH_TIMEOUT")); err == nil {
		c.SnapshotRefreshTimeout = v
	}
	c.setDefaults()
	return c
}

// NewAlgorithm builds the allocation algorithm.Algorithm this Config
// selects for a document owned by the given local site: AllocStrategy picks
// the alloc.Strategy, AllocLimit bounds its step size, and RNGSeed seeds it
// (0 derives a per-site, time-based seed so concurrent sites never share an
// RNG stream).
func (c Config) NewAlgorithm(site uint16) *algorithm.Algorithm {
	seed := c.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano() ^ int64(site)
	}
	switch c.AllocStrategy {
	case "boundary":
		return algorithm.NewBoundary(seed)
	case "boundary-minus":
		return algorithm.NewBoundaryMinus(seed, c.AllocLimit)
	case "boundaries":
		return algorithm.NewBoundaries(seed, c.AllocLimit)
	default:
		return algorithm.NewBoundaryPlus(seed, c.AllocLimit)
	}
}
