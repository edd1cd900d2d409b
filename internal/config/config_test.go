package config

import (
	"testing"
	"time"

	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvAppliesDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ADDR", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_KEY_PREFIX", "")
	t.Setenv("ALLOC_LIMIT", "")
	t.Setenv("SNAPSHOT_REFRESH_TIMEOUT", "")

	c := FromEnv()
	assert.Equal(t, "production", c.Env)
	assert.Equal(t, "127.0.0.1:8080", c.Addr)
	assert.Equal(t, "127.0.0.1:6379", c.RedisAddr)
	assert.Equal(t, "seqcrdt:", c.RedisKeyPrefix)
	assert.Equal(t, uint32(1024), c.AllocLimit)
	assert.Equal(t, 500*time.Millisecond, c.SnapshotRefreshTimeout)
}

func TestFromEnvHonorsOverrides(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("ALLOC_LIMIT", "64")
	t.Setenv("ALLOC_STRATEGY", "boundary-minus")
	t.Setenv("RNG_SEED", "42")

	c := FromEnv()
	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, uint32(64), c.AllocLimit)
	assert.Equal(t, "boundary-minus", c.AllocStrategy)
	assert.Equal(t, int64(42), c.RNGSeed)
}

func TestFromEnvDefaultsAllocStrategyToBoundaryPlus(t *testing.T) {
	t.Setenv("ALLOC_STRATEGY", "")
	c := FromEnv()
	assert.Equal(t, "boundary-plus", c.AllocStrategy)
}

func TestNewAlgorithmIsDeterministicForNonZeroSeed(t *testing.T) {
	c := Config{AllocStrategy: "boundary-plus", AllocLimit: 8, RNGSeed: 7}
	a := c.NewAlgorithm(1)
	b := c.NewAlgorithm(1)

	left, right := path.First(), path.Last()
	pa, err := a.GenerateOne(left, right)
	require.NoError(t, err)
	pb, err := b.GenerateOne(left, right)
	require.NoError(t, err)
	assert.True(t, pa.Equal(pb))
}

func TestNewAlgorithmSelectsStrategyByName(t *testing.T) {
	for _, name := range []string{"boundary", "boundary-plus", "boundary-minus", "boundaries", "unknown"} {
		c := Config{AllocStrategy: name, AllocLimit: 4, RNGSeed: 1}
		a := c.NewAlgorithm(0)
		require.NotNil(t, a)
		p, err := a.GenerateOne(path.First(), path.Last())
		require.NoError(t, err)

		// Level 0 spans [1, Level0End): each strategy narrows it differently.
		d := p.At(0)
		switch name {
		case "boundary":
			assert.Equal(t, path.Digit(1), d, name)
		case "boundary-minus":
			assert.GreaterOrEqual(t, d, path.Level0End-4, name)
		case "boundaries":
			assert.True(t, d < 5 || d >= path.Level0End-4, name)
		default: // "boundary-plus", and unknown names falling back to it
			assert.Less(t, d, path.Digit(5), name)
		}
	}
}
