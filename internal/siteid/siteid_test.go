package siteid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotentPerUUID(t *testing.T) {
	tbl := New()
	u := uuid.New()

	id1, err := tbl.Register(u)
	require.NoError(t, err)
	id2, err := tbl.Register(u)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestRegisterNeverHandsOutZero(t *testing.T) {
	tbl := New()
	for i := 0; i < 100; i++ {
		id, err := tbl.Register(uuid.New())
		require.NoError(t, err)
		assert.NotZero(t, id)
	}
}

func TestUUIDRoundTrips(t *testing.T) {
	tbl := New()
	u := uuid.New()
	id, err := tbl.Register(u)
	require.NoError(t, err)

	got, err := tbl.UUID(id)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestUUIDUnknownSiteErrors(t *testing.T) {
	tbl := New()
	_, err := tbl.UUID(42)
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestLenTracksDistinctRegistrations(t *testing.T) {
	tbl := New()
	u := uuid.New()
	tbl.Register(u)
	tbl.Register(u)
	tbl.Register(uuid.New())
	assert.Equal(t, 2, tbl.Len())
}
