package httpapi

import (
	"testing"

	"github.com/edirooss/seqcrdt/internal/crdt/path"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionDTORoundTrips(t *testing.T) {
	p, err := pos.New(3, 9, []path.Digit{4, 2})
	require.NoError(t, err)

	dto := fromPosition(p)
	got, err := dto.toPosition()
	require.NoError(t, err)
	assert.True(t, p.Equal(got))
}

func TestFirstLastDTOsMatchSentinels(t *testing.T) {
	p, err := firstDTO.toPosition()
	require.NoError(t, err)
	assert.True(t, p.Equal(pos.First()))

	q, err := lastDTO.toPosition()
	require.NoError(t, err)
	assert.True(t, q.Equal(pos.Last()))
}
