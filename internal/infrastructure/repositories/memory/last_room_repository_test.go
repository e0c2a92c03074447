package memory

import (
	"context"
	"testing"

	"morpheus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLastRoomRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLastRoomRepository()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrLastRoomNotFound)

	require.NoError(t, repo.Save(ctx, "u1", "r1"))
	require.NoError(t, repo.Save(ctx, "u1", "r2"))
	require.NoError(t, repo.Save(ctx, "u2", "r1"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("r2"), got)

	got, err = repo.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("r1"), got)
}
