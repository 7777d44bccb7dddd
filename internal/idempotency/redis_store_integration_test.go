//go:build integration

package idempotency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderator/internal/logger"
	"moderator/internal/testinfra"
)

func TestRedisStore_MarkAndCheck(t *testing.T) {
	client := testinfra.SetupRedis(t)
	ctx := context.Background()

	store := NewRedisStore(client, "test:processed", logger.NopLogger())

	processed, err := store.IsProcessed(ctx, "a-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkProcessed(ctx, "a-1"))
	require.NoError(t, store.MarkProcessed(ctx, "a-1"))

	members, err := client.SMembers(ctx, "test:processed").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, members)
	assert.Equal(t, int64(1), store.Count())
}

func TestRedisStore_SurvivesRestart(t *testing.T) {
	client := testinfra.SetupRedis(t)
	ctx := context.Background()

	first := NewRedisStore(client, "test:restart", logger.NopLogger())
	require.NoError(t, first.MarkProcessed(ctx, "a-1"))

	second := NewRedisStore(client, "test:restart", logger.NopLogger())
	processed, err := second.IsProcessed(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestRedisStore_WriteFailureKeepsIDInMemory(t *testing.T) {
	client := testinfra.SetupRedis(t)
	ctx := context.Background()

	store := NewRedisStore(client, "test:failure", logger.NopLogger())
	require.NoError(t, client.Close())

	assert.Error(t, store.MarkProcessed(ctx, "a-1"))

	processed, err := store.IsProcessed(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, processed)
}
