package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierpulse/internal/config"
	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
)

func createTestDeduplicationConfig() config.DeduplicationConfig {
	return config.DeduplicationConfig{
		Enabled:       true,
		HashAlgorithm: "sha256",
		TTLSeconds:    300,
		OnRedisError:  constants.OnRedisErrorPass,
		FieldsToHash:  []string{"id", "source"},
	}
}

func TestDedupRepository_SetNX(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true, false)

	repo := engine.NewDedupRepository(infra.RedisClient)
	ctx := context.Background()

	ok, err := repo.SetNX(ctx, "dedup:test-key", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetNX(ctx, "dedup:test-key", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	size, err := repo.GetCacheSize(ctx, "dedup:")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestDeduplicator_DropsReplayedEvent(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true, false)

	dedup := engine.NewDeduplicator(
		engine.NewDedupRepository(infra.RedisClient),
		createTestDeduplicationConfig(),
		createTestLogger(),
	)
	ctx := context.Background()

	event := createTestEvent("evt-100", map[string]interface{}{"order_status": "delayed"})

	unique, err := dedup.IsUnique(ctx, event)
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = dedup.IsUnique(ctx, event)
	require.NoError(t, err)
	assert.False(t, unique)

	other := createTestEvent("evt-101", map[string]interface{}{"order_status": "delayed"})
	unique, err = dedup.IsUnique(ctx, other)
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestDeduplicator_ExplicitDedupKey(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true, false)

	dedup := engine.NewDeduplicator(
		engine.NewDedupRepository(infra.RedisClient),
		createTestDeduplicationConfig(),
		createTestLogger(),
	)
	ctx := context.Background()

	first := createTestEvent("evt-1", nil)
	first.Metadata.DedupKey = "order-42-delayed"

	second := createTestEvent("evt-2", nil)
	second.Metadata.DedupKey = "order-42-delayed"

	unique, err := dedup.IsUnique(ctx, first)
	require.NoError(t, err)
	assert.True(t, unique)

	// Different event ID, same producer-supplied key.
	unique, err = dedup.IsUnique(ctx, second)
	require.NoError(t, err)
	assert.False(t, unique)
}
