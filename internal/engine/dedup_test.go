package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierpulse/internal/config"
	"courierpulse/internal/constants"
	"courierpulse/internal/logger"
	"courierpulse/pkg/models"
)

type fakeDedupRepo struct {
	seen map[string]bool
	err  error
}

func (f *fakeDedupRepo) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeDedupRepo) GetCacheSize(ctx context.Context, prefix string) (int, error) {
	return len(f.seen), nil
}

func TestDeduplicator_FirstSeenIsUnique(t *testing.T) {
	repo := &fakeDedupRepo{}
	dedup := NewDeduplicator(repo, config.DeduplicationConfig{Enabled: true, TTLSeconds: 60}, logger.NopLogger())

	event := testEvent(map[string]interface{}{"order_status": "delayed"})
	unique, err := dedup.IsUnique(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = dedup.IsUnique(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, unique)
}

func TestDeduplicator_ExplicitDedupKeyWins(t *testing.T) {
	repo := &fakeDedupRepo{}
	dedup := NewDeduplicator(repo, config.DeduplicationConfig{Enabled: true, TTLSeconds: 60}, logger.NopLogger())

	first := testEvent(nil)
	first.Metadata.DedupKey = "order-42-delayed"
	second := testEvent(nil)
	second.ID = "evt-2"
	second.Metadata.DedupKey = "order-42-delayed"

	unique, err := dedup.IsUnique(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = dedup.IsUnique(context.Background(), second)
	require.NoError(t, err)
	assert.False(t, unique)

	assert.Contains(t, repo.seen, constants.CacheKeyPrefixDedup+"order-42-delayed")
}

func TestDeduplicator_HashCoversConfiguredFields(t *testing.T) {
	repo := &fakeDedupRepo{}
	cfg := config.DeduplicationConfig{Enabled: true, TTLSeconds: 60, HashAlgorithm: "sha256", FieldsToHash: []string{"source", "order_id"}}
	dedup := NewDeduplicator(repo, cfg, logger.NopLogger())

	first := models.EventEnvelope{ID: "evt-1", Source: "orders", Attributes: map[string]interface{}{"order_id": "42"}}
	replay := models.EventEnvelope{ID: "evt-2", Source: "orders", Attributes: map[string]interface{}{"order_id": "42"}}

	unique, err := dedup.IsUnique(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, unique)

	// Different envelope id, same hashed fields: still a duplicate.
	unique, err = dedup.IsUnique(context.Background(), replay)
	require.NoError(t, err)
	assert.False(t, unique)
}

func TestDeduplicator_RedisErrorPassPolicy(t *testing.T) {
	repo := &fakeDedupRepo{err: errors.New("redis down")}
	cfg := config.DeduplicationConfig{Enabled: true, OnRedisError: constants.OnRedisErrorPass}
	dedup := NewDeduplicator(repo, cfg, logger.NopLogger())

	unique, err := dedup.IsUnique(context.Background(), testEvent(nil))
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestDeduplicator_RedisErrorDropPolicy(t *testing.T) {
	repo := &fakeDedupRepo{err: errors.New("redis down")}
	cfg := config.DeduplicationConfig{Enabled: true, OnRedisError: constants.OnRedisErrorDrop}
	dedup := NewDeduplicator(repo, cfg, logger.NopLogger())

	_, err := dedup.IsUnique(context.Background(), testEvent(nil))
	require.Error(t, err)
}
