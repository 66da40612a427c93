package engine

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"courierpulse/internal/config"
	"courierpulse/internal/constants"
	"courierpulse/internal/logger"
	"courierpulse/pkg/metrics"
	"courierpulse/pkg/models"
)

type DedupRepository interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	GetCacheSize(ctx context.Context, prefix string) (int, error)
}

type RedisDedupRepository struct {
	client *redis.Client
}

func NewDedupRepository(client *redis.Client) DedupRepository {
	return &RedisDedupRepository{client: client}
}

func (r *RedisDedupRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	success, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return success, nil
}

func (r *RedisDedupRepository) GetCacheSize(ctx context.Context, prefix string) (int, error) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	count := 0
	for iter.Next(ctx) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

// Deduplicator marks events as seen with a Redis SETNX keyed by the
// event's dedup key, or by a hash of configured attributes when the
// source did not supply one. The event source delivers at-least-once,
// so the engine has to tolerate replays; this shortcut drops exact
// duplicates before any rule is evaluated.
type Deduplicator struct {
	repo   DedupRepository
	cfg    config.DeduplicationConfig
	fields []string
	logger logger.Logger
}

func NewDeduplicator(repo DedupRepository, cfg config.DeduplicationConfig, log logger.Logger) *Deduplicator {
	fields := cfg.FieldsToHash
	if len(fields) == 0 {
		fields = []string{"id", "source", "type"}
		log.Infow("No fields_to_hash configured, using defaults", "fields", fields)
	}

	return &Deduplicator{
		repo:   repo,
		cfg:    cfg,
		fields: fields,
		logger: log,
	}
}

// IsUnique reports whether this event has not been seen inside the TTL.
func (d *Deduplicator) IsUnique(ctx context.Context, event models.EventEnvelope) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := constants.CacheKeyPrefixDedup + d.dedupKey(event)
	ttl := time.Duration(d.cfg.TTLSeconds) * time.Second
	if ttl == 0 {
		ttl = constants.DefaultDedupTTLSeconds * time.Second
	}

	unique, err := d.repo.SetNX(ctx, key, time.Now().Unix(), ttl)
	if err != nil {
		return d.handleRedisError(ctx, err, event.ID)
	}

	status := "duplicate"
	if unique {
		status = "unique"
	}
	metrics.DedupEventsTotal.WithLabelValues(status).Inc()
	return unique, nil
}

func (d *Deduplicator) dedupKey(event models.EventEnvelope) string {
	if event.Metadata.DedupKey != "" {
		return event.Metadata.DedupKey
	}
	return d.computeHash(event)
}

func (d *Deduplicator) computeHash(event models.EventEnvelope) string {
	data := make(map[string]interface{}, len(event.Attributes)+3)
	data["id"] = event.ID
	data["source"] = event.Source
	data["type"] = event.Type
	for key, value := range event.Attributes {
		data[key] = value
	}

	var builder strings.Builder
	for _, field := range d.fields {
		val, exists := data[field]
		if !exists {
			val = ""
		}
		builder.WriteString(fmt.Sprintf("%v|", val))
	}
	input := builder.String()

	switch d.cfg.HashAlgorithm {
	case "sha256":
		sum := sha256.Sum256([]byte(input))
		return hex.EncodeToString(sum[:])
	default:
		sum := md5.Sum([]byte(input))
		return hex.EncodeToString(sum[:])
	}
}

func (d *Deduplicator) handleRedisError(ctx context.Context, err error, eventID string) (bool, error) {
	metrics.DedupEventsTotal.WithLabelValues("error").Inc()

	if d.cfg.OnRedisError == constants.OnRedisErrorDrop {
		metrics.FallbackUsageTotal.WithLabelValues("deduplication", "drop_on_error", "redis_error").Inc()
		return false, fmt.Errorf("redis error during dedup check for event %s: %w", eventID, err)
	}

	metrics.FallbackUsageTotal.WithLabelValues("deduplication", "pass_on_error", "redis_error").Inc()
	d.logger.WarnwCtx(ctx, "Redis error during dedup check, treating event as unique",
		"event_id", eventID,
		"error", err,
	)
	return true, nil
}

// StartCacheSizeUpdater refreshes the dedup cache size gauge until ctx
// is cancelled.
func (d *Deduplicator) StartCacheSizeUpdater(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			size, err := d.repo.GetCacheSize(ctx, constants.CacheKeyPrefixDedup)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Debugw("Failed to get dedup cache size", "error", err)
				continue
			}
			metrics.SetDedupCacheSize(size)
		case <-ctx.Done():
			return
		}
	}
}
