package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warehq/varpay-api/internal/models"
)

type tierSource interface {
	TiersForActivity(ctx context.Context, activityName string) ([]models.ActivityTier, error)
}

type kpiSource interface {
	ActiveForRole(ctx context.Context, role string) ([]models.KPIDefinition, error)
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
	ObserveDBQuery(label string, duration time.Duration)
}

// CachedReferenceRepository is a read-through Redis cache in front of the
// tier and KPI repositories. Reference data changes rarely and is read on
// every calculation, so a short TTL removes most of the lookup load. Any
// cache failure degrades to the underlying store.
type CachedReferenceRepository struct {
	tiers   tierSource
	kpis    kpiSource
	client  *redis.Client
	ttl     time.Duration
	metrics cacheMetrics
	logger  *zap.Logger
}

// NewCachedReferenceRepository wraps the given sources with a Redis cache.
func NewCachedReferenceRepository(tiers tierSource, kpis kpiSource, client *redis.Client, ttl time.Duration, metrics cacheMetrics, logger *zap.Logger) *CachedReferenceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedReferenceRepository{tiers: tiers, kpis: kpis, client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// TiersForActivity returns cached tiers for an activity.
func (r *CachedReferenceRepository) TiersForActivity(ctx context.Context, activityName string) ([]models.ActivityTier, error) {
	key := fmt.Sprintf("varpay:tiers:%s", models.NormalizeKey(activityName))
	var tiers []models.ActivityTier
	if r.fetch(ctx, key, &tiers) {
		return tiers, nil
	}
	start := time.Now()
	tiers, err := r.tiers.TiersForActivity(ctx, activityName)
	if r.metrics != nil {
		r.metrics.ObserveDBQuery("tiers_for_activity", time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, tiers)
	return tiers, nil
}

// ActiveForRole returns cached KPI definitions for a role.
func (r *CachedReferenceRepository) ActiveForRole(ctx context.Context, role string) ([]models.KPIDefinition, error) {
	key := fmt.Sprintf("varpay:kpis:%s", models.NormalizeKey(role))
	var defs []models.KPIDefinition
	if r.fetch(ctx, key, &defs) {
		return defs, nil
	}
	start := time.Now()
	defs, err := r.kpis.ActiveForRole(ctx, role)
	if r.metrics != nil {
		r.metrics.ObserveDBQuery("kpis_for_role", time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, defs)
	return defs, nil
}

// Invalidate drops cached reference data after admin edits.
func (r *CachedReferenceRepository) Invalidate(ctx context.Context, keys ...string) {
	if r.client == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = fmt.Sprintf("varpay:%s", key)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		r.logger.Warn("reference cache invalidation failed", zap.Error(err))
	}
}

func (r *CachedReferenceRepository) fetch(ctx context.Context, key string, dst interface{}) bool {
	if r.client == nil {
		return false
	}
	start := time.Now()
	raw, err := r.client.Get(ctx, key).Bytes()
	hit := err == nil
	if r.metrics != nil {
		r.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("reference cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *CachedReferenceRepository) store(ctx context.Context, key string, value interface{}) {
	if r.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	start := time.Now()
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if r.metrics != nil {
		r.metrics.ObserveCacheWrite(time.Since(start))
	}
}
