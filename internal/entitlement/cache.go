// AngelaMos | 2026
// cache.go

package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelamos/entitled/internal/core"
)

// ErrCacheMiss is returned by a CacheStore when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is a pluggable key-value capability with TTL semantics. It is
// injected at construction; there is no package-level client.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key under the prefix. Used for
	// organization-wide invalidation, where the affected users cannot be
	// enumerated cheaply.
	DeletePrefix(ctx context.Context, prefix string) error
}

const cacheKeyPrefix = "entitled:perms:"

func cacheKey(orgID, userID string) string {
	return cacheKeyPrefix + orgID + ":" + userID
}

func orgCachePrefix(orgID string) string {
	return cacheKeyPrefix + orgID + ":"
}

// Cache wraps a CacheStore with the fail-open contract from the resolution
// path: any store error is logged at warn and treated as a miss, never
// surfaced to the caller. Its absence degrades to "always miss".
type Cache struct {
	store   CacheStore
	ttl     time.Duration
	metrics *core.Metrics
}

func NewCache(store CacheStore, ttl time.Duration, metrics *core.Metrics) *Cache {
	return &Cache{store: store, ttl: ttl, metrics: metrics}
}

// Get returns the cached map with Cached=true, or nil on a miss.
func (c *Cache) Get(ctx context.Context, userID, orgID string) *PermissionMap {
	if c == nil || c.store == nil {
		return nil
	}

	data, err := c.store.Get(ctx, cacheKey(orgID, userID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
			slog.Warn("permission cache read failed, treating as miss",
				"error", err,
				"user_id", userID,
				"organization_id", orgID,
			)
		}
		c.metrics.CacheMissesTotal.Inc()
		return nil
	}

	var pm PermissionMap
	if err := json.Unmarshal(data, &pm); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues("decode").Inc()
		slog.Warn("permission cache entry corrupt, treating as miss",
			"error", err,
			"user_id", userID,
			"organization_id", orgID,
		)
		c.metrics.CacheMissesTotal.Inc()
		return nil
	}

	c.metrics.CacheHitsTotal.Inc()
	pm.Cached = true
	return &pm
}

// Put stores a freshly resolved map. Write failures are non-fatal; the next
// read recomputes.
func (c *Cache) Put(ctx context.Context, pm *PermissionMap) {
	if c == nil || c.store == nil {
		return
	}

	data, err := json.Marshal(pm)
	if err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues("encode").Inc()
		slog.Warn("permission cache encode failed", "error", err)
		return
	}

	key := cacheKey(pm.OrganizationID, pm.UserID)
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		slog.Warn("permission cache write failed",
			"error", err,
			"user_id", pm.UserID,
			"organization_id", pm.OrganizationID,
		)
	}
}

// Invalidate removes the entry for one (user, organization) pair. Mutations
// must call this before acknowledging success; a delete failure is reported
// so the caller can log it, but the TTL still bounds any resulting
// staleness.
func (c *Cache) Invalidate(ctx context.Context, userID, orgID string) error {
	if c == nil || c.store == nil {
		return nil
	}

	c.metrics.InvalidationsTotal.WithLabelValues("user").Inc()

	if err := c.store.Delete(ctx, cacheKey(orgID, userID)); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("invalidate permissions: %w", err)
	}

	return nil
}

// InvalidateOrganization removes every cached entry for the organization.
func (c *Cache) InvalidateOrganization(ctx context.Context, orgID string) error {
	if c == nil || c.store == nil {
		return nil
	}

	c.metrics.InvalidationsTotal.WithLabelValues("organization").Inc()

	if err := c.store.DeletePrefix(ctx, orgCachePrefix(orgID)); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues("delete_prefix").Inc()
		return fmt.Errorf("invalidate organization permissions: %w", err)
	}

	return nil
}
