// AngelaMos | 2026
// cache_test.go

package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
)

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(NewRedisStore(client), 5*time.Minute, core.NewMetrics()), mr
}

func samplePermissionMap(userID, orgID string) *PermissionMap {
	return &PermissionMap{
		UserID:         userID,
		OrganizationID: orgID,
		Features:       map[string]bool{"exports": true},
		Limits: map[string]LimitInfo{
			"api-calls": {Max: 100, Used: 10, Remaining: 90},
		},
		ResolvedAt: time.Now().Truncate(time.Millisecond),
	}
}

func TestCacheMissThenHit(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx, "u1", "org1"))

	cache.Put(ctx, samplePermissionMap("u1", "org1"))

	got := cache.Get(ctx, "u1", "org1")
	require.NotNil(t, got)
	assert.True(t, got.Cached, "cache hits are marked")
	assert.True(t, got.Features["exports"])
	assert.Equal(t, int64(90), got.Limits["api-calls"].Remaining)
}

func TestCacheInvalidateRemovesEntry(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	cache.Put(ctx, samplePermissionMap("u1", "org1"))
	require.NotNil(t, cache.Get(ctx, "u1", "org1"))

	require.NoError(t, cache.Invalidate(ctx, "u1", "org1"))

	assert.Nil(t, cache.Get(ctx, "u1", "org1"), "invalidated entry reads as a miss")
}

func TestCacheOrganizationInvalidationIsScoped(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	cache.Put(ctx, samplePermissionMap("u1", "org1"))
	cache.Put(ctx, samplePermissionMap("u2", "org1"))
	cache.Put(ctx, samplePermissionMap("u3", "org2"))

	require.NoError(t, cache.InvalidateOrganization(ctx, "org1"))

	assert.Nil(t, cache.Get(ctx, "u1", "org1"))
	assert.Nil(t, cache.Get(ctx, "u2", "org1"))
	assert.NotNil(t, cache.Get(ctx, "u3", "org2"), "other tenants keep their entries")
}

func TestCacheEntryExpiresWithTTL(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	cache.Put(ctx, samplePermissionMap("u1", "org1"))
	require.NotNil(t, cache.Get(ctx, "u1", "org1"))

	mr.FastForward(6 * time.Minute)

	assert.Nil(t, cache.Get(ctx, "u1", "org1"))
}

func TestCacheFailsOpenWhenRedisIsDown(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	cache.Put(ctx, samplePermissionMap("u1", "org1"))
	mr.Close()

	// Reads degrade to misses and writes are swallowed; neither panics nor
	// surfaces an error to the resolution path.
	assert.Nil(t, cache.Get(ctx, "u1", "org1"))
	cache.Put(ctx, samplePermissionMap("u2", "org1"))

	// Invalidation does surface the failure so callers can log it.
	assert.Error(t, cache.Invalidate(ctx, "u1", "org1"))
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("entitled:perms:org1:u1", "not json"))

	assert.Nil(t, cache.Get(ctx, "u1", "org1"))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	cache := NewCache(NewMemoryStore(5*time.Minute), 5*time.Minute, core.NewMetrics())
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx, "u1", "org1"))

	cache.Put(ctx, samplePermissionMap("u1", "org1"))
	require.NotNil(t, cache.Get(ctx, "u1", "org1"))

	require.NoError(t, cache.InvalidateOrganization(ctx, "org1"))
	assert.Nil(t, cache.Get(ctx, "u1", "org1"))
}

// Cache coherence across the full service: resolve, mutate, invalidate,
// resolve again. The second resolution must see the new state, not the
// cached one.
func TestServiceResolutionCoherence(t *testing.T) {
	usage := &fakeUsage{counters: map[string]int64{"api-calls": 10}}
	resolver := newTestResolver(usage)
	cache, _ := newRedisCache(t)
	svc := NewService(resolver, cache, core.NewMetrics())
	ctx := context.Background()

	first, err := svc.Resolve(ctx, "u1", "org1")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, int64(10), first.Limits["api-calls"].Used)

	second, err := svc.Resolve(ctx, "u1", "org1")
	require.NoError(t, err)
	assert.True(t, second.Cached, "second read served from cache")

	// Simulate a usage write followed by its invalidation.
	usage.counters["api-calls"] = 25
	require.NoError(t, svc.Invalidate(ctx, "u1", "org1"))

	third, err := svc.Resolve(ctx, "u1", "org1")
	require.NoError(t, err)
	assert.False(t, third.Cached, "invalidation forces a fresh resolution")
	assert.Equal(t, int64(25), third.Limits["api-calls"].Used)
}

func TestServiceWhatIfNeverTouchesCache(t *testing.T) {
	resolver := newTestResolver(&fakeUsage{})
	cache, mr := newRedisCache(t)
	svc := NewService(resolver, cache, core.NewMetrics())
	ctx := context.Background()

	pm, err := svc.ResolveWithPlan(ctx, "u1", "org1", "plan-trial")
	require.NoError(t, err)
	assert.False(t, pm.FeatureEnabled("exports"))

	assert.Empty(t, mr.Keys(), "what-if resolution must not populate the cache")

	real, err := svc.Resolve(ctx, "u1", "org1")
	require.NoError(t, err)
	assert.True(t, real.FeatureEnabled("exports"), "real plan unaffected by what-if")
}
