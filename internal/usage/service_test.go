// AngelaMos | 2026
// service_test.go

package usage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/entitlement"
)

// memRepository reproduces the repository's atomicity contract in memory:
// the guarded increment checks and writes under one lock, exactly as the
// single SQL statement does.
type memRepository struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemRepository() *memRepository {
	return &memRepository{counters: map[string]int64{}}
}

func key(userID, orgID, slug string) string {
	return userID + "/" + orgID + "/" + slug
}

func (m *memRepository) Increment(_ context.Context, userID, orgID, slug string, n int64) (*Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[key(userID, orgID, slug)] += n
	return m.counter(userID, orgID, slug), nil
}

func (m *memRepository) IncrementWithin(_ context.Context, userID, orgID, slug string, n, max int64) (*Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(userID, orgID, slug)
	if m.counters[k]+n > max {
		return nil, fmt.Errorf("increment usage within limit: %w", core.ErrLimitExceeded)
	}

	m.counters[k] += n
	return m.counter(userID, orgID, slug), nil
}

func (m *memRepository) Get(_ context.Context, userID, orgID, slug string) (*Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter(userID, orgID, slug), nil
}

func (m *memRepository) ListForUser(_ context.Context, _, _ string) ([]Counter, error) {
	return nil, nil
}

func (m *memRepository) Reset(_ context.Context, userID, orgID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, key(userID, orgID, slug))
	return nil
}

func (m *memRepository) Counters(_ context.Context, _, _ string, _ []string) (map[string]int64, error) {
	return nil, nil
}

func (m *memRepository) counter(userID, orgID, slug string) *Counter {
	return &Counter{
		UserID:         userID,
		OrganizationID: orgID,
		FeatureSlug:    slug,
		Used:           m.counters[key(userID, orgID, slug)],
		UpdatedAt:      time.Now(),
	}
}

type stubResolver struct {
	pm            *entitlement.PermissionMap
	invalidations int
	mu            sync.Mutex
}

func (s *stubResolver) Resolve(_ context.Context, _, _ string) (*entitlement.PermissionMap, error) {
	return s.pm, nil
}

func (s *stubResolver) Invalidate(_ context.Context, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidations++
	return nil
}

func limitedResolver(slug string, max int64) *stubResolver {
	return &stubResolver{pm: &entitlement.PermissionMap{
		UserID:         "u1",
		OrganizationID: "org1",
		Features:       map[string]bool{slug: true},
		Limits: map[string]entitlement.LimitInfo{
			slug: {Max: max, Remaining: max},
		},
	}}
}

func TestRecordIncrementsAndInvalidates(t *testing.T) {
	repo := newMemRepository()
	resolver := limitedResolver("api-calls", 100)
	svc := NewService(repo, resolver, core.NewMetrics())

	counter, err := svc.Record(context.Background(), "u1", "org1", "api-calls", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(3), counter.Used)
	assert.Equal(t, 1, resolver.invalidations)
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemRepository(), limitedResolver("api-calls", 100), core.NewMetrics())

	_, err := svc.Record(context.Background(), "u1", "org1", "api-calls", 0)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestConsumeDeniesDisabledFeature(t *testing.T) {
	resolver := &stubResolver{pm: &entitlement.PermissionMap{
		Features: map[string]bool{},
		Limits:   map[string]entitlement.LimitInfo{},
	}}
	svc := NewService(newMemRepository(), resolver, core.NewMetrics())

	_, err := svc.Consume(context.Background(), "u1", "org1", "api-calls", 1)

	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestConsumeUnlimitedFeatureAlwaysLands(t *testing.T) {
	resolver := &stubResolver{pm: &entitlement.PermissionMap{
		Features: map[string]bool{"exports": true},
		Limits:   map[string]entitlement.LimitInfo{},
	}}
	repo := newMemRepository()
	svc := NewService(repo, resolver, core.NewMetrics())

	counter, err := svc.Consume(context.Background(), "u1", "org1", "exports", 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), counter.Used)
}

func TestConsumeStopsAtLimit(t *testing.T) {
	repo := newMemRepository()
	svc := NewService(repo, limitedResolver("api-calls", 2), core.NewMetrics())
	ctx := context.Background()

	_, err := svc.Consume(ctx, "u1", "org1", "api-calls", 1)
	require.NoError(t, err)
	_, err = svc.Consume(ctx, "u1", "org1", "api-calls", 1)
	require.NoError(t, err)

	_, err = svc.Consume(ctx, "u1", "org1", "api-calls", 1)
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	counter, err := repo.Get(ctx, "u1", "org1", "api-calls")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.Used)
}

// The check and the increment are one guarded operation, so concurrent
// consumers against a shared limit can never overshoot it: with max 100 and
// 150 racing increments of 1, exactly 100 land and 50 are rejected.
func TestConsumeConcurrentIncrementsNeverOvershoot(t *testing.T) {
	const (
		max     = 100
		workers = 150
	)

	repo := newMemRepository()
	svc := NewService(repo, limitedResolver("api-calls", max), core.NewMetrics())
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := svc.Consume(ctx, "u1", "org1", "api-calls", 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			default:
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, max, accepted)
	assert.Equal(t, workers-max, rejected)

	counter, err := repo.Get(ctx, "u1", "org1", "api-calls")
	require.NoError(t, err)
	assert.Equal(t, int64(max), counter.Used, "counter total equals accepted increments")
}

// Unconditional recording has no guard: every concurrent increment lands
// and none is lost.
func TestRecordConcurrentIncrementsAllLand(t *testing.T) {
	const workers = 100

	repo := newMemRepository()
	svc := NewService(repo, limitedResolver("api-calls", 1_000_000), core.NewMetrics())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(ctx, "u1", "org1", "api-calls", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := repo.Get(ctx, "u1", "org1", "api-calls")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), counter.Used)
}

func TestResetClearsCounterAndInvalidates(t *testing.T) {
	repo := newMemRepository()
	resolver := limitedResolver("api-calls", 100)
	svc := NewService(repo, resolver, core.NewMetrics())
	ctx := context.Background()

	_, err := svc.Record(ctx, "u1", "org1", "api-calls", 10)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, "u1", "org1", "api-calls"))

	counter, err := repo.Get(ctx, "u1", "org1", "api-calls")
	require.NoError(t, err)
	assert.Zero(t, counter.Used)
	assert.Equal(t, 2, resolver.invalidations)
}
