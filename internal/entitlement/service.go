// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"time"

	"github.com/angelamos/entitled/internal/core"
)

const (
	outcomeCacheHit = "cache_hit"
	outcomeResolved = "resolved"
	outcomeError    = "error"
)

// Service is the cached resolution surface the rest of the system talks to.
// All collaborators are injected; nothing here reaches for a global client.
type Service struct {
	resolver *Resolver
	cache    *Cache
	metrics  *core.Metrics
}

func NewService(resolver *Resolver, cache *Cache, metrics *core.Metrics) *Service {
	return &Service{resolver: resolver, cache: cache, metrics: metrics}
}

// Resolve returns the permission map for the user in the organization,
// serving from cache when possible. Cache failures degrade to a fresh
// resolution; source failures do not.
func (s *Service) Resolve(
	ctx context.Context,
	userID, orgID string,
) (*PermissionMap, error) {
	if pm := s.cache.Get(ctx, userID, orgID); pm != nil {
		s.metrics.ResolutionsTotal.WithLabelValues(outcomeCacheHit).Inc()
		return pm, nil
	}

	start := time.Now()

	pm, err := s.resolver.Resolve(ctx, userID, orgID, nil)
	if err != nil {
		s.metrics.ResolutionsTotal.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	s.metrics.ResolutionsTotal.WithLabelValues(outcomeResolved).Inc()
	s.metrics.ResolutionDuration.Observe(time.Since(start).Seconds())

	s.cache.Put(ctx, pm)

	return pm, nil
}

// ResolveWithPlan answers "what would this user get on that plan". It never
// reads or writes the cache: the result describes a hypothetical state and
// must not mask or pollute the real one.
func (s *Service) ResolveWithPlan(
	ctx context.Context,
	userID, orgID, planID string,
) (*PermissionMap, error) {
	start := time.Now()

	pm, err := s.resolver.Resolve(ctx, userID, orgID, &planID)
	if err != nil {
		s.metrics.ResolutionsTotal.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	s.metrics.ResolutionsTotal.WithLabelValues(outcomeResolved).Inc()
	s.metrics.ResolutionDuration.Observe(time.Since(start).Seconds())

	return pm, nil
}

// CheckFeature resolves (cached) and interprets one feature slug.
func (s *Service) CheckFeature(
	ctx context.Context,
	userID, orgID, slug string,
) (*CheckResult, error) {
	pm, err := s.Resolve(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}

	result := Check(pm, slug)
	return &result, nil
}

// Invalidate drops the cached map for one user in one organization. Writers
// call this before acknowledging their mutation.
func (s *Service) Invalidate(ctx context.Context, userID, orgID string) error {
	return s.cache.Invalidate(ctx, userID, orgID)
}

// InvalidateOrganization drops every cached map in the organization. Used
// after mutations whose blast radius is the whole tenant, such as a plan
// change or an organization-wide override.
func (s *Service) InvalidateOrganization(ctx context.Context, orgID string) error {
	return s.cache.InvalidateOrganization(ctx, orgID)
}
