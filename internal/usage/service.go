// AngelaMos | 2026
// service.go

package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/entitlement"
)

const (
	modeUnconditional = "unconditional"
	modeGuarded       = "guarded"
)

// Resolver is the slice of the entitlement service this package needs.
type Resolver interface {
	Resolve(ctx context.Context, userID, orgID string) (*entitlement.PermissionMap, error)
	Invalidate(ctx context.Context, userID, orgID string) error
}

type Service struct {
	repo     Repository
	resolver Resolver
	metrics  *core.Metrics
}

func NewService(repo Repository, resolver Resolver, metrics *core.Metrics) *Service {
	return &Service{repo: repo, resolver: resolver, metrics: metrics}
}

// Record increments usage without consulting the limit. Metering paths that
// bill for overage rather than block it use this.
func (s *Service) Record(
	ctx context.Context,
	userID, orgID, slug string,
	n int64,
) (*Counter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("record usage: %w", core.ErrInvalidInput)
	}

	counter, err := s.repo.Increment(ctx, userID, orgID, slug, n)
	if err != nil {
		return nil, err
	}

	s.metrics.UsageRecordedTotal.WithLabelValues(modeUnconditional).Inc()
	s.invalidate(ctx, userID, orgID)

	return counter, nil
}

// Consume increments usage only if the feature is enabled and the increment
// stays within the effective limit. The limit comes from a resolution, but
// the decisive check is the guarded increment itself, so two racing calls
// cannot both slip under a nearly-full limit.
func (s *Service) Consume(
	ctx context.Context,
	userID, orgID, slug string,
	n int64,
) (*Counter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("consume usage: %w", core.ErrInvalidInput)
	}

	pm, err := s.resolver.Resolve(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}

	if !pm.FeatureEnabled(slug) {
		return nil, fmt.Errorf("consume usage: %w", core.ErrForbidden)
	}

	limit := pm.Limit(slug)
	if limit == nil {
		// Unlimited feature, nothing to guard.
		return s.Record(ctx, userID, orgID, slug, n)
	}

	counter, err := s.repo.IncrementWithin(ctx, userID, orgID, slug, n, limit.Max)
	if err != nil {
		if errors.Is(err, core.ErrLimitExceeded) {
			s.metrics.LimitRejectedTotal.Inc()
		}
		return nil, err
	}

	s.metrics.UsageRecordedTotal.WithLabelValues(modeGuarded).Inc()
	s.invalidate(ctx, userID, orgID)

	return counter, nil
}

func (s *Service) Get(
	ctx context.Context,
	userID, orgID, slug string,
) (*Counter, error) {
	return s.repo.Get(ctx, userID, orgID, slug)
}

func (s *Service) ListForUser(
	ctx context.Context,
	userID, orgID string,
) ([]Counter, error) {
	return s.repo.ListForUser(ctx, userID, orgID)
}

// Reset zeroes one counter. Admin surface, typically at a billing period
// boundary.
func (s *Service) Reset(ctx context.Context, userID, orgID, slug string) error {
	if err := s.repo.Reset(ctx, userID, orgID, slug); err != nil {
		return err
	}

	s.invalidate(ctx, userID, orgID)
	return nil
}

// invalidate drops the cached permission map so the next resolution sees the
// new counter. A failure here is logged, not returned: the write already
// happened and the cache TTL bounds the staleness.
func (s *Service) invalidate(ctx context.Context, userID, orgID string) {
	if err := s.resolver.Invalidate(ctx, userID, orgID); err != nil {
		slog.Warn("usage cache invalidation failed",
			"error", err,
			"user_id", userID,
			"organization_id", orgID,
		)
	}
}
