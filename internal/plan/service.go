// AngelaMos | 2026
// service.go

package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/angelamos/entitled/internal/core"
)

// Invalidator drops cached permission maps. Plan mutations affect every
// member of the owning organization, so the blast radius is always the
// whole tenant.
type Invalidator interface {
	InvalidateOrganization(ctx context.Context, orgID string) error
}

type Service struct {
	repo        Repository
	invalidator Invalidator
}

func NewService(repo Repository, invalidator Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

func (s *Service) Create(
	ctx context.Context,
	orgID string,
	req CreatePlanRequest,
) (*Plan, error) {
	p := &Plan{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           req.Name,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, orgID, planID string) (*Detail, error) {
	p, err := s.getOwned(ctx, orgID, planID)
	if err != nil {
		return nil, err
	}

	features, err := s.repo.ListFeatures(ctx, planID)
	if err != nil {
		return nil, err
	}

	limits, err := s.repo.ListLimits(ctx, planID)
	if err != nil {
		return nil, err
	}

	return &Detail{Plan: *p, Features: features, Limits: limits}, nil
}

func (s *Service) Update(
	ctx context.Context,
	orgID, planID string,
	req UpdatePlanRequest,
) (*Plan, error) {
	p, err := s.getOwned(ctx, orgID, planID)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Delete removes a plan. Refused while the organization is assigned to it;
// reassign first.
func (s *Service) Delete(ctx context.Context, orgID, planID string) error {
	if _, err := s.getOwned(ctx, orgID, planID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, planID); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]Plan, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) SetFeature(
	ctx context.Context,
	orgID, planID string,
	req SetFeatureRequest,
) error {
	if _, err := s.getOwned(ctx, orgID, planID); err != nil {
		return err
	}

	if err := s.repo.SetFeature(ctx, planID, req.FeatureSlug, req.Enabled); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) RemoveFeature(
	ctx context.Context,
	orgID, planID, slug string,
) error {
	if _, err := s.getOwned(ctx, orgID, planID); err != nil {
		return err
	}

	if err := s.repo.RemoveFeature(ctx, planID, slug); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) SetLimit(
	ctx context.Context,
	orgID, planID string,
	req SetLimitRequest,
) error {
	if _, err := s.getOwned(ctx, orgID, planID); err != nil {
		return err
	}

	if err := s.repo.SetLimit(ctx, planID, req.FeatureSlug, req.MaxValue); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) RemoveLimit(
	ctx context.Context,
	orgID, planID, slug string,
) error {
	if _, err := s.getOwned(ctx, orgID, planID); err != nil {
		return err
	}

	if err := s.repo.RemoveLimit(ctx, planID, slug); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

// getOwned loads the plan and checks tenancy. A plan from another
// organization reads as not found, never as forbidden, to avoid leaking
// plan IDs across tenants.
func (s *Service) getOwned(ctx context.Context, orgID, planID string) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if p.OrganizationID != orgID {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}

	return p, nil
}

// invalidate drops the whole organization's cached maps after a plan
// mutation has committed. The mutation stands even if the drop fails; the
// TTL bounds the staleness and the failure is logged for operators.
func (s *Service) invalidate(ctx context.Context, orgID string) {
	if err := s.invalidator.InvalidateOrganization(ctx, orgID); err != nil {
		slog.Warn("plan cache invalidation failed",
			"error", err,
			"organization_id", orgID,
		)
	}
}
