// AngelaMos | 2026
// service.go

package feature

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Invalidator drops cached permission maps. Deleting a catalog entry cascades
// through plan rows, role grants and overrides, so the blast radius is the
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
	req CreateFeatureRequest,
) (*Feature, error) {
	f := &Feature{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Slug:           req.Slug,
		Name:           req.Name,
		Description:    req.Description,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

func (s *Service) GetBySlug(ctx context.Context, orgID, slug string) (*Feature, error) {
	return s.repo.GetBySlug(ctx, orgID, slug)
}

func (s *Service) Update(
	ctx context.Context,
	orgID, slug string,
	req UpdateFeatureRequest,
) (*Feature, error) {
	f, err := s.repo.GetBySlug(ctx, orgID, slug)
	if err != nil {
		return nil, err
	}

	f.Name = req.Name
	f.Description = req.Description

	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

// Delete removes a catalog entry. Plan rows, role grants and overrides that
// reference the slug cascade in the schema, so every cached map in the tenant
// is stale the moment the delete commits; the whole organization is dropped
// before the delete is acknowledged.
func (s *Service) Delete(ctx context.Context, orgID, slug string) error {
	if err := s.repo.Delete(ctx, orgID, slug); err != nil {
		return err
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]Feature, error) {
	return s.repo.List(ctx, orgID)
}

// invalidate drops the organization's cached maps after a catalog mutation
// has committed. The mutation stands even if the drop fails; the TTL bounds
// the staleness and the failure is logged for operators.
func (s *Service) invalidate(ctx context.Context, orgID string) {
	if err := s.invalidator.InvalidateOrganization(ctx, orgID); err != nil {
		slog.Warn("feature cache invalidation failed",
			"error", err,
			"organization_id", orgID,
		)
	}
}
