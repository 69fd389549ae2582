// AngelaMos | 2026
// service.go

package override

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angelamos/entitled/internal/core"
)

// Invalidator drops cached permission maps after an override changes. A
// user-level override touches one map; an organization-level one touches
// every member's.
type Invalidator interface {
	Invalidate(ctx context.Context, userID, orgID string) error
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
	orgID, createdBy string,
	req CreateOverrideRequest,
) (*Override, error) {
	effect, err := ParseEffect(req.Kind, req.Value)
	if err != nil {
		return nil, err
	}

	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf(
			"override expiry must be in the future: %w",
			core.ErrInvalidInput,
		)
	}

	o := &Override{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		UserID:         req.UserID,
		FeatureSlug:    req.FeatureSlug,
		Effect:         effect,
		ExpiresAt:      req.ExpiresAt,
		Reason:         req.Reason,
		CreatedBy:      createdBy,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.invalidateFor(ctx, o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*Override, error) {
	return s.getOwned(ctx, orgID, id)
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	o, err := s.getOwned(ctx, orgID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateFor(ctx, o)
	return nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]Override, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) getOwned(ctx context.Context, orgID, id string) (*Override, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.OrganizationID != orgID {
		return nil, fmt.Errorf("get override: %w", core.ErrNotFound)
	}

	return o, nil
}

// invalidateFor runs synchronously before the mutation is acknowledged, so
// a caller that re-reads immediately sees the change. A failed drop is
// logged; the TTL bounds the staleness.
func (s *Service) invalidateFor(ctx context.Context, o *Override) {
	var err error
	if o.UserID != nil {
		err = s.invalidator.Invalidate(ctx, *o.UserID, o.OrganizationID)
	} else {
		err = s.invalidator.InvalidateOrganization(ctx, o.OrganizationID)
	}

	if err != nil {
		slog.Warn("override cache invalidation failed",
			"error", err,
			"override_id", o.ID,
			"organization_id", o.OrganizationID,
		)
	}
}
