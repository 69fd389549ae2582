// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/angelamos/entitled/internal/core"
)

// Invalidator drops cached permission maps. Grant changes hit everyone
// holding the role, so those fall back to organization scope; assignment
// changes hit exactly one user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID, orgID string) error
	InvalidateOrganization(ctx context.Context, orgID string) error
}

type Service struct {
	repo        Repository
	db          *sqlx.DB
	invalidator Invalidator
}

func NewService(repo Repository, db *sqlx.DB, invalidator Invalidator) *Service {
	return &Service{repo: repo, db: db, invalidator: invalidator}
}

// Create inserts the role and its initial grants in one transaction so a
// partially granted role is never visible.
func (s *Service) Create(
	ctx context.Context,
	orgID string,
	req CreateRoleRequest,
) (*Detail, error) {
	ro := &Role{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           req.Name,
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, ro); err != nil {
			return err
		}

		for _, slug := range req.FeatureSlugs {
			if err := s.repo.GrantFeature(ctx, tx, ro.ID, slug); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Detail{Role: *ro, FeatureSlugs: req.FeatureSlugs}, nil
}

func (s *Service) Get(ctx context.Context, orgID, roleID string) (*Detail, error) {
	ro, err := s.getOwned(ctx, orgID, roleID)
	if err != nil {
		return nil, err
	}

	slugs, err := s.repo.ListFeatures(ctx, roleID)
	if err != nil {
		return nil, err
	}

	return &Detail{Role: *ro, FeatureSlugs: slugs}, nil
}

func (s *Service) Update(
	ctx context.Context,
	orgID, roleID string,
	req UpdateRoleRequest,
) (*Role, error) {
	ro, err := s.getOwned(ctx, orgID, roleID)
	if err != nil {
		return nil, err
	}

	ro.Name = req.Name
	if err := s.repo.Update(ctx, ro); err != nil {
		return nil, err
	}

	return ro, nil
}

func (s *Service) Delete(ctx context.Context, orgID, roleID string) error {
	if _, err := s.getOwned(ctx, orgID, roleID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, roleID); err != nil {
		return err
	}

	s.invalidateOrganization(ctx, orgID)
	return nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]Role, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) GrantFeature(
	ctx context.Context,
	orgID, roleID string,
	req GrantFeatureRequest,
) error {
	if _, err := s.getOwned(ctx, orgID, roleID); err != nil {
		return err
	}

	if err := s.repo.GrantFeature(ctx, s.db, roleID, req.FeatureSlug); err != nil {
		return err
	}

	s.invalidateOrganization(ctx, orgID)
	return nil
}

func (s *Service) RevokeFeature(
	ctx context.Context,
	orgID, roleID, slug string,
) error {
	if _, err := s.getOwned(ctx, orgID, roleID); err != nil {
		return err
	}

	if err := s.repo.RevokeFeature(ctx, roleID, slug); err != nil {
		return err
	}

	s.invalidateOrganization(ctx, orgID)
	return nil
}

func (s *Service) Assign(
	ctx context.Context,
	orgID, roleID string,
	req AssignRoleRequest,
) error {
	if _, err := s.getOwned(ctx, orgID, roleID); err != nil {
		return err
	}

	if err := s.repo.Assign(ctx, req.UserID, roleID); err != nil {
		return err
	}

	s.invalidateUser(ctx, req.UserID, orgID)
	return nil
}

func (s *Service) Unassign(ctx context.Context, orgID, roleID, userID string) error {
	if _, err := s.getOwned(ctx, orgID, roleID); err != nil {
		return err
	}

	if err := s.repo.Unassign(ctx, userID, roleID); err != nil {
		return err
	}

	s.invalidateUser(ctx, userID, orgID)
	return nil
}

func (s *Service) getOwned(ctx context.Context, orgID, roleID string) (*Role, error) {
	ro, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if ro.OrganizationID != orgID {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}

	return ro, nil
}

func (s *Service) invalidateUser(ctx context.Context, userID, orgID string) {
	if err := s.invalidator.Invalidate(ctx, userID, orgID); err != nil {
		slog.Warn("role cache invalidation failed",
			"error", err,
			"user_id", userID,
			"organization_id", orgID,
		)
	}
}

func (s *Service) invalidateOrganization(ctx context.Context, orgID string) {
	if err := s.invalidator.InvalidateOrganization(ctx, orgID); err != nil {
		slog.Warn("role cache invalidation failed",
			"error", err,
			"organization_id", orgID,
		)
	}
}
