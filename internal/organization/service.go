// AngelaMos | 2026
// service.go

package organization

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/angelamos/entitled/internal/core"
)

// Invalidator drops cached permission maps. A plan assignment reshapes
// every member's entitlements; a membership change touches one user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID, orgID string) error
	InvalidateOrganization(ctx context.Context, orgID string) error
}

// PlanVerifier checks that a plan belongs to an organization. A plan from
// another tenant reads as not found.
type PlanVerifier interface {
	VerifyPlan(ctx context.Context, planID, orgID string) error
}

type Service struct {
	repo        Repository
	db          *sqlx.DB
	plans       PlanVerifier
	invalidator Invalidator
}

func NewService(
	repo Repository,
	db *sqlx.DB,
	plans PlanVerifier,
	invalidator Invalidator,
) *Service {
	return &Service{repo: repo, db: db, plans: plans, invalidator: invalidator}
}

// Create inserts the organization and enrolls the creator as its first
// member in one transaction.
func (s *Service) Create(
	ctx context.Context,
	creatorID string,
	req CreateOrganizationRequest,
) (*Organization, error) {
	o := &Organization{
		ID:   uuid.New().String(),
		Name: req.Name,
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, o); err != nil {
			return err
		}
		return s.repo.AddMember(ctx, tx, o.ID, creatorID)
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) Get(ctx context.Context, orgID string) (*Organization, error) {
	return s.repo.GetByID(ctx, orgID)
}

func (s *Service) Update(
	ctx context.Context,
	orgID string,
	req UpdateOrganizationRequest,
) (*Organization, error) {
	o, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	o.Name = req.Name
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) Delete(ctx context.Context, orgID string) error {
	if err := s.repo.Delete(ctx, orgID); err != nil {
		return err
	}

	s.invalidateOrganization(ctx, orgID)
	return nil
}

// AssignPlan switches the organization's plan, or clears it when planID is
// nil. The plan must belong to the organization; every member's cached map
// is dropped before the call returns.
func (s *Service) AssignPlan(
	ctx context.Context,
	orgID string,
	req AssignPlanRequest,
) error {
	if req.PlanID != nil {
		if err := s.plans.VerifyPlan(ctx, *req.PlanID, orgID); err != nil {
			return err
		}
	}

	if err := s.repo.AssignPlan(ctx, orgID, req.PlanID); err != nil {
		return err
	}

	s.invalidateOrganization(ctx, orgID)
	return nil
}

func (s *Service) AddMember(
	ctx context.Context,
	orgID string,
	req AddMemberRequest,
) error {
	if _, err := s.repo.GetByID(ctx, orgID); err != nil {
		return err
	}

	if err := s.repo.AddMember(ctx, s.db, orgID, req.UserID); err != nil {
		return err
	}

	s.invalidateUser(ctx, req.UserID, orgID)
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	if err := s.repo.RemoveMember(ctx, orgID, userID); err != nil {
		return err
	}

	s.invalidateUser(ctx, userID, orgID)
	return nil
}

func (s *Service) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, orgID)
}

func (s *Service) invalidateUser(ctx context.Context, userID, orgID string) {
	if err := s.invalidator.Invalidate(ctx, userID, orgID); err != nil {
		slog.Warn("organization cache invalidation failed",
			"error", err,
			"user_id", userID,
			"organization_id", orgID,
		)
	}
}

func (s *Service) invalidateOrganization(ctx context.Context, orgID string) {
	if err := s.invalidator.InvalidateOrganization(ctx, orgID); err != nil {
		slog.Warn("organization cache invalidation failed",
			"error", err,
			"organization_id", orgID,
		)
	}
}
