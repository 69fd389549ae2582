// AngelaMos | 2026
// repository.go

package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/entitlement"
)

type Repository interface {
	Create(ctx context.Context, db core.DBTX, o *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id string) error
	AssignPlan(ctx context.Context, orgID string, planID *string) error

	AddMember(ctx context.Context, db core.DBTX, orgID, userID string) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	ListMembers(ctx context.Context, orgID string) ([]Member, error)

	// Membership satisfies the resolution loader's directory source.
	Membership(ctx context.Context, userID, orgID string) (*entitlement.Membership, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, db core.DBTX, o *Organization) error {
	query := `
		INSERT INTO organizations (id, name, plan_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := db.GetContext(ctx, o, query, o.ID, o.Name, o.PlanID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create organization: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create organization: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := `
		SELECT id, name, plan_id, created_at, updated_at
		FROM organizations
		WHERE id = $1`

	var o Organization
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	return &o, nil
}

func (r *repository) Update(ctx context.Context, o *Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &o.UpdatedAt, query, o.ID, o.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update organization: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM organizations WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete organization: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) AssignPlan(
	ctx context.Context,
	orgID string,
	planID *string,
) error {
	query := `
		UPDATE organizations
		SET plan_id = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, orgID, planID)
	if err != nil {
		return fmt.Errorf("assign plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign plan: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assign plan: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) AddMember(
	ctx context.Context,
	db core.DBTX,
	orgID, userID string,
) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (organization_id, user_id) DO NOTHING`

	if _, err := db.ExecContext(ctx, query, orgID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

func (r *repository) RemoveMember(ctx context.Context, orgID, userID string) error {
	query := `
		DELETE FROM organization_members
		WHERE organization_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove member: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	query := `
		SELECT organization_id, user_id, joined_at
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY joined_at`

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, orgID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (r *repository) Membership(
	ctx context.Context,
	userID, orgID string,
) (*entitlement.Membership, error) {
	query := `
		SELECT m.user_id, m.organization_id, o.plan_id
		FROM organization_members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND m.organization_id = $2`

	var row struct {
		UserID         string  `db:"user_id"`
		OrganizationID string  `db:"organization_id"`
		PlanID         *string `db:"plan_id"`
	}
	err := r.db.GetContext(ctx, &row, query, userID, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return &entitlement.Membership{
		UserID:         row.UserID,
		OrganizationID: row.OrganizationID,
		PlanID:         row.PlanID,
	}, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
