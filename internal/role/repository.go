// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angelamos/entitled/internal/core"
)

type Repository interface {
	Create(ctx context.Context, db core.DBTX, r *Role) error
	GetByID(ctx context.Context, id string) (*Role, error)
	Update(ctx context.Context, ro *Role) error
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, orgID string) ([]Role, error)

	GrantFeature(ctx context.Context, db core.DBTX, roleID, slug string) error
	RevokeFeature(ctx context.Context, roleID, slug string) error
	ListFeatures(ctx context.Context, roleID string) ([]string, error)

	Assign(ctx context.Context, userID, roleID string) error
	Unassign(ctx context.Context, userID, roleID string) error
	ListAssignees(ctx context.Context, roleID string) ([]string, error)

	// RoleFeatureGrants satisfies the resolution loader's role source: the
	// union of slugs granted by every role the user holds in the
	// organization.
	RoleFeatureGrants(ctx context.Context, userID, orgID string) (map[string]struct{}, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create and GrantFeature take an explicit executor so role creation with
// initial grants runs in one transaction.
func (r *repository) Create(ctx context.Context, db core.DBTX, ro *Role) error {
	query := `
		INSERT INTO roles (id, organization_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := db.GetContext(ctx, ro, query, ro.ID, ro.OrganizationID, ro.Name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create role: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Role, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM roles
		WHERE id = $1`

	var ro Role
	err := r.db.GetContext(ctx, &ro, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &ro, nil
}

func (r *repository) Update(ctx context.Context, ro *Role) error {
	query := `
		UPDATE roles
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &ro.UpdatedAt, query, ro.ID, ro.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM roles WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByOrganization(
	ctx context.Context,
	orgID string,
) ([]Role, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM roles
		WHERE organization_id = $1
		ORDER BY name`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query, orgID); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

// GrantFeature pulls organization_id from the role row so the catalog
// reference stays within the role's tenant. A slug missing from that
// tenant's catalog trips the foreign key and reads as not found.
func (r *repository) GrantFeature(
	ctx context.Context,
	db core.DBTX,
	roleID, slug string,
) error {
	query := `
		INSERT INTO role_features (role_id, organization_id, feature_slug)
		SELECT ro.id, ro.organization_id, $2
		FROM roles ro
		WHERE ro.id = $1
		ON CONFLICT (role_id, feature_slug) DO NOTHING`

	if _, err := db.ExecContext(ctx, query, roleID, slug); err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("grant role feature: %w", core.ErrNotFound)
		}
		return fmt.Errorf("grant role feature: %w", err)
	}

	return nil
}

func (r *repository) RevokeFeature(ctx context.Context, roleID, slug string) error {
	query := `
		DELETE FROM role_features
		WHERE role_id = $1 AND feature_slug = $2`

	if _, err := r.db.ExecContext(ctx, query, roleID, slug); err != nil {
		return fmt.Errorf("revoke role feature: %w", err)
	}

	return nil
}

func (r *repository) ListFeatures(
	ctx context.Context,
	roleID string,
) ([]string, error) {
	query := `
		SELECT feature_slug
		FROM role_features
		WHERE role_id = $1
		ORDER BY feature_slug`

	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs, query, roleID); err != nil {
		return nil, fmt.Errorf("list role features: %w", err)
	}

	return slugs, nil
}

func (r *repository) Assign(ctx context.Context, userID, roleID string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

func (r *repository) Unassign(ctx context.Context, userID, roleID string) error {
	query := `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}

	return nil
}

func (r *repository) ListAssignees(
	ctx context.Context,
	roleID string,
) ([]string, error) {
	query := `
		SELECT user_id
		FROM user_roles
		WHERE role_id = $1`

	var userIDs []string
	if err := r.db.SelectContext(ctx, &userIDs, query, roleID); err != nil {
		return nil, fmt.Errorf("list role assignees: %w", err)
	}

	return userIDs, nil
}

func (r *repository) RoleFeatureGrants(
	ctx context.Context,
	userID, orgID string,
) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT rf.feature_slug
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		JOIN role_features rf ON rf.role_id = ur.role_id
		WHERE ur.user_id = $1 AND ro.organization_id = $2`

	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs, query, userID, orgID); err != nil {
		return nil, fmt.Errorf("load role grants: %w", err)
	}

	grants := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		grants[slug] = struct{}{}
	}

	return grants, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "foreign key")
}
