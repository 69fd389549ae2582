// AngelaMos | 2026
// repository.go

package feature

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
	Create(ctx context.Context, f *Feature) error
	GetBySlug(ctx context.Context, orgID, slug string) (*Feature, error)
	Update(ctx context.Context, f *Feature) error
	Delete(ctx context.Context, orgID, slug string) error
	List(ctx context.Context, orgID string) ([]Feature, error)
	ExistsBySlug(ctx context.Context, orgID, slug string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *Feature) error {
	query := `
		INSERT INTO features (id, organization_id, slug, name, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, f, query,
		f.ID, f.OrganizationID, f.Slug, f.Name, f.Description)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create feature: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create feature: %w", err)
	}

	return nil
}

func (r *repository) GetBySlug(
	ctx context.Context,
	orgID, slug string,
) (*Feature, error) {
	query := `
		SELECT id, organization_id, slug, name, description, created_at, updated_at
		FROM features
		WHERE organization_id = $1 AND slug = $2`

	var f Feature
	err := r.db.GetContext(ctx, &f, query, orgID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get feature: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}

	return &f, nil
}

func (r *repository) Update(ctx context.Context, f *Feature) error {
	query := `
		UPDATE features
		SET name = $3, description = $4, updated_at = NOW()
		WHERE organization_id = $1 AND slug = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &f.UpdatedAt, query,
		f.OrganizationID, f.Slug, f.Name, f.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update feature: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update feature: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, orgID, slug string) error {
	query := `DELETE FROM features WHERE organization_id = $1 AND slug = $2`

	result, err := r.db.ExecContext(ctx, query, orgID, slug)
	if err != nil {
		return fmt.Errorf("delete feature: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete feature: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete feature: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, orgID string) ([]Feature, error) {
	query := `
		SELECT id, organization_id, slug, name, description, created_at, updated_at
		FROM features
		WHERE organization_id = $1
		ORDER BY slug`

	var features []Feature
	if err := r.db.SelectContext(ctx, &features, query, orgID); err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}

	return features, nil
}

func (r *repository) ExistsBySlug(
	ctx context.Context,
	orgID, slug string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM features WHERE organization_id = $1 AND slug = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, orgID, slug); err != nil {
		return false, fmt.Errorf("feature exists: %w", err)
	}

	return exists, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
