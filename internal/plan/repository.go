// AngelaMos | 2026
// repository.go

package plan

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
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, orgID string) ([]Plan, error)

	SetFeature(ctx context.Context, planID, slug string, enabled bool) error
	RemoveFeature(ctx context.Context, planID, slug string) error
	SetLimit(ctx context.Context, planID, slug string, maxValue int64) error
	RemoveLimit(ctx context.Context, planID, slug string) error
	ListFeatures(ctx context.Context, planID string) ([]PlanFeature, error)
	ListLimits(ctx context.Context, planID string) ([]PlanLimit, error)

	// PlanFeatures, PlanLimits and VerifyPlan satisfy the resolution
	// loader's plan source.
	PlanFeatures(ctx context.Context, planID string) (map[string]bool, error)
	PlanLimits(ctx context.Context, planID string) (map[string]int64, error)
	VerifyPlan(ctx context.Context, planID, orgID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO plans (id, organization_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, p, query, p.ID, p.OrganizationID, p.Name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create plan: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create plan: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Plan, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM plans
		WHERE id = $1`

	var p Plan
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Plan) error {
	query := `
		UPDATE plans
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query, p.ID, p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM plans WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete plan: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByOrganization(
	ctx context.Context,
	orgID string,
) ([]Plan, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM plans
		WHERE organization_id = $1
		ORDER BY name`

	var plans []Plan
	if err := r.db.SelectContext(ctx, &plans, query, orgID); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

// SetFeature pulls organization_id from the plan row so the catalog
// reference stays within the plan's tenant. A slug missing from that
// tenant's catalog trips the foreign key and reads as not found.
func (r *repository) SetFeature(
	ctx context.Context,
	planID, slug string,
	enabled bool,
) error {
	query := `
		INSERT INTO plan_features (plan_id, organization_id, feature_slug, enabled)
		SELECT p.id, p.organization_id, $2, $3
		FROM plans p
		WHERE p.id = $1
		ON CONFLICT (plan_id, feature_slug)
		DO UPDATE SET enabled = EXCLUDED.enabled`

	if _, err := r.db.ExecContext(ctx, query, planID, slug, enabled); err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("set plan feature: %w", core.ErrNotFound)
		}
		return fmt.Errorf("set plan feature: %w", err)
	}

	return nil
}

func (r *repository) RemoveFeature(ctx context.Context, planID, slug string) error {
	query := `
		DELETE FROM plan_features
		WHERE plan_id = $1 AND feature_slug = $2`

	if _, err := r.db.ExecContext(ctx, query, planID, slug); err != nil {
		return fmt.Errorf("remove plan feature: %w", err)
	}

	return nil
}

func (r *repository) SetLimit(
	ctx context.Context,
	planID, slug string,
	maxValue int64,
) error {
	query := `
		INSERT INTO plan_limits (plan_id, organization_id, feature_slug, max_value)
		SELECT p.id, p.organization_id, $2, $3
		FROM plans p
		WHERE p.id = $1
		ON CONFLICT (plan_id, feature_slug)
		DO UPDATE SET max_value = EXCLUDED.max_value`

	if _, err := r.db.ExecContext(ctx, query, planID, slug, maxValue); err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("set plan limit: %w", core.ErrNotFound)
		}
		return fmt.Errorf("set plan limit: %w", err)
	}

	return nil
}

func (r *repository) RemoveLimit(ctx context.Context, planID, slug string) error {
	query := `
		DELETE FROM plan_limits
		WHERE plan_id = $1 AND feature_slug = $2`

	if _, err := r.db.ExecContext(ctx, query, planID, slug); err != nil {
		return fmt.Errorf("remove plan limit: %w", err)
	}

	return nil
}

func (r *repository) ListFeatures(
	ctx context.Context,
	planID string,
) ([]PlanFeature, error) {
	query := `
		SELECT plan_id, feature_slug, enabled
		FROM plan_features
		WHERE plan_id = $1
		ORDER BY feature_slug`

	var features []PlanFeature
	if err := r.db.SelectContext(ctx, &features, query, planID); err != nil {
		return nil, fmt.Errorf("list plan features: %w", err)
	}

	return features, nil
}

func (r *repository) ListLimits(
	ctx context.Context,
	planID string,
) ([]PlanLimit, error) {
	query := `
		SELECT plan_id, feature_slug, max_value
		FROM plan_limits
		WHERE plan_id = $1
		ORDER BY feature_slug`

	var limits []PlanLimit
	if err := r.db.SelectContext(ctx, &limits, query, planID); err != nil {
		return nil, fmt.Errorf("list plan limits: %w", err)
	}

	return limits, nil
}

func (r *repository) PlanFeatures(
	ctx context.Context,
	planID string,
) (map[string]bool, error) {
	rows, err := r.ListFeatures(ctx, planID)
	if err != nil {
		return nil, err
	}

	features := make(map[string]bool, len(rows))
	for _, row := range rows {
		features[row.FeatureSlug] = row.Enabled
	}

	return features, nil
}

func (r *repository) PlanLimits(
	ctx context.Context,
	planID string,
) (map[string]int64, error) {
	rows, err := r.ListLimits(ctx, planID)
	if err != nil {
		return nil, err
	}

	limits := make(map[string]int64, len(rows))
	for _, row := range rows {
		limits[row.FeatureSlug] = row.MaxValue
	}

	return limits, nil
}

func (r *repository) VerifyPlan(ctx context.Context, planID, orgID string) error {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM plans
			WHERE id = $1 AND organization_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, planID, orgID); err != nil {
		return fmt.Errorf("verify plan: %w", err)
	}
	if !exists {
		return fmt.Errorf("verify plan: %w", core.ErrNotFound)
	}

	return nil
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
