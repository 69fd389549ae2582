// AngelaMos | 2026
// repository.go

package override

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angelamos/entitled/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Override) error
	GetByID(ctx context.Context, id string) (*Override, error)
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, orgID string) ([]Override, error)

	// ActiveUserOverrides and ActiveOrganizationOverrides satisfy the
	// resolution loader's override source. Expiry is checked against the
	// caller's clock so the query and the merge agree on "now".
	ActiveUserOverrides(ctx context.Context, orgID, userID string, now time.Time) ([]Override, error)
	ActiveOrganizationOverrides(ctx context.Context, orgID string, now time.Time) ([]Override, error)

	// DeleteExpiredBefore is storage hygiene only. Expired overrides are
	// already inert at resolution time; this trims the table.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Override) error {
	query := `
		INSERT INTO overrides
			(id, organization_id, user_id, feature_slug, kind, value,
			 expires_at, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	var stamps struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &stamps, query,
		o.ID,
		o.OrganizationID,
		o.UserID,
		o.FeatureSlug,
		string(o.Effect.Kind()),
		o.Effect.value(),
		o.ExpiresAt,
		o.Reason,
		o.CreatedBy,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create override: %w", core.ErrDuplicateKey)
		}
		// The slug reference is tenant-scoped, so a slug outside the
		// organization's catalog trips the foreign key.
		if isForeignKeyError(err) {
			return fmt.Errorf("create override: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create override: %w", err)
	}

	o.CreatedAt = stamps.CreatedAt
	o.UpdatedAt = stamps.UpdatedAt
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Override, error) {
	query := `
		SELECT id, organization_id, user_id, feature_slug, kind, value,
		       expires_at, reason, created_by, created_at, updated_at
		FROM overrides
		WHERE id = $1`

	var ro row
	err := r.db.GetContext(ctx, &ro, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get override: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}

	o, err := ro.toOverride()
	if err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM overrides WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete override: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByOrganization(
	ctx context.Context,
	orgID string,
) ([]Override, error) {
	query := `
		SELECT id, organization_id, user_id, feature_slug, kind, value,
		       expires_at, reason, created_by, created_at, updated_at
		FROM overrides
		WHERE organization_id = $1
		ORDER BY created_at`

	return r.selectOverrides(ctx, query, orgID)
}

func (r *repository) ActiveUserOverrides(
	ctx context.Context,
	orgID, userID string,
	now time.Time,
) ([]Override, error) {
	query := `
		SELECT id, organization_id, user_id, feature_slug, kind, value,
		       expires_at, reason, created_by, created_at, updated_at
		FROM overrides
		WHERE organization_id = $1 AND user_id = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at`

	return r.selectOverrides(ctx, query, orgID, userID, now)
}

func (r *repository) ActiveOrganizationOverrides(
	ctx context.Context,
	orgID string,
	now time.Time,
) ([]Override, error) {
	query := `
		SELECT id, organization_id, user_id, feature_slug, kind, value,
		       expires_at, reason, created_by, created_at, updated_at
		FROM overrides
		WHERE organization_id = $1 AND user_id IS NULL
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at`

	return r.selectOverrides(ctx, query, orgID, now)
}

func (r *repository) DeleteExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := `
		DELETE FROM overrides
		WHERE expires_at IS NOT NULL AND expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired overrides: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired overrides: %w", err)
	}

	return rows, nil
}

func (r *repository) selectOverrides(
	ctx context.Context,
	query string,
	args ...any,
) ([]Override, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	overrides := make([]Override, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toOverride()
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}

	return overrides, nil
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
