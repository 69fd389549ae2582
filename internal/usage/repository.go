// AngelaMos | 2026
// repository.go

package usage

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
	// Increment applies an unconditional upsert-increment. A first write for
	// the key creates the row; concurrent writers serialize on the primary
	// key so no increment is lost.
	Increment(ctx context.Context, userID, orgID, slug string, n int64) (*Counter, error)

	// IncrementWithin applies the increment only while it keeps the counter
	// at or under max, in the same statement that reads it. Returns
	// core.ErrLimitExceeded when the increment would cross max.
	IncrementWithin(ctx context.Context, userID, orgID, slug string, n, max int64) (*Counter, error)

	Get(ctx context.Context, userID, orgID, slug string) (*Counter, error)
	ListForUser(ctx context.Context, userID, orgID string) ([]Counter, error)
	Reset(ctx context.Context, userID, orgID, slug string) error

	// Counters satisfies the resolution loader's usage source.
	Counters(ctx context.Context, userID, orgID string, slugs []string) (map[string]int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Increment(
	ctx context.Context,
	userID, orgID, slug string,
	n int64,
) (*Counter, error) {
	query := `
		INSERT INTO usage_counters (user_id, organization_id, feature_slug, used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, organization_id, feature_slug)
		DO UPDATE SET used = usage_counters.used + EXCLUDED.used,
		              updated_at = NOW()
		RETURNING user_id, organization_id, feature_slug, used, updated_at`

	var counter Counter
	err := r.db.GetContext(ctx, &counter, query, userID, orgID, slug, n)
	if err != nil {
		// The slug reference is tenant-scoped; an unknown slug trips the
		// foreign key.
		if isForeignKeyError(err) {
			return nil, fmt.Errorf("increment usage: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	return &counter, nil
}

func (r *repository) IncrementWithin(
	ctx context.Context,
	userID, orgID, slug string,
	n, max int64,
) (*Counter, error) {
	if n > max {
		return nil, fmt.Errorf("increment usage within limit: %w", core.ErrLimitExceeded)
	}

	// The WHERE on the conflict arm makes the check and the increment one
	// atomic statement. Zero rows back means the guard rejected it.
	query := `
		INSERT INTO usage_counters (user_id, organization_id, feature_slug, used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, organization_id, feature_slug)
		DO UPDATE SET used = usage_counters.used + EXCLUDED.used,
		              updated_at = NOW()
		WHERE usage_counters.used + EXCLUDED.used <= $5
		RETURNING user_id, organization_id, feature_slug, used, updated_at`

	var counter Counter
	err := r.db.GetContext(ctx, &counter, query, userID, orgID, slug, n, max)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("increment usage within limit: %w", core.ErrLimitExceeded)
	}
	if err != nil {
		if isForeignKeyError(err) {
			return nil, fmt.Errorf("increment usage within limit: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("increment usage within limit: %w", err)
	}

	return &counter, nil
}

func (r *repository) Get(
	ctx context.Context,
	userID, orgID, slug string,
) (*Counter, error) {
	query := `
		SELECT user_id, organization_id, feature_slug, used, updated_at
		FROM usage_counters
		WHERE user_id = $1 AND organization_id = $2 AND feature_slug = $3`

	var counter Counter
	err := r.db.GetContext(ctx, &counter, query, userID, orgID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		// A counter that was never written reads as zero.
		return &Counter{
			UserID:         userID,
			OrganizationID: orgID,
			FeatureSlug:    slug,
			Used:           0,
			UpdatedAt:      time.Time{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}

	return &counter, nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID, orgID string,
) ([]Counter, error) {
	query := `
		SELECT user_id, organization_id, feature_slug, used, updated_at
		FROM usage_counters
		WHERE user_id = $1 AND organization_id = $2
		ORDER BY feature_slug`

	var counters []Counter
	err := r.db.SelectContext(ctx, &counters, query, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}

	return counters, nil
}

func (r *repository) Reset(
	ctx context.Context,
	userID, orgID, slug string,
) error {
	query := `
		DELETE FROM usage_counters
		WHERE user_id = $1 AND organization_id = $2 AND feature_slug = $3`

	if _, err := r.db.ExecContext(ctx, query, userID, orgID, slug); err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}

	return nil
}

func (r *repository) Counters(
	ctx context.Context,
	userID, orgID string,
	slugs []string,
) (map[string]int64, error) {
	if len(slugs) == 0 {
		return map[string]int64{}, nil
	}

	query := `
		SELECT feature_slug, used
		FROM usage_counters
		WHERE user_id = $1 AND organization_id = $2
		  AND feature_slug = ANY($3)`

	rows := []struct {
		FeatureSlug string `db:"feature_slug"`
		Used        int64  `db:"used"`
	}{}
	err := r.db.SelectContext(ctx, &rows, query, userID, orgID, slugs)
	if err != nil {
		return nil, fmt.Errorf("load usage counters: %w", err)
	}

	counters := make(map[string]int64, len(rows))
	for _, row := range rows {
		counters[row.FeatureSlug] = row.Used
	}

	return counters, nil
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "foreign key")
}
