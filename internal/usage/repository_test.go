// AngelaMos | 2026
// repository_test.go

package usage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
)

// sliceConverter flattens []string binds for the mock driver. The real
// driver encodes string slices natively for ANY() clauses; the mock only
// accepts flat values.
type sliceConverter struct{}

func (sliceConverter) ConvertValue(v any) (driver.Value, error) {
	if slugs, ok := v.([]string); ok {
		return strings.Join(slugs, ","), nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.ValueConverterOption(sliceConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func counterRows(used int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "organization_id", "feature_slug", "used", "updated_at",
	}).AddRow("u1", "org1", "api-calls", used, time.Now())
}

func TestIncrementUpsertsAndReturnsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WithArgs("u1", "org1", "api-calls", int64(5)).
		WillReturnRows(counterRows(5))

	counter, err := repo.Increment(context.Background(), "u1", "org1", "api-calls", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(5), counter.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementWithinReturnsRowUnderLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WithArgs("u1", "org1", "api-calls", int64(1), int64(100)).
		WillReturnRows(counterRows(43))

	counter, err := repo.IncrementWithin(
		context.Background(),
		"u1", "org1", "api-calls",
		1, 100,
	)
	require.NoError(t, err)

	assert.Equal(t, int64(43), counter.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The guarded upsert returns zero rows when the WHERE clause rejects the
// increment; the repository maps that to ErrLimitExceeded.
func TestIncrementWithinMapsNoRowsToLimitExceeded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WithArgs("u1", "org1", "api-calls", int64(1), int64(100)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.IncrementWithin(
		context.Background(),
		"u1", "org1", "api-calls",
		1, 100,
	)

	assert.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An increment larger than the whole limit is rejected before touching the
// database.
func TestIncrementWithinRejectsOversizedAmountLocally(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	_, err := repo.IncrementWithin(
		context.Background(),
		"u1", "org1", "api-calls",
		101, 100,
	)

	assert.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingCounterReadsAsZero(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT user_id, organization_id, feature_slug`).
		WithArgs("u1", "org1", "api-calls").
		WillReturnError(sql.ErrNoRows)

	counter, err := repo.Get(context.Background(), "u1", "org1", "api-calls")
	require.NoError(t, err)

	assert.Zero(t, counter.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountersSkipsQueryForEmptySlugList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	counters, err := repo.Counters(context.Background(), "u1", "org1", nil)
	require.NoError(t, err)

	assert.Empty(t, counters)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountersMapsRowsBySlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"feature_slug", "used"}).
		AddRow("api-calls", int64(40)).
		AddRow("exports", int64(2))

	mock.ExpectQuery(`SELECT feature_slug, used`).
		WithArgs("u1", "org1", "api-calls,exports").
		WillReturnRows(rows)

	counters, err := repo.Counters(
		context.Background(),
		"u1", "org1",
		[]string{"api-calls", "exports"},
	)
	require.NoError(t, err)

	assert.Equal(t, int64(40), counters["api-calls"])
	assert.Equal(t, int64(2), counters["exports"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
