// AngelaMos | 2026
// entity_test.go

package override

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
)

func strPtr(s string) *string { return &s }

func TestParseEffectFeatureKinds(t *testing.T) {
	enable, err := ParseEffect("feature_enable", nil)
	require.NoError(t, err)
	assert.Equal(t, KindFeatureEnable, enable.Kind())
	_, hasLimit := enable.Limit()
	assert.False(t, hasLimit)

	disable, err := ParseEffect("feature_disable", nil)
	require.NoError(t, err)
	assert.Equal(t, KindFeatureDisable, disable.Kind())
}

func TestParseEffectFeatureKindsRejectValue(t *testing.T) {
	_, err := ParseEffect("feature_enable", strPtr("500"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = ParseEffect("feature_disable", strPtr("true"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseEffectLimitIncrease(t *testing.T) {
	effect, err := ParseEffect("limit_increase", strPtr("500"))
	require.NoError(t, err)

	assert.Equal(t, KindLimitIncrease, effect.Kind())
	limit, ok := effect.Limit()
	require.True(t, ok)
	assert.Equal(t, int64(500), limit)
}

func TestParseEffectLimitIncreaseRequiresValue(t *testing.T) {
	_, err := ParseEffect("limit_increase", nil)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseEffectLimitIncreaseRejectsNonNumeric(t *testing.T) {
	_, err := ParseEffect("limit_increase", strPtr("lots"))

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseEffectLimitIncreaseRejectsNegative(t *testing.T) {
	_, err := ParseEffect("limit_increase", strPtr("-1"))

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseEffectUnknownKind(t *testing.T) {
	_, err := ParseEffect("feature_maybe", nil)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestOverrideLevel(t *testing.T) {
	userScoped := Override{UserID: strPtr("u1")}
	orgScoped := Override{}

	assert.Equal(t, LevelUser, userScoped.Level())
	assert.Equal(t, LevelOrganization, orgScoped.Level())
}

func TestOverrideActiveAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	permanent := Override{}
	expired := Override{ExpiresAt: &past}
	live := Override{ExpiresAt: &future}
	boundary := Override{ExpiresAt: &now}

	assert.True(t, permanent.ActiveAt(now))
	assert.False(t, expired.ActiveAt(now))
	assert.True(t, live.ActiveAt(now))
	assert.False(t, boundary.ActiveAt(now), "expiry at exactly now is inactive")
}

func TestRowToOverrideRejectsCorruptValue(t *testing.T) {
	r := row{
		ID:   "ov1",
		Kind: "limit_increase",
	}

	_, err := r.toOverride()

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
