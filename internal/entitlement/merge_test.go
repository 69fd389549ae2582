// AngelaMos | 2026
// merge_test.go

package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/angelamos/entitled/internal/override"
)

func userOverride(slug string, effect override.Effect, createdAt time.Time, expiresAt *time.Time) override.Override {
	userID := "u1"
	return override.Override{
		ID:             "ov-" + slug,
		OrganizationID: "org1",
		UserID:         &userID,
		FeatureSlug:    slug,
		Effect:         effect,
		ExpiresAt:      expiresAt,
		CreatedAt:      createdAt,
	}
}

func orgOverride(slug string, effect override.Effect, createdAt time.Time, expiresAt *time.Time) override.Override {
	return override.Override{
		ID:             "ov-org-" + slug,
		OrganizationID: "org1",
		FeatureSlug:    slug,
		Effect:         effect,
		ExpiresAt:      expiresAt,
		CreatedAt:      createdAt,
	}
}

func TestMergeFeaturesPlanOnly(t *testing.T) {
	now := time.Now()

	features := MergeFeatures(
		map[string]bool{"exports": true, "sso": false},
		nil, nil, nil,
		now,
	)

	assert.True(t, features["exports"])
	assert.False(t, features["sso"])
}

func TestMergeFeaturesUnknownSlugDefaultsToDeny(t *testing.T) {
	features := MergeFeatures(map[string]bool{"exports": true}, nil, nil, nil, time.Now())

	assert.False(t, features["never-mentioned"])
}

func TestMergeFeaturesRoleGrantsAreAdditiveOnly(t *testing.T) {
	now := time.Now()

	features := MergeFeatures(
		map[string]bool{"exports": false, "sso": true},
		map[string]struct{}{"exports": {}, "api-access": {}},
		nil, nil,
		now,
	)

	assert.True(t, features["exports"], "role grant enables a plan-disabled feature")
	assert.True(t, features["api-access"], "role grant enables a feature the plan omits")
	assert.True(t, features["sso"], "roles never disable")
}

func TestMergeFeaturesOrgOverrideBeatsRoleAndPlan(t *testing.T) {
	now := time.Now()

	features := MergeFeatures(
		map[string]bool{"exports": true},
		map[string]struct{}{"exports": {}},
		[]override.Override{
			orgOverride("exports", override.FeatureDisable(), now.Add(-time.Hour), nil),
		},
		nil,
		now,
	)

	assert.False(t, features["exports"])
}

func TestMergeFeaturesUserOverrideBeatsOrgOverride(t *testing.T) {
	now := time.Now()

	features := MergeFeatures(
		map[string]bool{"exports": false},
		nil,
		[]override.Override{
			orgOverride("exports", override.FeatureDisable(), now.Add(-2*time.Hour), nil),
		},
		[]override.Override{
			userOverride("exports", override.FeatureEnable(), now.Add(-time.Hour), nil),
		},
		now,
	)

	assert.True(t, features["exports"])
}

func TestMergeFeaturesExpiredOverrideIsInert(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Minute)

	features := MergeFeatures(
		map[string]bool{"exports": false},
		nil,
		nil,
		[]override.Override{
			userOverride("exports", override.FeatureEnable(), now.Add(-time.Hour), &expired),
		},
		now,
	)

	assert.False(t, features["exports"], "expired override must not apply")
}

func TestMergeFeaturesFutureExpiryStillApplies(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)

	features := MergeFeatures(
		map[string]bool{},
		nil,
		nil,
		[]override.Override{
			userOverride("exports", override.FeatureEnable(), now.Add(-time.Hour), &future),
		},
		now,
	)

	assert.True(t, features["exports"])
}

func TestMergeFeaturesDuplicateOverridesMostRecentWins(t *testing.T) {
	now := time.Now()

	// Same slug, same level, contradictory effects. The later-created one
	// must land regardless of input order.
	older := userOverride("exports", override.FeatureEnable(), now.Add(-2*time.Hour), nil)
	newer := userOverride("exports", override.FeatureDisable(), now.Add(-time.Hour), nil)

	features := MergeFeatures(
		map[string]bool{},
		nil,
		nil,
		[]override.Override{newer, older},
		now,
	)

	assert.False(t, features["exports"])
}

func TestMergeLimitsReplacementNotAddition(t *testing.T) {
	now := time.Now()

	// Plan 100, org override 300, user override 500. The effective max is
	// 500, not any sum.
	limits := MergeLimits(
		map[string]int64{"api-calls": 100},
		[]override.Override{
			orgOverride("api-calls", override.LimitIncrease(300), now.Add(-2*time.Hour), nil),
		},
		[]override.Override{
			userOverride("api-calls", override.LimitIncrease(500), now.Add(-time.Hour), nil),
		},
		now,
	)

	assert.Equal(t, int64(500), limits["api-calls"])
}

func TestMergeLimitsOrgOverrideReplacesPlan(t *testing.T) {
	now := time.Now()

	limits := MergeLimits(
		map[string]int64{"api-calls": 100},
		[]override.Override{
			orgOverride("api-calls", override.LimitIncrease(300), now.Add(-time.Hour), nil),
		},
		nil,
		now,
	)

	assert.Equal(t, int64(300), limits["api-calls"])
}

func TestMergeLimitsExpiredLimitOverrideIgnored(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Second)

	limits := MergeLimits(
		map[string]int64{"api-calls": 100},
		nil,
		[]override.Override{
			userOverride("api-calls", override.LimitIncrease(500), now.Add(-time.Hour), &expired),
		},
		now,
	)

	assert.Equal(t, int64(100), limits["api-calls"])
}

func TestMergeLimitsAbsentSlugIsUnlimited(t *testing.T) {
	limits := MergeLimits(map[string]int64{}, nil, nil, time.Now())

	_, ok := limits["anything"]
	assert.False(t, ok)
}

func TestMergeLimitsOverrideOnUnlimitedSlugCreatesLimit(t *testing.T) {
	now := time.Now()

	limits := MergeLimits(
		map[string]int64{},
		nil,
		[]override.Override{
			userOverride("api-calls", override.LimitIncrease(50), now.Add(-time.Hour), nil),
		},
		now,
	)

	assert.Equal(t, int64(50), limits["api-calls"])
}

// Mirrors a full layered scenario: plan baseline, a role grant, an org
// disable and a user enable on the same slug, a limit ladder, and an
// expired override thrown in as noise.
func TestMergeFullScenario(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)

	planFeatures := map[string]bool{
		"exports":   true,
		"sso":       false,
		"api-calls": true,
	}
	planLimits := map[string]int64{"api-calls": 100}
	roleGrants := map[string]struct{}{"audit-log": {}}

	orgOv := []override.Override{
		orgOverride("exports", override.FeatureDisable(), now.Add(-3*time.Hour), nil),
		orgOverride("api-calls", override.LimitIncrease(300), now.Add(-3*time.Hour), nil),
	}
	userOv := []override.Override{
		userOverride("exports", override.FeatureEnable(), now.Add(-time.Hour), nil),
		userOverride("api-calls", override.LimitIncrease(500), now.Add(-time.Hour), nil),
		userOverride("sso", override.FeatureEnable(), now.Add(-2*time.Hour), &expired),
	}

	features := MergeFeatures(planFeatures, roleGrants, orgOv, userOv, now)
	limits := MergeLimits(planLimits, orgOv, userOv, now)

	assert.True(t, features["exports"], "user enable beats org disable")
	assert.False(t, features["sso"], "expired user enable is inert")
	assert.True(t, features["audit-log"], "role grant")
	assert.True(t, features["api-calls"])
	assert.Equal(t, int64(500), limits["api-calls"])
}
