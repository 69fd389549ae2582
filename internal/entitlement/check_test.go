// AngelaMos | 2026
// check_test.go

package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDisabledFeature(t *testing.T) {
	pm := &PermissionMap{
		Features: map[string]bool{"exports": false},
		Limits:   map[string]LimitInfo{},
	}

	result := Check(pm, "exports")

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonFeatureDisabled, result.Reason)
}

func TestCheckUnknownFeatureIsDenied(t *testing.T) {
	pm := &PermissionMap{
		Features: map[string]bool{},
		Limits:   map[string]LimitInfo{},
	}

	result := Check(pm, "never-configured")

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonFeatureDisabled, result.Reason)
}

func TestCheckEnabledUnlimited(t *testing.T) {
	pm := &PermissionMap{
		Features: map[string]bool{"exports": true},
		Limits:   map[string]LimitInfo{},
	}

	result := Check(pm, "exports")

	assert.True(t, result.Allowed)
	assert.Equal(t, ReasonOK, result.Reason)
	assert.Nil(t, result.Limit)
}

func TestCheckEnabledWithHeadroom(t *testing.T) {
	pm := &PermissionMap{
		Features: map[string]bool{"api-calls": true},
		Limits: map[string]LimitInfo{
			"api-calls": {Max: 100, Used: 40, Remaining: 60},
		},
	}

	result := Check(pm, "api-calls")

	assert.True(t, result.Allowed)
	require.NotNil(t, result.Limit)
	assert.Equal(t, int64(60), result.Limit.Remaining)
}

func TestCheckEnabledButExhausted(t *testing.T) {
	pm := &PermissionMap{
		Features: map[string]bool{"api-calls": true},
		Limits: map[string]LimitInfo{
			"api-calls": {Max: 100, Used: 100, Remaining: 0, Exceeded: true},
		},
	}

	result := Check(pm, "api-calls")

	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	require.NotNil(t, result.Limit)
}
