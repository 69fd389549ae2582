// AngelaMos | 2026
// limit_test.go

package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLimitNilMaxMeansUnlimited(t *testing.T) {
	assert.Nil(t, CalculateLimit(nil, 42))
}

func TestCalculateLimitUnderLimit(t *testing.T) {
	max := int64(100)

	info := CalculateLimit(&max, 30)

	require.NotNil(t, info)
	assert.Equal(t, int64(100), info.Max)
	assert.Equal(t, int64(30), info.Used)
	assert.Equal(t, int64(70), info.Remaining)
	assert.False(t, info.Exceeded)
}

func TestCalculateLimitExactlyAtLimit(t *testing.T) {
	max := int64(100)

	info := CalculateLimit(&max, 100)

	require.NotNil(t, info)
	assert.Equal(t, int64(0), info.Remaining)
	assert.True(t, info.Exceeded, "used == max counts as exceeded")
}

func TestCalculateLimitOverLimitClampsRemaining(t *testing.T) {
	max := int64(100)

	info := CalculateLimit(&max, 150)

	require.NotNil(t, info)
	assert.Equal(t, int64(150), info.Used)
	assert.Equal(t, int64(0), info.Remaining, "remaining never goes negative")
	assert.True(t, info.Exceeded)
}

func TestCalculateLimitZeroMax(t *testing.T) {
	max := int64(0)

	info := CalculateLimit(&max, 0)

	require.NotNil(t, info)
	assert.True(t, info.Exceeded, "a zero limit is always exhausted")
}
