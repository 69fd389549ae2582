// AngelaMos | 2026
// resolver_test.go

package entitlement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/override"
)

type fakeDirectory struct {
	memberships map[string]*Membership
}

func (f *fakeDirectory) Membership(_ context.Context, userID, orgID string) (*Membership, error) {
	m, ok := f.memberships[userID+"/"+orgID]
	if !ok {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	return m, nil
}

type fakePlans struct {
	features map[string]map[string]bool
	limits   map[string]map[string]int64
	owned    map[string]string
}

func (f *fakePlans) PlanFeatures(_ context.Context, planID string) (map[string]bool, error) {
	return f.features[planID], nil
}

func (f *fakePlans) PlanLimits(_ context.Context, planID string) (map[string]int64, error) {
	return f.limits[planID], nil
}

func (f *fakePlans) VerifyPlan(_ context.Context, planID, orgID string) error {
	if f.owned[planID] != orgID {
		return fmt.Errorf("verify plan: %w", core.ErrNotFound)
	}
	return nil
}

type fakeRoles struct {
	grants map[string]map[string]struct{}
}

func (f *fakeRoles) RoleFeatureGrants(_ context.Context, userID, _ string) (map[string]struct{}, error) {
	if g, ok := f.grants[userID]; ok {
		return g, nil
	}
	return map[string]struct{}{}, nil
}

type fakeOverrides struct {
	user []override.Override
	org  []override.Override
}

func (f *fakeOverrides) ActiveUserOverrides(_ context.Context, _, _ string, _ time.Time) ([]override.Override, error) {
	return f.user, nil
}

func (f *fakeOverrides) ActiveOrganizationOverrides(_ context.Context, _ string, _ time.Time) ([]override.Override, error) {
	return f.org, nil
}

type fakeUsage struct {
	counters map[string]int64
	calls    int
}

func (f *fakeUsage) Counters(_ context.Context, _, _ string, slugs []string) (map[string]int64, error) {
	f.calls++
	out := map[string]int64{}
	for _, slug := range slugs {
		if used, ok := f.counters[slug]; ok {
			out[slug] = used
		}
	}
	return out, nil
}

func newTestResolver(usage *fakeUsage) *Resolver {
	planID := "plan-pro"

	directory := &fakeDirectory{memberships: map[string]*Membership{
		"u1/org1": {UserID: "u1", OrganizationID: "org1", PlanID: &planID},
		"u2/org1": {UserID: "u2", OrganizationID: "org1", PlanID: nil},
	}}
	plans := &fakePlans{
		features: map[string]map[string]bool{
			"plan-pro":   {"exports": true, "api-calls": true},
			"plan-trial": {"exports": false},
		},
		limits: map[string]map[string]int64{
			"plan-pro":   {"api-calls": 100},
			"plan-trial": {},
		},
		owned: map[string]string{"plan-pro": "org1", "plan-trial": "org1"},
	}
	roles := &fakeRoles{grants: map[string]map[string]struct{}{
		"u1": {"audit-log": {}},
	}}
	overrides := &fakeOverrides{}

	return NewResolver(NewLoader(directory, plans, roles, overrides, usage))
}

func TestResolverComposesAllSources(t *testing.T) {
	usage := &fakeUsage{counters: map[string]int64{"api-calls": 40}}
	resolver := newTestResolver(usage)

	pm, err := resolver.Resolve(context.Background(), "u1", "org1", nil)
	require.NoError(t, err)

	assert.Equal(t, "u1", pm.UserID)
	assert.Equal(t, "org1", pm.OrganizationID)
	assert.True(t, pm.FeatureEnabled("exports"))
	assert.True(t, pm.FeatureEnabled("audit-log"))
	assert.False(t, pm.Cached)
	assert.WithinDuration(t, time.Now(), pm.ResolvedAt, time.Second)

	limit := pm.Limit("api-calls")
	require.NotNil(t, limit)
	assert.Equal(t, int64(100), limit.Max)
	assert.Equal(t, int64(40), limit.Used)
	assert.Equal(t, int64(60), limit.Remaining)
}

func TestResolverUnknownMembership(t *testing.T) {
	resolver := newTestResolver(&fakeUsage{})

	_, err := resolver.Resolve(context.Background(), "ghost", "org1", nil)

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolverNoPlanIsDefaultDeny(t *testing.T) {
	resolver := newTestResolver(&fakeUsage{})

	pm, err := resolver.Resolve(context.Background(), "u2", "org1", nil)
	require.NoError(t, err)

	assert.False(t, pm.FeatureEnabled("exports"))
	assert.Empty(t, pm.Limits)
}

func TestResolverWhatIfPlanSubstitutes(t *testing.T) {
	resolver := newTestResolver(&fakeUsage{})
	trialID := "plan-trial"

	pm, err := resolver.Resolve(context.Background(), "u1", "org1", &trialID)
	require.NoError(t, err)

	assert.False(t, pm.FeatureEnabled("exports"), "trial plan disables exports")
	assert.True(t, pm.FeatureEnabled("audit-log"), "role grants still apply")
	assert.Nil(t, pm.Limit("api-calls"), "trial plan has no limits")
}

func TestResolverWhatIfRejectsForeignPlan(t *testing.T) {
	resolver := newTestResolver(&fakeUsage{})
	foreign := "plan-other-org"

	_, err := resolver.Resolve(context.Background(), "u1", "org1", &foreign)

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolverSkipsUsageWhenNothingIsLimited(t *testing.T) {
	usage := &fakeUsage{}
	resolver := newTestResolver(usage)

	_, err := resolver.Resolve(context.Background(), "u2", "org1", nil)
	require.NoError(t, err)

	assert.Zero(t, usage.calls, "no limited slugs, no usage query")
}
