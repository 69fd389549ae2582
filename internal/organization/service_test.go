// AngelaMos | 2026
// service_test.go

package organization

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/entitlement"
)

type assignCall struct {
	orgID  string
	planID *string
}

// stubRepository records plan assignments; the rest of the interface is
// inert.
type stubRepository struct {
	assigns []assignCall
}

func (s *stubRepository) Create(_ context.Context, _ core.DBTX, _ *Organization) error {
	return nil
}

func (s *stubRepository) GetByID(_ context.Context, id string) (*Organization, error) {
	return &Organization{ID: id}, nil
}

func (s *stubRepository) Update(_ context.Context, _ *Organization) error { return nil }

func (s *stubRepository) Delete(_ context.Context, _ string) error { return nil }

func (s *stubRepository) AssignPlan(_ context.Context, orgID string, planID *string) error {
	s.assigns = append(s.assigns, assignCall{orgID: orgID, planID: planID})
	return nil
}

func (s *stubRepository) AddMember(_ context.Context, _ core.DBTX, _, _ string) error {
	return nil
}

func (s *stubRepository) RemoveMember(_ context.Context, _, _ string) error { return nil }

func (s *stubRepository) ListMembers(_ context.Context, _ string) ([]Member, error) {
	return nil, nil
}

func (s *stubRepository) Membership(_ context.Context, _, _ string) (*entitlement.Membership, error) {
	return nil, nil
}

// stubVerifier owns one plan per organization, as the plans table does.
type stubVerifier struct {
	owned map[string]string
}

func (s *stubVerifier) VerifyPlan(_ context.Context, planID, orgID string) error {
	if s.owned[planID] != orgID {
		return fmt.Errorf("verify plan: %w", core.ErrNotFound)
	}
	return nil
}

type stubInvalidator struct {
	users []string
	orgs  []string
}

func (s *stubInvalidator) Invalidate(_ context.Context, userID, _ string) error {
	s.users = append(s.users, userID)
	return nil
}

func (s *stubInvalidator) InvalidateOrganization(_ context.Context, orgID string) error {
	s.orgs = append(s.orgs, orgID)
	return nil
}

func strPtr(s string) *string { return &s }

func TestAssignPlanRejectsForeignPlan(t *testing.T) {
	repo := &stubRepository{}
	verifier := &stubVerifier{owned: map[string]string{"plan-b": "org2"}}
	invalidator := &stubInvalidator{}
	svc := NewService(repo, nil, verifier, invalidator)

	err := svc.AssignPlan(context.Background(), "org1",
		AssignPlanRequest{PlanID: strPtr("plan-b")})

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, repo.assigns, "foreign plan must never reach the update")
	assert.Empty(t, invalidator.orgs)
}

func TestAssignPlanAcceptsOwnedPlan(t *testing.T) {
	repo := &stubRepository{}
	verifier := &stubVerifier{owned: map[string]string{"plan-a": "org1"}}
	invalidator := &stubInvalidator{}
	svc := NewService(repo, nil, verifier, invalidator)

	err := svc.AssignPlan(context.Background(), "org1",
		AssignPlanRequest{PlanID: strPtr("plan-a")})
	require.NoError(t, err)

	require.Len(t, repo.assigns, 1)
	assert.Equal(t, "org1", repo.assigns[0].orgID)
	assert.Equal(t, "plan-a", *repo.assigns[0].planID)
	assert.Equal(t, []string{"org1"}, invalidator.orgs)
}

func TestAssignPlanClearsWithoutVerifying(t *testing.T) {
	repo := &stubRepository{}
	// No plans owned anywhere; clearing must not consult the verifier.
	verifier := &stubVerifier{owned: map[string]string{}}
	invalidator := &stubInvalidator{}
	svc := NewService(repo, nil, verifier, invalidator)

	err := svc.AssignPlan(context.Background(), "org1", AssignPlanRequest{})
	require.NoError(t, err)

	require.Len(t, repo.assigns, 1)
	assert.Nil(t, repo.assigns[0].planID)
	assert.Equal(t, []string{"org1"}, invalidator.orgs)
}
