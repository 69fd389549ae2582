// AngelaMos | 2026
// service_test.go

package feature

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/entitled/internal/core"
)

// memRepository keys the catalog by organization and slug, matching the
// schema's tenant-scoped uniqueness.
type memRepository struct {
	features map[string]*Feature
}

func newMemRepository() *memRepository {
	return &memRepository{features: map[string]*Feature{}}
}

func key(orgID, slug string) string {
	return orgID + "/" + slug
}

func (m *memRepository) Create(_ context.Context, f *Feature) error {
	k := key(f.OrganizationID, f.Slug)
	if _, ok := m.features[k]; ok {
		return fmt.Errorf("create feature: %w", core.ErrDuplicateKey)
	}
	m.features[k] = f
	return nil
}

func (m *memRepository) GetBySlug(_ context.Context, orgID, slug string) (*Feature, error) {
	f, ok := m.features[key(orgID, slug)]
	if !ok {
		return nil, fmt.Errorf("get feature: %w", core.ErrNotFound)
	}
	return f, nil
}

func (m *memRepository) Update(_ context.Context, f *Feature) error {
	k := key(f.OrganizationID, f.Slug)
	if _, ok := m.features[k]; !ok {
		return fmt.Errorf("update feature: %w", core.ErrNotFound)
	}
	m.features[k] = f
	return nil
}

func (m *memRepository) Delete(_ context.Context, orgID, slug string) error {
	k := key(orgID, slug)
	if _, ok := m.features[k]; !ok {
		return fmt.Errorf("delete feature: %w", core.ErrNotFound)
	}
	delete(m.features, k)
	return nil
}

func (m *memRepository) List(_ context.Context, orgID string) ([]Feature, error) {
	var out []Feature
	for _, f := range m.features {
		if f.OrganizationID == orgID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memRepository) ExistsBySlug(_ context.Context, orgID, slug string) (bool, error) {
	_, ok := m.features[key(orgID, slug)]
	return ok, nil
}

type spyInvalidator struct {
	orgs []string
}

func (s *spyInvalidator) InvalidateOrganization(_ context.Context, orgID string) error {
	s.orgs = append(s.orgs, orgID)
	return nil
}

func TestCatalogIsScopedPerOrganization(t *testing.T) {
	repo := newMemRepository()
	svc := NewService(repo, &spyInvalidator{})
	ctx := context.Background()

	req := CreateFeatureRequest{Slug: "api-calls", Name: "API Calls"}

	_, err := svc.Create(ctx, "org1", req)
	require.NoError(t, err)

	// Same slug in another organization is a distinct entry, not a conflict.
	_, err = svc.Create(ctx, "org2", req)
	require.NoError(t, err)

	// Within one organization the slug stays unique.
	_, err = svc.Create(ctx, "org1", req)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	f, err := svc.GetBySlug(ctx, "org2", "api-calls")
	require.NoError(t, err)
	assert.Equal(t, "org2", f.OrganizationID)
}

func TestGetDoesNotCrossTenants(t *testing.T) {
	repo := newMemRepository()
	svc := NewService(repo, &spyInvalidator{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "org1", CreateFeatureRequest{Slug: "exports", Name: "Exports"})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, "org2", "exports")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteDropsTenantCache(t *testing.T) {
	repo := newMemRepository()
	invalidator := &spyInvalidator{}
	svc := NewService(repo, invalidator)
	ctx := context.Background()

	_, err := svc.Create(ctx, "org1", CreateFeatureRequest{Slug: "exports", Name: "Exports"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "org1", "exports"))

	assert.Equal(t, []string{"org1"}, invalidator.orgs)

	_, err = svc.GetBySlug(ctx, "org1", "exports")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteMissingFeatureLeavesCacheAlone(t *testing.T) {
	invalidator := &spyInvalidator{}
	svc := NewService(newMemRepository(), invalidator)

	err := svc.Delete(context.Background(), "org1", "ghost")

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, invalidator.orgs)
}

func TestDeleteScopedToOwningOrganization(t *testing.T) {
	repo := newMemRepository()
	invalidator := &spyInvalidator{}
	svc := NewService(repo, invalidator)
	ctx := context.Background()

	_, err := svc.Create(ctx, "org1", CreateFeatureRequest{Slug: "sso", Name: "SSO"})
	require.NoError(t, err)

	// Another tenant cannot delete the entry through its own scope.
	err = svc.Delete(ctx, "org2", "sso")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, invalidator.orgs)

	_, err = svc.GetBySlug(ctx, "org1", "sso")
	assert.NoError(t, err)
}
