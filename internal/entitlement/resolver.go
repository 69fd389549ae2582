// AngelaMos | 2026
// resolver.go

package entitlement

import (
	"context"
	"time"
)

// Resolver composes the loader, the merge and the limit calculator into one
// uncached resolution. It is the only entry point for callers that must
// bypass the cache, such as what-if checks against a hypothetical plan.
type Resolver struct {
	loader *Loader
}

func NewResolver(loader *Loader) *Resolver {
	return &Resolver{loader: loader}
}

func (r *Resolver) Resolve(
	ctx context.Context,
	userID, orgID string,
	planID *string,
) (*PermissionMap, error) {
	snapshot, err := r.loader.Load(ctx, userID, orgID, planID)
	if err != nil {
		return nil, err
	}

	features := MergeFeatures(
		snapshot.PlanFeatures,
		snapshot.RoleGrants,
		snapshot.OrgOverrides,
		snapshot.UserOverrides,
		snapshot.Now,
	)

	maxes := MergeLimits(
		snapshot.PlanLimits,
		snapshot.OrgOverrides,
		snapshot.UserOverrides,
		snapshot.Now,
	)

	limits := make(map[string]LimitInfo, len(maxes))
	for slug, max := range maxes {
		if info := CalculateLimit(&max, snapshot.Usage[slug]); info != nil {
			limits[slug] = *info
		}
	}

	return &PermissionMap{
		UserID:         userID,
		OrganizationID: orgID,
		Features:       features,
		Limits:         limits,
		ResolvedAt:     time.Now(),
		Cached:         false,
	}, nil
}
