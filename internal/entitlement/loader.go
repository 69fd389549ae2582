// AngelaMos | 2026
// loader.go

package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/angelamos/entitled/internal/override"
)

// The loader's sources are capabilities supplied at construction; the
// surrounding system implements them on its repositories. Storage failures
// here are fail-closed: a wrong entitlement decision is worse than none.

type Membership struct {
	UserID         string
	OrganizationID string
	PlanID         *string
}

type DirectorySource interface {
	// Membership fails with core.ErrNotFound when the user, the
	// organization, or the membership between them does not exist.
	Membership(ctx context.Context, userID, orgID string) (*Membership, error)
}

type PlanSource interface {
	PlanFeatures(ctx context.Context, planID string) (map[string]bool, error)
	PlanLimits(ctx context.Context, planID string) (map[string]int64, error)
	// VerifyPlan fails with core.ErrNotFound when the plan does not exist
	// or belongs to a different organization.
	VerifyPlan(ctx context.Context, planID, orgID string) error
}

type RoleSource interface {
	// RoleFeatureGrants returns the union of feature slugs granted by all
	// of the user's roles in the organization.
	RoleFeatureGrants(
		ctx context.Context,
		userID, orgID string,
	) (map[string]struct{}, error)
}

type OverrideSource interface {
	ActiveUserOverrides(
		ctx context.Context,
		orgID, userID string,
		now time.Time,
	) ([]override.Override, error)
	ActiveOrganizationOverrides(
		ctx context.Context,
		orgID string,
		now time.Time,
	) ([]override.Override, error)
}

type UsageSource interface {
	Counters(
		ctx context.Context,
		userID, orgID string,
		slugs []string,
	) (map[string]int64, error)
}

// Context is the raw per-tenant snapshot the merge operates on. The reads
// are not transactionally consistent across sources; brief staleness is
// accepted, silent corruption is not.
type Context struct {
	UserID         string
	OrganizationID string
	PlanFeatures   map[string]bool
	PlanLimits     map[string]int64
	RoleGrants     map[string]struct{}
	OrgOverrides   []override.Override
	UserOverrides  []override.Override
	Usage          map[string]int64
	Now            time.Time
}

type Loader struct {
	directory DirectorySource
	plans     PlanSource
	roles     RoleSource
	overrides OverrideSource
	usage     UsageSource
}

func NewLoader(
	directory DirectorySource,
	plans PlanSource,
	roles RoleSource,
	overrides OverrideSource,
	usage UsageSource,
) *Loader {
	return &Loader{
		directory: directory,
		plans:     plans,
		roles:     roles,
		overrides: overrides,
		usage:     usage,
	}
}

// Load gathers the snapshot for one (user, organization) pair. A non-nil
// planID resolves against that plan instead of the organization's assigned
// one, after verifying it belongs to the organization. Expiry is filtered
// against wall-clock time here, not at write time.
func (l *Loader) Load(
	ctx context.Context,
	userID, orgID string,
	planID *string,
) (*Context, error) {
	now := time.Now()

	membership, err := l.directory.Membership(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}

	effectivePlan := membership.PlanID
	if planID != nil {
		if err := l.plans.VerifyPlan(ctx, *planID, orgID); err != nil {
			return nil, fmt.Errorf("verify plan: %w", err)
		}
		effectivePlan = planID
	}

	// An organization without a plan resolves against an empty one:
	// default-deny features, no limits.
	planFeatures := map[string]bool{}
	planLimits := map[string]int64{}
	if effectivePlan != nil {
		planFeatures, err = l.plans.PlanFeatures(ctx, *effectivePlan)
		if err != nil {
			return nil, fmt.Errorf("load plan features: %w", err)
		}

		planLimits, err = l.plans.PlanLimits(ctx, *effectivePlan)
		if err != nil {
			return nil, fmt.Errorf("load plan limits: %w", err)
		}
	}

	roleGrants, err := l.roles.RoleFeatureGrants(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("load role grants: %w", err)
	}

	orgOverrides, err := l.overrides.ActiveOrganizationOverrides(
		ctx,
		orgID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("load organization overrides: %w", err)
	}

	userOverrides, err := l.overrides.ActiveUserOverrides(
		ctx,
		orgID,
		userID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("load user overrides: %w", err)
	}

	limitedSlugs := collectLimitedSlugs(planLimits, orgOverrides, userOverrides)

	usage := map[string]int64{}
	if len(limitedSlugs) > 0 {
		usage, err = l.usage.Counters(ctx, userID, orgID, limitedSlugs)
		if err != nil {
			return nil, fmt.Errorf("load usage: %w", err)
		}
	}

	return &Context{
		UserID:         userID,
		OrganizationID: orgID,
		PlanFeatures:   planFeatures,
		PlanLimits:     planLimits,
		RoleGrants:     roleGrants,
		OrgOverrides:   orgOverrides,
		UserOverrides:  userOverrides,
		Usage:          usage,
		Now:            now,
	}, nil
}

// collectLimitedSlugs lists every slug that could end up with an effective
// max, so the loader fetches exactly the counters the calculator may need.
func collectLimitedSlugs(
	planLimits map[string]int64,
	overrideSets ...[]override.Override,
) []string {
	seen := make(map[string]struct{}, len(planLimits))
	for slug := range planLimits {
		seen[slug] = struct{}{}
	}

	for _, set := range overrideSets {
		for _, o := range set {
			if _, ok := o.Effect.Limit(); ok {
				seen[o.FeatureSlug] = struct{}{}
			}
		}
	}

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}

	return slugs
}
