// AngelaMos | 2026
// merge.go

package entitlement

import (
	"sort"
	"time"

	"github.com/angelamos/entitled/internal/override"
)

// The merge is deterministic and side-effect free. Precedence, highest
// first: user override > organization override > role grant > plan.
//
// Duplicate active overrides of the same kind on the same slug are a
// data-quality condition the write path prevents with a unique index; the
// merge resolves them by applying in ascending creation order so the most
// recently created one lands last.

// MergeFeatures computes the enabled/disabled state per feature slug.
func MergeFeatures(
	planFeatures map[string]bool,
	roleGrants map[string]struct{},
	orgOverrides, userOverrides []override.Override,
	now time.Time,
) map[string]bool {
	features := make(map[string]bool, len(planFeatures)+len(roleGrants))

	for slug, enabled := range planFeatures {
		features[slug] = enabled
	}

	// Role grants are strictly additive; they never disable.
	for slug := range roleGrants {
		features[slug] = true
	}

	applyFeatureOverrides(features, orgOverrides, now)
	applyFeatureOverrides(features, userOverrides, now)

	return features
}

func applyFeatureOverrides(
	features map[string]bool,
	overrides []override.Override,
	now time.Time,
) {
	for _, o := range sortedByCreation(overrides) {
		if !o.ActiveAt(now) {
			continue
		}

		switch o.Effect.Kind() {
		case override.KindFeatureEnable:
			features[o.FeatureSlug] = true
		case override.KindFeatureDisable:
			features[o.FeatureSlug] = false
		case override.KindLimitIncrease:
			// Handled by MergeLimits.
		}
	}
}

// MergeLimits computes the effective max per slug. A limit_increase
// override REPLACES the lower-precedence max, it never adds to it; only the
// highest-precedence override that defines a max survives. Slugs absent
// from the result are unlimited.
func MergeLimits(
	planLimits map[string]int64,
	orgOverrides, userOverrides []override.Override,
	now time.Time,
) map[string]int64 {
	limits := make(map[string]int64, len(planLimits))

	for slug, max := range planLimits {
		limits[slug] = max
	}

	applyLimitOverrides(limits, orgOverrides, now)
	applyLimitOverrides(limits, userOverrides, now)

	return limits
}

func applyLimitOverrides(
	limits map[string]int64,
	overrides []override.Override,
	now time.Time,
) {
	for _, o := range sortedByCreation(overrides) {
		if !o.ActiveAt(now) {
			continue
		}

		if max, ok := o.Effect.Limit(); ok {
			limits[o.FeatureSlug] = max
		}
	}
}

func sortedByCreation(overrides []override.Override) []override.Override {
	sorted := make([]override.Override, len(overrides))
	copy(sorted, overrides)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return sorted
}
