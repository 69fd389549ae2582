// AngelaMos | 2026
// check.go

package entitlement

const (
	ReasonOK              = "ok"
	ReasonFeatureDisabled = "feature_disabled"
	ReasonLimitExceeded   = "limit_exceeded"
)

type CheckResult struct {
	Allowed bool       `json:"allowed"`
	Reason  string     `json:"reason"`
	Limit   *LimitInfo `json:"limit,omitempty"`
}

// Check interprets an already-resolved PermissionMap for one feature slug
// without re-resolving. It is pure: callers that need freshness must
// resolve first.
func Check(pm *PermissionMap, slug string) CheckResult {
	if !pm.FeatureEnabled(slug) {
		return CheckResult{Allowed: false, Reason: ReasonFeatureDisabled}
	}

	limit := pm.Limit(slug)
	if limit != nil && limit.Exceeded {
		return CheckResult{
			Allowed: false,
			Reason:  ReasonLimitExceeded,
			Limit:   limit,
		}
	}

	return CheckResult{Allowed: true, Reason: ReasonOK, Limit: limit}
}
