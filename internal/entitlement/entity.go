// AngelaMos | 2026
// entity.go

package entitlement

import (
	"time"
)

// LimitInfo is the computed state of one metered feature. A feature with no
// effective max never appears in a PermissionMap's limits; absence means
// unlimited, not zero.
type LimitInfo struct {
	Max       int64 `json:"max"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
	Exceeded  bool  `json:"exceeded"`
}

// PermissionMap is the resolved, per-user-per-organization answer to "what
// can this user do and how much is left". It is a pure projection of plan,
// roles, overrides and usage; it has no lifecycle beyond its cache entry.
type PermissionMap struct {
	UserID         string               `json:"user_id"`
	OrganizationID string               `json:"organization_id"`
	Features       map[string]bool      `json:"features"`
	Limits         map[string]LimitInfo `json:"limits"`
	ResolvedAt     time.Time            `json:"resolved_at"`
	Cached         bool                 `json:"cached"`
}

// FeatureEnabled treats absence as disabled.
func (p *PermissionMap) FeatureEnabled(slug string) bool {
	return p.Features[slug]
}

// Limit returns the limit info for a slug, or nil when the feature is
// unlimited.
func (p *PermissionMap) Limit(slug string) *LimitInfo {
	if info, ok := p.Limits[slug]; ok {
		return &info
	}
	return nil
}
