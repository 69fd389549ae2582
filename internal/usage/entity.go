// AngelaMos | 2026
// entity.go

package usage

import "time"

// Counter is one row of usage_counters: cumulative consumption of a limited
// feature by one user within one organization.
type Counter struct {
	UserID         string    `db:"user_id" json:"user_id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	FeatureSlug    string    `db:"feature_slug" json:"feature_slug"`
	Used           int64     `db:"used" json:"used"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
