// AngelaMos | 2026
// entity.go

package plan

import "time"

// Plan is an organization-scoped bundle of feature flags and limits. The
// organization's assigned plan is the lowest-precedence layer of every
// member's resolved permissions.
type Plan struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type PlanFeature struct {
	PlanID      string `db:"plan_id" json:"plan_id"`
	FeatureSlug string `db:"feature_slug" json:"feature_slug"`
	Enabled     bool   `db:"enabled" json:"enabled"`
}

type PlanLimit struct {
	PlanID      string `db:"plan_id" json:"plan_id"`
	FeatureSlug string `db:"feature_slug" json:"feature_slug"`
	MaxValue    int64  `db:"max_value" json:"max_value"`
}

// Detail is a plan with its feature and limit rows attached.
type Detail struct {
	Plan
	Features []PlanFeature `json:"features"`
	Limits   []PlanLimit   `json:"limits"`
}
