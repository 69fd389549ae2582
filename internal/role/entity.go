// AngelaMos | 2026
// entity.go

package role

import "time"

// Role is an organization-scoped named set of feature grants. Grants are
// strictly additive: a role can enable a feature the plan leaves off, never
// disable one.
type Role struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Detail is a role with its granted feature slugs attached.
type Detail struct {
	Role
	FeatureSlugs []string `json:"feature_slugs"`
}
