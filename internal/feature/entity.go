// AngelaMos | 2026
// entity.go

package feature

import "time"

// Feature is a catalog entry owned by one organization. Slugs are the stable
// identifier everything else keys on, unique within the tenant; the row
// carries display metadata.
type Feature struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Slug           string    `db:"slug" json:"slug"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
