// AngelaMos | 2026
// entity.go

package organization

import "time"

// Organization is the tenant boundary. PlanID is the assigned plan every
// member resolves against; nil means no plan, which resolves as
// default-deny.
type Organization struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PlanID    *string   `db:"plan_id" json:"plan_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Member struct {
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
}
