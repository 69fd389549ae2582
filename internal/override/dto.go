// AngelaMos | 2026
// dto.go

package override

import "time"

type CreateOverrideRequest struct {
	UserID      *string    `json:"user_id" validate:"omitempty,uuid"`
	FeatureSlug string     `json:"feature_slug" validate:"required,min=1,max=100"`
	Kind        string     `json:"kind" validate:"required,oneof=feature_enable feature_disable limit_increase"`
	Value       *string    `json:"value" validate:"omitempty,max=20"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Reason      *string    `json:"reason" validate:"omitempty,max=1000"`
}

type OverrideResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	UserID         *string    `json:"user_id,omitempty"`
	Level          Level      `json:"level"`
	FeatureSlug    string     `json:"feature_slug"`
	Kind           Kind       `json:"kind"`
	Value          *string    `json:"value,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Reason         *string    `json:"reason,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ToOverrideResponse(o *Override) OverrideResponse {
	return OverrideResponse{
		ID:             o.ID,
		OrganizationID: o.OrganizationID,
		UserID:         o.UserID,
		Level:          o.Level(),
		FeatureSlug:    o.FeatureSlug,
		Kind:           o.Effect.Kind(),
		Value:          o.Effect.value(),
		ExpiresAt:      o.ExpiresAt,
		Reason:         o.Reason,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ToOverrideResponses(overrides []Override) []OverrideResponse {
	out := make([]OverrideResponse, 0, len(overrides))
	for i := range overrides {
		out = append(out, ToOverrideResponse(&overrides[i]))
	}
	return out
}
