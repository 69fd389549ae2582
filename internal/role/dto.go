// AngelaMos | 2026
// dto.go

package role

type CreateRoleRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	FeatureSlugs []string `json:"feature_slugs" validate:"omitempty,dive,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type GrantFeatureRequest struct {
	FeatureSlug string `json:"feature_slug" validate:"required,min=1,max=100"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}
