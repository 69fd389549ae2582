// AngelaMos | 2026
// dto.go

package plan

type CreatePlanRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type UpdatePlanRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type SetFeatureRequest struct {
	FeatureSlug string `json:"feature_slug" validate:"required,min=1,max=100"`
	Enabled     bool   `json:"enabled"`
}

type SetLimitRequest struct {
	FeatureSlug string `json:"feature_slug" validate:"required,min=1,max=100"`
	MaxValue    int64  `json:"max_value" validate:"gte=0"`
}
