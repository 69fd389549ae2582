// AngelaMos | 2026
// dto.go

package feature

type CreateFeatureRequest struct {
	Slug        string  `json:"slug" validate:"required,min=1,max=100,lowercase"`
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UpdateFeatureRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}
