// AngelaMos | 2026
// dto.go

package organization

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type UpdateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type AssignPlanRequest struct {
	PlanID *string `json:"plan_id" validate:"omitempty,uuid"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}
