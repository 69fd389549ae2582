// AngelaMos | 2026
// dto.go

package usage

type RecordUsageRequest struct {
	FeatureSlug string `json:"feature_slug" validate:"required,min=1,max=100"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
}
