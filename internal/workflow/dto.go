// AngelaMos | 2026
// dto.go

package workflow

type IngestDocumentRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type SelectEntityRequest struct {
	Entity string `json:"entity" validate:"required,min=1"`
}

type GenerateImageRequest struct {
	Modifiers string `json:"modifiers" validate:"max=500"`
}

type GenerateModelRequest struct {
	Quality string `json:"quality" validate:"omitempty,oneof=point-aware fast"`
}

// StateResponse is returned by every mutating pipeline operation so the
// client can refresh its cached balance without a second request.
type StateResponse struct {
	Documents      int      `json:"documents"`
	Entities       []string `json:"entities"`
	SelectedEntity string   `json:"selected_entity"`
	HasImage       bool     `json:"has_image"`
	HasModel       bool     `json:"has_model"`
	Balance        int64    `json:"balance"`
}
