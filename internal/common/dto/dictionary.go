package dto

// ModalityIn is one coded response option created with its variable
type ModalityIn struct {
	Code  string `json:"code" binding:"required"`
	Label string `json:"label" binding:"required"`
}

// CreateVariableRequest adds a dictionary entry together with its
// modalities.
type CreateVariableRequest struct {
	Name       string       `json:"name" binding:"required"`
	Label      string       `json:"label" binding:"required"`
	Type       string       `json:"type" binding:"omitempty,oneof=SelectOne SelectMany Integer Text"`
	IsQuota    bool         `json:"is_quota"`
	Modalities []ModalityIn `json:"modalities"`
}
