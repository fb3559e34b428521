package server

import (
	"github.com/rezonia/invoice-validator/internal/model"
)

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status         string   `json:"status"`
	Time           string   `json:"time"`
	ToleranceCents int      `json:"tolerance_cents"`
	RequiredFields []string `json:"required_fields"`
	LLMEnabled     bool     `json:"llm_enabled"`
}

// ExtractResponse is the response for the extract endpoint
type ExtractResponse struct {
	Method     string                  `json:"method"`
	Extraction *model.ExtractionResult `json:"extraction"`
	Validation *model.ValidationResult `json:"validation"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
