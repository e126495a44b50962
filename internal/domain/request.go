package domain

import (
	"fmt"
	"strings"
)

const (
	minInputLength = 3
	maxInputLength = 1000
)

// AnalysisRequest is a single analyze call: either a free-text product
// description or a direct product URL.
type AnalysisRequest struct {
	Input  string `json:"input"`
	UserID string `json:"user_id,omitempty"`
}

// IsURL reports whether the input is treated as a product URL.
// The classification rule is a literal "https" prefix; anything else,
// including "http://" inputs, is treated as a description.
func (r *AnalysisRequest) IsURL() bool {
	return strings.HasPrefix(r.Input, "https")
}

// Validate checks the input length bounds.
func (r *AnalysisRequest) Validate() error {
	trimmed := strings.TrimSpace(r.Input)
	if len(trimmed) < minInputLength || len(trimmed) > maxInputLength {
		return fmt.Errorf("%w: input must be between %d and %d characters",
			ErrInvalidInput, minInputLength, maxInputLength)
	}
	return nil
}
