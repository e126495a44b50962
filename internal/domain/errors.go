package domain

import "errors"

// Error taxonomy for the analysis pipeline. Every error surfaced to the
// request boundary wraps exactly one of these sentinels.
var (
	// ErrInvalidInput marks bad or disallowed URLs and malformed requests
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks searches with no results, even after relaxation
	ErrNotFound = errors.New("no products found")

	// ErrProductNotFound marks a product page whose name could not be
	// extracted by any selector. The one hard failure in deep scraping.
	ErrProductNotFound = errors.New("product not found")

	// ErrExtractionFailed marks fetch or selector-chain exhaustion not
	// otherwise classified
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrGenerationService marks text-generation call or prompt template
	// failures
	ErrGenerationService = errors.New("generation service error")

	// ErrAnalysisFailed is the wrapped catch-all for pipeline failures
	ErrAnalysisFailed = errors.New("analysis failed")
)

// ErrorKind classifies an error for the request boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindExtraction
	KindGenerationService
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindExtraction:
		return "extraction"
	case KindGenerationService:
		return "generation_service"
	default:
		return "internal"
	}
}

// Classify maps a pipeline error onto its taxonomy kind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProductNotFound):
		return KindNotFound
	case errors.Is(err, ErrGenerationService):
		return KindGenerationService
	case errors.Is(err, ErrExtractionFailed):
		return KindExtraction
	default:
		return KindInternal
	}
}
