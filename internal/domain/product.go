package domain

import "strings"

// NoReviewsSentinel is the single review entry used when a product page
// yields no extractable reviews. Downstream summarization short-circuits on it.
const NoReviewsSentinel = "No reviews found"

// Product is a fully analyzed product listing
type Product struct {
	Name        string   `json:"name"`
	Price       string   `json:"price,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
	Verdict     string   `json:"verdict,omitempty"`
	Rating      float64  `json:"rating"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	Availability string  `json:"availability,omitempty"`
	Recommended bool     `json:"recommended"`

	// Reviews holds the raw scraped review texts. Transient: filled by the
	// detail scraper, consumed by the summarizer, not serialized.
	Reviews []string `json:"-"`
}

// IsValid reports whether the product carries a usable name.
// Rating bounds are enforced separately by the orchestrator's rating filter;
// the two checks are intentionally independent.
func (p *Product) IsValid() bool {
	return strings.TrimSpace(p.Name) != ""
}

// HasReviews reports whether the product carries real review text
// (not the "no reviews" sentinel).
func (p *Product) HasReviews() bool {
	if len(p.Reviews) == 0 {
		return false
	}
	return p.Reviews[0] != NoReviewsSentinel
}

// ApplyAnalysis copies a summarizer result onto the product.
func (p *Product) ApplyAnalysis(a *AnalysisResult) {
	if a == nil {
		return
	}
	p.Pros = a.Pros
	p.Cons = a.Cons
	p.Verdict = a.Verdict
	p.Rating = a.Rating
}

// AnalysisResult is the structured outcome of review summarization
type AnalysisResult struct {
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	Verdict string   `json:"verdict"`
	Rating  float64  `json:"rating"`
}

// DefaultAnalysis is the fixed result used when a product has no reviews
// or every summarization attempt failed.
func DefaultAnalysis() *AnalysisResult {
	return &AnalysisResult{
		Pros:    []string{"No reviews available"},
		Cons:    []string{"No reviews available"},
		Verdict: "Unable to provide analysis due to lack of reviews or AI error.",
		Rating:  0.0,
	}
}
