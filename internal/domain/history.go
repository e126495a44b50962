package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one persisted analysis outcome. Written best-effort once
// per successful top-level analysis; read back as a cache-style lookup.
type HistoryRecord struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	SearchQuery   string    `json:"search_query"`
	ProductName   string    `json:"product_name"`
	ProductRating float64   `json:"product_rating"`
	Summary       string    `json:"summary"`
	ImageURL      string    `json:"image_url,omitempty"`
	ProductURL    string    `json:"product_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToProduct synthesizes a Product from a history record for cache-hit
// responses. The review list is replaced with sentinel text since raw
// reviews are not persisted.
func (h *HistoryRecord) ToProduct() *Product {
	return &Product{
		Name:        h.ProductName,
		URL:         h.ProductURL,
		ImageURL:    h.ImageURL,
		Rating:      h.ProductRating,
		Verdict:     h.Summary,
		Pros:        []string{"Previously analyzed product"},
		Cons:        []string{"Previously analyzed product"},
		Recommended: true,
		Reviews:     []string{NoReviewsSentinel},
	}
}

// RecordFor builds a history record for the top product of an analysis.
func RecordFor(userID, query string, p *Product) *HistoryRecord {
	return &HistoryRecord{
		ID:            uuid.New(),
		UserID:        userID,
		SearchQuery:   query,
		ProductName:   p.Name,
		ProductRating: p.Rating,
		Summary:       p.Verdict,
		ImageURL:      p.ImageURL,
		ProductURL:    p.URL,
		CreatedAt:     time.Now().UTC(),
	}
}
