package domain

// Candidate is a shallow listing extracted from a search results page,
// before any deep analysis.
type Candidate struct {
	// ASIN is the marketplace's unique listing identifier. Candidates
	// without one are discarded during aggregation.
	ASIN   string   `json:"asin"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Rating *float64 `json:"rating,omitempty"` // 0.0-5.0 search page scale, nil when unparsable
	Price  string   `json:"price,omitempty"`
}

// SearchCriteria is the structured search intent derived from a free-text
// description. Rebuilt per request, never persisted.
type SearchCriteria struct {
	Keywords string
	PriceMin *int64
	PriceMax *int64
	Brand    string
	Sort     string
}

// HasPriceFilter reports whether any price constraint is set.
func (c *SearchCriteria) HasPriceFilter() bool {
	return c.PriceMin != nil || c.PriceMax != nil
}

// WithoutPrice returns a copy of the criteria with price constraints dropped.
// Used for the single relaxation retry when a filtered search finds nothing.
func (c *SearchCriteria) WithoutPrice() *SearchCriteria {
	return &SearchCriteria{
		Keywords: c.Keywords,
		Brand:    c.Brand,
		Sort:     c.Sort,
	}
}
