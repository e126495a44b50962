// Package rank applies candidate quality gates and product ranking.
package rank

import (
	"sort"

	"github.com/prodlens/prodlens/internal/domain"
)

const (
	// MinCandidateRating is the search-page quality gate (0-5 scale)
	MinCandidateRating = 4.0

	// ShortlistSize caps the gated shortlist
	ShortlistSize = 5

	// RelaxedShortlistSize caps the fallback shortlist taken when no
	// candidate clears the quality gate
	RelaxedShortlistSize = 3

	// TopDescription is the final result size for description-driven search
	TopDescription = 5

	// TopSimilar is the final result size for similar-item discovery
	TopSimilar = 4
)

// FilterCandidates keeps candidates rated >= 4.0, sorted descending by
// rating, top 5. When the gate leaves nothing, the first 3 raw candidates
// are used instead so one strict page never voids the whole request.
func FilterCandidates(candidates []*domain.Candidate) []*domain.Candidate {
	var gated []*domain.Candidate
	for _, c := range candidates {
		if c.Rating != nil && *c.Rating >= MinCandidateRating {
			gated = append(gated, c)
		}
	}

	if len(gated) == 0 {
		if len(candidates) > RelaxedShortlistSize {
			return candidates[:RelaxedShortlistSize]
		}
		return candidates
	}

	sort.SliceStable(gated, func(i, j int) bool {
		return *gated[i].Rating > *gated[j].Rating
	})

	if len(gated) > ShortlistSize {
		gated = gated[:ShortlistSize]
	}

	return gated
}

// RankProducts sorts products descending by analysis rating (stable, so
// ties keep input order) and returns the top n.
func RankProducts(products []*domain.Product, n int) []*domain.Product {
	ranked := make([]*domain.Product, len(products))
	copy(ranked, products)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// MarkRecommended flags exactly the first product as the recommendation
// and clears the flag on the rest.
func MarkRecommended(products []*domain.Product) {
	for i, p := range products {
		p.Recommended = i == 0
	}
}
