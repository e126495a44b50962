package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/domain"
)

func candidate(name string, rating float64) *domain.Candidate {
	return &domain.Candidate{Name: name, Rating: &rating}
}

func unrated(name string) *domain.Candidate {
	return &domain.Candidate{Name: name}
}

func names(candidates []*domain.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}

func TestFilterCandidates(t *testing.T) {
	candidates := []*domain.Candidate{
		candidate("a", 4.1),
		candidate("b", 3.9),
		unrated("c"),
		candidate("d", 4.8),
		candidate("e", 4.1),
		candidate("f", 4.5),
		candidate("g", 4.0),
		candidate("h", 4.9),
	}

	got := FilterCandidates(candidates)

	// Gate at 4.0, descending, ties stable, capped at 5.
	assert.Equal(t, []string{"h", "d", "f", "a", "e"}, names(got))
}

func TestFilterCandidatesRelaxation(t *testing.T) {
	candidates := []*domain.Candidate{
		candidate("a", 3.2),
		unrated("b"),
		candidate("c", 2.8),
		candidate("d", 3.9),
	}

	got := FilterCandidates(candidates)

	// Nothing clears the gate: first 3 raw candidates, input order.
	assert.Equal(t, []string{"a", "b", "c"}, names(got))
}

func TestFilterCandidatesRelaxationShortInput(t *testing.T) {
	candidates := []*domain.Candidate{unrated("a"), unrated("b")}

	got := FilterCandidates(candidates)
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func TestFilterCandidatesEmpty(t *testing.T) {
	assert.Empty(t, FilterCandidates(nil))
}

func TestRankProducts(t *testing.T) {
	products := []*domain.Product{
		{Name: "a", Rating: 6.5},
		{Name: "b", Rating: 9.0},
		{Name: "c", Rating: 6.5},
		{Name: "d", Rating: 8.0},
	}

	got := RankProducts(products, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "d", got[1].Name)
	assert.Equal(t, "a", got[2].Name)

	// Input slice order is untouched.
	assert.Equal(t, "a", products[0].Name)
}

func TestMarkRecommended(t *testing.T) {
	products := []*domain.Product{
		{Name: "a", Recommended: false},
		{Name: "b", Recommended: true},
		{Name: "c", Recommended: true},
	}

	MarkRecommended(products)

	assert.True(t, products[0].Recommended)
	assert.False(t, products[1].Recommended)
	assert.False(t, products[2].Recommended)
}
