package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/fetch"
)

// fakeFetcher serves canned HTML keyed by URL.
type fakeFetcher struct {
	pages    map[string]string
	fetchErr error
}

func (f *fakeFetcher) Acquire(_ context.Context) (fetch.Session, error) {
	return &fakeSession{fetcher: f}, nil
}

func (f *fakeFetcher) Close() error { return nil }

type fakeSession struct {
	fetcher  *fakeFetcher
	released bool
}

func (s *fakeSession) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	if s.fetcher.fetchErr != nil {
		return nil, s.fetcher.fetchErr
	}

	html, ok := s.fetcher.pages[url]
	if !ok {
		return nil, errors.New("no page for url")
	}

	return fetch.NewPage(url, html)
}

func (s *fakeSession) Release() { s.released = true }

func TestValidateMarketplaceURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectedErr bool
	}{
		{name: "Amazon IN", url: "https://www.amazon.in/dp/B0TEST", expectedErr: false},
		{name: "Amazon COM", url: "https://amazon.com/dp/B0TEST", expectedErr: false},
		{name: "Other marketplace", url: "https://www.flipkart.com/item", expectedErr: true},
		{name: "Lookalike host", url: "https://www.amazon.in.evil.com/dp/B0TEST", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarketplaceURL(tt.url)
			if tt.expectedErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func resultItem(asin, name, href, rating, price string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<div data-component-type='s-search-result' data-asin='%s'>", asin))
	if name != "" {
		sb.WriteString(fmt.Sprintf("<h2><a href='%s'><span>%s</span></a></h2>", href, name))
	}
	if rating != "" {
		sb.WriteString(fmt.Sprintf("<span class='a-icon-alt'>%s</span>", rating))
	}
	if price != "" {
		sb.WriteString(fmt.Sprintf("<span class='a-price'><span class='a-offscreen'>%s</span></span>", price))
	}
	sb.WriteString("</div>")

	return sb.String()
}

func TestScrapeSearchPage(t *testing.T) {
	searchURL := "https://www.amazon.in/s?k=mouse"

	html := "<html><body>" +
		resultItem("B001", "Wireless Mouse A", "/dp/B001", "4.3 out of 5 stars", "₹1,299") +
		resultItem("B001", "Duplicate Listing", "/dp/B001-sponsored", "4.0 out of 5 stars", "₹999") +
		resultItem("", "No Identifier", "/dp/none", "", "") +
		resultItem("B002", "Wireless Mouse B", "/dp/B002", "not a rating", "") +
		"</body></html>"

	fetcher := &fakeFetcher{pages: map[string]string{searchURL: html}}

	candidates, err := NewSearchScraper(fetcher).ScrapeSearchPage(context.Background(), searchURL)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "B001", first.ASIN)
	assert.Equal(t, "Wireless Mouse A", first.Name)
	assert.Equal(t, "https://www.amazon.in/dp/B001", first.URL)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.3, *first.Rating, 0.001)
	assert.Equal(t, "₹1,299", first.Price)

	second := candidates[1]
	assert.Equal(t, "B002", second.ASIN)
	assert.Nil(t, second.Rating)
	assert.Equal(t, "N/A", second.Price)
}

func TestScrapeSearchPageLinkWrappingHeading(t *testing.T) {
	searchURL := "https://www.amazon.in/s?k=mouse"

	html := "<html><body><div data-component-type='s-search-result' data-asin='B003'>" +
		"<a href='/dp/B003'><h2>Inverted Shape Mouse</h2></a>" +
		"</div></body></html>"

	fetcher := &fakeFetcher{pages: map[string]string{searchURL: html}}

	candidates, err := NewSearchScraper(fetcher).ScrapeSearchPage(context.Background(), searchURL)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Inverted Shape Mouse", candidates[0].Name)
	assert.Equal(t, "https://www.amazon.in/dp/B003", candidates[0].URL)
}

func TestScrapeSearchPageCap(t *testing.T) {
	searchURL := "https://www.amazon.in/s?k=mouse"

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		asin := fmt.Sprintf("B%03d", i)
		sb.WriteString(resultItem(asin, "Mouse "+asin, "/dp/"+asin, "", ""))
	}
	sb.WriteString("</body></html>")

	fetcher := &fakeFetcher{pages: map[string]string{searchURL: sb.String()}}

	candidates, err := NewSearchScraper(fetcher).ScrapeSearchPage(context.Background(), searchURL)
	require.NoError(t, err)
	assert.Len(t, candidates, maxCandidates)
}

func TestScrapeSearchPageEmptyIsNotAnError(t *testing.T) {
	searchURL := "https://www.amazon.in/s?k=mouse"
	fetcher := &fakeFetcher{pages: map[string]string{searchURL: "<html><body></body></html>"}}

	candidates, err := NewSearchScraper(fetcher).ScrapeSearchPage(context.Background(), searchURL)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScrapeSearchPageRejectsUnknownHost(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{}}

	_, err := NewSearchScraper(fetcher).ScrapeSearchPage(context.Background(), "https://www.flipkart.com/search?q=mouse")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func detailPage(title, body string) string {
	return "<html><body>" + title + body + "</body></html>"
}

func TestScrapeDetail(t *testing.T) {
	productURL := "https://www.amazon.in/dp/B001"

	review := "This mouse has been working flawlessly for three months now."
	html := detailPage(
		"<span id='productTitle'> Wireless Mouse A </span>",
		"<span class='a-price'><span class='a-offscreen'>₹1,299</span></span>"+
			"<span class='a-price-whole'>1299</span>"+
			"<div id='imgTagWrapperId'><img id='landingImage' src='https://img.example/small.jpg' data-old-hires='https://img.example/large.jpg'/></div>"+
			"<span id='acrCustomerReviewText'>1,234 ratings</span>"+
			"<div id='availability'><span> In stock </span></div>"+
			"<div data-hook='review-collapsed'><span>"+review+"</span></div>"+
			"<div data-hook='review-collapsed'><span>"+review+"</span></div>"+
			"<div data-hook='review-collapsed'><span>short one</span></div>",
	)

	fetcher := &fakeFetcher{pages: map[string]string{productURL: html}}

	product, err := NewDetailScraper(fetcher).ScrapeDetail(context.Background(), productURL)
	require.NoError(t, err)

	assert.Equal(t, "Wireless Mouse A", product.Name)
	assert.Equal(t, "₹1,299", product.Price)
	assert.Equal(t, "https://img.example/large.jpg", product.ImageURL)
	assert.Equal(t, 1234, product.ReviewCount)
	assert.Equal(t, "In stock", product.Availability)
	assert.Equal(t, []string{review}, product.Reviews)
}

func TestScrapeDetailNameFallbackChain(t *testing.T) {
	productURL := "https://www.amazon.in/dp/B002"
	html := detailPage("<div id='title'><span>Fallback Title Mouse</span></div>", "")

	fetcher := &fakeFetcher{pages: map[string]string{productURL: html}}

	product, err := NewDetailScraper(fetcher).ScrapeDetail(context.Background(), productURL)
	require.NoError(t, err)
	assert.Equal(t, "Fallback Title Mouse", product.Name)
	assert.Equal(t, "N/A", product.Price)
	assert.Equal(t, []string{domain.NoReviewsSentinel}, product.Reviews)
}

func TestScrapeDetailMissingName(t *testing.T) {
	productURL := "https://www.amazon.in/dp/B003"
	html := detailPage("", "<span class='a-price-whole'>999</span>")

	fetcher := &fakeFetcher{pages: map[string]string{productURL: html}}

	_, err := NewDetailScraper(fetcher).ScrapeDetail(context.Background(), productURL)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestIsValidReview(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "Real review", text: "Battery life is excellent and the grip feels premium.", expected: true},
		{name: "Too short", text: "Nice product", expected: false},
		{name: "Rating summary", text: "This was rated 4.3 out of 5 by shoppers like you", expected: false},
		{name: "UI chrome", text: "1,234 people found this Helpful in the last month", expected: false},
		{name: "Too long", text: strings.Repeat("a", maxReviewLength), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isValidReview(tt.text))
		})
	}
}
