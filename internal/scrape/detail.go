package scrape

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/fetch"
)

var nonDigitRe = regexp.MustCompile(`[^0-9]`)

const (
	maxReviews      = 10
	minReviewLength = 20
	maxReviewLength = 2000
)

// Boilerplate fragments that disqualify a text node from being a review.
var reviewBoilerplate = []string{
	"Verified Purchase",
	"Helpful",
	"Report",
	"stars",
	"out of 5",
	"customer reviews",
	"See all",
	"Write a review",
}

// DetailScraper extracts full product detail from a single product page.
type DetailScraper struct {
	fetcher fetch.Fetcher
}

// NewDetailScraper creates a DetailScraper.
func NewDetailScraper(f fetch.Fetcher) *DetailScraper {
	return &DetailScraper{fetcher: f}
}

// ScrapeDetail fetches a product page and extracts name, price, image and
// raw reviews. Name extraction is the one hard failure; everything else
// degrades to a default. The fetch session is released on every exit path.
func (s *DetailScraper) ScrapeDetail(ctx context.Context, productURL string) (*domain.Product, error) {
	log.Printf("[DetailScraper] scraping product page: %s", productURL)

	session, err := s.fetcher.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	page, err := session.Fetch(ctx, productURL)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{URL: productURL}

	name, ok := firstText(page.Doc, nameSelectors)
	if !ok {
		return nil, fmt.Errorf("%w: no product name on %s", domain.ErrProductNotFound, productURL)
	}
	product.Name = name

	if price, ok := firstText(page.Doc, priceSelectors); ok {
		product.Price = price
	} else {
		product.Price = "N/A"
	}

	if image, ok := firstAttr(page.Doc, imageSelectors); ok {
		product.ImageURL = image
	}

	product.ReviewCount = extractReviewCount(page)
	product.Availability = strings.TrimSpace(page.Doc.Find("#availability span").First().Text())

	product.Reviews = extractReviews(page)

	log.Printf("[DetailScraper] scraped %q with %d reviews", product.Name, len(product.Reviews))

	return product, nil
}

// extractReviews scans the review selector chain and collects an
// order-preserving unique set of valid review texts. The first selector
// that yields anything wins. When nothing qualifies, the "no reviews"
// sentinel list is returned so summarization can short-circuit.
func extractReviews(page *fetch.Page) []string {
	for _, sel := range reviewSelectors {
		seen := make(map[string]struct{})
		var reviews []string

		page.Doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
			if len(reviews) >= maxReviews {
				return
			}

			text := strings.TrimSpace(node.Text())
			if !isValidReview(text) {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}

			seen[text] = struct{}{}
			reviews = append(reviews, text)
		})

		if len(reviews) > 0 {
			return reviews
		}
	}

	return []string{domain.NoReviewsSentinel}
}

// isValidReview filters out rating summaries, UI chrome and other
// boilerplate that shares selectors with review bodies.
func isValidReview(text string) bool {
	if len(text) <= minReviewLength || len(text) >= maxReviewLength {
		return false
	}

	for _, marker := range reviewBoilerplate {
		if strings.Contains(text, marker) {
			return false
		}
	}

	return true
}

func extractReviewCount(page *fetch.Page) int {
	label := strings.TrimSpace(page.Doc.Find("#acrCustomerReviewText").First().Text())
	if label == "" {
		return 0
	}

	digits := nonDigitRe.ReplaceAllString(strings.Fields(label)[0], "")
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}

	return count
}
