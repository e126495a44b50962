// Package scrape extracts product data from marketplace pages using ordered
// selector-fallback chains tolerant to markup drift.
package scrape

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/fetch"
)

const maxCandidates = 15

var allowedHosts = map[string]struct{}{
	"www.amazon.in":  {},
	"amazon.in":      {},
	"www.amazon.com": {},
	"amazon.com":     {},
}

var leadingNumber = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)`)

// Markers that indicate the marketplace served a bot challenge instead of
// results. Logged for diagnostics when a search page yields no candidates.
var botChallengeMarkers = []string{
	"enter the characters you see below",
	"api-services-support@amazon.com",
	"robot check",
	"captcha",
}

// ValidateMarketplaceURL checks that the URL belongs to an allow-listed
// marketplace host. Must pass before any network access.
func ValidateMarketplaceURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: unparsable URL %q", domain.ErrInvalidInput, raw)
	}

	host := strings.ToLower(parsed.Host)
	if _, ok := allowedHosts[host]; !ok {
		return fmt.Errorf("%w: host %q is not a supported marketplace", domain.ErrInvalidInput, host)
	}

	return nil
}

// SearchScraper extracts candidate listings from search results pages.
type SearchScraper struct {
	fetcher fetch.Fetcher
}

// NewSearchScraper creates a SearchScraper.
func NewSearchScraper(f fetch.Fetcher) *SearchScraper {
	return &SearchScraper{fetcher: f}
}

// ScrapeSearchPage fetches a search results page and extracts up to 15
// deduplicated candidates. An empty result is not an error here; the caller
// escalates to not-found once its fallback URLs are exhausted.
func (s *SearchScraper) ScrapeSearchPage(ctx context.Context, searchURL string) ([]*domain.Candidate, error) {
	if err := ValidateMarketplaceURL(searchURL); err != nil {
		return nil, err
	}

	log.Printf("[SearchScraper] scraping search page: %s", searchURL)

	session, err := s.fetcher.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	page, err := session.Fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	candidates := extractCandidates(page)
	if len(candidates) == 0 {
		if marker, ok := detectBotChallenge(page.HTML); ok {
			log.Printf("[SearchScraper] WARNING: zero candidates and bot-challenge marker %q present on %s", marker, searchURL)
		} else {
			log.Printf("[SearchScraper] zero candidates on %s", searchURL)
		}
	} else {
		log.Printf("[SearchScraper] extracted %d candidates from %s", len(candidates), searchURL)
	}

	return candidates, nil
}

// extractCandidates walks candidate containers and builds the shallow
// listing set: deduplicated by identifier, capped, skipping containers
// without an identifier or a resolvable product link.
func extractCandidates(page *fetch.Page) []*domain.Candidate {
	containers := findContainers(page.Doc)

	seen := make(map[string]struct{})
	var candidates []*domain.Candidate

	containers.EachWithBreak(func(_ int, container *goquery.Selection) bool {
		if len(candidates) >= maxCandidates {
			return false
		}

		asin := strings.TrimSpace(container.AttrOr("data-asin", ""))
		if asin == "" {
			return true
		}
		if _, dup := seen[asin]; dup {
			return true
		}

		name, link := extractTitleLink(container)
		resolved := resolveLink(page.URL, link)
		if resolved == "" || resolved == page.URL {
			return true
		}

		candidate := &domain.Candidate{
			ASIN:   asin,
			Name:   name,
			URL:    resolved,
			Rating: extractSearchRating(container),
			Price:  extractSearchPrice(container),
		}

		seen[asin] = struct{}{}
		candidates = append(candidates, candidate)

		return true
	})

	return candidates
}

func findContainers(doc *goquery.Document) *goquery.Selection {
	for _, sel := range candidateContainerSelectors {
		containers := doc.Find(sel)
		if containers.Length() > 0 {
			return containers
		}
	}
	return doc.Find(candidateContainerSelectors[0])
}

// extractTitleLink handles the two DOM shapes search results use: the
// heading wrapping the link, or the link wrapping the heading.
func extractTitleLink(container *goquery.Selection) (name, href string) {
	if a := container.Find("h2 a").First(); a.Length() > 0 {
		href = a.AttrOr("href", "")
		name = strings.TrimSpace(a.Text())
		return name, href
	}

	if h := container.Find("a h2").First(); h.Length() > 0 {
		name = strings.TrimSpace(h.Text())
		href = h.Closest("a").AttrOr("href", "")
		return name, href
	}

	return "", ""
}

func resolveLink(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}

// extractSearchRating parses the leading numeric token from the rating
// accessibility label ("4.3 out of 5 stars"). Any failure yields nil.
func extractSearchRating(container *goquery.Selection) *float64 {
	label := strings.TrimSpace(container.Find("span.a-icon-alt").First().Text())
	if label == "" {
		return nil
	}

	match := leadingNumber.FindStringSubmatch(label)
	if match == nil {
		return nil
	}

	rating, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}

	return &rating
}

func extractSearchPrice(container *goquery.Selection) string {
	price := strings.TrimSpace(container.Find("span.a-price span.a-offscreen").First().Text())
	if price == "" {
		return "N/A"
	}
	return price
}

func detectBotChallenge(html string) (string, bool) {
	lowered := strings.ToLower(html)
	for _, marker := range botChallengeMarkers {
		if strings.Contains(lowered, marker) {
			return marker, true
		}
	}
	return "", false
}
