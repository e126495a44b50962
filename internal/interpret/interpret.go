// Package interpret turns free-text product descriptions into structured
// search criteria and ready-to-fetch marketplace search URLs.
package interpret

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/gen"
	"github.com/prodlens/prodlens/internal/prompt"
)

const searchBaseURL = "https://www.amazon.in/s"

// defaultSort is the marketplace's implicit ordering; it is never added to
// the URL explicitly.
const defaultSort = "review-rank"

var nonDigits = regexp.MustCompile(`[^0-9]`)

// Interpreter derives search intent from descriptions via the
// text-generation service.
type Interpreter struct {
	gen gen.TextGenerator
}

// New creates an Interpreter.
func New(g gen.TextGenerator) *Interpreter {
	return &Interpreter{gen: g}
}

// Interpret asks the generation service for structured criteria. Generation
// failures are wrapped into the generation-service error kind; a parseable
// but useless response yields empty criteria, never an error.
func (i *Interpreter) Interpret(ctx context.Context, description string) (*domain.SearchCriteria, error) {
	p, err := prompt.Render(prompt.SearchQuery, map[string]string{"query": description})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
	}

	response, err := i.gen.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret description: %w", err)
	}

	criteria := ParseCriteria(response)
	log.Printf("[Interpreter] parsed criteria - keywords: %q, price_min: %v, price_max: %v, brand: %q, sort: %q",
		criteria.Keywords, fmtPrice(criteria.PriceMin), fmtPrice(criteria.PriceMax), criteria.Brand, criteria.Sort)

	return criteria, nil
}

// BuildSearchURLs returns search URLs to try in order: the full criteria
// URL, then (when a price constraint exists) the same search with price
// dropped. The second URL is the documented single relaxation retry.
func (i *Interpreter) BuildSearchURLs(ctx context.Context, description string) ([]string, error) {
	criteria, err := i.Interpret(ctx, description)
	if err != nil {
		return nil, err
	}

	urls := []string{BuildSearchURL(criteria, description)}
	if criteria.HasPriceFilter() {
		urls = append(urls, BuildSearchURL(criteria.WithoutPrice(), description))
	}

	return urls, nil
}

// ParseCriteria parses a line-oriented "key: value" response. The literal
// token null means unset; malformed values are dropped, never errors.
func ParseCriteria(response string) *domain.SearchCriteria {
	criteria := &domain.SearchCriteria{}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "keywords:"):
			criteria.Keywords = extractValue(line)
		case strings.HasPrefix(line, "price_min:"):
			criteria.PriceMin = extractPrice(line)
		case strings.HasPrefix(line, "price_max:"):
			criteria.PriceMax = extractPrice(line)
		case strings.HasPrefix(line, "brand:"):
			criteria.Brand = extractValue(line)
		case strings.HasPrefix(line, "sort:"):
			criteria.Sort = extractValue(line)
		}
	}

	return criteria
}

func extractValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return ""
	}

	value := strings.TrimSpace(parts[1])
	if strings.EqualFold(value, "null") {
		return ""
	}

	return value
}

func extractPrice(line string) *int64 {
	value := extractValue(line)
	if value == "" {
		return nil
	}

	cleaned := nonDigits.ReplaceAllString(value, "")
	if cleaned == "" {
		log.Printf("[Interpreter] invalid price value: %q", value)
		return nil
	}

	price, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		log.Printf("[Interpreter] invalid price value: %q", value)
		return nil
	}

	return &price
}

// BuildSearchURL builds a marketplace search URL from criteria. When the
// criteria carry no keywords the raw description is used instead.
func BuildSearchURL(criteria *domain.SearchCriteria, description string) string {
	keywords := criteria.Keywords
	if keywords == "" {
		log.Printf("[Interpreter] no keywords derived, falling back to raw description")
		keywords = description
	}

	var sb strings.Builder
	sb.WriteString(searchBaseURL)
	sb.WriteString("?k=")
	sb.WriteString(url.QueryEscape(keywords))

	var refinements []string

	if criteria.HasPriceFilter() {
		var minPrice, maxPrice int64 = 0, 999999999
		if criteria.PriceMin != nil {
			minPrice = *criteria.PriceMin
		}
		if criteria.PriceMax != nil {
			maxPrice = *criteria.PriceMax
		}
		refinements = append(refinements, fmt.Sprintf("p_36:%d-%d", minPrice, maxPrice))
	}

	if criteria.Brand != "" {
		refinements = append(refinements, "p_89:"+url.QueryEscape(criteria.Brand))
	}

	if len(refinements) > 0 {
		sb.WriteString("&rh=")
		sb.WriteString(strings.Join(refinements, ","))
	}

	if criteria.Sort != "" && criteria.Sort != defaultSort {
		sb.WriteString("&s=")
		sb.WriteString(url.QueryEscape(criteria.Sort))
	}

	return sb.String()
}

func fmtPrice(p *int64) string {
	if p == nil {
		return "<nil>"
	}
	return strconv.FormatInt(*p, 10)
}
