package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector-fallback chains, tried strictly in order. The first strategy
// producing a value wins; exhaustion yields (value, false) and the caller
// decides whether that is fatal.

var nameSelectors = []string{
	"span#productTitle",
	"span.a-size-large.product-title-word-break",
	"#title span",
}

// Machine-readable price nodes come first; visually formatted ones are the
// fallback.
var priceSelectors = []string{
	"span.a-price span.a-offscreen",
	"span.a-price-whole",
	"#priceblock_ourprice",
}

var imageSelectors = []attrSelector{
	{"img#landingImage", "data-old-hires"},
	{"img#landingImage", "src"},
	{"#imgTagWrapperId img", "src"},
}

var reviewSelectors = []string{
	"div[data-hook='review-collapsed'] span",
	"span[data-hook='review-body'] span",
	"div.a-expander-content.reviewText.review-text-content span",
	"div.review-text-content span",
}

var candidateContainerSelectors = []string{
	"div[data-component-type='s-search-result']",
	"div.s-result-item[data-asin]",
}

type attrSelector struct {
	selector string
	attr     string
}

// firstText returns the first non-empty trimmed text produced by the chain.
func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// firstAttr returns the first non-empty attribute value produced by the chain.
func firstAttr(doc *goquery.Document, selectors []attrSelector) (string, bool) {
	for _, sel := range selectors {
		value, exists := doc.Find(sel.selector).First().Attr(sel.attr)
		value = strings.TrimSpace(value)
		if exists && value != "" {
			return value, true
		}
	}
	return "", false
}
