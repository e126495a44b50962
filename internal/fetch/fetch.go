// Package fetch provides the document fetcher boundary: rendered page
// retrieval behind an acquire/release session lifecycle.
package fetch

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a rendered document, queryable by CSS selector.
type Page struct {
	// URL is the final URL after any redirects
	URL string
	// Doc is the parsed rendered document
	Doc *goquery.Document
	// HTML is the raw rendered page source
	HTML string
}

// Fetcher hands out document-fetch sessions. Sessions are never shared
// concurrently: each scrape call acquires its own and must release it on
// every exit path.
type Fetcher interface {
	Acquire(ctx context.Context) (Session, error)
	Close() error
}

// Session is one browsing context able to fetch rendered documents.
type Session interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Release()
}

// NewPage parses rendered HTML into a Page. The finalURL should be the
// browser's URL after navigation settled.
func NewPage(finalURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Page{URL: finalURL, Doc: doc, HTML: html}, nil
}
