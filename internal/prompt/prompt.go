// Package prompt provides the embedded prompt templates used by the
// interpreter and summarizer.
package prompt

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// Template file names
const (
	SearchQuery       = "search_query.txt"
	ProductAnalyzer   = "product_analyzer.txt"
	AggregateAnalysis = "aggregate_analysis.txt"
	KeywordExtract    = "keyword_extract.txt"
)

// Load returns the raw template text for the given file name.
func Load(name string) (string, error) {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to load prompt template %s: %w", name, err)
	}
	return string(data), nil
}

// Render loads a template and substitutes every {key} placeholder.
func Render(name string, vars map[string]string) (string, error) {
	text, err := Load(name)
	if err != nil {
		return "", err
	}
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text, nil
}
