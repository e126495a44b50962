package summarize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/prodlens/prodlens/internal/domain"
)

// sectionHeader matches the four recognized section headers at a line
// start, case-insensitively, tolerating markdown heading/emphasis
// decoration and an optional colon.
var sectionHeader = regexp.MustCompile(`(?im)^[ \t#>*_]*(PROS|CONS|VERDICT|RATING)\b[*_]*[ \t]*:?[*_]*`)

var numberedPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// ParseAnalysis parses generation output against the section grammar.
// Sections are located by header position and captured up to the next
// recognized header or end of text; missing sections leave their fields at
// the zero defaults (rating stays 0.0).
func ParseAnalysis(text string) *domain.AnalysisResult {
	result := &domain.AnalysisResult{}

	matches := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	seen := make(map[string]bool)

	for i, m := range matches {
		name := strings.ToUpper(text[m[2]:m[3]])
		if seen[name] {
			continue
		}
		seen[name] = true

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])

		switch name {
		case "PROS":
			result.Pros = parseListItems(body)
		case "CONS":
			result.Cons = parseListItems(body)
		case "VERDICT":
			result.Verdict = body
		case "RATING":
			if rating, ok := parseRating(body); ok {
				result.Rating = rating
			}
		}
	}

	return result
}

// parseListItems splits a section body into list entries, stripping bullet
// markers and blank lines. An empty outcome becomes the single sentinel
// item so callers never see an empty list for a present section.
func parseListItems(text string) []string {
	var items []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		for len(line) > 0 && (line[0] == '-' || line[0] == '*' || strings.HasPrefix(line, "•")) {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(line, "-*"), "•"))
		}
		line = numberedPrefix.ReplaceAllString(line, "")

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			line = strings.TrimSpace(line[1 : len(line)-1])
		}

		if line != "" {
			items = append(items, line)
		}
	}

	if len(items) == 0 {
		return []string{"No items found"}
	}

	return items
}

// parseRating sanitizes the section body to digits and a single decimal
// point before parsing. Failure reports ok=false so the caller keeps the
// prior value.
func parseRating(body string) (float64, bool) {
	var sb strings.Builder
	sawDot := false

	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' && !sawDot:
			sb.WriteRune(r)
			sawDot = true
		}
	}

	cleaned := sb.String()
	if cleaned == "" || cleaned == "." {
		return 0, false
	}

	rating, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return rating, true
}
