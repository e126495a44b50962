package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllTemplates(t *testing.T) {
	for _, name := range []string{SearchQuery, ProductAnalyzer, AggregateAnalysis, KeywordExtract} {
		text, err := Load(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, text, name)
	}
}

func TestLoadUnknownTemplate(t *testing.T) {
	_, err := Load("nope.txt")
	assert.Error(t, err)
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	text, err := Render(SearchQuery, map[string]string{"query": "wireless mouse under 1500"})
	require.NoError(t, err)

	assert.Contains(t, text, "wireless mouse under 1500")
	assert.NotContains(t, text, "{query}")
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	text, err := Render(ProductAnalyzer, map[string]string{"unrelated": "x"})
	require.NoError(t, err)

	assert.Contains(t, text, "{reviews}")
}
