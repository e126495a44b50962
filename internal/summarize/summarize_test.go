package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/pool"
)

// recordingGen answers batch prompts with a numbered summary and the
// aggregation prompt with a fixed analysis; every prompt is recorded.
type recordingGen struct {
	mu       sync.Mutex
	prompts  []string
	batchErr error
	aggErr   error
	calls    int
}

func (g *recordingGen) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)

	if strings.Contains(prompt, BatchDelimiter) || strings.Contains(prompt, "partial analyses") {
		if g.aggErr != nil {
			return "", g.aggErr
		}
		return "PROS:\n- Aggregated pro\nCONS:\n- Aggregated con\nVERDICT:\nAggregated verdict\nRATING:\n8.0", nil
	}

	if g.batchErr != nil {
		return "", g.batchErr
	}

	g.calls++
	return fmt.Sprintf("PROS:\n- Pro %d\nCONS:\n- Con %d\nVERDICT:\nBatch verdict %d\nRATING:\n7.0", g.calls, g.calls, g.calls), nil
}

func reviews(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("review number %d with plenty of substance", i)
	}
	return out
}

func newTestSummarizer(g *recordingGen) (*Summarizer, *pool.Pool) {
	p := pool.New(2, 10)
	return New(g, p), p
}

func TestMakeBatches(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		expected int
	}{
		{name: "Empty", count: 0, expected: 0},
		{name: "Single partial batch", count: 3, expected: 1},
		{name: "Exact batch", count: 5, expected: 1},
		{name: "One over", count: 6, expected: 2},
		{name: "Several", count: 12, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := MakeBatches(reviews(tt.count))
			assert.Len(t, batches, tt.expected)

			var total int
			for _, b := range batches {
				assert.LessOrEqual(t, len(b), BatchSize)
				total += len(b)
			}
			assert.Equal(t, tt.count, total)
		})
	}
}

func TestSummarizeSentinelSkipsGeneration(t *testing.T) {
	g := &recordingGen{}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), []string{domain.NoReviewsSentinel})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAnalysis(), result)
	assert.Empty(t, g.prompts)
}

func TestSummarizeEmptySkipsGeneration(t *testing.T) {
	g := &recordingGen{}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAnalysis(), result)
	assert.Empty(t, g.prompts)
}

func TestSummarizeSingleBatchNoAggregation(t *testing.T) {
	g := &recordingGen{}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), reviews(4))
	require.NoError(t, err)

	require.Len(t, g.prompts, 1)
	assert.Equal(t, []string{"Pro 1"}, result.Pros)
	assert.Equal(t, "Batch verdict 1", result.Verdict)
	assert.InDelta(t, 7.0, result.Rating, 0.001)
}

func TestSummarizeMultiBatchAggregates(t *testing.T) {
	g := &recordingGen{}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), reviews(12))
	require.NoError(t, err)

	// 3 batch calls plus exactly one aggregation call.
	require.Len(t, g.prompts, 4)

	aggPrompt := g.prompts[len(g.prompts)-1]
	assert.Contains(t, aggPrompt, BatchDelimiter)
	assert.Equal(t, 2, strings.Count(aggPrompt, BatchDelimiter))

	assert.Equal(t, "Aggregated verdict", result.Verdict)
	assert.InDelta(t, 8.0, result.Rating, 0.001)
}

func TestSummarizeAggregationFailureFallsBack(t *testing.T) {
	g := &recordingGen{aggErr: errors.New("aggregation quota exceeded")}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), reviews(7))
	require.NoError(t, err)

	// First batch result stands in for the failed aggregation.
	assert.Contains(t, result.Verdict, "Batch verdict")
	assert.InDelta(t, 7.0, result.Rating, 0.001)
}

func TestSummarizeBatchFailureSubstituted(t *testing.T) {
	g := &recordingGen{batchErr: errors.New("model overloaded")}
	s, p := newTestSummarizer(g)
	defer p.Stop()

	result, err := s.Summarize(context.Background(), reviews(7))
	require.NoError(t, err)
	require.NotNil(t, result)

	aggPrompt := g.prompts[len(g.prompts)-1]
	assert.Contains(t, aggPrompt, "Error analyzing batch")
}
