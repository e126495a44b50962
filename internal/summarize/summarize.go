// Package summarize turns raw product reviews into a structured analysis
// via batched, map-reduced generation calls.
package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/gen"
	"github.com/prodlens/prodlens/internal/pool"
	"github.com/prodlens/prodlens/internal/prompt"
)

const (
	// BatchSize caps the reviews sent in a single generation call
	BatchSize = 5

	// BatchDelimiter separates partial summaries inside the aggregation
	// prompt
	BatchDelimiter = "\n\n--- BATCH SUMMARY ---\n\n"

	// batchErrorText substitutes a failed batch so one bad call does not
	// void the others
	batchErrorText = "Error analyzing batch"
)

// Summarizer runs map-reduce review summarization on the shared pool.
type Summarizer struct {
	gen  gen.TextGenerator
	pool *pool.Pool
}

// New creates a Summarizer.
func New(g gen.TextGenerator, p *pool.Pool) *Summarizer {
	return &Summarizer{gen: g, pool: p}
}

// Summarize analyzes a review list. The "no reviews" sentinel and empty
// lists return the fixed default analysis without any generation call.
// Otherwise reviews are batched, each batch summarized concurrently, and
// multiple partial summaries reconciled by one aggregation call; on
// aggregation failure the first batch's result stands.
func (s *Summarizer) Summarize(ctx context.Context, reviews []string) (*domain.AnalysisResult, error) {
	if len(reviews) == 0 || reviews[0] == domain.NoReviewsSentinel {
		log.Printf("[Summarizer] no reviews to analyze, using default analysis")
		return domain.DefaultAnalysis(), nil
	}

	batches := MakeBatches(reviews)
	partials := make([]string, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)

		err := s.pool.Submit(ctx, func(taskCtx context.Context) {
			defer wg.Done()

			out, err := s.analyzeBatch(taskCtx, batch)
			if err != nil {
				log.Printf("[Summarizer] WARNING: batch %d failed: %v", i, err)
				partials[i] = batchErrorText
				return
			}
			partials[i] = out
		})
		if err != nil {
			log.Printf("[Summarizer] WARNING: could not submit batch %d: %v", i, err)
			partials[i] = batchErrorText
			wg.Done()
		}
	}
	wg.Wait()

	if len(batches) == 1 {
		return ParseAnalysis(partials[0]), nil
	}

	aggregated, err := s.aggregate(ctx, partials)
	if err != nil {
		log.Printf("[Summarizer] WARNING: aggregation failed, falling back to first batch: %v", err)
		return ParseAnalysis(partials[0]), nil
	}

	return ParseAnalysis(aggregated), nil
}

// MakeBatches splits reviews into ordered batches of at most BatchSize.
func MakeBatches(reviews []string) [][]string {
	var batches [][]string
	for start := 0; start < len(reviews); start += BatchSize {
		end := start + BatchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		batches = append(batches, reviews[start:end])
	}
	return batches
}

func (s *Summarizer) analyzeBatch(ctx context.Context, batch []string) (string, error) {
	p, err := prompt.Render(prompt.ProductAnalyzer, map[string]string{
		"reviews": strings.Join(batch, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
	}

	return s.gen.Generate(ctx, p)
}

func (s *Summarizer) aggregate(ctx context.Context, partials []string) (string, error) {
	p, err := prompt.Render(prompt.AggregateAnalysis, map[string]string{
		"summaries": strings.Join(partials, BatchDelimiter),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
	}

	return s.gen.Generate(ctx, p)
}
