package analyze

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/rank"
	"github.com/prodlens/prodlens/internal/scrape"
	"github.com/prodlens/prodlens/internal/stream"
)

// streamBuffer sizes the event channel so producers rarely block on a
// slow consumer.
const streamBuffer = 16

// AnalyzeStream runs the pipeline and emits results incrementally. The
// main product is always emitted before any similar product; similar and
// candidate products follow task-completion order, which callers must not
// assume matches ranking. The stream carries a hard wall-clock timeout;
// results completing after it are discarded, and a failure after partial
// emission surfaces as an error event without retracting prior events.
func (a *Analyzer) AnalyzeStream(ctx context.Context, req *domain.AnalysisRequest) <-chan stream.Event {
	requestID := uuid.New().String()
	emitter, streamCtx := stream.NewEmitter(ctx, requestID, stream.DefaultTimeout, streamBuffer)

	go a.runStream(streamCtx, req, emitter)

	return emitter.Events()
}

func (a *Analyzer) runStream(ctx context.Context, req *domain.AnalysisRequest, emitter *stream.Emitter) {
	if err := req.Validate(); err != nil {
		emitter.Fail(err)
		return
	}

	if products, ok := a.checkCache(ctx, req.Input); ok {
		log.Printf("[Analyzer] cache hit for %q (stream)", req.Input)
		for _, p := range products {
			emitter.Product(p)
		}
		emitter.Done()
		return
	}

	if product, ok := a.checkHistory(ctx, req.Input); ok {
		log.Printf("[Analyzer] history hit for %q (stream)", req.Input)
		emitter.Product(product)
		emitter.Done()
		return
	}

	var (
		products []*domain.Product
		err      error
	)

	if req.IsURL() {
		products, err = a.streamURL(ctx, req.Input, emitter)
	} else {
		products, err = a.streamDescription(ctx, req.Input, emitter)
	}
	if err != nil {
		emitter.Fail(err)
		return
	}

	a.persist(ctx, req, products)
	a.writeCache(ctx, req.Input, products)

	emitter.Done()
}

// streamURL emits the main product as soon as it is analyzed, then similar
// products as their tasks complete.
func (a *Analyzer) streamURL(ctx context.Context, productURL string, emitter *stream.Emitter) ([]*domain.Product, error) {
	if err := scrape.ValidateMarketplaceURL(productURL); err != nil {
		return nil, err
	}

	main, err := a.analyzeOne(ctx, productURL)
	if err != nil {
		if domain.Classify(err) != domain.KindInternal {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}

	main.Recommended = true
	emitter.Product(main)

	similars := a.discoverSimilar(ctx, main, func(p *domain.Product) {
		emitter.Product(p)
	})

	return append([]*domain.Product{main}, similars...), nil
}

// streamDescription emits each analyzed candidate as its concurrent task
// completes. The ranked list is still computed afterwards so persistence
// and the cache store the same ordering a batch call would return.
func (a *Analyzer) streamDescription(ctx context.Context, description string, emitter *stream.Emitter) ([]*domain.Product, error) {
	urls, err := a.interp.BuildSearchURLs(ctx, description)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no search intent derived from description", domain.ErrNotFound)
	}

	candidates, err := a.discoverCandidates(ctx, urls)
	if err != nil {
		return nil, err
	}

	shortlist := rank.FilterCandidates(candidates)

	products := a.deepAnalyze(ctx, candidateURLs(shortlist), func(p *domain.Product) bool {
		if !p.IsValid() || p.Rating == 0.0 {
			return false
		}
		emitter.Product(p)
		return true
	})

	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no suitable products found for the given description", domain.ErrNotFound)
	}

	ranked := rank.RankProducts(products, rank.TopDescription)

	// Events for these products are already in flight; flag the
	// recommendation on a copy so the emitted values are not mutated.
	top := *ranked[0]
	top.Recommended = true
	ranked[0] = &top

	return ranked, nil
}
