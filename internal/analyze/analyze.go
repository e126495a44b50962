// Package analyze coordinates the product discovery and analysis pipeline:
// cache check, intent derivation, shallow discovery, shortlisting,
// concurrent deep analysis, ranking, similar-item discovery, best-effort
// persistence and emission.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/prodlens/prodlens/internal/cache"
	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/gen"
	"github.com/prodlens/prodlens/internal/interpret"
	"github.com/prodlens/prodlens/internal/pool"
	"github.com/prodlens/prodlens/internal/prompt"
	"github.com/prodlens/prodlens/internal/rank"
	"github.com/prodlens/prodlens/internal/scrape"
)

// maxDeepTasks caps how many shortlisted URLs get a deep-analysis task.
const maxDeepTasks = 10

// fallbackKeywordWords is how many words of the product name seed the
// similar-item search when keyword extraction yields nothing.
const fallbackKeywordWords = 5

// SearchScraper extracts shallow candidates from a search results page.
type SearchScraper interface {
	ScrapeSearchPage(ctx context.Context, url string) ([]*domain.Candidate, error)
}

// DetailScraper extracts full product detail from a product page.
type DetailScraper interface {
	ScrapeDetail(ctx context.Context, url string) (*domain.Product, error)
}

// Summarizer turns raw reviews into a structured analysis.
type Summarizer interface {
	Summarize(ctx context.Context, reviews []string) (*domain.AnalysisResult, error)
}

// Interpreter derives search URLs from a description.
type Interpreter interface {
	BuildSearchURLs(ctx context.Context, description string) ([]string, error)
}

// Config wires the analyzer's collaborators.
type Config struct {
	Interpreter Interpreter
	Search      SearchScraper
	Detail      DetailScraper
	Summarizer  Summarizer
	Gen         gen.TextGenerator
	Cache       cache.Cache
	History     domain.HistoryRepository
	Pool        *pool.Pool
}

// Analyzer is the top-level pipeline coordinator.
type Analyzer struct {
	interp  Interpreter
	search  SearchScraper
	detail  DetailScraper
	summary Summarizer
	gen     gen.TextGenerator
	cache   cache.Cache
	history domain.HistoryRepository
	pool    *pool.Pool
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{
		interp:  cfg.Interpreter,
		search:  cfg.Search,
		detail:  cfg.Detail,
		summary: cfg.Summarizer,
		gen:     cfg.Gen,
		cache:   cfg.Cache,
		history: cfg.History,
		pool:    cfg.Pool,
	}
}

// AnalyzeByDescription analyzes a free-text product description.
func (a *Analyzer) AnalyzeByDescription(ctx context.Context, description, userID string) ([]*domain.Product, error) {
	return a.Analyze(ctx, &domain.AnalysisRequest{Input: description, UserID: userID})
}

// AnalyzeByURL analyzes a direct product URL.
func (a *Analyzer) AnalyzeByURL(ctx context.Context, productURL, userID string) ([]*domain.Product, error) {
	return a.Analyze(ctx, &domain.AnalysisRequest{Input: productURL, UserID: userID})
}

// Analyze runs the full pipeline for one request and returns the ranked
// product list. The input is classified as a URL iff it starts with the
// literal prefix "https".
func (a *Analyzer) Analyze(ctx context.Context, req *domain.AnalysisRequest) ([]*domain.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Explicit cache read before any pipeline work.
	if products, ok := a.checkCache(ctx, req.Input); ok {
		log.Printf("[Analyzer] cache hit for %q", req.Input)
		return products, nil
	}

	if product, ok := a.checkHistory(ctx, req.Input); ok {
		log.Printf("[Analyzer] history hit for %q", req.Input)
		return []*domain.Product{product}, nil
	}

	var (
		products []*domain.Product
		err      error
	)

	if req.IsURL() {
		products, err = a.analyzeURL(ctx, req.Input)
	} else {
		products, err = a.analyzeDescription(ctx, req.Input)
	}
	if err != nil {
		return nil, err
	}

	a.persist(ctx, req, products)
	a.writeCache(ctx, req.Input, products)

	return products, nil
}

// analyzeDescription drives intent derivation, shallow discovery,
// shortlisting, concurrent deep analysis and final ranking.
func (a *Analyzer) analyzeDescription(ctx context.Context, description string) ([]*domain.Product, error) {
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

	products := a.deepAnalyze(ctx, candidateURLs(shortlist), nil)
	products = validProducts(products)
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no suitable products found for the given description", domain.ErrNotFound)
	}

	ranked := rank.RankProducts(products, rank.TopDescription)
	rank.MarkRecommended(ranked)

	return ranked, nil
}

// analyzeURL deep-analyzes the given product page and then discovers
// similar items via a keyword derived from the product name.
func (a *Analyzer) analyzeURL(ctx context.Context, productURL string) ([]*domain.Product, error) {
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

	similars := a.discoverSimilar(ctx, main, nil)

	results := append([]*domain.Product{main}, similars...)
	rank.MarkRecommended(results)

	return results, nil
}

// discoverSimilar runs the shallow pipeline on a keyword derived from the
// main product's name. All failures degrade to an empty result: similar
// items are a best-effort enrichment. When emit is non-nil each similar
// product is also handed to it as its task completes.
func (a *Analyzer) discoverSimilar(ctx context.Context, main *domain.Product, emit func(*domain.Product)) []*domain.Product {
	keyword := a.similarKeyword(ctx, main.Name)

	searchURL := interpret.BuildSearchURL(&domain.SearchCriteria{Keywords: keyword}, keyword)

	candidates, err := a.search.ScrapeSearchPage(ctx, searchURL)
	if err != nil {
		log.Printf("[Analyzer] WARNING: similar-item discovery failed: %v", err)
		return nil
	}

	shortlist := rank.FilterCandidates(candidates)

	urls := make([]string, 0, len(shortlist))
	for _, c := range shortlist {
		if strings.EqualFold(c.Name, main.Name) {
			continue
		}
		urls = append(urls, c.URL)
	}
	if len(urls) > rank.TopSimilar {
		urls = urls[:rank.TopSimilar]
	}

	products := a.deepAnalyze(ctx, urls, func(p *domain.Product) bool {
		if !p.IsValid() || p.Rating == 0.0 {
			return false
		}
		if strings.EqualFold(p.Name, main.Name) {
			return false
		}
		if emit != nil {
			emit(p)
		}
		return true
	})

	return rank.RankProducts(products, rank.TopSimilar)
}

// similarKeyword derives a short search keyword from a product name,
// falling back to the name's first words when extraction yields nothing.
func (a *Analyzer) similarKeyword(ctx context.Context, name string) string {
	p, err := prompt.Render(prompt.KeywordExtract, map[string]string{"name": name})
	if err == nil {
		if keyword, genErr := a.gen.Generate(ctx, p); genErr == nil {
			keyword = strings.TrimSpace(keyword)
			if keyword != "" {
				return keyword
			}
		} else {
			log.Printf("[Analyzer] WARNING: keyword extraction failed: %v", genErr)
		}
	}

	words := strings.Fields(name)
	if len(words) > fallbackKeywordWords {
		words = words[:fallbackKeywordWords]
	}
	return strings.Join(words, " ")
}

// discoverCandidates tries search URLs strictly in order; the first one
// yielding at least one candidate wins and the rest are not tried.
func (a *Analyzer) discoverCandidates(ctx context.Context, urls []string) ([]*domain.Candidate, error) {
	for _, u := range urls {
		candidates, err := a.search.ScrapeSearchPage(ctx, u)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return nil, err
			}
			log.Printf("[Analyzer] WARNING: search page %s failed: %v", u, err)
			continue
		}

		if len(candidates) > 0 {
			return candidates, nil
		}

		log.Printf("[Analyzer] no candidates on %s, trying next search URL", u)
	}

	return nil, fmt.Errorf("%w: no products found even without price restrictions", domain.ErrNotFound)
}

// deepAnalyze fans deep scrape + summarization out over the worker pool,
// one task per URL, capped. Individual task failures are swallowed and
// logged; the candidate is simply dropped. The optional accept callback
// runs under the collection lock as each product completes; returning
// false drops the product.
func (a *Analyzer) deepAnalyze(ctx context.Context, urls []string, accept func(*domain.Product) bool) []*domain.Product {
	if len(urls) > maxDeepTasks {
		urls = urls[:maxDeepTasks]
	}

	var (
		mu       sync.Mutex
		products []*domain.Product
		wg       sync.WaitGroup
	)

	for _, u := range urls {
		wg.Add(1)

		err := a.pool.Submit(ctx, func(taskCtx context.Context) {
			defer wg.Done()

			product, err := a.analyzeOne(taskCtx, u)
			if err != nil {
				log.Printf("[Analyzer] WARNING: failed to analyze %s: %v", u, err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if accept != nil && !accept(product) {
				return
			}
			products = append(products, product)
		})
		if err != nil {
			log.Printf("[Analyzer] WARNING: could not submit deep-analysis task for %s: %v", u, err)
			wg.Done()
		}
	}

	wg.Wait()
	return products
}

// analyzeOne deep-scrapes one product page and summarizes its reviews.
func (a *Analyzer) analyzeOne(ctx context.Context, productURL string) (*domain.Product, error) {
	product, err := a.detail.ScrapeDetail(ctx, productURL)
	if err != nil {
		return nil, err
	}

	analysis, err := a.summary.Summarize(ctx, product.Reviews)
	if err != nil {
		log.Printf("[Analyzer] WARNING: summarization failed for %q, using default analysis: %v", product.Name, err)
		analysis = domain.DefaultAnalysis()
	}
	product.ApplyAnalysis(analysis)

	return product, nil
}

// validProducts keeps products with a usable name and a non-zero
// post-summarization rating. The two checks are independent on purpose.
func validProducts(products []*domain.Product) []*domain.Product {
	var valid []*domain.Product
	for _, p := range products {
		if p.IsValid() && p.Rating != 0.0 {
			valid = append(valid, p)
		}
	}
	return valid
}

func candidateURLs(candidates []*domain.Candidate) []string {
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.URL)
	}
	return urls
}

func (a *Analyzer) checkCache(ctx context.Context, input string) ([]*domain.Product, bool) {
	if a.cache == nil {
		return nil, false
	}

	data, err := a.cache.Get(ctx, cache.ProductKey(input))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[Analyzer] WARNING: cache read failed: %v", err)
		}
		return nil, false
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Printf("[Analyzer] WARNING: corrupt cache entry for %q: %v", input, err)
		return nil, false
	}

	return products, len(products) > 0
}

func (a *Analyzer) writeCache(ctx context.Context, input string, products []*domain.Product) {
	if a.cache == nil || len(products) == 0 {
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		log.Printf("[Analyzer] WARNING: failed to serialize cache entry: %v", err)
		return
	}

	if err := a.cache.Set(ctx, cache.ProductKey(input), data, cache.TTLProduct); err != nil {
		log.Printf("[Analyzer] WARNING: cache write failed: %v", err)
	}
}

func (a *Analyzer) checkHistory(ctx context.Context, input string) (*domain.Product, bool) {
	if a.history == nil {
		return nil, false
	}

	record, err := a.history.FindByQueryOrName(ctx, input)
	if err != nil {
		log.Printf("[Analyzer] WARNING: history lookup failed: %v", err)
		return nil, false
	}
	if record == nil {
		return nil, false
	}

	return record.ToProduct(), true
}

// persist writes a history record for the top product. Best effort: any
// failure is logged and swallowed, never surfaced to the caller.
func (a *Analyzer) persist(ctx context.Context, req *domain.AnalysisRequest, products []*domain.Product) {
	if a.history == nil || len(products) == 0 {
		return
	}

	record := domain.RecordFor(req.UserID, req.Input, products[0])
	if err := a.history.Save(ctx, record); err != nil {
		log.Printf("[Analyzer] WARNING: failed to save history record: %v", err)
	}
}
