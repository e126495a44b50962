package analyzerunner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/prodlens/prodlens/internal/analyze"
	"github.com/prodlens/prodlens/internal/cache"
	"github.com/prodlens/prodlens/internal/domain"
	"github.com/prodlens/prodlens/internal/export"
	"github.com/prodlens/prodlens/internal/fetch"
	"github.com/prodlens/prodlens/internal/gen"
	"github.com/prodlens/prodlens/internal/history/postgres"
	"github.com/prodlens/prodlens/internal/history/sqlite"
	"github.com/prodlens/prodlens/internal/interpret"
	"github.com/prodlens/prodlens/internal/pool"
	"github.com/prodlens/prodlens/internal/scrape"
	"github.com/prodlens/prodlens/internal/stream"
	"github.com/prodlens/prodlens/internal/summarize"
	"github.com/prodlens/prodlens/runner"
	"github.com/prodlens/prodlens/tlmt"
)

type analyzerunner struct {
	cfg      *runner.Config
	analyzer *analyze.Analyzer
	fetcher  *fetch.RodFetcher
	cache    cache.Cache
	history  io.Closer
	deepPool *pool.Pool
	sumPool  *pool.Pool
}

func New(ctx context.Context, cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeAnalyze && cfg.RunMode != runner.RunModeStream {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	generator, err := gen.NewGeminiClient(ctx, gen.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		return nil, err
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Headless = !cfg.Debug
	fetchOpts.Pacing = !cfg.DisablePacing

	fetcher, err := fetch.NewRodFetcher(fetchOpts)
	if err != nil {
		return nil, err
	}

	ans := analyzerunner{
		cfg:     cfg,
		fetcher: fetcher,
	}

	ans.cache = openCache(cfg)

	historyRepo, historyCloser, err := openHistory(cfg)
	if err != nil {
		_ = fetcher.Close()

		return nil, err
	}

	ans.history = historyCloser

	// The summarizer gets its own pool: summarize tasks are submitted from
	// inside deep-analysis tasks, and sharing one bounded pool across both
	// levels can deadlock with every worker waiting on a queued child.
	ans.deepPool = pool.New(cfg.Concurrency, cfg.QueueSize)
	ans.sumPool = pool.New(cfg.Concurrency, cfg.QueueSize)

	summarizer := summarize.New(generator, ans.sumPool)

	ans.analyzer = analyze.New(analyze.Config{
		Interpreter: interpret.New(generator),
		Search:      scrape.NewSearchScraper(fetcher),
		Detail:      scrape.NewDetailScraper(fetcher),
		Summarizer:  summarizer,
		Gen:         generator,
		Cache:       ans.cache,
		History:     historyRepo,
		Pool:        ans.deepPool,
	})

	return &ans, nil
}

func (a *analyzerunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("analyzerunner.Run", map[string]any{
		"stream": a.cfg.RunMode == runner.RunModeStream,
	}))

	inputs, err := a.collectInputs()
	if err != nil {
		return err
	}

	var all []*domain.Product

	for _, input := range inputs {
		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)

		var (
			products []*domain.Product
			runErr   error
		)

		if a.cfg.RunMode == runner.RunModeStream {
			products, runErr = a.runStream(reqCtx, input)
		} else {
			products, runErr = a.analyzer.Analyze(reqCtx, &domain.AnalysisRequest{
				Input:  input,
				UserID: a.cfg.UserID,
			})
		}

		cancel()

		if runErr != nil {
			log.Printf("[Runner] analysis failed for %q: %v (%s)", input, runErr, domain.Classify(runErr))

			continue
		}

		all = append(all, products...)
	}

	if len(all) == 0 {
		return domain.ErrNotFound
	}

	return a.writeResults(all)
}

// runStream consumes the event channel, printing products as they arrive,
// and returns the accumulated list for the final export.
func (a *analyzerunner) runStream(ctx context.Context, input string) ([]*domain.Product, error) {
	events := a.analyzer.AnalyzeStream(ctx, &domain.AnalysisRequest{
		Input:  input,
		UserID: a.cfg.UserID,
	})

	var products []*domain.Product

	for ev := range events {
		switch ev.Type {
		case stream.EventProduct:
			p := ev.Product
			if p == nil {
				continue
			}

			log.Printf("[Runner] streamed product: %s (rating %.1f)", p.Name, p.Rating)

			products = append(products, p)
		case stream.EventError:
			return products, ev.Err
		case stream.EventDone:
		}
	}

	return products, nil
}

func (a *analyzerunner) Close(context.Context) error {
	if a.deepPool != nil {
		a.deepPool.Stop()
	}

	if a.sumPool != nil {
		a.sumPool.Stop()
	}

	if a.cache != nil {
		_ = a.cache.Close()
	}

	if a.history != nil {
		_ = a.history.Close()
	}

	if a.fetcher != nil {
		return a.fetcher.Close()
	}

	return nil
}

func (a *analyzerunner) collectInputs() ([]string, error) {
	if a.cfg.InputFile == "" {
		return []string{a.cfg.Input}, nil
	}

	var input io.Reader

	switch a.cfg.InputFile {
	case "stdin":
		input = os.Stdin
	default:
		f, err := os.Open(a.cfg.InputFile)
		if err != nil {
			return nil, err
		}

		defer f.Close()

		input = f
	}

	var inputs []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		inputs = append(inputs, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if a.cfg.Input != "" {
		inputs = append([]string{a.cfg.Input}, inputs...)
	}

	return inputs, nil
}

func (a *analyzerunner) writeResults(products []*domain.Product) error {
	if a.cfg.ResultsFile == "stdout" {
		if a.cfg.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(products)
		}

		return export.WriteCSV(os.Stdout, products)
	}

	if strings.HasSuffix(a.cfg.ResultsFile, ".xlsx") {
		return export.WriteXLSX(a.cfg.ResultsFile, products)
	}

	f, err := os.Create(a.cfg.ResultsFile)
	if err != nil {
		return err
	}

	defer f.Close()

	if a.cfg.JSON {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")

		return enc.Encode(products)
	}

	return export.WriteCSV(f, products)
}

func openCache(cfg *runner.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewNoOpCache()
	}

	c, err := cache.NewRedisCache(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Printf("[Runner] redis unavailable, caching disabled: %v", err)

		return cache.NewNoOpCache()
	}

	return c
}

// openHistory picks the history backend: postgres when a DSN is set, sqlite
// when a path is set, otherwise no persistence at all.
func openHistory(cfg *runner.Config) (domain.HistoryRepository, io.Closer, error) {
	switch {
	case cfg.Dsn != "":
		repo, err := postgres.Open(cfg.Dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres history: %w", err)
		}

		return repo, repo, nil
	case cfg.SQLitePath != "":
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite history: %w", err)
		}

		return repo, repo, nil
	default:
		return nil, nil, nil
	}
}
