package fetch

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/prodlens/prodlens/internal/domain"
)

// Options configures the rod-backed fetcher.
type Options struct {
	Headless bool

	// Pacing enables a randomized 2-4s delay after navigation, simulating
	// human browsing before the page is read
	Pacing bool

	// Diversify rotates the user agent per fetch
	Diversify bool

	// SettleWait bounds the wait for dynamic content to stabilize
	SettleWait time.Duration
}

// DefaultOptions returns the production fetch settings.
func DefaultOptions() Options {
	return Options{
		Headless:   true,
		Pacing:     true,
		Diversify:  true,
		SettleWait: 10 * time.Second,
	}
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.97",
}

// RodFetcher implements Fetcher on a shared headless browser. Each acquired
// session owns one stealth page.
type RodFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
}

// NewRodFetcher launches a browser and connects to it.
func NewRodFetcher(opts Options) (*RodFetcher, error) {
	l := launcher.New().Headless(opts.Headless)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{browser: browser, launcher: l, opts: opts}, nil
}

// Acquire opens a fresh stealth page for exclusive use by one scrape call.
func (f *RodFetcher) Acquire(ctx context.Context) (Session, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open page: %v", domain.ErrExtractionFailed, err)
	}

	return &rodSession{page: page, opts: f.opts}, nil
}

// Close shuts the browser down.
func (f *RodFetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	return err
}

type rodSession struct {
	page *rod.Page
	opts Options
}

func (s *rodSession) Fetch(ctx context.Context, url string) (*Page, error) {
	page := s.page.Context(ctx)

	if s.opts.Diversify {
		ua := userAgents[rand.Intn(len(userAgents))]
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			log.Printf("[Fetcher] WARNING: failed to set user agent: %v", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: navigation to %s failed: %v", domain.ErrExtractionFailed, url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: page load for %s failed: %v", domain.ErrExtractionFailed, url, err)
	}

	// Dynamic content gets a bounded window to settle; a timeout here is
	// not fatal, the rendered state is used as-is.
	if s.opts.SettleWait > 0 {
		if err := page.Timeout(s.opts.SettleWait).WaitStable(300 * time.Millisecond); err != nil {
			log.Printf("[Fetcher] page did not stabilize within %v, continuing: %v", s.opts.SettleWait, err)
		}
	}

	if s.opts.Pacing {
		pace(ctx)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page source: %v", domain.ErrExtractionFailed, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil {
		finalURL = info.URL
	}

	result, err := NewPage(finalURL, html)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse page: %v", domain.ErrExtractionFailed, err)
	}

	return result, nil
}

func (s *rodSession) Release() {
	if err := s.page.Close(); err != nil {
		log.Printf("[Fetcher] WARNING: failed to close page: %v", err)
	}
}

// pace sleeps 2-4 seconds, respecting context cancellation.
func pace(ctx context.Context) {
	delay := 2*time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
