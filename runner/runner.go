package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/prodlens/prodlens/tlmt"
	"github.com/prodlens/prodlens/tlmt/gonoop"
	"github.com/prodlens/prodlens/tlmt/goposthog"
)

const (
	RunModeAnalyze = iota + 1
	RunModeStream
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	Input          string
	InputFile      string
	UserID         string
	ResultsFile    string
	JSON           bool
	Concurrency    int
	QueueSize      int
	Debug          bool
	DisablePacing  bool
	RequestTimeout time.Duration
	Dsn            string
	SQLitePath     string
	RedisAddr      string
	RedisPass      string
	RedisDB        int
	GeminiAPIKey   string
	GeminiModel    string
	RunMode        int
}

func ParseConfig() *Config {
	// Optional .env next to the binary; real env vars win.
	_ = godotenv.Load()

	cfg := Config{}

	var stream bool

	flag.StringVar(&cfg.Input, "input", "", "product description or https product URL to analyze")
	flag.StringVar(&cfg.InputFile, "input-file", "", "path to a file with inputs (one per line)")
	flag.StringVar(&cfg.UserID, "user", "", "user id recorded with analysis history [default: anonymous]")
	flag.StringVar(&cfg.ResultsFile, "results", "stdout", "path to the results file (.xlsx or .csv) [default: stdout]")
	flag.BoolVar(&cfg.JSON, "json", false, "produce JSON output instead of CSV")
	flag.BoolVar(&stream, "stream", false, "emit products incrementally as they complete")
	flag.IntVar(&cfg.Concurrency, "c", 5, "sets the deep-analysis concurrency [default: 5]")
	flag.IntVar(&cfg.QueueSize, "queue", 25, "sets the analysis queue capacity [default: 25]")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable headful crawl (opens browser window) [default: false]")
	flag.BoolVar(&cfg.DisablePacing, "no-pacing", false, "disable randomized request pacing")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 2*time.Minute, "hard deadline per analysis request")
	flag.StringVar(&cfg.Dsn, "dsn", "", "postgres connection string for analysis history [default: empty]")
	flag.StringVar(&cfg.SQLitePath, "sqlite", "", "sqlite database path for analysis history (used when -dsn is empty)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address (host:port) for the result cache")
	flag.StringVar(&cfg.RedisPass, "redis-pass", "", "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flag.StringVar(&cfg.GeminiAPIKey, "gemini-key", "", "Gemini API key [default: GEMINI_API_KEY env]")
	flag.StringVar(&cfg.GeminiModel, "gemini-model", "", "Gemini model name [default: gemini-2.0-flash]")

	flag.Parse()

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.Dsn == "" {
		cfg.Dsn = os.Getenv("HISTORY_DSN")
	}

	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}

	if cfg.UserID == "" {
		cfg.UserID = "anonymous"
	}

	if cfg.Input == "" && cfg.InputFile == "" {
		panic("either -input or -input-file must be provided")
	}

	if cfg.GeminiAPIKey == "" {
		panic("Gemini API key must be provided via -gemini-key or GEMINI_API_KEY")
	}

	if cfg.Concurrency < 1 {
		panic("Concurrency must be greater than 0")
	}

	if cfg.QueueSize < 1 {
		panic("QueueSize must be greater than 0")
	}

	if cfg.RequestTimeout <= 0 {
		panic("RequestTimeout must be positive")
	}

	if stream {
		cfg.RunMode = RunModeStream
	} else {
		cfg.RunMode = RunModeAnalyze
	}

	return &cfg
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		disableTel := func() bool {
			return os.Getenv("DISABLE_TELEMETRY") == "1"
		}()

		if disableTel {
			telemetry = gonoop.New()

			return
		}

		apiKey := os.Getenv("POSTHOG_API_KEY")
		if apiKey == "" {
			telemetry = gonoop.New()

			return
		}

		val, err := goposthog.New(apiKey, "https://eu.i.posthog.com")
		if err != nil || val == nil {
			telemetry = gonoop.New()

			return
		}

		telemetry = val
	})

	return telemetry
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		runeWidth := runewidth.RuneWidth(r)
		if currentWidth+runeWidth > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = runeWidth
		} else {
			currentLine += string(r)
			currentWidth += runeWidth
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(0)
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrappedLines []string
	for _, message := range messages {
		wrappedLines = append(wrappedLines, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for _, line := range wrappedLines {
		lineWidth := runewidth.StringWidth(line)
		paddingRight := contentWidth - lineWidth

		if paddingRight < 0 {
			paddingRight = 0
		}

		builder.WriteString(fmt.Sprintf("║ %s%s ║\n", line, strings.Repeat(" ", paddingRight)))
	}

	builder.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return builder.String()
}

func Banner() {
	message1 := "🔍 ProdLens - Product Discovery & Analysis"
	message2 := "🛒 Search, scrape and summarize marketplace products"
	message3 := fmt.Sprintf("v%s (%s)", Version, BuildDate)

	fmt.Fprintln(os.Stderr, banner([]string{message1, message2, message3}, 0))
}
