// Package gen provides the text-generation client boundary.
package gen

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/prodlens/prodlens/internal/domain"
)

// TextGenerator produces a completion for a prompt. Implementations do not
// retry; callers own failure handling.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds Gemini client configuration
type Config struct {
	APIKey string
	Model  string
}

// GeminiClient implements TextGenerator using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini text-generation client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends a single prompt and returns the completion text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationService)
	}

	return text, nil
}
