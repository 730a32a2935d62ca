package generation

import (
	"context"
	"fmt"

	"planforge/internal/config"
)

// Request is one generation call: prompts, the expected response schema,
// and generation settings.
type Request struct {
	System          string
	Prompt          string
	Schema          map[string]any // response JSON schema; nil means free text
	Temperature     float64
	MaxOutputTokens int
}

// Response is the raw provider result before structural validation.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// LLMClient is a single-attempt generative model transport. Providers
// classify their own failures: a throughput rejection comes back as a
// *RateLimitError, anything else is fatal to the attempt. Retrying is the
// Caller's job.
type LLMClient interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Model() string
	Provider() string
}

// NewClient builds the provider selected by configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			MinRequestSpacing: cfg.MinRequestSpacing(),
		})
	case "openai-compat":
		return NewOpenAICompatClient(OpenAICompatConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			MinRequestSpacing: cfg.MinRequestSpacing(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
