package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"planforge/internal/logging"
)

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	MinRequestSpacing time.Duration
}

// GeminiClient implements LLMClient on the Google Gemini API via the genai
// SDK. Structured output uses responseMimeType application/json plus a
// response JSON schema.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	spacing time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
		spacing: cfg.MinRequestSpacing,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// Provider returns the provider key.
func (c *GeminiClient) Provider() string { return "gemini" }

// Generate performs a single generation attempt.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	// Auto-apply timeout if the context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.waitForSpacing()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.Schema
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	logging.GenerationDebug("[gemini] generate model=%s prompt_len=%d schema=%v",
		c.model, len(req.Prompt), req.Schema != nil)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, &RateLimitError{Provider: "gemini", Err: err}
		}
		return nil, fmt.Errorf("gemini: generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &SchemaMismatchError{Section: "response", Reason: "empty completion"}
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// waitForSpacing enforces the client-side floor between request starts.
func (c *GeminiClient) waitForSpacing() {
	if c.spacing <= 0 {
		return
	}
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.spacing {
		time.Sleep(c.spacing - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}
