package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"planforge/internal/logging"
)

// OpenAICompatConfig holds configuration for an OpenAI-compatible endpoint.
type OpenAICompatConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MinRequestSpacing time.Duration
}

// OpenAICompatClient implements LLMClient against any /chat/completions
// compatible API. Structured output uses the json_schema response format
// with strict mode.
type OpenAICompatClient struct {
	apiKey     string
	baseURL    string
	model      string
	spacing    time.Duration
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAICompatClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAICompatClient(cfg OpenAICompatConfig) *OpenAICompatClient {
	return &OpenAICompatClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		spacing: cfg.MinRequestSpacing,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Model returns the configured model name.
func (c *OpenAICompatClient) Model() string { return c.model }

// Provider returns the provider key.
func (c *OpenAICompatClient) Provider() string { return "openai-compat" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate performs a single generation attempt.
func (c *OpenAICompatClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openai-compat: API key not configured")
	}

	c.waitForSpacing()

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "section",
				Strict: true,
				Schema: req.Schema,
			},
		}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai-compat: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("openai-compat: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	logging.GenerationDebug("[openai-compat] generate model=%s prompt_len=%d", c.model, len(req.Prompt))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai-compat: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai-compat: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Provider: "openai-compat",
			Err:      fmt.Errorf("status 429: %s", strings.TrimSpace(string(respBody))),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai-compat: status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("openai-compat: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai-compat: API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, &SchemaMismatchError{Section: "response", Reason: "no completion returned"}
	}

	return &Response{
		Text:         strings.TrimSpace(parsed.Choices[0].Message.Content),
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAICompatClient) waitForSpacing() {
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
