package config

import (
	"fmt"
	"time"
)

// LLMConfig configures the generative model provider.
type LLMConfig struct {
	Provider string `yaml:"provider" env:"PLANFORGE_LLM_PROVIDER"` // gemini, openai-compat
	APIKey   string `yaml:"api_key" env:"PLANFORGE_API_KEY"`
	Model    string `yaml:"model" env:"PLANFORGE_MODEL"`
	BaseURL  string `yaml:"base_url" env:"PLANFORGE_BASE_URL"` // openai-compat only

	// TimeoutSeconds bounds a single model call including response read.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"PLANFORGE_LLM_TIMEOUT_SECONDS"`

	// MinRequestSpacingMS is the client-side floor between request starts,
	// independent of the wave stagger. 0 disables spacing.
	MinRequestSpacingMS int `yaml:"min_request_spacing_ms"`
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:            "gemini",
		Model:               "gemini-2.5-flash",
		TimeoutSeconds:      180,
		MinRequestSpacingMS: 200,
	}
}

// Timeout returns the call timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinRequestSpacing returns the request spacing floor as a duration.
func (c LLMConfig) MinRequestSpacing() time.Duration {
	return time.Duration(c.MinRequestSpacingMS) * time.Millisecond
}

// Validate checks provider selection and timeouts.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "gemini", "openai-compat":
	default:
		return fmt.Errorf("llm: unknown provider %q", c.Provider)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm: timeout_seconds must be positive")
	}
	if c.Provider == "openai-compat" && c.BaseURL == "" {
		return fmt.Errorf("llm: base_url required for openai-compat provider")
	}
	return nil
}
