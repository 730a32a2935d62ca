package config

import (
	"fmt"
	"time"
)

// PipelineConfig tunes the generation pipeline: wave staggering, retry
// bounds, and per-phase generation settings.
type PipelineConfig struct {
	// StaggerMS is the fixed delay between successive task starts within a
	// synthesis wave, smoothing load against the provider's per-minute
	// throughput budget.
	StaggerMS int `yaml:"stagger_ms" env:"PLANFORGE_STAGGER_MS"`

	// SchemaRetries bounds immediate retries after a structural mismatch.
	SchemaRetries int `yaml:"schema_retries"`

	// RateLimitRetries bounds backoff retries after a rate limit; these are
	// not counted against the schema-mismatch budget.
	RateLimitRetries   int `yaml:"rate_limit_retries"`
	RateLimitBaseMS    int `yaml:"rate_limit_base_ms"`
	ResearchMaxTokens  int `yaml:"research_max_tokens"`
	SynthesisMaxTokens int `yaml:"synthesis_max_tokens"`

	Temperature float64 `yaml:"temperature"`
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StaggerMS:          4000,
		SchemaRetries:      2,
		RateLimitRetries:   5,
		RateLimitBaseMS:    2000,
		ResearchMaxTokens:  4096,
		SynthesisMaxTokens: 8192,
		Temperature:        0.4,
	}
}

// Stagger returns the wave stagger delay as a duration.
func (c PipelineConfig) Stagger() time.Duration {
	return time.Duration(c.StaggerMS) * time.Millisecond
}

// RateLimitBase returns the backoff base delay as a duration.
func (c PipelineConfig) RateLimitBase() time.Duration {
	return time.Duration(c.RateLimitBaseMS) * time.Millisecond
}

// Validate checks retry and token bounds.
func (c PipelineConfig) Validate() error {
	if c.SchemaRetries < 0 || c.RateLimitRetries < 0 {
		return fmt.Errorf("pipeline: retry bounds must be non-negative")
	}
	if c.ResearchMaxTokens <= 0 || c.SynthesisMaxTokens <= 0 {
		return fmt.Errorf("pipeline: max token settings must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("pipeline: temperature out of range: %v", c.Temperature)
	}
	return nil
}
