// Package config holds planforge configuration, one struct per concern.
// Resolution order: built-in defaults, then the YAML file, then environment
// overrides (PLANFORGE_* variables).
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"planforge/internal/logging"
)

// Config is the root configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Debug bool `yaml:"debug" env:"PLANFORGE_DEBUG"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:        DefaultLLMConfig(),
		Pipeline:   DefaultPipelineConfig(),
		Validation: DefaultValidationConfig(),
	}
}

// Load resolves the configuration: defaults, then the YAML file at path
// (missing file is fine when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		logging.Config("loaded config from %s", path)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field sanity of the resolved configuration.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Validation.Validate()
}
