package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 4*time.Second, cfg.Pipeline.Stagger())
	assert.Equal(t, 2, cfg.Pipeline.SchemaRetries)
	assert.Equal(t, 0.80, cfg.Validation.SafetyMargin)
	assert.Equal(t, 0.15, cfg.Validation.CPLTolerance)
	assert.Equal(t, 0.20, cfg.Validation.CACTolerance)
	assert.Equal(t, 0.10, cfg.Validation.BudgetDriftTolerance)
	assert.Equal(t, 1.10, cfg.Validation.DailyBudgetHeadroom)
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Setenv("PLANFORGE_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  model: gemini-2.5-pro
pipeline:
  stagger_ms: 1000
validation:
  budget_drift_tolerance: 0.2
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, time.Second, cfg.Pipeline.Stagger())
	assert.Equal(t, 0.2, cfg.Validation.BudgetDriftTolerance)
	// Untouched settings keep their defaults.
	assert.Equal(t, 2, cfg.Pipeline.SchemaRetries)
}

func TestLoadEnvWinsOverYAML(t *testing.T) {
	t.Setenv("PLANFORGE_API_KEY", "test-key")
	t.Setenv("PLANFORGE_STAGGER_MS", "250")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  stagger_ms: 9000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Pipeline.StaggerMS)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Setenv("PLANFORGE_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  safety_margin: 2.0\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err, "safety_margin > 1 must be rejected")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidationConfigBounds(t *testing.T) {
	cfg := DefaultValidationConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.DailyBudgetHeadroom = 0.5
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.CACTolerance = 0
	assert.Error(t, bad.Validate())
}

func TestYearAnchor(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.CurrentYear = 2026
	assert.Equal(t, 2026, cfg.Year())

	cfg.CurrentYear = 0
	assert.Equal(t, time.Now().Year(), cfg.Year())
}
