package config

import (
	"fmt"
	"time"
)

// ValidationConfig carries the tolerances and fixed business constants of
// the reconciliation engine. Tolerances are fractions (0.15 == 15%).
type ValidationConfig struct {
	// PercentTolerance is the allowed deviation of a percentage sum from 100
	// before proportional rescaling kicks in.
	PercentTolerance float64 `yaml:"percent_tolerance"`

	// BudgetDriftTolerance bounds total budget drift from the intake target.
	BudgetDriftTolerance float64 `yaml:"budget_drift_tolerance"`

	// DailyBudgetHeadroom is the multiplier on the daily ceiling that the
	// summed campaign daily budgets may reach before being scaled down.
	DailyBudgetHeadroom float64 `yaml:"daily_budget_headroom"`

	// Metric-specific KPI drift tolerances against the computed model.
	// CPL is tightest: it feeds directly into the lead-volume arithmetic.
	CPLTolerance  float64 `yaml:"cpl_tolerance"`
	CACTolerance  float64 `yaml:"cac_tolerance"`
	LeadTolerance float64 `yaml:"lead_tolerance"`
	SQLTolerance  float64 `yaml:"sql_tolerance"`
	ROASTolerance float64 `yaml:"roas_tolerance"`

	// SafetyMargin is the share of the monthly budget treated as effective
	// media spend in the CAC model; the remainder covers testing/overhead.
	SafetyMargin float64 `yaml:"safety_margin"`

	// CurrentYear anchors the stale-year naming rule. 0 means "this year".
	CurrentYear int `yaml:"current_year"`
}

// DefaultValidationConfig returns the standard tolerances.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		PercentTolerance:     0.01,
		BudgetDriftTolerance: 0.10,
		DailyBudgetHeadroom:  1.10,
		CPLTolerance:         0.15,
		CACTolerance:         0.20,
		LeadTolerance:        0.20,
		SQLTolerance:         0.20,
		ROASTolerance:        0.25,
		SafetyMargin:         0.80,
	}
}

// Year resolves the anchor year for naming checks.
func (c ValidationConfig) Year() int {
	if c.CurrentYear > 0 {
		return c.CurrentYear
	}
	return time.Now().Year()
}

// Validate checks tolerance sanity.
func (c ValidationConfig) Validate() error {
	if c.PercentTolerance < 0 {
		return fmt.Errorf("validation: percent_tolerance must be non-negative")
	}
	if c.SafetyMargin <= 0 || c.SafetyMargin > 1 {
		return fmt.Errorf("validation: safety_margin out of range: %v", c.SafetyMargin)
	}
	if c.DailyBudgetHeadroom < 1 {
		return fmt.Errorf("validation: daily_budget_headroom must be >= 1")
	}
	for name, tol := range map[string]float64{
		"budget_drift_tolerance": c.BudgetDriftTolerance,
		"cpl_tolerance":          c.CPLTolerance,
		"cac_tolerance":          c.CACTolerance,
		"lead_tolerance":         c.LeadTolerance,
		"sql_tolerance":          c.SQLTolerance,
		"roas_tolerance":         c.ROASTolerance,
	} {
		if tol <= 0 || tol >= 1 {
			return fmt.Errorf("validation: %s out of range: %v", name, tol)
		}
	}
	return nil
}
