// Package validation is the deterministic reconciliation engine: a catalog
// of pure rules that detect numeric and referential violations in the
// partially-assembled media plan and repair them by proportional scaling,
// capping, or override with a computed value. Every change is recorded as
// an adjustment; warning-only findings never rewrite content.
//
// Rules are total functions: the same document always yields the same
// corrected document and the same adjustment list, and re-running any rule
// on its own output yields no further adjustments.
package validation

import (
	"math"

	"planforge/internal/config"
	"planforge/internal/plan"
)

// Rule is one named, pure validation rule operating on the working
// document. Rules mutate the working copy in place and report every change.
type Rule struct {
	Name  string
	Apply func(doc *plan.Document) []plan.Adjustment
}

// Engine binds the rule catalog to the run's tolerances and intake.
type Engine struct {
	cfg    config.ValidationConfig
	intake plan.Intake
}

// NewEngine creates an engine for one generation run.
func NewEngine(cfg config.ValidationConfig, intake plan.Intake) *Engine {
	return &Engine{cfg: cfg, intake: intake}
}

// Apply runs the rules in order, collecting their adjustments.
func (e *Engine) Apply(doc *plan.Document, rules []Rule) []plan.Adjustment {
	var all []plan.Adjustment
	for _, r := range rules {
		all = append(all, r.Apply(doc)...)
	}
	return all
}

// ResearchRules validate the research phase output before any synthesis
// call sees it.
func (e *Engine) ResearchRules() []Rule {
	return []Rule{
		{Name: "PlatformBudgetSum", Apply: e.platformBudgetSum},
		{Name: "PlatformSpendRecompute", Apply: e.platformSpendRecompute},
		{Name: "TargetingPlatformReference", Apply: e.targetingPlatformRefs},
	}
}

// StructureRules validate synthesis wave 1 output; wave 2 only ever sees
// the corrected campaign structure.
func (e *Engine) StructureRules() []Rule {
	return []Rule{
		{Name: "CampaignPlatformReference", Apply: e.campaignPlatformRefs},
		{Name: "CreativePlatformReference", Apply: e.creativePlatformRefs},
		{Name: "NamingConventionTokens", Apply: e.namingConventionTokens},
		{Name: "StaleYearToken", Apply: e.staleYearTokens},
		{Name: "RetargetingRealism", Apply: e.retargetingRealism},
	}
}

// BudgetRules reconcile the budget allocation against the intake target.
func (e *Engine) BudgetRules() []Rule {
	return []Rule{
		{Name: "BudgetDriftOverride", Apply: e.budgetDriftOverride},
		{Name: "BudgetPlatformSum", Apply: e.budgetPlatformSum},
		{Name: "FunnelSplitSum", Apply: e.funnelSplitSum},
		{Name: "BudgetPlatformSpendRecompute", Apply: e.budgetPlatformSpendRecompute},
		{Name: "BudgetPlatformReference", Apply: e.budgetPlatformRefs},
		{Name: "DailyCeilingCap", Apply: e.dailyCeilingCap},
	}
}

// CrossSectionRules reconcile the remaining numeric sections against the
// validated budget and the computed unit-economics model.
func (e *Engine) CrossSectionRules() []Rule {
	return []Rule{
		{Name: "CACModelCompute", Apply: e.cacModelCompute},
		{Name: "CampaignDailyBudgetCap", Apply: e.campaignDailyBudgetCap},
		{Name: "PhaseBudgetReconcile", Apply: e.phaseBudgetReconcile},
		{Name: "PhaseSumDrift", Apply: e.phaseSumDrift},
		{Name: "KPIModelOverride", Apply: e.kpiModelOverride},
	}
}

// FinalRules run after final synthesis, once the risk register and
// executive summary exist.
func (e *Engine) FinalRules() []Rule {
	return []Rule{
		{Name: "RiskScoring", Apply: e.riskScoring},
		{Name: "SummarySweep", Apply: e.summarySweep},
	}
}

// round2 rounds to cents.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// floor2 rounds down to cents; used where a corrected value must not
// exceed a cap.
func floor2(v float64) float64 { return math.Floor(v*100) / 100 }

func relDrift(actual, expected float64) float64 {
	if expected == 0 {
		return 0
	}
	return math.Abs(actual-expected) / math.Abs(expected)
}
