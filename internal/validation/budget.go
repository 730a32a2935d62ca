package validation

import (
	"fmt"
	"math"
	"strings"

	"planforge/internal/plan"
)

// rescaleTo100 proportionally rescales values so they sum to exactly 100,
// rounding each to two decimals and pushing the rounding residual onto the
// largest entry. Returns false when the input sum is already within
// tolerance (or is zero, which proportional scaling cannot repair).
func rescaleTo100(values []float64, tol float64) ([]float64, bool) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum == 0 || math.Abs(sum-100) <= tol {
		return values, false
	}
	out := make([]float64, len(values))
	largest := 0
	for i, v := range values {
		out[i] = round2(v * 100 / sum)
		if out[i] > out[largest] {
			largest = i
		}
	}
	var scaled float64
	for _, v := range out {
		scaled += v
	}
	out[largest] = round2(out[largest] + 100 - scaled)
	return out, true
}

// platformBudgetSum rescales the research-phase platform budget percentages
// to sum to 100.
func (e *Engine) platformBudgetSum(doc *plan.Document) []plan.Adjustment {
	s := doc.PlatformStrategy
	if s == nil || len(s.Platforms) == 0 {
		return nil
	}
	values := make([]float64, len(s.Platforms))
	for i, p := range s.Platforms {
		values[i] = p.BudgetPercentage
	}
	fixed, changed := rescaleTo100(values, e.cfg.PercentTolerance)
	if !changed {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range s.Platforms {
		if s.Platforms[i].BudgetPercentage == fixed[i] {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("PlatformBudgetSum",
			fmt.Sprintf("platform_strategy.platforms[%d].budget_percentage", i),
			s.Platforms[i].BudgetPercentage, fixed[i],
			"platform budget percentages rescaled to sum to 100"))
		s.Platforms[i].BudgetPercentage = fixed[i]
	}
	return adjs
}

// platformSpendRecompute derives each platform's monthly spend from its
// percentage of the intake target budget.
func (e *Engine) platformSpendRecompute(doc *plan.Document) []plan.Adjustment {
	s := doc.PlatformStrategy
	if s == nil {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range s.Platforms {
		expected := math.Round(e.intake.TargetMonthlyBudget * s.Platforms[i].BudgetPercentage / 100)
		if s.Platforms[i].MonthlySpend == expected {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("PlatformSpendRecompute",
			fmt.Sprintf("platform_strategy.platforms[%d].monthly_spend", i),
			s.Platforms[i].MonthlySpend, expected,
			fmt.Sprintf("monthly spend derived from %.2f%% of $%.0f target budget",
				s.Platforms[i].BudgetPercentage, e.intake.TargetMonthlyBudget)))
		s.Platforms[i].MonthlySpend = expected
	}
	return adjs
}

// budgetDriftOverride pins the allocation total back to the intake target
// when it drifted beyond tolerance. Downstream rules then recompute every
// value derived from the total.
func (e *Engine) budgetDriftOverride(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil {
		return nil
	}
	target := e.intake.TargetMonthlyBudget
	if relDrift(b.TotalMonthlyBudget, target) <= e.cfg.BudgetDriftTolerance {
		return nil
	}
	adj := plan.CorrectedAdjustment("BudgetDriftOverride",
		"budget_allocation.total_monthly_budget",
		b.TotalMonthlyBudget, target,
		fmt.Sprintf("total drifted more than %.0f%% from the $%.0f intake target",
			e.cfg.BudgetDriftTolerance*100, target))
	b.TotalMonthlyBudget = target
	return []plan.Adjustment{adj}
}

// budgetPlatformSum rescales the allocation's platform percentages to 100.
func (e *Engine) budgetPlatformSum(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil || len(b.Platforms) == 0 {
		return nil
	}
	values := make([]float64, len(b.Platforms))
	for i, p := range b.Platforms {
		values[i] = p.Percentage
	}
	fixed, changed := rescaleTo100(values, e.cfg.PercentTolerance)
	if !changed {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range b.Platforms {
		if b.Platforms[i].Percentage == fixed[i] {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("BudgetPlatformSum",
			fmt.Sprintf("budget_allocation.platforms[%d].percentage", i),
			b.Platforms[i].Percentage, fixed[i],
			"platform allocation percentages rescaled to sum to 100"))
		b.Platforms[i].Percentage = fixed[i]
	}
	return adjs
}

// funnelSplitSum rescales the funnel stage split to 100.
func (e *Engine) funnelSplitSum(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil || len(b.FunnelSplit) == 0 {
		return nil
	}
	values := make([]float64, len(b.FunnelSplit))
	for i, f := range b.FunnelSplit {
		values[i] = f.Percentage
	}
	fixed, changed := rescaleTo100(values, e.cfg.PercentTolerance)
	if !changed {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range b.FunnelSplit {
		if b.FunnelSplit[i].Percentage == fixed[i] {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("FunnelSplitSum",
			fmt.Sprintf("budget_allocation.funnel_split[%d].percentage", i),
			b.FunnelSplit[i].Percentage, fixed[i],
			"funnel split percentages rescaled to sum to 100"))
		b.FunnelSplit[i].Percentage = fixed[i]
	}
	return adjs
}

// budgetPlatformSpendRecompute derives each allocation row's monthly budget
// from its percentage of the validated total.
func (e *Engine) budgetPlatformSpendRecompute(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range b.Platforms {
		expected := math.Round(b.TotalMonthlyBudget * b.Platforms[i].Percentage / 100)
		if b.Platforms[i].MonthlyBudget == expected {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("BudgetPlatformSpendRecompute",
			fmt.Sprintf("budget_allocation.platforms[%d].monthly_budget", i),
			b.Platforms[i].MonthlyBudget, expected,
			fmt.Sprintf("monthly budget derived from %.2f%% of $%.0f total",
				b.Platforms[i].Percentage, b.TotalMonthlyBudget)))
		b.Platforms[i].MonthlyBudget = expected
	}
	return adjs
}

// budgetPlatformRefs warns about allocation rows naming a platform the
// strategy never recommended. Referential findings never rewrite content.
func (e *Engine) budgetPlatformRefs(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil || doc.PlatformStrategy == nil {
		return nil
	}
	known := platformSet(doc.PlatformStrategy)
	var adjs []plan.Adjustment
	for i, p := range b.Platforms {
		if _, ok := known[normalizePlatform(p.Platform)]; !ok {
			adjs = append(adjs, plan.WarningAdjustment("BudgetPlatformReference",
				fmt.Sprintf("budget_allocation.platforms[%d].platform", i),
				fmt.Sprintf("platform %q is not part of the recommended platform strategy", p.Platform)))
		}
	}
	return adjs
}

// dailyCeilingCap caps the daily ceiling at total/30, rounding down so the
// corrected value never exceeds the cap.
func (e *Engine) dailyCeilingCap(doc *plan.Document) []plan.Adjustment {
	b := doc.Budget
	if b == nil {
		return nil
	}
	limit := floor2(b.TotalMonthlyBudget / 30)
	if b.DailyCeiling <= limit {
		return nil
	}
	adj := plan.CorrectedAdjustment("DailyCeilingCap",
		"budget_allocation.daily_ceiling",
		b.DailyCeiling, limit,
		fmt.Sprintf("daily ceiling capped at total/30 ($%.2f)", limit))
	b.DailyCeiling = limit
	return []plan.Adjustment{adj}
}

func normalizePlatform(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func platformSet(s *plan.PlatformStrategySection) map[string]struct{} {
	set := make(map[string]struct{}, len(s.Platforms))
	for _, p := range s.Platforms {
		set[normalizePlatform(p.Platform)] = struct{}{}
	}
	return set
}
