package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"planforge/internal/plan"
)

var yearToken = regexp.MustCompile(`\b20\d{2}\b`)

// activationNote is appended to retargeting objectives for accounts with no
// existing traffic pool. The contains-check keeps the annotation idempotent.
const activationNote = " (activate after prospecting accrues an audience pool; none exists at launch)"

// campaignPlatformRefs warns about campaigns placed on a platform the
// strategy never recommended.
func (e *Engine) campaignPlatformRefs(doc *plan.Document) []plan.Adjustment {
	cs := doc.CampaignStruct
	if cs == nil || doc.PlatformStrategy == nil {
		return nil
	}
	known := platformSet(doc.PlatformStrategy)
	var adjs []plan.Adjustment
	for i, c := range cs.Campaigns {
		if _, ok := known[normalizePlatform(c.Platform)]; !ok {
			adjs = append(adjs, plan.WarningAdjustment("CampaignPlatformReference",
				fmt.Sprintf("campaign_structure.campaigns[%d].platform", i),
				fmt.Sprintf("campaign %q targets platform %q, which is not in the platform strategy", c.Name, c.Platform)))
		}
	}
	return adjs
}

// creativePlatformRefs warns about creative formats naming unknown platforms.
func (e *Engine) creativePlatformRefs(doc *plan.Document) []plan.Adjustment {
	cr := doc.Creative
	if cr == nil || doc.PlatformStrategy == nil {
		return nil
	}
	known := platformSet(doc.PlatformStrategy)
	var adjs []plan.Adjustment
	for i, f := range cr.Formats {
		for _, p := range f.Platforms {
			if _, ok := known[normalizePlatform(p)]; !ok {
				adjs = append(adjs, plan.WarningAdjustment("CreativePlatformReference",
					fmt.Sprintf("creative_strategy.formats[%d].platforms", i),
					fmt.Sprintf("format %q names platform %q, which is not in the platform strategy", f.Format, p)))
			}
		}
	}
	return adjs
}

// targetingPlatformRefs warns about audience targeting blocks for platforms
// outside the strategy.
func (e *Engine) targetingPlatformRefs(doc *plan.Document) []plan.Adjustment {
	a := doc.Audience
	if a == nil || doc.PlatformStrategy == nil {
		return nil
	}
	known := platformSet(doc.PlatformStrategy)
	var adjs []plan.Adjustment
	for i, t := range a.Targeting {
		if _, ok := known[normalizePlatform(t.Platform)]; !ok {
			adjs = append(adjs, plan.WarningAdjustment("TargetingPlatformReference",
				fmt.Sprintf("audience.platform_targeting[%d].platform", i),
				fmt.Sprintf("targeting block for %q, which is not in the platform strategy", t.Platform)))
		}
	}
	return adjs
}

// namingConventionTokens warns when the naming pattern does not carry the
// platform and funnel-stage tokens operators filter reports by.
func (e *Engine) namingConventionTokens(doc *plan.Document) []plan.Adjustment {
	cs := doc.CampaignStruct
	if cs == nil {
		return nil
	}
	pattern := strings.ToLower(cs.Naming.Pattern)
	var adjs []plan.Adjustment
	if !strings.Contains(pattern, "platform") {
		adjs = append(adjs, plan.WarningAdjustment("NamingConventionTokens",
			"campaign_structure.naming_convention.pattern",
			"naming pattern has no platform token"))
	}
	if !strings.Contains(pattern, "funnel") && !strings.Contains(pattern, "stage") {
		adjs = append(adjs, plan.WarningAdjustment("NamingConventionTokens",
			"campaign_structure.naming_convention.pattern",
			"naming pattern has no funnel-stage token"))
	}
	return adjs
}

// staleYearTokens rewrites year tokens older than the anchor year in
// campaign names and the naming convention example.
func (e *Engine) staleYearTokens(doc *plan.Document) []plan.Adjustment {
	cs := doc.CampaignStruct
	if cs == nil {
		return nil
	}
	year := e.cfg.Year()
	var adjs []plan.Adjustment
	for i := range cs.Campaigns {
		if fixed, ok := refreshYears(cs.Campaigns[i].Name, year); ok {
			adjs = append(adjs, plan.CorrectedAdjustment("StaleYearToken",
				fmt.Sprintf("campaign_structure.campaigns[%d].name", i),
				cs.Campaigns[i].Name, fixed,
				fmt.Sprintf("stale year replaced with %d", year)))
			cs.Campaigns[i].Name = fixed
		}
	}
	if fixed, ok := refreshYears(cs.Naming.Example, year); ok {
		adjs = append(adjs, plan.CorrectedAdjustment("StaleYearToken",
			"campaign_structure.naming_convention.example",
			cs.Naming.Example, fixed,
			fmt.Sprintf("stale year replaced with %d", year)))
		cs.Naming.Example = fixed
	}
	return adjs
}

// refreshYears replaces any year token older than anchor with anchor.
func refreshYears(s string, anchor int) (string, bool) {
	changed := false
	out := yearToken.ReplaceAllStringFunc(s, func(m string) string {
		y, err := strconv.Atoi(m)
		if err != nil || y >= anchor {
			return m
		}
		changed = true
		return strconv.Itoa(anchor)
	})
	return out, changed
}

// retargetingRealism annotates retargeting objectives when the account has
// no existing traffic pool to retarget at launch.
func (e *Engine) retargetingRealism(doc *plan.Document) []plan.Adjustment {
	cs := doc.CampaignStruct
	if cs == nil || e.intake.HasExistingTraffic {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range cs.Retargeting {
		seg := &cs.Retargeting[i]
		if strings.Contains(seg.Objective, activationNote) {
			continue
		}
		original := seg.Objective
		seg.Objective += activationNote
		adjs = append(adjs, plan.CorrectedAdjustment("RetargetingRealism",
			fmt.Sprintf("campaign_structure.retargeting_segments[%d].objective", i),
			original, seg.Objective,
			"no existing traffic pool; retargeting cannot start at launch"))
	}
	for i := range cs.Campaigns {
		c := &cs.Campaigns[i]
		if c.FunnelStage != plan.FunnelHot && !strings.Contains(strings.ToLower(c.Name), "retarget") {
			continue
		}
		if strings.Contains(c.Objective, activationNote) {
			continue
		}
		original := c.Objective
		c.Objective += activationNote
		adjs = append(adjs, plan.CorrectedAdjustment("RetargetingRealism",
			fmt.Sprintf("campaign_structure.campaigns[%d].objective", i),
			original, c.Objective,
			"no existing traffic pool; retargeting cannot start at launch"))
	}
	return adjs
}

// campaignDailyBudgetCap scales campaign daily budgets down proportionally
// when their sum exceeds the daily ceiling with headroom. Runs in the
// cross-section stage because the ceiling is only trustworthy after the
// budget rules settled.
func (e *Engine) campaignDailyBudgetCap(doc *plan.Document) []plan.Adjustment {
	cs := doc.CampaignStruct
	if cs == nil || doc.Budget == nil || doc.Budget.DailyCeiling <= 0 {
		return nil
	}
	allowed := doc.Budget.DailyCeiling * e.cfg.DailyBudgetHeadroom
	var sum float64
	for _, c := range cs.Campaigns {
		sum += c.DailyBudget
	}
	if sum <= allowed+0.005 {
		return nil
	}
	factor := allowed / sum
	var adjs []plan.Adjustment
	for i := range cs.Campaigns {
		c := &cs.Campaigns[i]
		scaled := floor2(c.DailyBudget * factor)
		if scaled == c.DailyBudget {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("CampaignDailyBudgetCap",
			fmt.Sprintf("campaign_structure.campaigns[%d].daily_budget", i),
			c.DailyBudget, scaled,
			fmt.Sprintf("daily budgets summed to $%.2f, above the $%.2f ceiling with headroom", sum, allowed)))
		c.DailyBudget = scaled
	}
	return adjs
}

// phaseBudgetReconcile recomputes each rollout phase's estimated budget
// from the validated daily spend rate and phase duration. The rate is the
// summed campaign daily budget capped at the daily ceiling, so a corrected
// phase never implies spend above the ceiling.
func (e *Engine) phaseBudgetReconcile(doc *plan.Document) []plan.Adjustment {
	ph := doc.Phases
	if ph == nil || doc.Budget == nil {
		return nil
	}
	rate := e.dailyRate(doc)
	if rate <= 0 {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range ph.Phases {
		p := &ph.Phases[i]
		days := float64(p.DurationWeeks * 7)
		if days <= 0 {
			continue
		}
		expected := math.Round(rate * days)
		if p.EstimatedBudget == expected {
			continue
		}
		impliedDaily := p.EstimatedBudget / days
		if relDrift(p.EstimatedBudget, expected) <= e.cfg.LeadTolerance &&
			impliedDaily <= doc.Budget.DailyCeiling+0.005 {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("PhaseBudgetReconcile",
			fmt.Sprintf("campaign_phases.phases[%d].estimated_budget", i),
			p.EstimatedBudget, expected,
			fmt.Sprintf("phase budget derived from $%.2f/day over %d weeks", rate, p.DurationWeeks)))
		p.EstimatedBudget = expected
	}
	return adjs
}

// phaseSumDrift warns when phase budgets summed over the rollout diverge
// from the monthly budget over the same span. Warning-only: phases often
// ramp deliberately.
func (e *Engine) phaseSumDrift(doc *plan.Document) []plan.Adjustment {
	ph := doc.Phases
	if ph == nil || doc.Budget == nil {
		return nil
	}
	var total float64
	var weeks int
	for _, p := range ph.Phases {
		total += p.EstimatedBudget
		weeks += p.DurationWeeks
	}
	if weeks == 0 {
		return nil
	}
	expected := doc.Budget.TotalMonthlyBudget * float64(weeks*7) / 30
	if relDrift(total, expected) <= e.cfg.ROASTolerance {
		return nil
	}
	return []plan.Adjustment{plan.WarningAdjustment("PhaseSumDrift",
		"campaign_phases",
		fmt.Sprintf("phase budgets total $%.0f over %d weeks; $%.0f expected at the monthly rate", total, weeks, expected))}
}

// dailyRate is the validated daily spend rate: summed campaign daily
// budgets, capped at the ceiling, falling back to the ceiling itself when
// no campaign structure exists.
func (e *Engine) dailyRate(doc *plan.Document) float64 {
	ceiling := doc.Budget.DailyCeiling
	if doc.CampaignStruct == nil {
		return ceiling
	}
	var sum float64
	for _, c := range doc.CampaignStruct.Campaigns {
		sum += c.DailyBudget
	}
	if sum <= 0 {
		return ceiling
	}
	return math.Min(sum, ceiling)
}
