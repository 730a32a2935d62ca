package validation

import (
	"regexp"
	"strconv"
	"strings"

	"planforge/internal/plan"
)

// The final sweep patches headline figures the narrative quotes, so the
// executive summary can never contradict the validated numbers beside it.
// Matching is deliberately narrow: only figures anchored to a recognizable
// label are rewritten; free-floating numbers are left alone.
var (
	sweepCAC    = regexp.MustCompile(`(?i)(CAC of |cost per acquisition of |CAC: ?)\$([\d,]+(?:\.\d+)?)`)
	sweepBudget = regexp.MustCompile(`(?i)((?:monthly )?budget of )\$([\d,]+(?:\.\d+)?)`)
	sweepLeads  = regexp.MustCompile(`(~?)([\d,]+) leads\b`)
)

// summarySweep rewrites drifted headline figures and stale years in the
// executive summary.
func (e *Engine) summarySweep(doc *plan.Document) []plan.Adjustment {
	s := doc.Summary
	if s == nil || doc.CACModel == nil {
		return nil
	}
	model := doc.CACModel
	var adjs []plan.Adjustment

	texts := make([]*string, 0, 1+len(s.Highlights))
	texts = append(texts, &s.Summary)
	for i := range s.Highlights {
		texts = append(texts, &s.Highlights[i])
	}

	for _, text := range texts {
		original := *text
		fixed := sweepFigure(original, sweepCAC, model.CAC, e.cfg.CACTolerance)
		fixed = sweepFigure(fixed, sweepBudget, model.MonthlyBudget, e.cfg.BudgetDriftTolerance)
		fixed = sweepFigure(fixed, sweepLeads, float64(model.Leads), e.cfg.LeadTolerance)
		if refreshed, ok := refreshYears(fixed, e.cfg.Year()); ok {
			fixed = refreshed
		}
		if fixed == original {
			continue
		}
		*text = fixed
		adjs = append(adjs, plan.CorrectedAdjustment("SummarySweep",
			"executive_summary", original, fixed,
			"narrative figures aligned with the validated numbers"))
	}
	return adjs
}

// sweepFigure replaces the numeric part of every labeled match whose value
// drifted beyond tolerance from the computed figure.
func sweepFigure(text string, re *regexp.Regexp, expected, tol float64) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		if sub == nil {
			return m
		}
		raw := strings.ReplaceAll(sub[2], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || relDrift(v, expected) <= tol {
			return m
		}
		return strings.Replace(m, sub[2], formatMoney(expected), 1)
	})
}
