package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"planforge/internal/plan"
)

// kpiMetric identifies which model quantity a KPI target is measured
// against, with its per-metric drift tolerance.
type kpiMetric struct {
	name     string
	expected float64
	tol      float64
	format   func(float64) string
}

var numberToken = regexp.MustCompile(`\d[\d,]*\.?\d*`)

// kpiModelOverride rewrites KPI targets that drifted beyond their metric's
// tolerance from the computed unit-economics model. Targets within
// tolerance are left as generated.
func (e *Engine) kpiModelOverride(doc *plan.Document) []plan.Adjustment {
	m := doc.Monitoring
	if m == nil || doc.CACModel == nil {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range m.KPIs {
		k := &m.KPIs[i]
		metric, ok := e.classifyMetric(k.Metric, doc.CACModel)
		if !ok {
			continue
		}
		value, span, ok := firstNumber(k.Target)
		if !ok {
			adjs = append(adjs, plan.WarningAdjustment("KPIModelOverride",
				fmt.Sprintf("monitoring.kpis[%d].target", i),
				fmt.Sprintf("%s target %q has no numeric value to verify", k.Metric, k.Target)))
			continue
		}
		if relDrift(value, metric.expected) <= metric.tol {
			continue
		}
		fixed := k.Target[:span[0]] + metric.format(metric.expected) + k.Target[span[1]:]
		adjs = append(adjs, plan.CorrectedAdjustment(fmt.Sprintf("KPI_%s_Override", metric.name),
			fmt.Sprintf("monitoring.kpis[%d].target", i),
			k.Target, fixed,
			fmt.Sprintf("target drifted more than %.0f%% from the computed model value", metric.tol*100)))
		k.Target = fixed
	}
	return adjs
}

// classifyMetric matches a KPI name to the model quantity it asserts.
// Ordering matters: "cost per lead" and "qualified lead" must win over the
// bare "lead" match.
func (e *Engine) classifyMetric(name string, model *plan.CACModel) (kpiMetric, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "cpl") || strings.Contains(lower, "cost per lead"):
		return kpiMetric{name: "CPL", expected: model.TargetCPL, tol: e.cfg.CPLTolerance, format: formatMoney}, true
	case strings.Contains(lower, "cac") || strings.Contains(lower, "acquisition"):
		return kpiMetric{name: "CAC", expected: model.CAC, tol: e.cfg.CACTolerance, format: formatMoney}, true
	case strings.Contains(lower, "roas") || strings.Contains(lower, "return on"):
		return kpiMetric{name: "ROAS", expected: e.expectedROAS(model), tol: e.cfg.ROASTolerance, format: formatRatio}, true
	case strings.Contains(lower, "sql") || strings.Contains(lower, "qualified"):
		return kpiMetric{name: "SQLVolume", expected: float64(model.QualifiedLeads), tol: e.cfg.SQLTolerance, format: formatCount}, true
	case strings.Contains(lower, "lead"):
		return kpiMetric{name: "LeadVolume", expected: float64(model.Leads), tol: e.cfg.LeadTolerance, format: formatCount}, true
	}
	return kpiMetric{}, false
}

// expectedROAS is first-order revenue over spend, ignoring retention.
func (e *Engine) expectedROAS(model *plan.CACModel) float64 {
	if model.MonthlyBudget <= 0 {
		return 0
	}
	return float64(model.Customers) * e.intake.OfferPrice / model.MonthlyBudget
}

// firstNumber extracts the first numeric token of a target string and its
// position, so the override can splice in the computed value without
// disturbing surrounding text ("$", "/mo", "x").
func firstNumber(s string) (float64, [2]int, bool) {
	loc := numberToken.FindStringIndex(s)
	if loc == nil {
		return 0, [2]int{}, false
	}
	raw := strings.ReplaceAll(s[loc[0]:loc[1]], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, [2]int{}, false
	}
	return v, [2]int{loc[0], loc[1]}, true
}

func formatMoney(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
