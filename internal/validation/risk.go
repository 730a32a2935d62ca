package validation

import (
	"fmt"
	"sort"

	"planforge/internal/plan"
)

// ClassifyRisk maps a probability × impact score to its severity class.
func ClassifyRisk(score int) plan.RiskClass {
	switch {
	case score <= 6:
		return plan.RiskLow
	case score <= 12:
		return plan.RiskMedium
	case score <= 19:
		return plan.RiskHigh
	default:
		return plan.RiskCritical
	}
}

// riskScoring recomputes every risk's score and classification from its
// probability and impact, then orders the register by descending score.
// Model-supplied scores are never trusted.
func (e *Engine) riskScoring(doc *plan.Document) []plan.Adjustment {
	rs := doc.Risks
	if rs == nil {
		return nil
	}
	var adjs []plan.Adjustment
	for i := range rs.Risks {
		r := &rs.Risks[i]
		score := r.Probability * r.Impact
		class := ClassifyRisk(score)
		if r.Score == score && r.Classification == class {
			continue
		}
		adjs = append(adjs, plan.CorrectedAdjustment("RiskScoring",
			fmt.Sprintf("risk_register.risks[%d]", i),
			fmt.Sprintf("score %d (%s)", r.Score, r.Classification),
			fmt.Sprintf("score %d (%s)", score, class),
			fmt.Sprintf("score recomputed as probability %d x impact %d", r.Probability, r.Impact)))
		r.Score = score
		r.Classification = class
	}

	if !sort.SliceIsSorted(rs.Risks, riskLess(rs.Risks)) {
		sort.SliceStable(rs.Risks, riskLess(rs.Risks))
		adjs = append(adjs, plan.CorrectedAdjustment("RiskScoring",
			"risk_register.risks",
			"model ordering", "descending by score",
			"register reordered so the highest-severity risks lead"))
	}
	return adjs
}

func riskLess(risks []plan.Risk) func(i, j int) bool {
	return func(i, j int) bool { return risks[i].Score > risks[j].Score }
}
