package validation

import (
	"fmt"
	"math"

	"planforge/internal/plan"
)

// ComputeCACModel derives the unit-economics model from intake assumptions.
// The effective budget reserves (1 - safetyMargin) of the monthly budget for
// testing and overhead before lead math; CAC divides the full monthly budget
// because the reserve is still spent acquiring those customers.
func ComputeCACModel(in plan.Intake, safetyMargin float64) *plan.CACModel {
	effective := in.TargetMonthlyBudget * safetyMargin
	leads := int(math.Round(effective / in.TargetCPL))
	qualified := int(math.Round(float64(leads) * in.LeadToQualifiedRate / 100))
	customers := int(math.Round(float64(qualified) * in.QualifiedToCustomerRate / 100))
	if customers < 1 {
		customers = 1
	}
	cac := math.Round(in.TargetMonthlyBudget / float64(customers))
	ltv := math.Round(in.OfferPrice * in.RetentionMultiplier)
	ratio := 0.0
	if cac > 0 {
		ratio = ltv / cac
	}
	return &plan.CACModel{
		MonthlyBudget:   in.TargetMonthlyBudget,
		EffectiveBudget: round2(effective),
		TargetCPL:       in.TargetCPL,
		Leads:           leads,
		QualifiedLeads:  qualified,
		Customers:       customers,
		CAC:             cac,
		LTV:             ltv,
		Ratio:           ratio,
		RatioLabel:      plan.RatioLabel(ratio),
	}
}

// cacModelCompute installs the computed model into the document, replacing
// whatever was there. The model is never generated, so the only adjustment
// recorded is a replacement of a previously divergent copy.
func (e *Engine) cacModelCompute(doc *plan.Document) []plan.Adjustment {
	computed := ComputeCACModel(e.intake, e.cfg.SafetyMargin)
	var adjs []plan.Adjustment
	if doc.CACModel != nil && *doc.CACModel != *computed {
		adjs = append(adjs, plan.CorrectedAdjustment("CACModelCompute", "cac_model",
			fmt.Sprintf("CAC $%.0f, %d leads", doc.CACModel.CAC, doc.CACModel.Leads),
			fmt.Sprintf("CAC $%.0f, %d leads", computed.CAC, computed.Leads),
			"unit-economics model recomputed from intake assumptions"))
	}
	doc.CACModel = computed
	return adjs
}
