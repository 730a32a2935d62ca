// Package contextbuild turns upstream documents and validated phase outputs
// into bounded text blocks for prompt assembly. Assembly is deterministic
// and safe to call repeatedly and in parallel; sections that fall out of
// the byte budget are reported at debug level.
package contextbuild

import (
	"encoding/json"
	"fmt"
	"strings"

	"planforge/internal/logging"
	"planforge/internal/plan"
)

// section is one labeled block pending assembly.
type section struct {
	title string
	body  string
}

// assemble renders sections under a byte budget. Sections are emitted in
// order; a section that does not fit is truncated to the remaining budget,
// and later sections are dropped. Empty bodies are skipped entirely.
func assemble(maxBytes int, sections []section) string {
	var sb strings.Builder
	for _, s := range sections {
		body := strings.TrimSpace(s.body)
		if body == "" {
			continue
		}
		block := fmt.Sprintf("## %s\n%s\n\n", s.title, body)
		remaining := maxBytes - sb.Len()
		if remaining <= 0 {
			logging.Context("dropped section %q: byte budget exhausted", s.title)
			break
		}
		if len(block) > remaining {
			if remaining <= len(s.title)+8 {
				logging.Context("dropped section %q: %d bytes left", s.title, remaining)
				break
			}
			logging.Context("truncated section %q to %d bytes", s.title, remaining)
			block = block[:remaining]
		}
		sb.WriteString(block)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildResearchContext renders the upstream business-research document as
// labeled sections, bounded to maxBytes.
func BuildResearchContext(doc *plan.ResearchDocument, maxBytes int) string {
	if doc == nil {
		return ""
	}
	sections := make([]section, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		sections = append(sections, section{title: s.Title, body: s.Body})
	}
	return assemble(maxBytes, sections)
}

// BuildIntakeContext renders the client intake as labeled sections, bounded
// to maxBytes. Optional fields that are absent simply skip their section.
func BuildIntakeContext(in *plan.Intake, maxBytes int) string {
	if in == nil {
		return ""
	}
	business := strings.TrimSpace(in.BusinessName)
	if in.Industry != "" {
		business = strings.TrimSpace(business + " — " + in.Industry)
	}
	if in.Geography != "" {
		business += "\nGeography: " + in.Geography
	}

	economics := fmt.Sprintf(
		"Target monthly budget: $%.0f\nOffer price: $%.0f\nTarget CPL: $%.0f\nLead-to-qualified rate: %.1f%%\nQualified-to-customer rate: %.1f%%\nRetention multiplier: %.1fx",
		in.TargetMonthlyBudget, in.OfferPrice, in.TargetCPL,
		in.LeadToQualifiedRate, in.QualifiedToCustomerRate, in.RetentionMultiplier)

	traffic := "No prior paid or organic traffic pool exists; retargeting has nothing to draw on yet."
	if in.HasExistingTraffic {
		traffic = "An existing paid/organic traffic pool is available for retargeting."
	}

	return assemble(maxBytes, []section{
		{title: "Business", body: business},
		{title: "Offer", body: in.OfferName},
		{title: "Unit Economics", body: economics},
		{title: "Audience Notes", body: in.AudienceNotes},
		{title: "Compliance", body: in.Compliance},
		{title: "Traffic", body: traffic},
	})
}

// InlineJSON renders a validated phase output as a labeled JSON block for
// threading into a later phase's prompt. Oversized payloads are truncated
// to the byte budget; downstream phases treat the block as ground truth.
func InlineJSON(label string, v any, maxBytes int) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// All phase outputs are plain data structs; this only fires on
		// programmer error, and an empty block is safer than a panic.
		return ""
	}
	return assemble(maxBytes, []section{{title: label, body: string(data)}})
}

// BuildGroundTruth renders the validated numeric model for the final
// synthesis calls so narrative phases cannot drift from the math.
func BuildGroundTruth(budget *plan.BudgetAllocation, model *plan.CACModel, maxBytes int) string {
	var sections []section
	if budget != nil {
		var lines []string
		lines = append(lines,
			fmt.Sprintf("Total monthly budget: $%.0f", budget.TotalMonthlyBudget),
			fmt.Sprintf("Daily ceiling: $%.0f", budget.DailyCeiling))
		for _, p := range budget.Platforms {
			lines = append(lines, fmt.Sprintf("%s: %.1f%% ($%.0f/mo)", p.Platform, p.Percentage, p.MonthlyBudget))
		}
		sections = append(sections, section{title: "Validated Budget", body: strings.Join(lines, "\n")})
	}
	if model != nil {
		body := fmt.Sprintf(
			"Expected leads/mo: %d\nExpected qualified leads/mo: %d\nExpected customers/mo: %d\nCAC: $%.0f\nLTV: $%.0f\nLTV:CAC ratio: %.2f (%s)",
			model.Leads, model.QualifiedLeads, model.Customers, model.CAC, model.LTV, model.Ratio, model.RatioLabel)
		sections = append(sections, section{title: "Validated Unit Economics", body: body})
	}
	return assemble(maxBytes, sections)
}
