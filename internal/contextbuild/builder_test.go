package contextbuild

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"planforge/internal/logging"
	"planforge/internal/plan"
)

func TestBuildIntakeContextSkipsEmptySections(t *testing.T) {
	in := &plan.Intake{
		BusinessName:            "Acme",
		Industry:                "saas",
		TargetMonthlyBudget:     5000,
		OfferPrice:              100,
		TargetCPL:               75,
		LeadToQualifiedRate:     15,
		QualifiedToCustomerRate: 25,
		RetentionMultiplier:     12,
	}
	out := BuildIntakeContext(in, 64*1024)

	if !strings.Contains(out, "## Business") {
		t.Error("missing business section")
	}
	if !strings.Contains(out, "## Unit Economics") {
		t.Error("missing unit economics section")
	}
	if strings.Contains(out, "## Compliance") {
		t.Error("empty compliance notes produced a section")
	}
	if !strings.Contains(out, "$5000") {
		t.Errorf("budget figure missing from:\n%s", out)
	}
	if !strings.Contains(out, "No prior paid or organic traffic pool") {
		t.Error("traffic section should state there is no existing pool")
	}
}

func TestBuildResearchContextHonorsBudget(t *testing.T) {
	doc := &plan.ResearchDocument{Sections: []plan.ResearchSection{
		{Title: "Market", Body: strings.Repeat("m", 400)},
		{Title: "Competitors", Body: strings.Repeat("c", 400)},
	}}
	out := BuildResearchContext(doc, 200)
	if len(out) > 200 {
		t.Errorf("output is %d bytes, budget was 200", len(out))
	}
	if !strings.Contains(out, "## Market") {
		t.Error("first section missing entirely")
	}
	if strings.Contains(out, "## Competitors") {
		t.Error("second section should have been dropped by the budget")
	}
}

func TestBuildResearchContextReportsOverflow(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(zap.NewNop())

	doc := &plan.ResearchDocument{Sections: []plan.ResearchSection{
		{Title: "Market", Body: strings.Repeat("m", 400)},
		{Title: "Competitors", Body: "never fits"},
	}}
	BuildResearchContext(doc, 200)

	if logs.FilterMessageSnippet("truncated").Len() == 0 {
		t.Error("truncation was not logged")
	}
	if logs.FilterMessageSnippet("dropped").Len() == 0 {
		t.Error("dropped section was not logged")
	}
}

func TestBuildResearchContextNilDoc(t *testing.T) {
	if out := BuildResearchContext(nil, 1024); out != "" {
		t.Errorf("nil document produced %q", out)
	}
}

func TestInlineJSON(t *testing.T) {
	section := &plan.PlatformStrategySection{
		Platforms: []plan.PlatformStrategy{{Platform: "Meta", BudgetPercentage: 60}},
	}
	out := InlineJSON("Platform Strategy", section, 64*1024)
	if !strings.Contains(out, "## Platform Strategy") {
		t.Error("missing label")
	}
	if !strings.Contains(out, `"platform": "Meta"`) {
		t.Errorf("payload missing from:\n%s", out)
	}
}

func TestBuildGroundTruth(t *testing.T) {
	budget := &plan.BudgetAllocation{
		TotalMonthlyBudget: 5000,
		DailyCeiling:       166,
		Platforms:          []plan.PlatformBudget{{Platform: "Meta", Percentage: 60, MonthlyBudget: 3000}},
	}
	model := &plan.CACModel{Leads: 53, QualifiedLeads: 8, Customers: 2, CAC: 2500, LTV: 1200, Ratio: 0.48, RatioLabel: "Unsustainable"}

	out := BuildGroundTruth(budget, model, 64*1024)
	for _, want := range []string{"## Validated Budget", "$5000", "Meta: 60.0% ($3000/mo)", "CAC: $2500", "0.48 (Unsustainable)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
