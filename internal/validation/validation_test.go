package validation

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"planforge/internal/config"
	"planforge/internal/plan"
)

func testIntake() plan.Intake {
	return plan.Intake{
		BusinessName:            "Acme Dental",
		Industry:                "healthcare",
		TargetMonthlyBudget:     5000,
		OfferPrice:              100,
		TargetCPL:               75,
		LeadToQualifiedRate:     15,
		QualifiedToCustomerRate: 25,
		RetentionMultiplier:     12,
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultValidationConfig()
	cfg.CurrentYear = 2026
	return NewEngine(cfg, testIntake())
}

func TestComputeCACModel(t *testing.T) {
	model := ComputeCACModel(testIntake(), 0.80)

	if model.EffectiveBudget != 4000 {
		t.Errorf("effective budget = %v, want 4000", model.EffectiveBudget)
	}
	if model.Leads != 53 {
		t.Errorf("leads = %d, want 53", model.Leads)
	}
	if model.QualifiedLeads != 8 {
		t.Errorf("qualified leads = %d, want 8", model.QualifiedLeads)
	}
	if model.Customers != 2 {
		t.Errorf("customers = %d, want 2", model.Customers)
	}
	if model.CAC != 2500 {
		t.Errorf("CAC = %v, want 2500", model.CAC)
	}
	if model.LTV != 1200 {
		t.Errorf("LTV = %v, want 1200", model.LTV)
	}
	if model.RatioLabel != "Unsustainable" {
		t.Errorf("ratio label = %q, want Unsustainable", model.RatioLabel)
	}
}

func TestComputeCACModelCustomerFloor(t *testing.T) {
	in := testIntake()
	in.QualifiedToCustomerRate = 1
	model := ComputeCACModel(in, 0.80)
	if model.Customers != 1 {
		t.Errorf("customers = %d, want floor of 1", model.Customers)
	}
}

func TestRatioLabels(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{3.0, "Healthy"},
		{5.2, "Healthy"},
		{1.0, "Below-ideal"},
		{2.99, "Below-ideal"},
		{0.48, "Unsustainable"},
	}
	for _, tc := range cases {
		if got := plan.RatioLabel(tc.ratio); got != tc.want {
			t.Errorf("RatioLabel(%v) = %q, want %q", tc.ratio, got, tc.want)
		}
	}
}

func TestPlatformBudgetSumRescale(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		PlatformStrategy: &plan.PlatformStrategySection{
			Platforms: []plan.PlatformStrategy{
				{Platform: "Meta", BudgetPercentage: 50},
				{Platform: "Google", BudgetPercentage: 30},
				{Platform: "LinkedIn", BudgetPercentage: 30},
			},
		},
	}
	adjs := e.Apply(doc, []Rule{{Name: "PlatformBudgetSum", Apply: e.platformBudgetSum}})
	if len(adjs) == 0 {
		t.Fatal("expected rescale adjustments for 110% sum")
	}
	var sum float64
	for _, p := range doc.PlatformStrategy.Platforms {
		sum += p.BudgetPercentage
	}
	if sum < 99.99 || sum > 100.01 {
		t.Errorf("rescaled percentages sum to %v, want 100", sum)
	}
}

func TestPlatformBudgetSumWithinToleranceUntouched(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		PlatformStrategy: &plan.PlatformStrategySection{
			Platforms: []plan.PlatformStrategy{
				{Platform: "Meta", BudgetPercentage: 60},
				{Platform: "Google", BudgetPercentage: 40},
			},
		},
	}
	if adjs := e.platformBudgetSum(doc); len(adjs) != 0 {
		t.Errorf("expected no adjustments for exact sum, got %d", len(adjs))
	}
}

func TestPlatformSpendRecompute(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		PlatformStrategy: &plan.PlatformStrategySection{
			Platforms: []plan.PlatformStrategy{
				{Platform: "Meta", BudgetPercentage: 60, MonthlySpend: 9999},
				{Platform: "Google", BudgetPercentage: 40, MonthlySpend: 2000},
			},
		},
	}
	adjs := e.platformSpendRecompute(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	if got := doc.PlatformStrategy.Platforms[0].MonthlySpend; got != 3000 {
		t.Errorf("Meta spend = %v, want 3000 (60%% of 5000)", got)
	}
	if got := doc.PlatformStrategy.Platforms[1].MonthlySpend; got != 2000 {
		t.Errorf("Google spend = %v, want untouched 2000", got)
	}
}

func TestBudgetDriftOverride(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{Budget: &plan.BudgetAllocation{TotalMonthlyBudget: 6000}}
	adjs := e.budgetDriftOverride(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	if doc.Budget.TotalMonthlyBudget != 5000 {
		t.Errorf("total = %v, want intake target 5000", doc.Budget.TotalMonthlyBudget)
	}

	// 8% drift is within the 10% tolerance.
	doc.Budget.TotalMonthlyBudget = 5400
	if adjs := e.budgetDriftOverride(doc); len(adjs) != 0 {
		t.Errorf("expected 8%% drift to pass, got %d adjustments", len(adjs))
	}
}

func TestDailyCeilingCap(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{Budget: &plan.BudgetAllocation{
		TotalMonthlyBudget: 5000,
		DailyCeiling:       300,
	}}
	adjs := e.dailyCeilingCap(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	if got := doc.Budget.DailyCeiling; got != 166.66 {
		t.Errorf("ceiling = %v, want 166.66", got)
	}
}

func TestCampaignDailyBudgetCap(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		Budget: &plan.BudgetAllocation{TotalMonthlyBudget: 5000, DailyCeiling: 160},
		CampaignStruct: &plan.CampaignStructure{
			Naming: plan.NamingConvention{Pattern: "x"},
			Campaigns: []plan.CampaignTemplate{
				{Name: "A", Platform: "Meta", DailyBudget: 150},
				{Name: "B", Platform: "Google", DailyBudget: 150},
			},
		},
	}
	adjs := e.campaignDailyBudgetCap(doc)
	if len(adjs) != 2 {
		t.Fatalf("got %d adjustments, want 2", len(adjs))
	}
	var sum float64
	for _, c := range doc.CampaignStruct.Campaigns {
		sum += c.DailyBudget
	}
	if allowed := 160 * 1.10; sum > allowed {
		t.Errorf("scaled daily sum %v exceeds allowed %v", sum, allowed)
	}
}

func TestCampaignDailyBudgetWithinHeadroomUntouched(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		Budget: &plan.BudgetAllocation{TotalMonthlyBudget: 5000, DailyCeiling: 160},
		CampaignStruct: &plan.CampaignStructure{
			Naming:    plan.NamingConvention{Pattern: "x"},
			Campaigns: []plan.CampaignTemplate{{Name: "A", Platform: "Meta", DailyBudget: 170}},
		},
	}
	if adjs := e.campaignDailyBudgetCap(doc); len(adjs) != 0 {
		t.Errorf("170 within 160*1.10 headroom, got %d adjustments", len(adjs))
	}
}

func TestKPICACOverride(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		CACModel: ComputeCACModel(testIntake(), 0.80),
		Monitoring: &plan.MonitoringSection{
			KPIs: []plan.KPITarget{
				{Metric: "CAC", Target: "$4000 per customer", Type: plan.KPIPrimary},
				{Metric: "Cost per lead", Target: "$80", Type: plan.KPISecondary},
			},
		},
	}
	adjs := e.kpiModelOverride(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	if adjs[0].Rule != "KPI_CAC_Override" {
		t.Errorf("rule = %q, want KPI_CAC_Override", adjs[0].Rule)
	}
	if got := doc.Monitoring.KPIs[0].Target; got != "$2500 per customer" {
		t.Errorf("target = %q, want $2500 per customer", got)
	}
	// $80 CPL is within 15% of the $75 target.
	if got := doc.Monitoring.KPIs[1].Target; got != "$80" {
		t.Errorf("CPL target = %q, want untouched $80", got)
	}
}

func TestKPILeadVolumeOverride(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		CACModel: ComputeCACModel(testIntake(), 0.80),
		Monitoring: &plan.MonitoringSection{
			KPIs: []plan.KPITarget{
				{Metric: "Monthly lead volume", Target: "120 leads/mo", Type: plan.KPIPrimary},
			},
		},
	}
	adjs := e.kpiModelOverride(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	if got := doc.Monitoring.KPIs[0].Target; got != "53 leads/mo" {
		t.Errorf("target = %q, want 53 leads/mo", got)
	}
}

func TestRiskScoringAndOrdering(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{Risks: &plan.RiskSection{
		Risks: []plan.Risk{
			{Category: "budget", Probability: 2, Impact: 2},
			{Category: "platform", Probability: 4, Impact: 5, Score: 7, Classification: plan.RiskLow},
			{Category: "creative", Probability: 3, Impact: 4},
		},
	}}
	e.riskScoring(doc)

	if got := doc.Risks.Risks[0]; got.Category != "platform" || got.Score != 20 || got.Classification != plan.RiskCritical {
		t.Errorf("top risk = %+v, want platform score 20 critical", got)
	}
	if got := doc.Risks.Risks[1]; got.Score != 12 || got.Classification != plan.RiskMedium {
		t.Errorf("second risk = %+v, want score 12 medium", got)
	}
	if got := doc.Risks.Risks[2]; got.Score != 4 || got.Classification != plan.RiskLow {
		t.Errorf("third risk = %+v, want score 4 low", got)
	}
}

func TestClassifyRiskBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  plan.RiskClass
	}{
		{1, plan.RiskLow}, {6, plan.RiskLow},
		{7, plan.RiskMedium}, {12, plan.RiskMedium},
		{13, plan.RiskHigh}, {19, plan.RiskHigh},
		{20, plan.RiskCritical}, {25, plan.RiskCritical},
	}
	for _, tc := range cases {
		if got := ClassifyRisk(tc.score); got != tc.want {
			t.Errorf("ClassifyRisk(%d) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestStaleYearTokens(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{CampaignStruct: &plan.CampaignStructure{
		Naming: plan.NamingConvention{Pattern: "{platform}_{funnel}", Example: "meta_cold_2024"},
		Campaigns: []plan.CampaignTemplate{
			{Name: "Meta_Cold_2023_Launch", Platform: "Meta", DailyBudget: 50},
			{Name: "Google_Search_2026", Platform: "Google", DailyBudget: 50},
		},
	}}
	adjs := e.staleYearTokens(doc)
	if len(adjs) != 2 {
		t.Fatalf("got %d adjustments, want 2", len(adjs))
	}
	if got := doc.CampaignStruct.Campaigns[0].Name; got != "Meta_Cold_2026_Launch" {
		t.Errorf("name = %q, want year refreshed to 2026", got)
	}
	if got := doc.CampaignStruct.Campaigns[1].Name; got != "Google_Search_2026" {
		t.Errorf("name = %q, want current year untouched", got)
	}
	if got := doc.CampaignStruct.Naming.Example; got != "meta_cold_2026" {
		t.Errorf("example = %q, want year refreshed", got)
	}
}

func TestRetargetingRealismWithoutTraffic(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{CampaignStruct: &plan.CampaignStructure{
		Naming: plan.NamingConvention{Pattern: "x"},
		Campaigns: []plan.CampaignTemplate{
			{Name: "Prospecting", Platform: "Meta", FunnelStage: plan.FunnelCold, Objective: "reach", DailyBudget: 50},
			{Name: "Retargeting", Platform: "Meta", FunnelStage: plan.FunnelHot, Objective: "convert", DailyBudget: 30},
		},
		Retargeting: []plan.RetargetingSegment{
			{Name: "Site visitors", Source: "site visitors", LookbackDays: 30, Objective: "convert warm traffic"},
		},
	}}
	adjs := e.retargetingRealism(doc)
	if len(adjs) != 2 {
		t.Fatalf("got %d adjustments, want 2 (segment + hot campaign)", len(adjs))
	}
	if got := doc.CampaignStruct.Campaigns[0].Objective; got != "reach" {
		t.Errorf("cold campaign objective = %q, want untouched", got)
	}
	for _, a := range adjs {
		if a.Kind != plan.AdjustmentCorrection {
			t.Errorf("adjustment %s kind = %v, want correction", a.FieldPath, a.Kind)
		}
	}
}

func TestRetargetingRealismWithTraffic(t *testing.T) {
	cfg := config.DefaultValidationConfig()
	in := testIntake()
	in.HasExistingTraffic = true
	e := NewEngine(cfg, in)
	doc := &plan.Document{CampaignStruct: &plan.CampaignStructure{
		Naming:      plan.NamingConvention{Pattern: "x"},
		Campaigns:   []plan.CampaignTemplate{{Name: "RT", Platform: "Meta", FunnelStage: plan.FunnelHot, Objective: "convert", DailyBudget: 30}},
		Retargeting: []plan.RetargetingSegment{{Name: "s", Source: "site visitors", LookbackDays: 30, Objective: "convert"}},
	}}
	if adjs := e.retargetingRealism(doc); len(adjs) != 0 {
		t.Errorf("existing traffic pool, got %d adjustments, want 0", len(adjs))
	}
}

func TestUnknownPlatformWarnings(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		PlatformStrategy: &plan.PlatformStrategySection{
			Platforms: []plan.PlatformStrategy{{Platform: "Meta", BudgetPercentage: 100}},
		},
		CampaignStruct: &plan.CampaignStructure{
			Naming: plan.NamingConvention{Pattern: "x"},
			Campaigns: []plan.CampaignTemplate{
				{Name: "A", Platform: "meta", DailyBudget: 50},
				{Name: "B", Platform: "TikTok", DailyBudget: 50},
			},
		},
	}
	adjs := e.campaignPlatformRefs(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d warnings, want 1 (case-insensitive match for meta)", len(adjs))
	}
	if adjs[0].Kind != plan.AdjustmentWarning {
		t.Errorf("kind = %v, want warning", adjs[0].Kind)
	}
}

func TestSummarySweep(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		CACModel: ComputeCACModel(testIntake(), 0.80),
		Summary: &plan.ExecutiveSummary{
			Summary: "With a monthly budget of $8,000 we project 120 leads and a CAC of $4,100 in 2024.",
		},
	}
	adjs := e.summarySweep(doc)
	if len(adjs) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjs))
	}
	want := "With a monthly budget of $5000 we project 53 leads and a CAC of $2500 in 2026."
	if doc.Summary.Summary != want {
		t.Errorf("summary = %q\nwant      %q", doc.Summary.Summary, want)
	}
}

// Running every stage twice over the same document must produce no further
// adjustments and leave the document byte-identical.
func TestRulesIdempotent(t *testing.T) {
	e := testEngine(t)
	doc := &plan.Document{
		PlatformStrategy: &plan.PlatformStrategySection{
			Platforms: []plan.PlatformStrategy{
				{Platform: "Meta", BudgetPercentage: 55, MonthlySpend: 100},
				{Platform: "Google", BudgetPercentage: 55, MonthlySpend: 100},
			},
		},
		Audience: &plan.AudienceSection{
			Segments:  []plan.AudienceSegment{{Name: "s", FunnelPosition: plan.FunnelCold, PriorityScore: 8}},
			Targeting: []plan.PlatformTargeting{{Platform: "TikTok", Segments: []string{"s"}}},
		},
		CampaignStruct: &plan.CampaignStructure{
			Naming: plan.NamingConvention{Pattern: "{platform}_{funnel}", Example: "meta_cold_2023"},
			Campaigns: []plan.CampaignTemplate{
				{Name: "Meta_Cold_2024", Platform: "Meta", FunnelStage: plan.FunnelCold, Objective: "reach", DailyBudget: 200},
				{Name: "Retarget", Platform: "Meta", FunnelStage: plan.FunnelHot, Objective: "convert", DailyBudget: 90},
			},
			Retargeting: []plan.RetargetingSegment{{Name: "rt", Source: "site", LookbackDays: 30, Objective: "convert"}},
		},
		Budget: &plan.BudgetAllocation{
			TotalMonthlyBudget: 7000,
			DailyCeiling:       400,
			Platforms: []plan.PlatformBudget{
				{Platform: "Meta", Percentage: 70, MonthlyBudget: 1},
				{Platform: "Google", Percentage: 40, MonthlyBudget: 1},
			},
			FunnelSplit: []plan.FunnelStageBudget{
				{Stage: plan.FunnelCold, Percentage: 80},
				{Stage: plan.FunnelWarm, Percentage: 30},
			},
		},
		Phases: &plan.PhasesSection{Phases: []plan.CampaignPhase{
			{Name: "Launch", DurationWeeks: 4, EstimatedBudget: 90000},
		}},
		Monitoring: &plan.MonitoringSection{KPIs: []plan.KPITarget{
			{Metric: "CAC", Target: "$9000", Type: plan.KPIPrimary},
		}},
		Summary: &plan.ExecutiveSummary{Summary: "A CAC of $9,000 against a monthly budget of $7,000 in 2023."},
		Risks: &plan.RiskSection{Risks: []plan.Risk{
			{Category: "a", Probability: 2, Impact: 3},
			{Category: "b", Probability: 5, Impact: 5},
		}},
	}

	stages := func(d *plan.Document) []plan.Adjustment {
		var adjs []plan.Adjustment
		adjs = append(adjs, e.Apply(d, e.ResearchRules())...)
		adjs = append(adjs, e.Apply(d, e.StructureRules())...)
		adjs = append(adjs, e.Apply(d, e.BudgetRules())...)
		adjs = append(adjs, e.Apply(d, e.CrossSectionRules())...)
		adjs = append(adjs, e.Apply(d, e.FinalRules())...)
		return adjs
	}

	first := stages(doc)
	if len(first) == 0 {
		t.Fatal("expected first pass to correct the seeded violations")
	}
	snapshot, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	second := stages(doc)
	var corrections []plan.Adjustment
	for _, a := range second {
		if a.Kind == plan.AdjustmentCorrection {
			corrections = append(corrections, a)
		}
	}
	if len(corrections) != 0 {
		t.Fatalf("second pass made %d corrections, want 0: %+v", len(corrections), corrections)
	}
	after, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if diff := cmp.Diff(string(snapshot), string(after)); diff != "" {
		t.Errorf("document changed on second pass (-first +second):\n%s", diff)
	}
}
