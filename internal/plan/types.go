// Package plan defines the media plan document model: the sections produced
// by generation calls, the inbound collaborator documents they are built from,
// and the aggregate output assembled at the end of a pipeline run.
//
// Every entity here is a value record created once per run. Corrections made
// by the validation engine replace values in the working document and are
// recorded as Adjustment entries; nothing is mutated silently.
package plan

import (
	"fmt"
	"strings"
)

// FunnelPosition places an audience segment in the funnel.
type FunnelPosition string

const (
	FunnelCold FunnelPosition = "cold"
	FunnelWarm FunnelPosition = "warm"
	FunnelHot  FunnelPosition = "hot"
)

// KPIType distinguishes headline metrics from supporting ones.
type KPIType string

const (
	KPIPrimary   KPIType = "primary"
	KPISecondary KPIType = "secondary"
)

// RiskClass is the engine-computed severity classification of a risk.
type RiskClass string

const (
	RiskLow      RiskClass = "low"
	RiskMedium   RiskClass = "medium"
	RiskHigh     RiskClass = "high"
	RiskCritical RiskClass = "critical"
)

// CPLRange is an expected cost-per-lead band for a platform.
type CPLRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PlatformStrategy describes one advertising channel in the plan.
// Invariants (enforced by the validation engine, not here):
// budget percentages across all platforms sum to 100, and
// MonthlySpend == totalBudget * BudgetPercentage / 100.
type PlatformStrategy struct {
	Platform         string   `json:"platform"`
	BudgetPercentage float64  `json:"budget_percentage"`
	MonthlySpend     float64  `json:"monthly_spend"`
	ExpectedCPL      CPLRange `json:"expected_cpl"`
	Priority         string   `json:"priority"` // tier1, tier2, tier3
	Formats          []string `json:"formats"`
	Rationale        string   `json:"rationale,omitempty"`
}

// PlatformStrategySection is the research-phase platform recommendation.
type PlatformStrategySection struct {
	Platforms []PlatformStrategy `json:"platforms"`
	Summary   string             `json:"summary,omitempty"`
}

// Validate checks the structural contract of a generated platform strategy.
func (s *PlatformStrategySection) Validate() error {
	if len(s.Platforms) == 0 {
		return fmt.Errorf("platform strategy: no platforms")
	}
	for i, p := range s.Platforms {
		if strings.TrimSpace(p.Platform) == "" {
			return fmt.Errorf("platform strategy: entry %d has empty platform name", i)
		}
		if p.BudgetPercentage <= 0 {
			return fmt.Errorf("platform strategy: %s has non-positive budget percentage", p.Platform)
		}
	}
	return nil
}

// PlatformNames returns the set of channel names in declaration order.
func (s *PlatformStrategySection) PlatformNames() []string {
	names := make([]string, 0, len(s.Platforms))
	for _, p := range s.Platforms {
		names = append(names, p.Platform)
	}
	return names
}

// AudienceSegment is a named slice of the addressable market.
type AudienceSegment struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	FunnelPosition FunnelPosition `json:"funnel_position"`
	PriorityScore  float64        `json:"priority_score"` // 0-10 reachability/priority
}

// PlatformTargeting carries per-platform targeting parameters for segments.
type PlatformTargeting struct {
	Platform   string   `json:"platform"`
	Segments   []string `json:"segments"`
	Parameters string   `json:"parameters,omitempty"` // free-text targeting setup
}

// AudienceSection is the research-phase audience targeting output.
type AudienceSection struct {
	Segments  []AudienceSegment   `json:"segments"`
	Targeting []PlatformTargeting `json:"platform_targeting"`
}

// Validate checks the structural contract of generated audience targeting.
func (s *AudienceSection) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("audience: no segments")
	}
	for i, seg := range s.Segments {
		if strings.TrimSpace(seg.Name) == "" {
			return fmt.Errorf("audience: segment %d has empty name", i)
		}
		switch seg.FunnelPosition {
		case FunnelCold, FunnelWarm, FunnelHot:
		default:
			return fmt.Errorf("audience: segment %q has invalid funnel position %q", seg.Name, seg.FunnelPosition)
		}
	}
	return nil
}

// BenchmarkEntry is one per-platform industry benchmark from research.
type BenchmarkEntry struct {
	Platform   string  `json:"platform"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Percentile string  `json:"percentile,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// BenchmarkSection is the research-phase KPI benchmark output.
type BenchmarkSection struct {
	Benchmarks []BenchmarkEntry `json:"benchmarks"`
	Notes      string           `json:"notes,omitempty"`
}

// Validate checks the structural contract of generated benchmarks.
func (s *BenchmarkSection) Validate() error {
	if len(s.Benchmarks) == 0 {
		return fmt.Errorf("benchmarks: empty")
	}
	for i, b := range s.Benchmarks {
		if strings.TrimSpace(b.Metric) == "" {
			return fmt.Errorf("benchmarks: entry %d has empty metric", i)
		}
	}
	return nil
}

// AdSetTemplate is one ad set within a campaign template.
type AdSetTemplate struct {
	Name      string `json:"name"`
	Audience  string `json:"audience"`
	Placement string `json:"placement,omitempty"`
}

// CampaignTemplate is one campaign in the launch structure.
type CampaignTemplate struct {
	Name        string          `json:"name"`
	Platform    string          `json:"platform"`
	FunnelStage FunnelPosition  `json:"funnel_stage"`
	Objective   string          `json:"objective"`
	DailyBudget float64         `json:"daily_budget"`
	AdSets      []AdSetTemplate `json:"ad_sets"`
}

// NamingConvention documents how campaigns and ad sets are named.
type NamingConvention struct {
	Pattern string `json:"pattern"`
	Example string `json:"example,omitempty"`
}

// RetargetingSegment defines a remarketing pool and the campaign using it.
type RetargetingSegment struct {
	Name         string `json:"name"`
	Source       string `json:"source"` // site visitors, video viewers, customer list
	LookbackDays int    `json:"lookback_days"`
	Objective    string `json:"objective"`
}

// CampaignStructure is the synthesis-wave-1 campaign architecture.
type CampaignStructure struct {
	Campaigns        []CampaignTemplate   `json:"campaigns"`
	Naming           NamingConvention     `json:"naming_convention"`
	Retargeting      []RetargetingSegment `json:"retargeting_segments"`
	NegativeKeywords []string             `json:"negative_keywords,omitempty"`
}

// Validate checks the structural contract of a generated campaign structure.
func (s *CampaignStructure) Validate() error {
	if len(s.Campaigns) == 0 {
		return fmt.Errorf("campaign structure: no campaigns")
	}
	for i, c := range s.Campaigns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("campaign structure: campaign %d has empty name", i)
		}
		if strings.TrimSpace(c.Platform) == "" {
			return fmt.Errorf("campaign structure: campaign %q has empty platform", c.Name)
		}
		if c.DailyBudget <= 0 {
			return fmt.Errorf("campaign structure: campaign %q has non-positive daily budget", c.Name)
		}
	}
	if strings.TrimSpace(s.Naming.Pattern) == "" {
		return fmt.Errorf("campaign structure: empty naming convention pattern")
	}
	return nil
}

// CreativeAngle is one messaging angle to test.
type CreativeAngle struct {
	Name      string `json:"name"`
	Hook      string `json:"hook"`
	Audience  string `json:"audience,omitempty"`
	Emotional string `json:"emotional_driver,omitempty"`
}

// CreativeFormatSpec describes one ad format and its production spec.
type CreativeFormatSpec struct {
	Format    string   `json:"format"`
	Platforms []string `json:"platforms"`
	Spec      string   `json:"spec,omitempty"`
}

// CreativeTestPhase is one step of the phased creative testing plan.
type CreativeTestPhase struct {
	Phase      string `json:"phase"`
	Hypothesis string `json:"hypothesis"`
	Variants   int    `json:"variants"`
}

// CreativeStrategy is the synthesis-wave-1 creative output. It carries no
// cross-numeric invariants; only referential sanity is validated downstream.
type CreativeStrategy struct {
	Angles          []CreativeAngle      `json:"angles"`
	Formats         []CreativeFormatSpec `json:"formats"`
	TestingPlan     []CreativeTestPhase  `json:"testing_plan"`
	RefreshCadence  string               `json:"refresh_cadence,omitempty"`
	BrandGuidelines []string             `json:"brand_guidelines,omitempty"`
}

// Validate checks the structural contract of a generated creative strategy.
func (s *CreativeStrategy) Validate() error {
	if len(s.Angles) == 0 {
		return fmt.Errorf("creative strategy: no angles")
	}
	if len(s.Formats) == 0 {
		return fmt.Errorf("creative strategy: no formats")
	}
	return nil
}

// PlatformBudget is one row of the per-platform budget breakdown.
type PlatformBudget struct {
	Platform      string  `json:"platform"`
	Percentage    float64 `json:"percentage"`
	MonthlyBudget float64 `json:"monthly_budget"`
}

// FunnelStageBudget splits spend across funnel stages.
type FunnelStageBudget struct {
	Stage      FunnelPosition `json:"stage"`
	Percentage float64        `json:"percentage"`
}

// MonthPlan is one month of the budget roadmap.
type MonthPlan struct {
	Month  int     `json:"month"`
	Focus  string  `json:"focus"`
	Budget float64 `json:"budget"`
}

// BudgetAllocation is the synthesis-wave-2 budget output.
// Invariants enforced downstream: platform percentages sum to 100, funnel
// percentages sum to 100, DailyCeiling <= TotalMonthlyBudget/30, and the
// total must stay within 10% of the intake target budget.
type BudgetAllocation struct {
	TotalMonthlyBudget float64             `json:"total_monthly_budget"`
	DailyCeiling       float64             `json:"daily_ceiling"`
	Platforms          []PlatformBudget    `json:"platforms"`
	FunnelSplit        []FunnelStageBudget `json:"funnel_split"`
	MonthlyRoadmap     []MonthPlan         `json:"monthly_roadmap,omitempty"`
}

// Validate checks the structural contract of a generated budget allocation.
func (s *BudgetAllocation) Validate() error {
	if s.TotalMonthlyBudget <= 0 {
		return fmt.Errorf("budget: non-positive total monthly budget")
	}
	if len(s.Platforms) == 0 {
		return fmt.Errorf("budget: no platform breakdown")
	}
	if len(s.FunnelSplit) == 0 {
		return fmt.Errorf("budget: no funnel split")
	}
	return nil
}

// CampaignPhase is one sequential rollout phase.
type CampaignPhase struct {
	Name            string   `json:"name"`
	DurationWeeks   int      `json:"duration_weeks"`
	Activities      []string `json:"activities"`
	SuccessCriteria []string `json:"success_criteria"`
	EstimatedBudget float64  `json:"estimated_budget"`
}

// PhasesSection is the synthesis-wave-2 rollout plan.
type PhasesSection struct {
	Phases []CampaignPhase `json:"phases"`
}

// Validate checks the structural contract of generated rollout phases.
func (s *PhasesSection) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("phases: empty")
	}
	for i, p := range s.Phases {
		if p.DurationWeeks <= 0 {
			return fmt.Errorf("phases: phase %d (%s) has non-positive duration", i, p.Name)
		}
	}
	return nil
}

// KPITarget is a named metric with its target and measurement plan.
type KPITarget struct {
	Metric      string  `json:"metric"`
	Target      string  `json:"target"`
	Timeframe   string  `json:"timeframe,omitempty"`
	Measurement string  `json:"measurement,omitempty"`
	Type        KPIType `json:"type"`
}

// Risk is one entry in the risk register. Score and Classification are
// always engine-computed from Probability and Impact, never model-supplied.
type Risk struct {
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	Probability    int       `json:"probability"` // 1-5
	Impact         int       `json:"impact"`      // 1-5
	Score          int       `json:"score"`
	Classification RiskClass `json:"classification"`
	Mitigation     string    `json:"mitigation,omitempty"`
	Contingency    string    `json:"contingency,omitempty"`
}

// MonitoringSection is the synthesis-wave-2 KPI and monitoring output.
type MonitoringSection struct {
	KPIs                []KPITarget `json:"kpis"`
	ReviewCadence       string      `json:"review_cadence,omitempty"`
	EarlyWarningSignals []string    `json:"early_warning_signals,omitempty"`
}

// Validate checks the structural contract of generated monitoring targets.
func (s *MonitoringSection) Validate() error {
	if len(s.KPIs) == 0 {
		return fmt.Errorf("monitoring: no KPI targets")
	}
	for i, k := range s.KPIs {
		if strings.TrimSpace(k.Metric) == "" {
			return fmt.Errorf("monitoring: KPI %d has empty metric", i)
		}
	}
	return nil
}

// RiskSection is the final-synthesis risk register output.
type RiskSection struct {
	Risks []Risk `json:"risks"`
}

// Validate checks the structural contract of a generated risk register.
func (s *RiskSection) Validate() error {
	if len(s.Risks) == 0 {
		return fmt.Errorf("risks: empty")
	}
	for i, r := range s.Risks {
		if r.Probability < 1 || r.Probability > 5 {
			return fmt.Errorf("risks: entry %d probability out of range: %d", i, r.Probability)
		}
		if r.Impact < 1 || r.Impact > 5 {
			return fmt.Errorf("risks: entry %d impact out of range: %d", i, r.Impact)
		}
	}
	return nil
}

// ExecutiveSummary is the final-synthesis narrative output.
type ExecutiveSummary struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights,omitempty"`
}

// Validate checks the structural contract of a generated executive summary.
func (s *ExecutiveSummary) Validate() error {
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("executive summary: empty")
	}
	return nil
}

// RatioLabel classifies an LTV:CAC ratio.
func RatioLabel(ratio float64) string {
	switch {
	case ratio >= 3:
		return "Healthy"
	case ratio >= 1:
		return "Below-ideal"
	default:
		return "Unsustainable"
	}
}

// CACModel is the unit-economics model. It is the only entity computed
// entirely by arithmetic: the validation engine derives it from the intake
// assumptions and never accepts a generated version.
type CACModel struct {
	MonthlyBudget   float64 `json:"monthly_budget"`
	EffectiveBudget float64 `json:"effective_budget"` // 80% of monthly, testing/overhead reserve
	TargetCPL       float64 `json:"target_cpl"`
	Leads           int     `json:"leads"`
	QualifiedLeads  int     `json:"qualified_leads"`
	Customers       int     `json:"customers"`
	CAC             float64 `json:"cac"`
	LTV             float64 `json:"ltv"`
	Ratio           float64 `json:"ltv_cac_ratio"`
	RatioLabel      string  `json:"ratio_label"`
}
