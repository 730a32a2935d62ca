package plan

import "time"

// Document is the working media plan assembled phase by phase. The
// validation engine operates on a Document copy; the orchestrator only
// exposes a phase's output downstream after its rules have run.
type Document struct {
	PlatformStrategy *PlatformStrategySection `json:"platform_strategy,omitempty"`
	Audience         *AudienceSection         `json:"audience,omitempty"`
	Benchmarks       *BenchmarkSection        `json:"benchmarks,omitempty"`
	CampaignStruct   *CampaignStructure       `json:"campaign_structure,omitempty"`
	Creative         *CreativeStrategy        `json:"creative_strategy,omitempty"`
	Budget           *BudgetAllocation        `json:"budget_allocation,omitempty"`
	Phases           *PhasesSection           `json:"campaign_phases,omitempty"`
	Monitoring       *MonitoringSection       `json:"monitoring,omitempty"`
	CACModel         *CACModel                `json:"cac_model,omitempty"`
	Summary          *ExecutiveSummary        `json:"executive_summary,omitempty"`
	Risks            *RiskSection             `json:"risk_register,omitempty"`
}

// GenerationMeta records how a run was produced.
type GenerationMeta struct {
	RunID          string        `json:"run_id"`
	GeneratedAt    time.Time     `json:"generated_at"`
	ProcessingTime time.Duration `json:"processing_time"`
	TotalCostUSD   float64       `json:"total_cost_usd"`
	ModelsUsed     []string      `json:"models_used"`
}

// MediaPlanOutput is the aggregate root returned on success: the assembled
// document, generation metadata, and the full audit list of every change
// the validation engine made.
type MediaPlanOutput struct {
	Document    Document       `json:"document"`
	Meta        GenerationMeta `json:"meta"`
	Adjustments []Adjustment   `json:"adjustments"`
	Warnings    []string       `json:"warnings,omitempty"`
}
