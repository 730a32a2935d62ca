package pipeline

import "planforge/internal/plan"

// Response schemas for structured output. Each schema mirrors its section
// type exactly: responses are decoded strictly, so any field the model
// invents beyond these is a structural mismatch and triggers a retry.

func schemaString() map[string]any { return map[string]any{"type": "string"} }
func schemaNumber() map[string]any { return map[string]any{"type": "number"} }
func schemaInt() map[string]any    { return map[string]any{"type": "integer"} }

func schemaEnum(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func schemaArray(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func schemaObject(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func funnelEnum() map[string]any { return schemaEnum("cold", "warm", "hot") }

func platformStrategySchema() map[string]any {
	return schemaObject(map[string]any{
		"platforms": schemaArray(schemaObject(map[string]any{
			"platform":          schemaString(),
			"budget_percentage": schemaNumber(),
			"monthly_spend":     schemaNumber(),
			"expected_cpl": schemaObject(map[string]any{
				"min": schemaNumber(),
				"max": schemaNumber(),
			}, "min", "max"),
			"priority":  schemaEnum("tier1", "tier2", "tier3"),
			"formats":   schemaArray(schemaString()),
			"rationale": schemaString(),
		}, "platform", "budget_percentage", "monthly_spend", "expected_cpl", "priority", "formats")),
		"summary": schemaString(),
	}, "platforms")
}

func audienceSchema() map[string]any {
	return schemaObject(map[string]any{
		"segments": schemaArray(schemaObject(map[string]any{
			"name":            schemaString(),
			"description":     schemaString(),
			"funnel_position": funnelEnum(),
			"priority_score":  schemaNumber(),
		}, "name", "funnel_position", "priority_score")),
		"platform_targeting": schemaArray(schemaObject(map[string]any{
			"platform":   schemaString(),
			"segments":   schemaArray(schemaString()),
			"parameters": schemaString(),
		}, "platform", "segments")),
	}, "segments", "platform_targeting")
}

func benchmarkSchema() map[string]any {
	return schemaObject(map[string]any{
		"benchmarks": schemaArray(schemaObject(map[string]any{
			"platform":   schemaString(),
			"metric":     schemaString(),
			"value":      schemaNumber(),
			"percentile": schemaString(),
			"source":     schemaString(),
		}, "platform", "metric", "value")),
		"notes": schemaString(),
	}, "benchmarks")
}

func campaignStructureSchema() map[string]any {
	return schemaObject(map[string]any{
		"campaigns": schemaArray(schemaObject(map[string]any{
			"name":         schemaString(),
			"platform":     schemaString(),
			"funnel_stage": funnelEnum(),
			"objective":    schemaString(),
			"daily_budget": schemaNumber(),
			"ad_sets": schemaArray(schemaObject(map[string]any{
				"name":      schemaString(),
				"audience":  schemaString(),
				"placement": schemaString(),
			}, "name", "audience")),
		}, "name", "platform", "funnel_stage", "objective", "daily_budget", "ad_sets")),
		"naming_convention": schemaObject(map[string]any{
			"pattern": schemaString(),
			"example": schemaString(),
		}, "pattern"),
		"retargeting_segments": schemaArray(schemaObject(map[string]any{
			"name":          schemaString(),
			"source":        schemaString(),
			"lookback_days": schemaInt(),
			"objective":     schemaString(),
		}, "name", "source", "lookback_days", "objective")),
		"negative_keywords": schemaArray(schemaString()),
	}, "campaigns", "naming_convention", "retargeting_segments")
}

func creativeSchema() map[string]any {
	return schemaObject(map[string]any{
		"angles": schemaArray(schemaObject(map[string]any{
			"name":             schemaString(),
			"hook":             schemaString(),
			"audience":         schemaString(),
			"emotional_driver": schemaString(),
		}, "name", "hook")),
		"formats": schemaArray(schemaObject(map[string]any{
			"format":    schemaString(),
			"platforms": schemaArray(schemaString()),
			"spec":      schemaString(),
		}, "format", "platforms")),
		"testing_plan": schemaArray(schemaObject(map[string]any{
			"phase":      schemaString(),
			"hypothesis": schemaString(),
			"variants":   schemaInt(),
		}, "phase", "hypothesis", "variants")),
		"refresh_cadence":  schemaString(),
		"brand_guidelines": schemaArray(schemaString()),
	}, "angles", "formats", "testing_plan")
}

func budgetSchema() map[string]any {
	return schemaObject(map[string]any{
		"total_monthly_budget": schemaNumber(),
		"daily_ceiling":        schemaNumber(),
		"platforms": schemaArray(schemaObject(map[string]any{
			"platform":       schemaString(),
			"percentage":     schemaNumber(),
			"monthly_budget": schemaNumber(),
		}, "platform", "percentage", "monthly_budget")),
		"funnel_split": schemaArray(schemaObject(map[string]any{
			"stage":      funnelEnum(),
			"percentage": schemaNumber(),
		}, "stage", "percentage")),
		"monthly_roadmap": schemaArray(schemaObject(map[string]any{
			"month":  schemaInt(),
			"focus":  schemaString(),
			"budget": schemaNumber(),
		}, "month", "focus", "budget")),
	}, "total_monthly_budget", "daily_ceiling", "platforms", "funnel_split")
}

func rolloutSchema() map[string]any {
	return schemaObject(map[string]any{
		"phases": schemaObject(map[string]any{
			"phases": schemaArray(schemaObject(map[string]any{
				"name":             schemaString(),
				"duration_weeks":   schemaInt(),
				"activities":       schemaArray(schemaString()),
				"success_criteria": schemaArray(schemaString()),
				"estimated_budget": schemaNumber(),
			}, "name", "duration_weeks", "activities", "success_criteria", "estimated_budget")),
		}, "phases"),
		"monitoring": schemaObject(map[string]any{
			"kpis": schemaArray(schemaObject(map[string]any{
				"metric":      schemaString(),
				"target":      schemaString(),
				"timeframe":   schemaString(),
				"measurement": schemaString(),
				"type":        schemaEnum("primary", "secondary"),
			}, "metric", "target", "type")),
			"review_cadence":        schemaString(),
			"early_warning_signals": schemaArray(schemaString()),
		}, "kpis"),
	}, "phases", "monitoring")
}

func summarySchema() map[string]any {
	return schemaObject(map[string]any{
		"summary":    schemaString(),
		"highlights": schemaArray(schemaString()),
	}, "summary")
}

func riskSchema() map[string]any {
	return schemaObject(map[string]any{
		"risks": schemaArray(schemaObject(map[string]any{
			"category":       schemaString(),
			"description":    schemaString(),
			"probability":    schemaInt(),
			"impact":         schemaInt(),
			"score":          schemaInt(),
			"classification": schemaEnum("low", "medium", "high", "critical"),
			"mitigation":     schemaString(),
			"contingency":    schemaString(),
		}, "category", "description", "probability", "impact")),
	}, "risks")
}

// rolloutOutput bundles the two wave-2 planning sections generated by a
// single call.
type rolloutOutput struct {
	Phases     plan.PhasesSection     `json:"phases"`
	Monitoring plan.MonitoringSection `json:"monitoring"`
}

func (r *rolloutOutput) Validate() error {
	if err := r.Phases.Validate(); err != nil {
		return err
	}
	return r.Monitoring.Validate()
}
