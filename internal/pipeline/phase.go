// Package pipeline orchestrates a media plan generation run: a fixed phase
// machine that alternates generation (parallel research, staggered synthesis
// waves, final narrative) with deterministic validation, and assembles the
// corrected sections into the final output.
package pipeline

import "fmt"

// Phase identifies a stage of the generation pipeline. Phases advance
// strictly in order; a failure in any phase aborts the run.
type Phase string

const (
	PhaseResearch       Phase = "research"
	PhaseSynthesisWave1 Phase = "synthesis_wave_1"
	PhaseSynthesisWave2 Phase = "synthesis_wave_2"
	PhaseBudgetValidate Phase = "budget_validation"
	PhaseCrossValidate  Phase = "cross_section_validation"
	PhaseFinalSynthesis Phase = "final_synthesis"
	PhaseAssembled      Phase = "assembled"
	PhaseFailed         Phase = "failed"
)

// Status is the lifecycle state an event reports.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusData      Status = "data"
	StatusFailed    Status = "failed"
)

// Event is one progress notification. Section is empty for phase-level
// events and names the generated section for per-call events. Data carries
// the validated section value on StatusData events, and the full assembled
// output on the terminal PhaseAssembled completion.
type Event struct {
	Phase   Phase
	Section string
	Status  Status
	Data    any
	Err     error
}

// Error reports a failed run: the phase that aborted it and the cost the
// run accumulated before failing, so callers can account for spend even
// when no plan was produced.
type Error struct {
	Phase   Phase
	CostUSD float64
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline failed in %s: %v (spent $%.4f)", e.Phase, e.Err, e.CostUSD)
}

func (e *Error) Unwrap() error { return e.Err }
