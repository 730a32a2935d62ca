package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"planforge/internal/config"
	"planforge/internal/generation"
	"planforge/internal/logging"
	"planforge/internal/plan"
	"planforge/internal/usage"
	"planforge/internal/validation"
	"planforge/internal/wave"
)

// Orchestrator drives one media plan generation run through the phase
// machine. It owns no mutable state between runs; each Run gets a fresh
// working document, usage tracker and validation engine.
type Orchestrator struct {
	cfg      config.Config
	caller   *generation.Caller
	clock    wave.Clock
	events   chan<- Event
	progress func(percent int, message string)
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock swaps the wave scheduling clock. Tests use a manual clock.
func WithClock(c wave.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithEvents sets a channel receiving progress events. Sends are
// non-blocking: a slow consumer drops events, never stalls the pipeline.
func WithEvents(ch chan<- Event) Option {
	return func(o *Orchestrator) { o.events = ch }
}

// WithProgress sets a coarse progress callback, invoked synchronously at
// phase boundaries with a 0-100 percentage and a short message.
func WithProgress(fn func(percent int, message string)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// New creates an orchestrator around the given client, with retry bounds
// taken from configuration.
func New(cfg config.Config, client generation.LLMClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg: cfg,
		caller: generation.NewCaller(client,
			generation.WithSchemaRetries(cfg.Pipeline.SchemaRetries),
			generation.WithRateLimitRetries(cfg.Pipeline.RateLimitRetries, cfg.Pipeline.RateLimitBase())),
		clock: wave.RealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline and returns the assembled plan. On
// failure the returned error is a *Error carrying the phase and the cost
// accumulated before the abort.
func (o *Orchestrator) Run(ctx context.Context, intake plan.Intake, research *plan.ResearchDocument) (*plan.MediaPlanOutput, error) {
	if err := intake.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	tracker := usage.NewTracker()
	ctx = usage.NewContext(ctx, tracker)

	engine := validation.NewEngine(o.cfg.Validation, intake)
	doc := &plan.Document{}
	inputs := buildPromptInputs(intake, research)
	var adjustments []plan.Adjustment

	logging.Pipeline("run %s starting: %s", runID, describeRun(intake))
	o.report(0, "starting generation")

	fail := func(phase Phase, err error) (*plan.MediaPlanOutput, error) {
		o.emit(Event{Phase: phase, Status: StatusFailed, Err: err})
		o.emit(Event{Phase: PhaseFailed, Status: StatusCompleted, Err: err})
		o.report(100, fmt.Sprintf("failed in %s", phase))
		logging.PipelineError("run %s failed in %s: %v", runID, phase, err)
		return nil, &Error{Phase: phase, CostUSD: tracker.TotalCost(), Err: err}
	}

	// Research: three independent calls, fully parallel.
	o.emit(Event{Phase: PhaseResearch, Status: StatusStarted})
	if err := o.runResearch(ctx, inputs, doc); err != nil {
		return fail(PhaseResearch, err)
	}
	adjustments = append(adjustments, engine.Apply(doc, engine.ResearchRules())...)
	o.emitData(PhaseResearch, "platform_strategy", doc.PlatformStrategy)
	o.emitData(PhaseResearch, "audience", doc.Audience)
	o.emitData(PhaseResearch, "benchmarks", doc.Benchmarks)
	o.emit(Event{Phase: PhaseResearch, Status: StatusCompleted})
	o.report(20, "research complete")

	// Wave 1: campaign structure and creative strategy, staggered.
	o.emit(Event{Phase: PhaseSynthesisWave1, Status: StatusStarted})
	if err := o.runWave1(ctx, inputs, doc); err != nil {
		return fail(PhaseSynthesisWave1, err)
	}
	adjustments = append(adjustments, engine.Apply(doc, engine.StructureRules())...)
	o.emitData(PhaseSynthesisWave1, "campaign_structure", doc.CampaignStruct)
	o.emitData(PhaseSynthesisWave1, "creative_strategy", doc.Creative)
	o.emit(Event{Phase: PhaseSynthesisWave1, Status: StatusCompleted})
	o.report(35, "campaign structure and creative drafted")

	// Wave 2: budget allocation and the rollout/measurement plan.
	o.emit(Event{Phase: PhaseSynthesisWave2, Status: StatusStarted})
	if err := o.runWave2(ctx, inputs, doc); err != nil {
		return fail(PhaseSynthesisWave2, err)
	}
	o.emit(Event{Phase: PhaseSynthesisWave2, Status: StatusCompleted})
	o.report(50, "budget and rollout drafted")

	o.emit(Event{Phase: PhaseBudgetValidate, Status: StatusStarted})
	adjustments = append(adjustments, engine.Apply(doc, engine.BudgetRules())...)
	o.emitData(PhaseBudgetValidate, "budget_allocation", doc.Budget)
	o.emit(Event{Phase: PhaseBudgetValidate, Status: StatusCompleted})
	o.report(60, "budget reconciled")

	o.emit(Event{Phase: PhaseCrossValidate, Status: StatusStarted})
	adjustments = append(adjustments, engine.Apply(doc, engine.CrossSectionRules())...)
	o.emitData(PhaseCrossValidate, "cac_model", doc.CACModel)
	o.emitData(PhaseCrossValidate, "rollout_plan", doc.Phases)
	o.emitData(PhaseCrossValidate, "monitoring", doc.Monitoring)
	o.emit(Event{Phase: PhaseCrossValidate, Status: StatusCompleted})
	o.report(70, "cross-section checks complete")

	// Final synthesis: narrative sections over validated ground truth.
	o.emit(Event{Phase: PhaseFinalSynthesis, Status: StatusStarted})
	if err := o.runFinal(ctx, inputs, doc); err != nil {
		return fail(PhaseFinalSynthesis, err)
	}
	adjustments = append(adjustments, engine.Apply(doc, engine.FinalRules())...)
	o.emitData(PhaseFinalSynthesis, "executive_summary", doc.Summary)
	o.emitData(PhaseFinalSynthesis, "risk_register", doc.Risks)
	o.emit(Event{Phase: PhaseFinalSynthesis, Status: StatusCompleted})
	o.report(90, "narrative synthesized")

	stats := tracker.Stats()
	out := &plan.MediaPlanOutput{
		Document: *doc,
		Meta: plan.GenerationMeta{
			RunID:          runID,
			GeneratedAt:    start,
			ProcessingTime: time.Since(start),
			TotalCostUSD:   stats.Total.Cost,
			ModelsUsed:     stats.Models(),
		},
		Adjustments: adjustments,
		Warnings:    warningReasons(adjustments),
	}
	o.emit(Event{Phase: PhaseAssembled, Status: StatusCompleted, Data: out})
	o.report(100, "plan assembled")
	logging.Pipeline("run %s assembled in %v: %d adjustments, %d warnings, $%.4f",
		runID, out.Meta.ProcessingTime, len(adjustments), len(out.Warnings), stats.Total.Cost)
	return out, nil
}

func (o *Orchestrator) runResearch(ctx context.Context, inputs promptInputs, doc *plan.Document) error {
	timer := logging.StartTimer(logging.CategoryPipeline, "research phase")
	defer timer.Stop()

	var (
		platforms  plan.PlatformStrategySection
		audience   plan.AudienceSection
		benchmarks plan.BenchmarkSection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(o.sectionCall(gctx, "platform_strategy", o.researchRequest(platformStrategyPrompt(inputs), platformStrategySchema()), &platforms))
	g.Go(o.sectionCall(gctx, "audience", o.researchRequest(audiencePrompt(inputs), audienceSchema()), &audience))
	g.Go(o.sectionCall(gctx, "benchmarks", o.researchRequest(benchmarkPrompt(inputs), benchmarkSchema()), &benchmarks))
	if err := g.Wait(); err != nil {
		return err
	}
	doc.PlatformStrategy = &platforms
	doc.Audience = &audience
	doc.Benchmarks = &benchmarks
	return nil
}

func (o *Orchestrator) runWave1(ctx context.Context, inputs promptInputs, doc *plan.Document) error {
	var (
		structure plan.CampaignStructure
		creative  plan.CreativeStrategy
	)
	tasks := []wave.Task{
		o.waveTask(PhaseSynthesisWave1, "campaign_structure",
			o.synthesisRequest(campaignStructurePrompt(inputs, doc), campaignStructureSchema()), &structure),
		o.waveTask(PhaseSynthesisWave1, "creative_strategy",
			o.synthesisRequest(creativePrompt(inputs, doc), creativeSchema()), &creative),
	}
	if _, err := wave.NewExecutor(o.clock, o.cfg.Pipeline.Stagger()).Run(ctx, tasks); err != nil {
		return err
	}
	doc.CampaignStruct = &structure
	doc.Creative = &creative
	return nil
}

func (o *Orchestrator) runWave2(ctx context.Context, inputs promptInputs, doc *plan.Document) error {
	var (
		budget  plan.BudgetAllocation
		rollout rolloutOutput
	)
	tasks := []wave.Task{
		o.waveTask(PhaseSynthesisWave2, "budget_allocation",
			o.synthesisRequest(budgetPrompt(inputs, doc), budgetSchema()), &budget),
		o.waveTask(PhaseSynthesisWave2, "rollout_plan",
			o.synthesisRequest(rolloutPrompt(inputs, doc), rolloutSchema()), &rollout),
	}
	if _, err := wave.NewExecutor(o.clock, o.cfg.Pipeline.Stagger()).Run(ctx, tasks); err != nil {
		return err
	}
	doc.Budget = &budget
	doc.Phases = &rollout.Phases
	doc.Monitoring = &rollout.Monitoring
	return nil
}

func (o *Orchestrator) runFinal(ctx context.Context, inputs promptInputs, doc *plan.Document) error {
	var (
		summary plan.ExecutiveSummary
		risks   plan.RiskSection
	)
	tasks := []wave.Task{
		o.finalTask("executive_summary", summaryPrompt(inputs, doc), summarySchema(), &summary),
		o.finalTask("risk_register", riskPrompt(inputs, doc), riskSchema(), &risks),
	}
	// Both narrative calls read the same validated ground truth, so they
	// launch together with no stagger.
	if _, err := wave.NewExecutor(o.clock, 0).Run(ctx, tasks); err != nil {
		return err
	}
	doc.Summary = &summary
	doc.Risks = &risks
	return nil
}

// sectionCall wraps one generation call as an errgroup function, with
// per-section progress events.
func (o *Orchestrator) sectionCall(ctx context.Context, section string, req generation.Request, out generation.Validator) func() error {
	return func() error {
		o.emit(Event{Phase: PhaseResearch, Section: section, Status: StatusStarted})
		_, err := o.caller.Call(ctx, section, req, out)
		if err != nil {
			o.emit(Event{Phase: PhaseResearch, Section: section, Status: StatusFailed, Err: err})
			return err
		}
		o.emit(Event{Phase: PhaseResearch, Section: section, Status: StatusCompleted})
		return nil
	}
}

// waveTask wraps one generation call as a wave task with progress hooks.
// The decoded value lands in out once the wave settles successfully.
func (o *Orchestrator) waveTask(phase Phase, section string, req generation.Request, out generation.Validator) wave.Task {
	return wave.Task{
		ID: section,
		Execute: func(ctx context.Context) (any, error) {
			_, err := o.caller.Call(ctx, section, req, out)
			return nil, err
		},
		OnStart: func(id string) {
			o.emit(Event{Phase: phase, Section: id, Status: StatusStarted})
		},
		OnComplete: func(id string, _ any) {
			o.emit(Event{Phase: phase, Section: id, Status: StatusCompleted})
		},
		OnError: func(id string, err error) {
			o.emit(Event{Phase: phase, Section: id, Status: StatusFailed, Err: err})
		},
	}
}

func (o *Orchestrator) finalTask(section, prompt string, schema map[string]any, out generation.Validator) wave.Task {
	req := generation.Request{
		System:          systemNarrative,
		Prompt:          prompt,
		Schema:          schema,
		Temperature:     o.cfg.Pipeline.Temperature,
		MaxOutputTokens: o.cfg.Pipeline.SynthesisMaxTokens,
	}
	return o.waveTask(PhaseFinalSynthesis, section, req, out)
}

func (o *Orchestrator) researchRequest(prompt string, schema map[string]any) generation.Request {
	return generation.Request{
		System:          systemResearch,
		Prompt:          prompt,
		Schema:          schema,
		Temperature:     o.cfg.Pipeline.Temperature,
		MaxOutputTokens: o.cfg.Pipeline.ResearchMaxTokens,
	}
}

func (o *Orchestrator) synthesisRequest(prompt string, schema map[string]any) generation.Request {
	return generation.Request{
		System:          systemSynthesis,
		Prompt:          prompt,
		Schema:          schema,
		Temperature:     o.cfg.Pipeline.Temperature,
		MaxOutputTokens: o.cfg.Pipeline.SynthesisMaxTokens,
	}
}

// emitData publishes one validated section value.
func (o *Orchestrator) emitData(phase Phase, section string, v any) {
	o.emit(Event{Phase: phase, Section: section, Status: StatusData, Data: v})
}

func (o *Orchestrator) report(percent int, message string) {
	if o.progress != nil {
		o.progress(percent, message)
	}
}

func (o *Orchestrator) emit(ev Event) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- ev:
	default:
		logging.PipelineDebug("progress event dropped: %s/%s %s", ev.Phase, ev.Section, ev.Status)
	}
}

func warningReasons(adjs []plan.Adjustment) []string {
	var out []string
	for _, a := range adjs {
		if a.Kind == plan.AdjustmentWarning {
			out = append(out, fmt.Sprintf("%s: %s", a.FieldPath, a.Reason))
		}
	}
	return out
}
