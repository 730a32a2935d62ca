package pipeline

import (
	"fmt"
	"strings"

	"planforge/internal/contextbuild"
	"planforge/internal/plan"
)

// Byte budgets for prompt assembly. Upstream documents get the largest
// share; inlined phase outputs are ground truth and must survive intact, so
// their budget is generous relative to their typical size.
const (
	intakeBudget   = 8 * 1024
	researchBudget = 24 * 1024
	inlineBudget   = 16 * 1024
)

const systemResearch = `You are a senior paid-media strategist. You produce structured research
for a media plan: concrete, platform-specific, grounded in the business
context you are given. Respond with JSON matching the requested schema
exactly. Never invent budget figures beyond the stated target.`

const systemSynthesis = `You are a senior paid-media strategist assembling a launch-ready media
plan. Earlier sections shown to you are validated ground truth: build on
them, never contradict them. Respond with JSON matching the requested
schema exactly.`

const systemNarrative = `You are a senior paid-media strategist writing for an executive reader.
The validated numbers you are given are final: quote them exactly, never
recalculate or round them differently. Respond with JSON matching the
requested schema exactly.`

// promptInputs carries the pre-rendered context blocks shared by every
// prompt of a run.
type promptInputs struct {
	intake   string
	research string
}

func buildPromptInputs(in plan.Intake, research *plan.ResearchDocument) promptInputs {
	return promptInputs{
		intake:   contextbuild.BuildIntakeContext(&in, intakeBudget),
		research: contextbuild.BuildResearchContext(research, researchBudget),
	}
}

func joinBlocks(blocks ...string) string {
	nonEmpty := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(b))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

func platformStrategyPrompt(p promptInputs) string {
	return joinBlocks(p.intake, p.research,
		`Recommend the advertising platforms for this business. For each platform
give its share of the monthly budget (percentages must sum to 100), the
resulting monthly spend in dollars, an expected cost-per-lead range, a
priority tier, and the ad formats to run.`)
}

func audiencePrompt(p promptInputs) string {
	return joinBlocks(p.intake, p.research,
		`Define the audience targeting: the segments worth pursuing with their
funnel position (cold, warm, or hot) and a 0-10 priority score, plus
per-platform targeting parameters for those segments.`)
}

func benchmarkPrompt(p promptInputs) string {
	return joinBlocks(p.intake, p.research,
		`List the industry KPI benchmarks relevant to this plan: per-platform
CPL, CPM, CTR and conversion figures with their source where known.`)
}

func campaignStructurePrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.InlineJSON("Platform Strategy", doc.PlatformStrategy, inlineBudget),
		contextbuild.InlineJSON("Audience", doc.Audience, inlineBudget),
		`Design the launch campaign structure: campaigns per platform and funnel
stage with objectives, daily budgets and ad sets, a naming convention
with pattern and example, retargeting segments, and negative keywords
where relevant.`)
}

func creativePrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.InlineJSON("Platform Strategy", doc.PlatformStrategy, inlineBudget),
		contextbuild.InlineJSON("Audience", doc.Audience, inlineBudget),
		`Develop the creative strategy: messaging angles with hooks, format
specs per platform, a phased testing plan with variant counts, refresh
cadence, and brand guidelines.`)
}

func budgetPrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.InlineJSON("Platform Strategy", doc.PlatformStrategy, inlineBudget),
		contextbuild.InlineJSON("Campaign Structure", doc.CampaignStruct, inlineBudget),
		`Allocate the budget: total monthly budget (stay at the stated target),
a daily spend ceiling no higher than total/30, per-platform percentages
and dollar amounts (percentages sum to 100), a funnel split (also
summing to 100), and a three-month roadmap.`)
}

func rolloutPrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.InlineJSON("Campaign Structure", doc.CampaignStruct, inlineBudget),
		contextbuild.InlineJSON("Benchmarks", doc.Benchmarks, inlineBudget),
		`Plan the rollout and measurement: sequential launch phases with
duration in weeks, activities, success criteria and estimated budget,
plus the KPI targets to monitor (metric, numeric target, timeframe,
measurement method, primary or secondary), a review cadence, and early
warning signals.`)
}

func summaryPrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.BuildGroundTruth(doc.Budget, doc.CACModel, inlineBudget),
		`Write the executive summary of this media plan: the strategy in brief
and the headline numbers, plus 3-5 highlights. Quote the validated
figures exactly as given.`)
}

func riskPrompt(p promptInputs, doc *plan.Document) string {
	return joinBlocks(p.intake,
		contextbuild.BuildGroundTruth(doc.Budget, doc.CACModel, inlineBudget),
		contextbuild.InlineJSON("Campaign Structure", doc.CampaignStruct, inlineBudget),
		`Build the risk register: for each risk give its category, description,
probability (1-5), impact (1-5), mitigation, and contingency.`)
}

// describeRun renders the one-line run banner.
func describeRun(in plan.Intake) string {
	return fmt.Sprintf("%s (%s), $%.0f/mo", in.BusinessName, in.Industry, in.TargetMonthlyBudget)
}
