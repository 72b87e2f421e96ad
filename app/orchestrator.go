// Package app coordinates the analysis pipeline: load data, summarize,
// generate hypotheses, gather evidence, evaluate, generate creative ideas,
// and write the run artifacts. The core components it drives are pure; all
// I/O lives here and in the adapters.
package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"adinsight/adapters/dataio"
	"adinsight/domain/adset"
	"adinsight/domain/core"
	"adinsight/domain/insight"
	"adinsight/internal"
	"adinsight/internal/agent"
	"adinsight/internal/config"
	"adinsight/internal/creative"
	"adinsight/internal/errors"
	"adinsight/internal/evaluate"
	"adinsight/internal/metrics"
	"adinsight/internal/report"
	"adinsight/ports"
)

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID      core.RunID                    `json:"run_id"`
	Query      string                        `json:"query"`
	Plan       Plan                          `json:"plan"`
	Summary    *insight.PerformanceSummary   `json:"summary"`
	Hypotheses []insight.EvaluatedHypothesis `json:"hypotheses"`
	Ideas      []creative.Idea               `json:"ideas"`
	Paths      map[string]string             `json:"paths,omitempty"`
}

// Orchestrator wires the pipeline together. The LLM client and the run
// repository are optional collaborators; a nil value skips them.
type Orchestrator struct {
	cfg       *config.Config
	log       *internal.Logger
	source    ports.DataSource
	planner   *Planner
	agent     *agent.Agent
	evaluator *evaluate.Evaluator
	creatives *creative.Generator
	repo      ports.RunRepository
	trace     *report.TraceLog
}

// NewOrchestrator builds the pipeline from validated configuration.
func NewOrchestrator(cfg *config.Config, source ports.DataSource, llm ports.TextCompletion, repo ports.RunRepository) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		log:     internal.DefaultLogger,
		source:  source,
		planner: NewPlanner(llm, cfg.OpenAI.MaxTokens),
		agent: agent.New(agent.Config{
			TrendWindowDays:     cfg.TrendWindowDays,
			RecentDays:          cfg.RecentDays,
			LongTrendWindowDays: cfg.LongTrendWindowDays,
			OutlierMethod:       cfg.Method(),
			MaxHypotheses:       cfg.MaxHypotheses,
		}),
		evaluator: evaluate.New(cfg.ConfidenceMin),
		creatives: creative.NewGenerator(cfg.RandomSeed),
		repo:      repo,
		trace:     report.NewTraceLog(cfg.LogsPath),
	}
}

// Run executes the full pipeline for one query and writes the report
// artifacts to outDir.
func (o *Orchestrator) Run(ctx context.Context, query, outDir string) (*RunResult, error) {
	runID := core.RunID(core.NewID())
	startedAt := core.Now()
	o.traceStage("run_started", map[string]string{"run_id": runID.String(), "query": query})

	table, err := o.source.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load dataset")
	}
	recent := table.Recent(o.cfg.RecentDays)
	o.log.Info("loaded dataset: %d rows (%d recent)", table.Len(), recent.Len())

	summary := dataio.Summarize(table, o.cfg.RecentDays, o.cfg.MaxLowCTRCreatives)
	summary.RollingROAS = metrics.Values(metrics.RollingRate(table, o.cfg.TrendWindowDays))
	o.traceStage("summary_built", summary)

	plan := o.planner.Decompose(ctx, query)
	o.traceStage("plan_decomposed", plan)

	hypotheses := o.agent.Generate(summary, table)
	o.log.Info("generated %d hypotheses", len(hypotheses))
	o.traceStage("hypotheses_generated", hypotheses)

	evaluated, err := o.evaluateAll(ctx, hypotheses, table, recent)
	if err != nil {
		return nil, err
	}

	// Reflection pass: when nothing clears the acceptance bar and a model
	// is available, ask once more with the summary alone and evaluate the
	// extras on sample size only.
	if o.planner.llm != nil && topConfidence(evaluated) < o.evaluator.ConfidenceMin() {
		extra := o.agent.Generate(summary, nil)
		n := recent.Len()
		for _, h := range dropKnown(extra, evaluated) {
			ev := insight.EvidenceRecord{SampleSize: insight.Int(n)}
			evaluated = append(evaluated, insight.EvaluatedHypothesis{
				Hypothesis: h,
				Evidence:   ev,
				Verdict:    o.evaluator.Evaluate(h, ev),
			})
		}
		o.traceStage("reflection_pass", len(evaluated))
	}

	ideas := o.creatives.Generate(summary.LowCTRCreatives, o.cfg.CreativeIdeas)
	o.traceStage("creatives_generated", len(ideas))

	rep := report.Assemble(evaluated, ideas, summary)
	paths, err := report.Write(outDir, rep, evaluated, ideas)
	if err != nil {
		return nil, err
	}
	o.traceStage("report_written", paths)

	result := &RunResult{
		RunID:      runID,
		Query:      query,
		Plan:       plan,
		Summary:    summary,
		Hypotheses: evaluated,
		Ideas:      ideas,
		Paths:      paths,
	}

	if o.repo != nil {
		record := &ports.RunRecord{
			ID:         runID,
			Query:      query,
			Summary:    summary,
			Hypotheses: evaluated,
			IdeaCount:  len(ideas),
			StartedAt:  startedAt,
			FinishedAt: core.Now(),
		}
		if err := o.repo.SaveRun(ctx, record); err != nil {
			// Persistence is best-effort; the report already exists.
			o.log.Warn("persist run %s: %v", runID, err)
		}
	}
	return result, nil
}

// evaluateAll assembles the evidence record for each hypothesis and runs the
// evaluator concurrently. Evaluation is pure with no cross-call state, so
// parallelism is safe; output order matches input order.
func (o *Orchestrator) evaluateAll(ctx context.Context, hypotheses []insight.Hypothesis, table, recent *adset.Table) ([]insight.EvaluatedHypothesis, error) {
	pctROAS := o.rollingChange(table)
	sampleSize := recent.Len()
	outlierFlag := metrics.AnyOutlier(metrics.DetectOutliers(table.ROASSeries(), o.cfg.Method()))

	out := make([]insight.EvaluatedHypothesis, len(hypotheses))
	g, _ := errgroup.WithContext(ctx)
	for i, h := range hypotheses {
		i, h := i, h
		g.Go(func() error {
			ev := insight.EvidenceRecord{
				PctChangeROAS: insight.Float(pctROAS),
				SampleSize:    insight.Int(sampleSize),
				OutlierFlag:   outlierFlag,
			}
			out[i] = insight.EvaluatedHypothesis{
				Hypothesis: h,
				Evidence:   ev,
				Verdict:    o.evaluator.Evaluate(h, ev),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o.traceStage("hypotheses_evaluated", len(out))
	return out, nil
}

// rollingChange compares the latest trailing ROAS against the start of the
// series. Too-short series read as no change.
func (o *Orchestrator) rollingChange(table *adset.Table) float64 {
	series := metrics.RollingRate(table, o.cfg.TrendWindowDays)
	if len(series) < o.cfg.TrendWindowDays+1 {
		return 0.0
	}
	return metrics.PercentChange(series[0].ROAS, series[len(series)-1].ROAS)
}

func (o *Orchestrator) traceStage(stage string, payload interface{}) {
	if err := o.trace.Append(stage, payload); err != nil {
		o.log.Warn("trace %s: %v", stage, err)
	}
}

func topConfidence(evaluated []insight.EvaluatedHypothesis) float64 {
	top := 0.0
	for _, e := range evaluated {
		if e.Verdict.Confidence > top {
			top = e.Verdict.Confidence
		}
	}
	return top
}

// dropKnown filters hypotheses already present in the evaluated set, keyed
// the same way generation deduplicates.
func dropKnown(candidates []insight.Hypothesis, evaluated []insight.EvaluatedHypothesis) []insight.Hypothesis {
	seen := map[string]struct{}{}
	for _, e := range evaluated {
		seen[claimKey(e.Hypothesis.Claim)] = struct{}{}
	}
	var out []insight.Hypothesis
	for _, h := range candidates {
		if _, dup := seen[claimKey(h.Claim)]; dup {
			continue
		}
		out = append(out, h)
	}
	return out
}

func claimKey(claim string) string {
	if len(claim) > 200 {
		return claim[:200]
	}
	return claim
}
