// Package report assembles the human-readable analyst report from a run's
// evaluated hypotheses and creative ideas, and writes the run artifacts
// (markdown, HTML, JSON) to the output directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"adinsight/domain/insight"
	"adinsight/internal/creative"
	"adinsight/internal/errors"
)

// Report is the assembled run output.
type Report struct {
	Markdown string
	HTML     string
}

// Assemble renders the executive report from the run results.
func Assemble(evaluated []insight.EvaluatedHypothesis, ideas []creative.Idea, summary *insight.PerformanceSummary) Report {
	var b strings.Builder
	ts := time.Now().UTC().Format(time.RFC3339)

	fmt.Fprintf(&b, "# Ad Performance Analyst Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", ts)

	b.WriteString("## Executive summary\n")
	if len(evaluated) == 0 {
		b.WriteString("- No hypotheses were generated.\n")
	}
	for _, e := range evaluated {
		fmt.Fprintf(&b, "- Hypothesis: %s (confidence: %.2f)\n", e.Hypothesis.Claim, e.Verdict.Confidence)
	}
	b.WriteString("\n")

	if summary != nil {
		b.WriteString("## Key metrics (recent period)\n")
		fmt.Fprintf(&b, "- Total impressions: %.0f\n", summary.TotalImpressions)
		fmt.Fprintf(&b, "- Total clicks: %.0f\n", summary.TotalClicks)
		fmt.Fprintf(&b, "- Total spend: %.2f\n", summary.TotalSpend)
		fmt.Fprintf(&b, "- Total revenue: %.2f\n", summary.TotalRevenue)
		fmt.Fprintf(&b, "- Avg CTR: %.4f\n", summary.AvgCTR)
		fmt.Fprintf(&b, "- Avg ROAS: %.4f\n", summary.AvgROAS)
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations (sample)\n")
	if len(ideas) == 0 {
		b.WriteString("- No creative ideas generated.\n")
	}
	for i, idea := range ideas {
		if i >= 8 {
			break
		}
		fmt.Fprintf(&b, "- %d. Headline: %s | CTA: %s\n", i+1, idea.Headline, idea.CTA)
	}
	b.WriteString("\n")

	b.WriteString("## Full hypotheses & evidence\n")
	for _, e := range evaluated {
		evidenceJSON, _ := json.Marshal(e.Evidence)
		fmt.Fprintf(&b, "### %s\n", e.Hypothesis.ID)
		fmt.Fprintf(&b, "- Hypothesis: %s\n", e.Hypothesis.Claim)
		fmt.Fprintf(&b, "- Verdict: %s (confidence: %.2f)\n", e.Verdict.Status, e.Verdict.Confidence)
		fmt.Fprintf(&b, "- Evidence: %s\n", string(evidenceJSON))
		fmt.Fprintf(&b, "- Notes: %s\n\n", e.Verdict.Notes)
	}

	md := b.String()
	return Report{Markdown: md, HTML: renderHTML(md)}
}

func renderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

// Write stores the report and the JSON artifacts under outDir and returns
// the written paths keyed by artifact name.
func Write(outDir string, rep Report, evaluated []insight.EvaluatedHypothesis, ideas []creative.Idea) (map[string]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output dir %s", outDir)
	}

	paths := map[string]string{
		"report_md":   filepath.Join(outDir, "report.md"),
		"report_html": filepath.Join(outDir, "report.html"),
		"hypotheses":  filepath.Join(outDir, "hypotheses.json"),
		"creatives":   filepath.Join(outDir, "creatives.json"),
	}

	if err := os.WriteFile(paths["report_md"], []byte(rep.Markdown), 0o644); err != nil {
		return nil, errors.Wrap(err, "write markdown report")
	}
	if err := os.WriteFile(paths["report_html"], []byte(rep.HTML), 0o644); err != nil {
		return nil, errors.Wrap(err, "write html report")
	}

	hypothesesJSON, err := json.MarshalIndent(evaluated, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal hypotheses")
	}
	if err := os.WriteFile(paths["hypotheses"], hypothesesJSON, 0o644); err != nil {
		return nil, errors.Wrap(err, "write hypotheses")
	}

	ideasJSON, err := json.MarshalIndent(ideas, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal creatives")
	}
	if err := os.WriteFile(paths["creatives"], ideasJSON, 0o644); err != nil {
		return nil, errors.Wrap(err, "write creatives")
	}
	return paths, nil
}
