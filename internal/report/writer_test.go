package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adinsight/domain/insight"
	"adinsight/internal/creative"
)

func evaluatedFixture() []insight.EvaluatedHypothesis {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(-0.4),
		SampleSize:    insight.Int(300),
	}
	return []insight.EvaluatedHypothesis{
		{
			Hypothesis: insight.Hypothesis{ID: "H1", Claim: "ROAS decline driven by low-efficiency audience"},
			Evidence:   ev,
			Verdict:    insight.Verdict{Status: insight.StatusNeedsReview, Confidence: 0.41, Evidence: ev, Notes: "n1"},
		},
	}
}

func ideasFixture() []creative.Idea {
	return creative.NewGenerator(42).Generate(nil, 3)
}

func TestAssembleSections(t *testing.T) {
	rep := Assemble(evaluatedFixture(), ideasFixture(), &insight.PerformanceSummary{
		TotalSpend: 1234.5, TotalRevenue: 2000, AvgROAS: 1.62,
	})

	assert.Contains(t, rep.Markdown, "# Ad Performance Analyst Report")
	assert.Contains(t, rep.Markdown, "## Executive summary")
	assert.Contains(t, rep.Markdown, "low-efficiency audience")
	assert.Contains(t, rep.Markdown, "Total spend: 1234.50")
	assert.Contains(t, rep.Markdown, "## Recommendations (sample)")
	assert.Contains(t, rep.Markdown, "### H1")
	assert.Contains(t, rep.Markdown, `"pct_change_roas":-0.4`)

	assert.Contains(t, rep.HTML, "<h1")
	assert.Contains(t, rep.HTML, "<h2")
}

func TestAssembleEmptyRun(t *testing.T) {
	rep := Assemble(nil, nil, nil)
	assert.Contains(t, rep.Markdown, "No hypotheses were generated")
	assert.Contains(t, rep.Markdown, "No creative ideas generated")
}

func TestWriteArtifacts(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "reports")
	evaluated := evaluatedFixture()
	ideas := ideasFixture()

	paths, err := Write(outDir, Assemble(evaluated, ideas, nil), evaluated, ideas)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	raw, err := os.ReadFile(paths["hypotheses"])
	require.NoError(t, err)
	var back []insight.EvaluatedHypothesis
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "H1", back[0].Hypothesis.ID)
	assert.Equal(t, insight.StatusNeedsReview, back[0].Verdict.Status)

	raw, err = os.ReadFile(paths["creatives"])
	require.NoError(t, err)
	var ideasBack []creative.Idea
	require.NoError(t, json.Unmarshal(raw, &ideasBack))
	assert.Equal(t, len(ideas), len(ideasBack))

	md, err := os.ReadFile(paths["report_md"])
	require.NoError(t, err)
	assert.Contains(t, string(md), "### H1")
}
