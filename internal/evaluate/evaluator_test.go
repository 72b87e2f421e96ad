package evaluate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adinsight/domain/insight"
	"adinsight/internal/metrics"
)

func hypo() insight.Hypothesis {
	return insight.Hypothesis{
		ID:    "h_test",
		Claim: "ROAS declined in the recent window",
	}
}

func TestNewThresholdFallback(t *testing.T) {
	assert.Equal(t, 0.7, New(0.7).ConfidenceMin())
	assert.Equal(t, DefaultConfidenceMin, New(0).ConfidenceMin())
	assert.Equal(t, DefaultConfidenceMin, New(-1).ConfidenceMin())
	assert.Equal(t, DefaultConfidenceMin, New(1.5).ConfidenceMin())
	assert.Equal(t, 1.0, New(1.0).ConfidenceMin())
}

func TestEvaluateEmptyEvidenceRejected(t *testing.T) {
	v := New(0.6).Evaluate(hypo(), insight.EvidenceRecord{})
	assert.Equal(t, insight.StatusRejected, v.Status)
	assert.Equal(t, 0.0, v.Confidence)
}

func TestEvaluateStrongEvidenceAccepted(t *testing.T) {
	// saturated ROAS change plus a large sample clears the default bar:
	// (0.5*1.0 + 0.15*1.0) / 0.65 = 1.0
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(-2.5),
		SampleSize:    insight.Int(1500),
	}
	v := New(0.6).Evaluate(hypo(), ev)
	assert.Equal(t, insight.StatusAccepted, v.Status)
	assert.InDelta(t, 1.0, v.Confidence, 1e-9)
}

func TestEvaluateModerateEvidenceNeedsReview(t *testing.T) {
	// (0.5*0.5 + 0.2*0.1 + 0.15*1.0) / 0.85 ~= 0.494
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(1.0),
		PctChangeCTR:  insight.Float(0.2),
		SampleSize:    insight.Int(2000),
	}
	v := New(0.6).Evaluate(hypo(), ev)
	assert.Equal(t, insight.StatusNeedsReview, v.Status)
	assert.InDelta(t, 0.42/0.85, v.Confidence, 1e-9)
}

func TestEvaluateWeakEvidenceRejected(t *testing.T) {
	// no change, tiny sample: (0 + 0.15*0.005) / 0.65 ~= 0.0012
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(0.0),
		SampleSize:    insight.Int(5),
	}
	v := New(0.6).Evaluate(hypo(), ev)
	assert.LessOrEqual(t, v.Confidence, 0.2)
	assert.Equal(t, insight.StatusRejected, v.Status)
}

func TestEvaluateInfiniteChangeSmallSamplePenalty(t *testing.T) {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(math.Inf(1)),
		SampleSize:    insight.Int(50),
	}
	base := metrics.ConfidenceScore(ev)
	v := New(0.6).Evaluate(hypo(), ev)
	assert.InDelta(t, base-0.1, v.Confidence, 1e-9)
}

func TestEvaluateInfiniteChangeLargeSampleBonus(t *testing.T) {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(math.Inf(1)),
		SampleSize:    insight.Int(500),
	}
	base := metrics.ConfidenceScore(ev)
	v := New(0.6).Evaluate(hypo(), ev)
	require.LessOrEqual(t, v.Confidence, 1.0)
	assert.InDelta(t, math.Min(1.0, base+0.15), v.Confidence, 1e-9)
	assert.Equal(t, insight.StatusAccepted, v.Status)
}

func TestEvaluateInfiniteChangeBoundarySample(t *testing.T) {
	// exactly 200 samples is not "large": the penalty applies
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(math.Inf(1)),
		SampleSize:    insight.Int(200),
	}
	base := metrics.ConfidenceScore(ev)
	v := New(0.6).Evaluate(hypo(), ev)
	assert.InDelta(t, base-0.1, v.Confidence, 1e-9)
}

func TestEvaluateOutlierSmallSampleMultiplier(t *testing.T) {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(2.0),
		SampleSize:    insight.Int(100),
		OutlierFlag:   true,
	}
	base := metrics.ConfidenceScore(ev)
	v := New(0.6).Evaluate(hypo(), ev)
	assert.InDelta(t, base*0.6, v.Confidence, 1e-9)
}

func TestEvaluateOutlierLargeSampleNoMultiplier(t *testing.T) {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(2.0),
		SampleSize:    insight.Int(500),
		OutlierFlag:   true,
	}
	base := metrics.ConfidenceScore(ev)
	v := New(0.6).Evaluate(hypo(), ev)
	assert.InDelta(t, base, v.Confidence, 1e-9)
}

func TestVerdictBandsExhaustiveAndDisjoint(t *testing.T) {
	e := New(0.6)
	for conf := 0.0; conf <= 1.0; conf += 0.005 {
		status := bandFor(e, conf)
		switch {
		case conf >= 0.6:
			assert.Equal(t, insight.StatusAccepted, status, "conf=%f", conf)
		case conf < 0.25:
			assert.Equal(t, insight.StatusRejected, status, "conf=%f", conf)
		default:
			assert.Equal(t, insight.StatusNeedsReview, status, "conf=%f", conf)
		}
	}
}

// bandFor classifies a raw confidence the way Evaluate does, isolated from
// evidence scoring.
func bandFor(e *Evaluator, conf float64) insight.VerdictStatus {
	switch {
	case conf >= e.ConfidenceMin():
		return insight.StatusAccepted
	case conf < 0.25:
		return insight.StatusRejected
	default:
		return insight.StatusNeedsReview
	}
}

func TestEvaluateEchoesEvidenceAndProvenance(t *testing.T) {
	ev := insight.EvidenceRecord{
		PctChangeROAS: insight.Float(0.5),
		SampleSize:    insight.Int(300),
	}
	v := New(0.6).Evaluate(hypo(), ev)

	require.NotNil(t, v.Evidence.PctChangeROAS)
	assert.Equal(t, 0.5, *v.Evidence.PctChangeROAS)
	assert.Equal(t, 300, v.Evidence.Samples())
	assert.False(t, v.EvaluatedAt.IsZero())
	assert.Contains(t, v.Notes, "h_test")
	assert.Contains(t, v.Notes, "confidence_min=0.60")
}
