// Package evaluate turns heuristic evidence into a calibrated confidence and
// an accept/reject/review verdict. Evaluation is pure and synchronous: no
// retries, no external calls, no state retained across invocations, so
// callers may evaluate many hypotheses concurrently.
package evaluate

import (
	"fmt"
	"math"
	"time"

	"adinsight/domain/core"
	"adinsight/domain/insight"
	"adinsight/internal/metrics"
)

const (
	// DefaultConfidenceMin is the default acceptance threshold.
	DefaultConfidenceMin = 0.6

	// rejectBelow is the fixed lower verdict band. Together with the
	// acceptance threshold the three bands are exhaustive and disjoint.
	rejectBelow = 0.25

	// largeSampleFloor separates trustworthy zero-baseline jumps from
	// probable single-row artifacts.
	largeSampleFloor = 200

	infiniteChangeBonus   = 0.15
	infiniteChangePenalty = 0.1
	smallSampleOutlierMul = 0.6
)

// Evaluator applies confidence scoring plus situational adjustments and
// assigns a verdict band.
type Evaluator struct {
	confidenceMin float64
}

// New creates an Evaluator with the given acceptance threshold. Thresholds
// outside (0,1] fall back to the default.
func New(confidenceMin float64) *Evaluator {
	if confidenceMin <= 0 || confidenceMin > 1 {
		confidenceMin = DefaultConfidenceMin
	}
	return &Evaluator{confidenceMin: confidenceMin}
}

// ConfidenceMin returns the configured acceptance threshold.
func (e *Evaluator) ConfidenceMin() float64 {
	return e.confidenceMin
}

// Evaluate scores the evidence for one hypothesis and returns the verdict.
// evidence is echoed back verbatim; an evidence record with no recognized
// signal scores 0.0 and is rejected rather than erroring.
func (e *Evaluator) Evaluate(h insight.Hypothesis, evidence insight.EvidenceRecord) insight.Verdict {
	conf := metrics.ConfidenceScore(evidence)

	// A zero-baseline ROAS jump reads as +Inf percent change. Large samples
	// make the jump more trustworthy; small samples make it suspect.
	if evidence.PctChangeROAS != nil && math.IsInf(*evidence.PctChangeROAS, 1) {
		if evidence.Samples() > largeSampleFloor {
			conf += infiniteChangeBonus
		} else {
			conf -= infiniteChangePenalty
		}
	}

	// Outliers in small samples are presumed to drive the signal rather
	// than reflect it.
	if evidence.OutlierFlag && evidence.Samples() < largeSampleFloor {
		conf *= smallSampleOutlierMul
	}

	conf = metrics.Clamp01(conf)

	var status insight.VerdictStatus
	switch {
	case conf >= e.confidenceMin:
		status = insight.StatusAccepted
	case conf < rejectBelow:
		status = insight.StatusRejected
	default:
		status = insight.StatusNeedsReview
	}

	now := core.Now()
	return insight.Verdict{
		Status:      status,
		Confidence:  conf,
		Evidence:    evidence,
		Notes:       provenance(h, conf, e.confidenceMin, now),
		EvaluatedAt: now,
	}
}

func provenance(h insight.Hypothesis, conf, threshold float64, at core.Timestamp) string {
	return fmt.Sprintf("hypothesis=%s computed_confidence=%.4f confidence_min=%.2f evaluated_at=%s",
		h.ID, conf, threshold, at.Time().Format(time.RFC3339))
}
