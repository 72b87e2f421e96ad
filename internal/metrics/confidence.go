package metrics

import (
	"math"

	"adinsight/domain/insight"
)

// Signal weights for confidence scoring. The ROAS change dominates; the
// outlier flag carries weight only when raised and then contributes a fixed
// low value, so the mere presence of an outlier never inflates confidence.
const (
	weightPctChangeROAS = 0.5
	weightPctChangeCTR  = 0.2
	weightSampleSize    = 0.15
	weightOutlierFlag   = 0.15

	changeSaturation   = 2.0 // a >=200% change saturates the signal
	sampleSaturation   = 1000.0
	outlierFixedSignal = 0.2
)

// ConfidenceScore converts an evidence record into a confidence in [0,1].
// It is a weighted mean over whichever signals are present; with no
// recognized signal the score is exactly 0.0.
func ConfidenceScore(ev insight.EvidenceRecord) float64 {
	score := 0.0
	weight := 0.0

	if ev.PctChangeROAS != nil {
		score += weightPctChangeROAS * normalizedChange(*ev.PctChangeROAS)
		weight += weightPctChangeROAS
	}
	if ev.PctChangeCTR != nil {
		score += weightPctChangeCTR * normalizedChange(*ev.PctChangeCTR)
		weight += weightPctChangeCTR
	}
	if ev.SampleSize != nil {
		score += weightSampleSize * math.Min(1.0, float64(*ev.SampleSize)/sampleSaturation)
		weight += weightSampleSize
	}
	if ev.OutlierFlag {
		score += weightOutlierFlag * outlierFixedSignal
		weight += weightOutlierFlag
	}

	if weight == 0 {
		return 0.0
	}
	return Clamp01(score / weight)
}

// normalizedChange maps a percent change onto [0,1], capping the magnitude at
// 200%. +Inf (a zero-baseline jump) saturates to 1.0 here; the evaluator
// applies its own adjustment for that case.
func normalizedChange(x float64) float64 {
	return math.Min(math.Abs(x), changeSaturation) / changeSaturation
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
