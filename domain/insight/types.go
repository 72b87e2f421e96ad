package insight

import (
	"encoding/json"
	"math"

	"adinsight/domain/core"
)

// SegmentStats holds summed performance for one audience or platform segment,
// plus the derived rates. A zero denominator always yields a 0.0 rate.
type SegmentStats struct {
	Key         string  `json:"key"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	CTR         float64 `json:"ctr"`
	ROAS        float64 `json:"roas"`
}

// CreativeStats identifies one creative in the low-CTR or top-revenue lists.
type CreativeStats struct {
	AdID            string  `json:"ad_id"`
	CreativeMessage string  `json:"creative_message"`
	CreativeType    string  `json:"creative_type"`
	AudienceType    string  `json:"audience_type"`
	Platform        string  `json:"platform"`
	CTR             float64 `json:"ctr"`
	Revenue         float64 `json:"revenue"`
	ROAS            float64 `json:"roas"`
}

// PerformanceSummary is the compact numeric view of recent performance that
// the insight rules consume. It is produced by the data provider, never
// mutated by the core. Segment slices are sorted lexicographically by key so
// min/max scans break ties deterministically.
type PerformanceSummary struct {
	RecentPeriodDays int            `json:"recent_period_days"`
	TotalImpressions float64        `json:"total_impressions"`
	TotalClicks      float64        `json:"total_clicks"`
	TotalSpend       float64        `json:"total_spend"`
	TotalRevenue     float64        `json:"total_revenue"`
	AvgCTR           float64        `json:"avg_ctr"`
	AvgROAS          float64        `json:"avg_roas"`
	ByAudience       []SegmentStats `json:"by_audience"`
	ByPlatform       []SegmentStats `json:"by_platform"`
	LowCTRCreatives  []CreativeStats `json:"low_ctr_creatives"`
	TopCreatives     []CreativeStats `json:"top_creatives"`
	RollingROAS      []float64      `json:"rolling_roas,omitempty"`
}

// Hypothesis is a candidate explanatory claim about a performance change.
// Immutable once created; re-evaluation produces a new Verdict, never an
// in-place update.
type Hypothesis struct {
	ID              string   `json:"id"`
	Claim           string   `json:"hypothesis"`
	Reasoning       string   `json:"reasoning"`
	SuggestedChecks []string `json:"suggested_checks"`
	ConfidenceGuess float64  `json:"confidence_guess"`
}

// EvidenceRecord carries the numeric facts gathered for one hypothesis.
// Nil fields mean the signal was not collected; confidence scoring only
// weighs the signals that are present. The outlier flag contributes only
// when true, so a plain bool suffices.
type EvidenceRecord struct {
	PctChangeROAS *float64 `json:"pct_change_roas,omitempty"`
	PctChangeCTR  *float64 `json:"pct_change_ctr,omitempty"`
	SampleSize    *int     `json:"sample_size,omitempty"`
	OutlierFlag   bool     `json:"outlier_flag"`
}

// Float returns a pointer to v, for building evidence records inline.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to n, for building evidence records inline.
func Int(n int) *int { return &n }

// IsEmpty reports whether no recognized signal is present.
func (e EvidenceRecord) IsEmpty() bool {
	return e.PctChangeROAS == nil && e.PctChangeCTR == nil &&
		e.SampleSize == nil && !e.OutlierFlag
}

// Samples returns the sample size, or 0 when absent.
func (e EvidenceRecord) Samples() int {
	if e.SampleSize == nil {
		return 0
	}
	return *e.SampleSize
}

// jsonNumber marshals non-finite floats as strings. Strict JSON has no
// Infinity literal, and a zero-baseline percent change is legitimately +Inf.
type jsonNumber float64

func (n jsonNumber) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(f)
}

func (n *jsonNumber) UnmarshalJSON(raw []byte) error {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		*n = jsonNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	switch s {
	case "+Inf", "Inf", "Infinity":
		*n = jsonNumber(math.Inf(1))
	case "-Inf", "-Infinity":
		*n = jsonNumber(math.Inf(-1))
	default:
		*n = jsonNumber(math.NaN())
	}
	return nil
}

type evidenceWire struct {
	PctChangeROAS *jsonNumber `json:"pct_change_roas,omitempty"`
	PctChangeCTR  *jsonNumber `json:"pct_change_ctr,omitempty"`
	SampleSize    *int        `json:"sample_size,omitempty"`
	OutlierFlag   bool        `json:"outlier_flag"`
}

// MarshalJSON encodes the record through the wire form so infinite percent
// changes survive serialization.
func (e EvidenceRecord) MarshalJSON() ([]byte, error) {
	w := evidenceWire{SampleSize: e.SampleSize, OutlierFlag: e.OutlierFlag}
	if e.PctChangeROAS != nil {
		v := jsonNumber(*e.PctChangeROAS)
		w.PctChangeROAS = &v
	}
	if e.PctChangeCTR != nil {
		v := jsonNumber(*e.PctChangeCTR)
		w.PctChangeCTR = &v
	}
	return json.Marshal(w)
}

func (e *EvidenceRecord) UnmarshalJSON(raw []byte) error {
	var w evidenceWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	e.SampleSize = w.SampleSize
	e.OutlierFlag = w.OutlierFlag
	e.PctChangeROAS, e.PctChangeCTR = nil, nil
	if w.PctChangeROAS != nil {
		v := float64(*w.PctChangeROAS)
		e.PctChangeROAS = &v
	}
	if w.PctChangeCTR != nil {
		v := float64(*w.PctChangeCTR)
		e.PctChangeCTR = &v
	}
	return nil
}

// VerdictStatus is the evaluator's decision for one hypothesis.
type VerdictStatus string

const (
	StatusAccepted    VerdictStatus = "accepted"
	StatusRejected    VerdictStatus = "rejected"
	StatusNeedsReview VerdictStatus = "needs_review"
)

// Verdict is the evaluator's judgment: final confidence, the band it falls
// in, the evidence echoed verbatim, and provenance notes.
type Verdict struct {
	Status      VerdictStatus  `json:"verdict"`
	Confidence  float64        `json:"confidence"`
	Evidence    EvidenceRecord `json:"evidence"`
	Notes       string         `json:"notes"`
	EvaluatedAt core.Timestamp `json:"evaluated_at"`
}

// EvaluatedHypothesis pairs a hypothesis with the evidence gathered for it
// and the resulting verdict, for reports and persistence.
type EvaluatedHypothesis struct {
	Hypothesis Hypothesis     `json:"hypothesis"`
	Evidence   EvidenceRecord `json:"evidence"`
	Verdict    Verdict        `json:"verdict"`
}
