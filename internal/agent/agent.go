// Package agent generates falsifiable hypotheses about advertising
// performance from a tabular summary. The battery of rules is deterministic
// and runs entirely offline; each rule inspects only the fields it needs and
// a rule that cannot evaluate is skipped, never fatal.
package agent

import (
	"adinsight/domain/adset"
	"adinsight/domain/insight"
	"adinsight/internal/metrics"
)

// DefaultMaxHypotheses caps the deduplicated output list.
const DefaultMaxHypotheses = 15

// dedupePrefixLen is how much of the claim text participates in
// deduplication; near-identical claims collapse to the first occurrence.
const dedupePrefixLen = 200

// Config carries the thresholds the dataset-backed rules read.
type Config struct {
	TrendWindowDays     int
	RecentDays          int
	LongTrendWindowDays int
	OutlierMethod       metrics.OutlierMethod
	MaxHypotheses       int
}

// Agent runs the ordered rule battery. Stateless per call.
type Agent struct {
	cfg   Config
	rules []rule
}

type rule struct {
	name string
	fn   func(*insight.PerformanceSummary, *adset.Table) *insight.Hypothesis
}

// New creates an agent, filling unset config fields with defaults.
func New(cfg Config) *Agent {
	if cfg.TrendWindowDays <= 0 {
		cfg.TrendWindowDays = 7
	}
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = 7
	}
	if cfg.LongTrendWindowDays <= 0 {
		cfg.LongTrendWindowDays = 30
	}
	if cfg.OutlierMethod == "" {
		cfg.OutlierMethod = metrics.MethodIQR
	}
	if cfg.MaxHypotheses <= 0 {
		cfg.MaxHypotheses = DefaultMaxHypotheses
	}

	a := &Agent{cfg: cfg}
	a.rules = []rule{
		{"audience_efficiency_spread", a.ruleAudienceSpread},
		{"image_creative_underperformance", a.ruleImageUnderperformance},
		{"platform_underperformance", a.rulePlatformUnderperformance},
		{"engagement_conversion_mismatch", a.ruleEngagementMismatch},
		{"messaging_fatigue", a.ruleMessagingFatigue},
		{"outlier_skew", a.ruleOutlierSkew},
		{"data_quality_gap", a.ruleDataQuality},
		{"retargeting_saturation", a.ruleRetargetingSaturation},
		{"frequency_burnout_proxy", a.ruleFrequencyProxy},
		{"conversion_rate_decline", a.ruleConversionDecline},
	}
	return a
}

// Generate runs every rule in order against the summary (and the raw table,
// when supplied), then deduplicates by claim text and truncates the list.
// Output order is rule-execution order, not confidence order. A nil summary
// yields an empty list.
func (a *Agent) Generate(summary *insight.PerformanceSummary, table *adset.Table) []insight.Hypothesis {
	if summary == nil {
		return nil
	}

	var raw []insight.Hypothesis
	for _, r := range a.rules {
		if h := runIsolated(r, summary, table); h != nil {
			raw = append(raw, *h)
		}
	}

	seen := map[string]struct{}{}
	out := []insight.Hypothesis{}
	for _, h := range raw {
		key := h.Claim
		if len(key) > dedupePrefixLen {
			key = key[:dedupePrefixLen]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
		if len(out) >= a.cfg.MaxHypotheses {
			break
		}
	}
	return out
}

// runIsolated executes one rule with panic isolation: a rule tripping over an
// unexpected data shape produces no hypothesis and never blocks the rules
// after it.
func runIsolated(r rule, s *insight.PerformanceSummary, t *adset.Table) (h *insight.Hypothesis) {
	defer func() {
		if recover() != nil {
			h = nil
		}
	}()
	return r.fn(s, t)
}

func mkHypothesis(id, claim, reasoning string, checks []string, confidence float64) *insight.Hypothesis {
	return &insight.Hypothesis{
		ID:              id,
		Claim:           claim,
		Reasoning:       reasoning,
		SuggestedChecks: checks,
		ConfidenceGuess: metrics.Clamp01(confidence),
	}
}
