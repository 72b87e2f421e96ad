package agent

import (
	"fmt"
	"sort"
	"strings"

	"adinsight/domain/adset"
	"adinsight/domain/insight"
	"adinsight/internal/metrics"
)

// Rule 1: the efficiency spread between the best and worst audience segment.
// Always fires when audience segments exist; the gap size sets the guess.
func (a *Agent) ruleAudienceSpread(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	if len(s.ByAudience) == 0 {
		return nil
	}
	worst := minByROAS(s.ByAudience)
	best := maxByROAS(s.ByAudience)

	confidence := 0.45
	if worst.ROAS < best.ROAS*0.7 {
		confidence = 0.75
	}
	return mkHypothesis("H1",
		fmt.Sprintf("ROAS decline driven by increased spend on low-efficiency audience: %s", worst.Key),
		fmt.Sprintf("%s has ROAS=%.2f vs best %s ROAS=%.2f", worst.Key, worst.ROAS, best.Key, best.ROAS),
		[]string{
			"Compare daily spend allocation by audience (last 7 vs prior 7 days).",
			"Compute pct change in ROAS for each audience.",
		},
		confidence)
}

// Rule 2: Image creatives crowding the low-CTR list.
func (a *Agent) ruleImageUnderperformance(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	imagesLow := 0
	for _, c := range s.LowCTRCreatives {
		if strings.HasPrefix(strings.ToLower(c.CreativeType), "image") {
			imagesLow++
		}
	}
	threshold := len(s.LowCTRCreatives) / 3
	if threshold < 2 {
		threshold = 2
	}
	if imagesLow <= threshold {
		return nil
	}
	return mkHypothesis("H2",
		"Image creatives underperform relative to Video/UGC",
		fmt.Sprintf("%d low-CTR creatives are Image types. Consider richer formats.", imagesLow),
		[]string{
			"Compare ROAS by creative_type",
			"Run A/B of Image vs UGC/Video on same audience",
		},
		0.72)
}

// Rule 3: a platform trailing the overall average ROAS by more than 40%.
func (a *Agent) rulePlatformUnderperformance(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	if len(s.ByPlatform) == 0 {
		return nil
	}
	worst := minByROAS(s.ByPlatform)
	if worst.ROAS >= s.AvgROAS*0.6 {
		return nil
	}
	return mkHypothesis("H3",
		fmt.Sprintf("Platform underperformance: %s shows low ROAS.", worst.Key),
		fmt.Sprintf("Platform %s ROAS=%.2f vs avg_roas=%.2f", worst.Key, worst.ROAS, s.AvgROAS),
		[]string{
			"Compare creative_type mix on this platform",
			"Check CTR differential between platforms",
		},
		0.7)
}

// Rule 4: engagement that does not translate into revenue.
func (a *Agent) ruleEngagementMismatch(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	if s.AvgCTR <= 0 || len(s.LowCTRCreatives) == 0 || s.AvgROAS <= 0 {
		return nil
	}
	return mkHypothesis("H4",
		"CTR not translating to conversions: high engagement but low purchase intent",
		fmt.Sprintf("Median CTR=%.4f but average ROAS=%.2f. Suggest funnel leakage.", s.AvgCTR, s.AvgROAS),
		[]string{
			"Compare CTR -> purchases by creative_id",
			"Review landing page conversion for top-click creatives",
		},
		0.68)
}

// Rule 5: the same phrases recurring across creative messages.
func (a *Agent) ruleMessagingFatigue(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	var messages []string
	for _, c := range s.LowCTRCreatives {
		messages = append(messages, strings.ToLower(c.CreativeMessage))
	}
	for _, c := range s.TopCreatives {
		messages = append(messages, strings.ToLower(c.CreativeMessage))
	}

	topWords := frequentTokens(messages, 10)
	if len(topWords) == 0 {
		return nil
	}
	top3 := topWords
	if len(top3) > 3 {
		top3 = top3[:3]
	}
	repeats := 0
	for _, m := range messages {
		for _, w := range top3 {
			if strings.Contains(m, w) {
				repeats++
				break
			}
		}
	}
	if repeats <= 2 {
		return nil
	}
	top6 := topWords
	if len(top6) > 6 {
		top6 = top6[:6]
	}
	return mkHypothesis("H5",
		"Creative fatigue from repeated messaging/themes (e.g., cooling mesh, breathable)",
		fmt.Sprintf("Top terms found in creatives: %s. Many creatives reuse same phrases.", strings.Join(top6, ", ")),
		[]string{
			"Cluster creative messages and compute similarity over time",
			"Rotate messaging themes",
		},
		0.7)
}

// Rule 6: outlier days distorting the rolling ROAS trend. Needs the raw table.
func (a *Agent) ruleOutlierSkew(_ *insight.PerformanceSummary, t *adset.Table) *insight.Hypothesis {
	if t == nil {
		return nil
	}
	series := metrics.RollingRate(t, a.cfg.TrendWindowDays)
	if len(series) == 0 {
		return nil
	}
	mask := metrics.DetectOutliers(metrics.Values(series), a.cfg.OutlierMethod)
	if !metrics.AnyOutlier(mask) {
		return nil
	}
	return mkHypothesis("H6",
		"Outlier days (spikes) are skewing rolling averages and hiding trends",
		"Detected outlier ROAS days in the time series. These should be winsorized for trend analysis.",
		[]string{
			"List dates with extreme ROAS",
			"Compute median-based trends after removing outliers",
		},
		0.6)
}

// Rule 7: blank ad identifiers in the low-CTR list.
func (a *Agent) ruleDataQuality(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	missing := false
	for _, c := range s.LowCTRCreatives {
		if c.AdID == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}
	return mkHypothesis("H7",
		"Data quality: missing ad identifiers or spend entries detected",
		"Missing ad_id or spend entries can distort group metrics and trend detection.",
		[]string{
			"Check CSV for blank spend/ad_id values",
			"Impute or drop rows before analysis",
		},
		0.52)
}

// Rule 8: retargeting segments surfacing in the low-CTR list.
func (a *Agent) ruleRetargetingSaturation(s *insight.PerformanceSummary, _ *adset.Table) *insight.Hypothesis {
	count := 0
	for _, c := range s.LowCTRCreatives {
		if strings.HasPrefix(strings.ToLower(c.AudienceType), "retarget") {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return mkHypothesis("H8",
		"Retargeting pool saturation: retarget segments show diminishing returns",
		fmt.Sprintf("%d low-CTR creatives originate from retargeting segments.", count),
		[]string{
			"Increase retargeting window or expand audience",
			"Check frequency and overlap with top buyers",
		},
		0.65)
}

// Rule 9: impressions-per-click as a frequency/burnout proxy. Needs the raw
// table; fires when any row sits strictly above the ratio's top decile.
func (a *Agent) ruleFrequencyProxy(_ *insight.PerformanceSummary, t *adset.Table) *insight.Hypothesis {
	if t == nil || t.Len() == 0 {
		return nil
	}
	ratios := make([]float64, 0, t.Len())
	for _, r := range t.Rows {
		clicks := r.Clicks
		if clicks == 0 {
			clicks = 1
		}
		ratios = append(ratios, r.Impressions/clicks)
	}
	decile := metrics.Percentile(ratios, 90)
	high := 0
	for _, v := range ratios {
		if v > decile {
			high++
		}
	}
	if high == 0 {
		return nil
	}
	return mkHypothesis("H9",
		"High frequency (ad saturation) detected for subset of creatives",
		"Proxy metric impressions/clicks indicates a top-decile group with excessive exposure.",
		[]string{
			"Compute frequency by user (if available) or ad_id",
			"Cap frequency and test",
		},
		0.6)
}

// Rule 10: conversion rate over the short window versus a materially longer
// one. The longer window must hold at least 10% more rows to be comparable.
func (a *Agent) ruleConversionDecline(_ *insight.PerformanceSummary, t *adset.Table) *insight.Hypothesis {
	if t == nil || !t.HasDates() {
		return nil
	}
	recent := t.Recent(a.cfg.RecentDays)
	earlier := t.Recent(a.cfg.LongTrendWindowDays)
	if float64(earlier.Len()) <= float64(recent.Len())*1.1 {
		return nil
	}
	recentCR := conversionRate(recent)
	earlierCR := conversionRate(earlier)
	if earlierCR <= 0 || recentCR >= earlierCR*0.85 {
		return nil
	}
	return mkHypothesis("H10",
		"Conversion rate dropped in recent period versus longer window",
		fmt.Sprintf("Recent CR=%.3f vs earlier CR=%.3f", recentCR, earlierCR),
		[]string{
			"A/B test landing page",
			"Check checkout funnel metrics",
		},
		0.78)
}

// conversionRate is purchases per click with the zero-click denominator
// pinned to 1 rather than guarded to zero, matching the windowed comparison
// it feeds.
func conversionRate(t *adset.Table) float64 {
	var purchases, clicks float64
	for _, r := range t.Rows {
		purchases += r.Purchases
		clicks += r.Clicks
	}
	if clicks < 1 {
		clicks = 1
	}
	return purchases / clicks
}

// minByROAS returns the segment with the lowest ROAS. Strict comparison over
// the key-sorted slice means ties resolve to the lexicographically first key.
func minByROAS(segments []insight.SegmentStats) insight.SegmentStats {
	out := segments[0]
	for _, s := range segments[1:] {
		if s.ROAS < out.ROAS {
			out = s
		}
	}
	return out
}

func maxByROAS(segments []insight.SegmentStats) insight.SegmentStats {
	out := segments[0]
	for _, s := range segments[1:] {
		if s.ROAS > out.ROAS {
			out = s
		}
	}
	return out
}

// frequentTokens extracts word tokens longer than three characters from the
// messages and returns the topN most frequent, ordered by descending count
// with ties broken alphabetically for reproducibility.
func frequentTokens(messages []string, topN int) []string {
	counts := map[string]int{}
	for _, m := range messages {
		for _, tok := range strings.Fields(m) {
			if len(tok) <= 3 {
				continue
			}
			tok = strings.Trim(tok, " .,-")
			if tok == "" {
				continue
			}
			counts[tok]++
		}
	}
	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > topN {
		tokens = tokens[:topN]
	}
	return tokens
}
