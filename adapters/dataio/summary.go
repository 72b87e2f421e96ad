package dataio

import (
	"sort"

	"adinsight/domain/adset"
	"adinsight/domain/insight"
	"adinsight/internal/metrics"
)

// Summarize derives the compact performance summary from a loaded table:
// recent-window totals and mean rates, per-audience and per-platform
// aggregates, the creatives below the dataset's median CTR, and the top
// revenue earners in the recent window.
func Summarize(t *adset.Table, recentDays, topN int) *insight.PerformanceSummary {
	s := &insight.PerformanceSummary{
		RecentPeriodDays: recentDays,
		ByAudience:       []insight.SegmentStats{},
		ByPlatform:       []insight.SegmentStats{},
		LowCTRCreatives:  []insight.CreativeStats{},
		TopCreatives:     []insight.CreativeStats{},
	}
	if t == nil || t.Len() == 0 {
		return s
	}

	recent := t.Recent(recentDays)
	var ctrs, roass []float64
	for _, r := range recent.Rows {
		s.TotalImpressions += r.Impressions
		s.TotalClicks += r.Clicks
		s.TotalSpend += r.Spend
		s.TotalRevenue += r.Revenue
		ctrs = append(ctrs, r.CTR)
		roass = append(roass, r.ROAS)
	}
	s.AvgCTR = metrics.Mean(ctrs)
	s.AvgROAS = metrics.Mean(roass)

	s.ByAudience = metrics.Grouped(recent, "audience_type")
	s.ByPlatform = metrics.Grouped(recent, "platform")

	// The low-CTR list is measured against the whole dataset's median, not
	// just the recent window.
	medianCTR := metrics.Median(t.CTRSeries())
	var low []adset.Record
	for _, r := range t.Rows {
		if r.CTR < medianCTR {
			low = append(low, r)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].CTR < low[j].CTR })
	if len(low) > topN {
		low = low[:topN]
	}
	for _, r := range low {
		s.LowCTRCreatives = append(s.LowCTRCreatives, creativeStats(r))
	}

	top := make([]adset.Record, len(recent.Rows))
	copy(top, recent.Rows)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Revenue > top[j].Revenue })
	if len(top) > topN {
		top = top[:topN]
	}
	for _, r := range top {
		s.TopCreatives = append(s.TopCreatives, creativeStats(r))
	}

	return s
}

func creativeStats(r adset.Record) insight.CreativeStats {
	return insight.CreativeStats{
		AdID:            r.AdID,
		CreativeMessage: r.CreativeMessage,
		CreativeType:    r.CreativeType,
		AudienceType:    r.AudienceType,
		Platform:        r.Platform,
		CTR:             r.CTR,
		Revenue:         r.Revenue,
		ROAS:            r.ROAS,
	}
}
