package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"adinsight/domain/adset"
	"adinsight/domain/insight"
)

// Grouped sums impressions, clicks, spend and revenue per distinct combination
// of the named grouping columns and appends the derived CTR and ROAS rates.
// Unknown column names contribute empty key parts rather than failing. Output
// is sorted lexicographically by the composite key so downstream min/max scans
// are reproducible.
func Grouped(t *adset.Table, keys ...string) []insight.SegmentStats {
	if t == nil || len(t.Rows) == 0 || len(keys) == 0 {
		return nil
	}

	acc := map[string]*insight.SegmentStats{}
	for _, row := range t.Rows {
		k := compositeKey(row, keys)
		seg, ok := acc[k]
		if !ok {
			seg = &insight.SegmentStats{Key: k}
			acc[k] = seg
		}
		seg.Impressions += row.Impressions
		seg.Clicks += row.Clicks
		seg.Spend += row.Spend
		seg.Revenue += row.Revenue
	}

	out := make([]insight.SegmentStats, 0, len(acc))
	for _, seg := range acc {
		seg.CTR = SafeRate(seg.Clicks, seg.Impressions)
		seg.ROAS = SafeRate(seg.Revenue, seg.Spend)
		out = append(out, *seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func compositeKey(row adset.Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = columnValue(row, k)
	}
	return strings.Join(parts, "|")
}

func columnValue(row adset.Record, column string) string {
	switch column {
	case "campaign_name":
		return row.CampaignName
	case "adset_name":
		return row.AdsetName
	case "creative_type":
		return row.CreativeType
	case "audience_type":
		return row.AudienceType
	case "platform":
		return row.Platform
	case "country":
		return row.Country
	case "ad_id":
		return row.AdID
	default:
		return ""
	}
}

// SafeRate divides num by den, defining division by a non-positive
// denominator as 0.0. All derived rates in this package are finite by
// construction.
func SafeRate(num, den float64) float64 {
	if den <= 0 {
		return 0.0
	}
	return num / den
}

// DailyRate is one day's trailing-average ROAS.
type DailyRate struct {
	Date time.Time
	ROAS float64
}

// RollingRate resamples revenue and spend to one bucket per calendar day
// (days without activity count as zero), computes the daily ROAS with the
// usual zero-spend guard, then applies a trailing moving average over
// windowDays with partial windows allowed at the start. Returns nil when no
// row carries a date.
func RollingRate(t *adset.Table, windowDays int) []DailyRate {
	if t == nil || !t.HasDates() {
		return nil
	}
	if windowDays < 1 {
		windowDays = 1
	}

	type bucket struct{ revenue, spend float64 }
	buckets := map[time.Time]*bucket{}
	var minDay, maxDay time.Time
	for _, row := range t.Rows {
		if row.Date.IsZero() {
			continue
		}
		day := row.Date.UTC().Truncate(24 * time.Hour)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.revenue += row.Revenue
		b.spend += row.Spend
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}
	if minDay.IsZero() {
		return nil
	}

	daily := []DailyRate{}
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		rate := 0.0
		if b, ok := buckets[day]; ok {
			rate = SafeRate(b.revenue, b.spend)
		}
		daily = append(daily, DailyRate{Date: day, ROAS: rate})
	}

	out := make([]DailyRate, len(daily))
	window := make([]float64, 0, windowDays)
	for i, d := range daily {
		start := i - windowDays + 1
		if start < 0 {
			start = 0
		}
		window = window[:0]
		for j := start; j <= i; j++ {
			window = append(window, daily[j].ROAS)
		}
		out[i] = DailyRate{Date: d.Date, ROAS: stat.Mean(window, nil)}
	}
	return out
}

// Values extracts the ROAS column from a rolling series.
func Values(series []DailyRate) []float64 {
	out := make([]float64, len(series))
	for i, d := range series {
		out[i] = d.ROAS
	}
	return out
}

// Percentile returns the given percentile of series, or 0.0 for degenerate
// input.
func Percentile(series []float64, percent float64) float64 {
	v, err := mstats.Percentile(series, percent)
	if err != nil {
		return 0.0
	}
	return v
}

// Median returns the median of series, or 0.0 for degenerate input.
func Median(series []float64) float64 {
	v, err := mstats.Median(series)
	if err != nil {
		return 0.0
	}
	return v
}

// Mean returns the arithmetic mean of series, or 0.0 for degenerate input.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0.0
	}
	return stat.Mean(series, nil)
}

// PercentChange returns the relative change from a to b: (b-a)/|a|.
// A zero baseline with a nonzero b yields +Inf, which callers must treat as a
// zero-baseline jump rather than a magnitude; both zero yields 0.0. The result
// is finite whenever a != 0.
func PercentChange(a, b float64) float64 {
	if a == 0 {
		if b != 0 {
			return math.Inf(1)
		}
		return 0.0
	}
	return (b - a) / math.Abs(a)
}
