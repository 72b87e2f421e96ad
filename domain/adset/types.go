package adset

import (
	"time"
)

// Record is one row of advertising performance data. Rates (CTR, ROAS) are
// recomputed from the raw counts on load; a zero denominator yields 0.0.
type Record struct {
	CampaignName    string    `json:"campaign_name"`
	AdsetName       string    `json:"adset_name"`
	Date            time.Time `json:"date"`
	Spend           float64   `json:"spend"`
	Impressions     float64   `json:"impressions"`
	Clicks          float64   `json:"clicks"`
	CTR             float64   `json:"ctr"`
	Purchases       float64   `json:"purchases"`
	Revenue         float64   `json:"revenue"`
	ROAS            float64   `json:"roas"`
	CreativeType    string    `json:"creative_type"`
	CreativeMessage string    `json:"creative_message"`
	AudienceType    string    `json:"audience_type"`
	Platform        string    `json:"platform"`
	Country         string    `json:"country"`
	AdID            string    `json:"ad_id"`
}

// Table is an ordered collection of ad records.
type Table struct {
	Rows []Record
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasDates reports whether any row carries a usable date.
func (t *Table) HasDates() bool {
	if t == nil {
		return false
	}
	for _, r := range t.Rows {
		if !r.Date.IsZero() {
			return true
		}
	}
	return false
}

// MaxDate returns the latest date present, or the zero time.
func (t *Table) MaxDate() time.Time {
	var max time.Time
	if t == nil {
		return max
	}
	for _, r := range t.Rows {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max
}

// Recent returns the rows strictly after maxDate - days. Tables without dates
// are returned whole, so windowing degrades to the full dataset rather than
// an empty one.
func (t *Table) Recent(days int) *Table {
	if t == nil {
		return &Table{}
	}
	if !t.HasDates() {
		out := &Table{Rows: make([]Record, len(t.Rows))}
		copy(out.Rows, t.Rows)
		return out
	}
	cutoff := t.MaxDate().AddDate(0, 0, -days)
	out := &Table{}
	for _, r := range t.Rows {
		if r.Date.After(cutoff) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// CTRSeries returns the per-row CTR values in row order.
func (t *Table) CTRSeries() []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.CTR
	}
	return out
}

// ROASSeries returns the per-row ROAS values in row order.
func (t *Table) ROASSeries() []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.ROAS
	}
	return out
}
