// Package testkit generates seeded synthetic ad-performance datasets for
// tests, demos and the sample CLI command. The generator plants the signals
// the insight rules look for: an inefficient audience, image-heavy low-CTR
// creatives, a weak platform, repeated messaging themes and a decaying
// retargeting segment.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"adinsight/domain/adset"
	"adinsight/internal/metrics"
)

// Config controls dataset generation.
type Config struct {
	Rows      int
	Seed      int64
	StartDate time.Time

	// MissingAdIDRate is the fraction of rows emitted without an ad
	// identifier, to exercise the data-quality rule.
	MissingAdIDRate float64
}

// DefaultConfig returns the standard synthetic dataset shape.
func DefaultConfig() Config {
	return Config{
		Rows:            360,
		Seed:            42,
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MissingAdIDRate: 0.02,
	}
}

var (
	audiences = []string{"Lookalike", "Broad", "Interest - Fitness", "Retargeting - 30d"}
	platforms = []string{"Facebook", "Instagram"}
	creatives = []string{"Image", "Video", "UGC"}
	messages  = []string{
		"Breathable cooling mesh keeps you dry all day",
		"Seamless comfort with cooling mesh technology",
		"Breathable fabric engineered for all-day comfort",
		"Limited offer: upgrade to seamless cooling comfort",
		"Invisible under clothes, breathable cooling mesh",
		"Performance fit that moves with you",
		"Trusted by thousands for comfort and fit",
	}
)

// Generate produces a deterministic synthetic table. Same config, same rows.
func Generate(cfg Config) *adset.Table {
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultConfig().Rows
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = DefaultConfig().StartDate
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	t := &adset.Table{}
	days := cfg.Rows/8 + 1
	for i := 0; i < cfg.Rows; i++ {
		day := cfg.StartDate.AddDate(0, 0, i%days)
		audience := audiences[rng.Intn(len(audiences))]
		platform := platforms[rng.Intn(len(platforms))]
		creativeType := creatives[rng.Intn(len(creatives))]
		message := messages[rng.Intn(len(messages))]

		impressions := 2000 + rng.Float64()*18000
		baseCTR := 0.035 + rng.NormFloat64()*0.004

		// Planted signals: retargeting decays over time, image creatives
		// click worse, Instagram monetizes worse.
		if audience == "Retargeting - 30d" {
			baseCTR *= 1.0 - 0.5*float64(i%days)/float64(days)
		}
		if creativeType == "Image" {
			baseCTR *= 0.55
		}
		if baseCTR < 0.001 {
			baseCTR = 0.001
		}
		clicks := impressions * baseCTR
		spend := 80 + rng.Float64()*400

		roasMul := 2.2 + rng.NormFloat64()*0.5
		if platform == "Instagram" {
			roasMul *= 0.55
		}
		if audience == "Retargeting - 30d" {
			roasMul *= 0.7
		}
		if roasMul < 0.1 {
			roasMul = 0.1
		}
		revenue := spend * roasMul
		purchases := clicks * (0.015 + rng.Float64()*0.02)

		adID := fmt.Sprintf("ad_%04d", i+1)
		if rng.Float64() < cfg.MissingAdIDRate {
			adID = ""
		}

		rec := adset.Record{
			CampaignName:    "synthetic_campaign",
			AdsetName:       fmt.Sprintf("adset_%s", audience),
			Date:            day,
			Spend:           spend,
			Impressions:     impressions,
			Clicks:          clicks,
			Purchases:       purchases,
			Revenue:         revenue,
			CreativeType:    creativeType,
			CreativeMessage: message,
			AudienceType:    audience,
			Platform:        platform,
			Country:         "US",
			AdID:            adID,
		}
		rec.CTR = metrics.SafeRate(rec.Clicks, rec.Impressions)
		rec.ROAS = metrics.SafeRate(rec.Revenue, rec.Spend)
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// WriteCSV stores the table with the standard column set.
func WriteCSV(t *adset.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"campaign_name", "adset_name", "date", "spend", "impressions", "clicks",
		"ctr", "purchases", "revenue", "roas", "creative_type", "creative_message",
		"audience_type", "platform", "country", "ad_id",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		row := []string{
			r.CampaignName,
			r.AdsetName,
			r.Date.Format("2006-01-02"),
			formatFloat(r.Spend),
			formatFloat(r.Impressions),
			formatFloat(r.Clicks),
			formatFloat(r.CTR),
			formatFloat(r.Purchases),
			formatFloat(r.Revenue),
			formatFloat(r.ROAS),
			r.CreativeType,
			r.CreativeMessage,
			r.AudienceType,
			r.Platform,
			r.Country,
			r.AdID,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
