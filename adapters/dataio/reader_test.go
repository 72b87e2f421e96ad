package dataio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adsets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `campaign_name,adset_name,date,spend,impressions,clicks,ctr,purchases,revenue,roas,creative_type,creative_message,audience_type,platform,country,ad_id
Summer,Core,2025-01-05,100,1000,50,0.99,5,400,0.99,Image,Cooling mesh tee,Lookalike,Facebook,US,ad_1
Summer,Core,2025-01-06,50,500,10,0,1,25,0,Video,Breathable polo,Retargeting,Instagram,US,ad_2
`)

	table, err := NewReader(path).Load()
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	r := table.Rows[0]
	assert.Equal(t, "Summer", r.CampaignName)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 100.0, r.Spend)
	// the file's ctr/roas columns are ignored; rates come from the counts
	assert.InDelta(t, 0.05, r.CTR, 1e-9)
	assert.InDelta(t, 4.0, r.ROAS, 1e-9)
	assert.Equal(t, "ad_1", r.AdID)
}

func TestLoadCSVMissingColumnsDefault(t *testing.T) {
	path := writeCSV(t, `campaign_name,spend,revenue
Summer,100,250
`)

	table, err := NewReader(path).Load()
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	r := table.Rows[0]
	assert.True(t, r.Date.IsZero())
	assert.Equal(t, 0.0, r.Impressions)
	assert.Equal(t, "", r.AdID)
	assert.InDelta(t, 2.5, r.ROAS, 1e-9)
	assert.Equal(t, 0.0, r.CTR)
}

func TestLoadCSVMalformedNumbers(t *testing.T) {
	path := writeCSV(t, `spend,impressions,clicks,revenue
"1,250",n/a,50,500
`)

	table, err := NewReader(path).Load()
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	r := table.Rows[0]
	assert.Equal(t, 1250.0, r.Spend) // thousands separator stripped
	assert.Equal(t, 0.0, r.Impressions)
	assert.Equal(t, 0.0, r.CTR) // zero denominator
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewReader("no/such/file.csv").Load()
	assert.Error(t, err)
}

func TestLoadHeaderOnly(t *testing.T) {
	path := writeCSV(t, "campaign_name,spend\n")
	table, err := NewReader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestParseDateLayouts(t *testing.T) {
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), parseDate("2025-03-01"))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), parseDate("03/01/2025"))
	assert.False(t, parseDate("2025-03-01T10:30:00Z").IsZero())
	assert.True(t, parseDate("yesterday").IsZero())
	assert.True(t, parseDate("").IsZero())
}

func TestReaderPicksFormatFromExtension(t *testing.T) {
	assert.Equal(t, "csv", NewReader("data.csv").fileType)
	assert.Equal(t, "csv", NewReader("data.txt").fileType)
	assert.Equal(t, "xlsx", NewReader("data.XLSX").fileType)
	assert.Equal(t, "xlsx", NewReader("data.xlsm").fileType)
}
