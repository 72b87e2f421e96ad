package testkit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adinsight/adapters/dataio"
)

func TestGenerateDeterministic(t *testing.T) {
	first := Generate(DefaultConfig())
	second := Generate(DefaultConfig())
	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Rows, second.Rows)

	other := Generate(Config{Rows: 360, Seed: 7})
	assert.NotEqual(t, first.Rows, other.Rows)
}

func TestGenerateShape(t *testing.T) {
	table := Generate(DefaultConfig())
	assert.Equal(t, 360, table.Len())
	assert.True(t, table.HasDates())

	missing := 0
	for _, r := range table.Rows {
		assert.Greater(t, r.Impressions, 0.0)
		assert.Greater(t, r.Spend, 0.0)
		assert.GreaterOrEqual(t, r.CTR, 0.0)
		if r.AdID == "" {
			missing++
		}
	}
	// the missing-ad-id signal is planted but rare
	assert.Greater(t, missing, 0)
	assert.Less(t, missing, 40)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table := Generate(Config{Rows: 50, Seed: 42})
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, WriteCSV(table, path))

	loaded, err := dataio.NewReader(path).Load()
	require.NoError(t, err)
	require.Equal(t, table.Len(), loaded.Len())

	assert.Equal(t, table.Rows[0].AudienceType, loaded.Rows[0].AudienceType)
	assert.Equal(t, table.Rows[0].Date, loaded.Rows[0].Date)
	assert.InDelta(t, table.Rows[0].Spend, loaded.Rows[0].Spend, 0.001)
	assert.InDelta(t, table.Rows[0].CTR, loaded.Rows[0].CTR, 0.001)
}
