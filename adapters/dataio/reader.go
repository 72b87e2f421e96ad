// Package dataio loads advertising performance data from delimited text or
// spreadsheet files into the canonical Table. Missing columns are filled with
// typed defaults and the row-level CTR/ROAS rates are recomputed, so the core
// always sees a complete, finite dataset.
package dataio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adinsight/domain/adset"
	"adinsight/internal/errors"
	"adinsight/internal/metrics"
)

// expectedColumns is the fixed column set. Absent columns default to zero or
// empty values rather than failing the load.
var expectedColumns = []string{
	"campaign_name", "adset_name", "date", "spend", "impressions", "clicks",
	"ctr", "purchases", "revenue", "roas", "creative_type", "creative_message",
	"audience_type", "platform", "country", "ad_id",
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// Reader loads CSV and XLSX ad datasets.
type Reader struct {
	filePath string
	fileType string // "csv" or "xlsx"
}

// NewReader creates a reader, picking the format from the file extension.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Load reads the dataset into a Table.
func (r *Reader) Load() (*adset.Table, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.InvalidInput("dataset file not found: " + r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "xlsx":
		rows, err = r.readSheet()
	default:
		rows, err = r.readCSV()
	}
	if err != nil {
		return nil, err
	}
	return buildTable(rows), nil
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", r.filePath)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse csv %s", r.filePath)
	}
	return rows, nil
}

func (r *Reader) readSheet() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", r.filePath)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets: " + r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	return rows, nil
}

// buildTable coerces raw string rows into records. The first row is the
// header; unknown headers are ignored and missing ones default.
func buildTable(rows [][]string) *adset.Table {
	t := &adset.Table{}
	if len(rows) < 2 {
		return t
	}

	index := map[string]int{}
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, raw := range rows[1:] {
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[i])
		}

		rec := adset.Record{
			CampaignName:    cell("campaign_name"),
			AdsetName:       cell("adset_name"),
			Date:            parseDate(cell("date")),
			Spend:           parseFloat(cell("spend")),
			Impressions:     parseFloat(cell("impressions")),
			Clicks:          parseFloat(cell("clicks")),
			Purchases:       parseFloat(cell("purchases")),
			Revenue:         parseFloat(cell("revenue")),
			CreativeType:    cell("creative_type"),
			CreativeMessage: cell("creative_message"),
			AudienceType:    cell("audience_type"),
			Platform:        cell("platform"),
			Country:         cell("country"),
			AdID:            cell("ad_id"),
		}
		// Derived rates are always recomputed from the raw counts; the ctr
		// and roas columns in the file are ignored.
		rec.CTR = metrics.SafeRate(rec.Clicks, rec.Impressions)
		rec.ROAS = metrics.SafeRate(rec.Revenue, rec.Spend)
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0.0
	}
	return v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
