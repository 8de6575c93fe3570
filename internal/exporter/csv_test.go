package exporter

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

var testDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteAverages(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	averages := map[string]map[string]float64{
		"MSFT": {"X_Ave": 2.0, "X_DW": math.NaN()},
		"IBM":  {"X_Ave": 1.0, "X_DW": 1.5},
	}
	weightings := []taq.Weighting{{Suffix: "_Ave"}, {Column: taq.WeightDollar, Suffix: "_DW"}}

	require.NoError(t, w.WriteAverages(testDay, averages, []string{"X"}, weightings))

	records := readCSV(t, filepath.Join(dir, "averages_20240115.csv"))
	require.Len(t, records, 3)

	assert.Equal(t, []string{"symbol", "X_Ave", "X_DW"}, records[0])
	assert.Equal(t, []string{"IBM", "1", "1.5"}, records[1], "rows sorted by symbol")
	assert.Equal(t, []string{"MSFT", "2", ""}, records[2], "null serializes as an empty field")
}

func TestWriteQuotedSpreads(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	spreads := map[string]taq.QuotedSpread{
		"IBM": {
			DollarSpread:   0.1,
			PercentSpread:  0.01,
			AskDepthDollar: 2000,
			BidDepthDollar: 1000,
			AskDepthShare:  200,
			BidDepthShare:  math.NaN(),
		},
	}

	require.NoError(t, w.WriteQuotedSpreads(testDay, spreads))

	records := readCSV(t, filepath.Join(dir, "quoted_spreads_20240115.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, "DollarQuotedSpread_TW", records[0][1])
	assert.Equal(t, []string{"IBM", "0.1", "0.01", "2000", "1000", "200", ""}, records[1])
}

func TestWriteTrades(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	tr := taq.TradeNBBO{
		Trade: taq.Trade{
			Timestamp: testDay.Add(9*time.Hour + 30*time.Minute),
			Symbol:    "IBM",
			Exchange:  "N",
			Price:     10.1,
			Size:      100,
			Dollar:    1010,
		},
		BestBid:  10.0,
		BestAsk:  10.1,
		Midpoint: 10.05,
	}

	require.NoError(t, w.WriteTrades(testDay, []taq.TradeNBBO{tr}, []taq.Scheme{taq.SchemeLR}, []string{"X"}))

	records := readCSV(t, filepath.Join(dir, "trades_20240115.csv"))
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "sign_LR", header[len(header)-2])
	assert.Equal(t, "X", header[len(header)-1])

	row := records[1]
	assert.Equal(t, "2024-01-15 09:30:00.000000", row[0])
	assert.Equal(t, "IBM", row[1])
	assert.Equal(t, "", row[len(row)-2], "unset sign is null")
	assert.Equal(t, "", row[len(row)-1], "unset measure is null")
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir, nil)

	require.NoError(t, w.WriteQuotedSpreads(testDay, nil))
	_, err := os.Stat(filepath.Join(dir, "quoted_spreads_20240115.csv"))
	require.NoError(t, err)
}
