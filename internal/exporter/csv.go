package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// Quoted spread output column names, in file order after the symbol.
var quotedSpreadColumns = []string{
	"DollarQuotedSpread_TW",
	"PercentQuotedSpread_TW",
	"DollarAskDepth_TW",
	"DollarBidDepth_TW",
	"ShareAskDepth_TW",
	"ShareBidDepth_TW",
}

// Writer exports daily results into a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteAverages writes the per-symbol aggregated measures for one date
// to averages_YYYYMMDD.csv. Column order follows the measure and
// weighting lists; rows are sorted by symbol.
func (w *Writer) WriteAverages(date time.Time, averages map[string]map[string]float64, measures []string, weightings []taq.Weighting) error {
	cols := make([]string, 0, len(measures)*len(weightings))
	for _, m := range measures {
		for _, wt := range weightings {
			cols = append(cols, m+wt.Suffix)
		}
	}

	records := make([][]string, 0, len(averages))
	for _, sym := range sortedKeys(averages) {
		rec := make([]string, 0, 1+len(cols))
		rec = append(rec, sym)
		for _, col := range cols {
			rec = append(rec, formatFloat(averages[sym][col]))
		}
		records = append(records, rec)
	}

	return w.write("averages_"+date.Format("20060102")+".csv",
		append([]string{"symbol"}, cols...), records)
}

// WriteQuotedSpreads writes the time-weighted quote measures for one
// date to quoted_spreads_YYYYMMDD.csv, sorted by symbol.
func (w *Writer) WriteQuotedSpreads(date time.Time, spreads map[string]taq.QuotedSpread) error {
	records := make([][]string, 0, len(spreads))
	for _, sym := range sortedKeys(spreads) {
		q := spreads[sym]
		records = append(records, []string{
			sym,
			formatFloat(q.DollarSpread),
			formatFloat(q.PercentSpread),
			formatFloat(q.AskDepthDollar),
			formatFloat(q.BidDepthDollar),
			formatFloat(q.AskDepthShare),
			formatFloat(q.BidDepthShare),
		})
	}

	return w.write("quoted_spreads_"+date.Format("20060102")+".csv",
		append([]string{"symbol"}, quotedSpreadColumns...), records)
}

// WriteTrades writes the matched, signed per-trade rows for one date to
// trades_YYYYMMDD.csv: trade fields, the standing quote, one sign
// column per scheme and one column per measure.
func (w *Writer) WriteTrades(date time.Time, trades []taq.TradeNBBO, schemes []taq.Scheme, measures []string) error {
	header := []string{
		"timestamp", "symbol", "exchange", "price", "size", "dollar",
		"best_bid", "best_ask", "midpoint", "lock", "cross",
	}
	for _, s := range schemes {
		header = append(header, "sign_"+string(s))
	}
	header = append(header, measures...)

	records := make([][]string, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		rec := make([]string, 0, len(header))
		rec = append(rec,
			t.Timestamp.Format("2006-01-02 15:04:05.000000"),
			t.Symbol,
			t.Exchange,
			formatFloat(t.Price),
			formatFloat(t.Size),
			formatFloat(t.Dollar),
			formatFloat(t.BestBid),
			formatFloat(t.BestAsk),
			formatFloat(t.Midpoint),
			formatBool(t.Lock),
			formatBool(t.Cross),
		)
		for _, s := range schemes {
			rec = append(rec, formatFloat(t.Sign(s)))
		}
		for _, m := range measures {
			rec = append(rec, formatFloat(t.Measure(m)))
		}
		records = append(records, rec)
	}

	return w.write("trades_"+date.Format("20060102")+".csv", header, records)
}

func (w *Writer) write(name string, header []string, records [][]string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	for i, rec := range records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d to %s: %w", i, path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	w.logger.Info("wrote export file",
		slog.String("path", path),
		slog.Int("records", len(records)))
	return nil
}

// formatFloat serializes a value with an empty field for null.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
