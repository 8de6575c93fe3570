package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// CSV reads flat per-day extracts of the vendor tables from a directory.
// Files are named after the table they were extracted from, e.g.
// ctm_20240115.csv, and carry the same column headers as the database
// tables. Filters that the SQL backend pushes into the query (symbol
// roots, suffix exclusion, time windows, trade corrections) are applied
// here while scanning.
type CSV struct {
	dir string
}

// NewCSV opens a directory of flat extracts.
func NewCSV(dir string) (*CSV, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source: open extract dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: extract path %s is not a directory", dir)
	}
	return &CSV{dir: dir}, nil
}

// Quotes implements DataSource.
func (c *CSV) Quotes(_ context.Context, q Query) ([]taq.QuoteRow, error) {
	recs, err := c.read(TableQuotes, q)
	if err != nil {
		return nil, err
	}
	out := make([]taq.QuoteRow, 0, len(recs))
	for _, rec := range recs {
		out = append(out, taq.QuoteRow{
			Date:         rec.date,
			TimeOfDay:    rec.tod,
			Exchange:     rec.str("ex"),
			SymbolRoot:   rec.str("sym_root"),
			SymbolSuffix: rec.str("sym_suffix"),
			Bid:          rec.num("bid"),
			BidLots:      rec.num("bidsiz"),
			Ask:          rec.num("ask"),
			AskLots:      rec.num("asksiz"),
			Cond:         rec.str("qu_cond"),
			SeqNum:       rec.seq("qu_seqnum"),
			NatBBOInd:    rec.str("natbbo_ind"),
			Source:       rec.str("qu_source"),
			Cancel:       rec.str("qu_cancel"),
		})
	}
	return out, nil
}

// NBBO implements DataSource.
func (c *CSV) NBBO(_ context.Context, q Query) ([]taq.NBBORow, error) {
	recs, err := c.read(TableNBBO, q)
	if err != nil {
		return nil, err
	}
	out := make([]taq.NBBORow, 0, len(recs))
	for _, rec := range recs {
		out = append(out, taq.NBBORow{
			Date:         rec.date,
			TimeOfDay:    rec.tod,
			SymbolRoot:   rec.str("sym_root"),
			SymbolSuffix: rec.str("sym_suffix"),
			BestBid:      rec.num("best_bid"),
			BestBidLots:  rec.num("best_bidsiz"),
			BestAsk:      rec.num("best_ask"),
			BestAskLots:  rec.num("best_asksiz"),
			Cond:         rec.str("qu_cond"),
			SeqNum:       rec.seq("qu_seqnum"),
			BestAskEx:    rec.str("best_askex"),
			BestBidEx:    rec.str("best_bidex"),
			Cancel:       rec.str("qu_cancel"),
		})
	}
	return out, nil
}

// OfficialNBBO implements DataSource.
func (c *CSV) OfficialNBBO(_ context.Context, q Query) ([]taq.OfficialNBBORow, error) {
	recs, err := c.read(TableOfficialNBBO, q)
	if err != nil {
		return nil, err
	}
	out := make([]taq.OfficialNBBORow, 0, len(recs))
	for _, rec := range recs {
		out = append(out, taq.OfficialNBBORow{
			Date:          rec.date,
			TimeOfDay:     rec.tod,
			SymbolRoot:    rec.str("sym_root"),
			SymbolSuffix:  rec.str("sym_suffix"),
			BestBid:       rec.num("best_bid"),
			BestBidShares: rec.num("best_bidsizeshares"),
			BestAsk:       rec.num("best_ask"),
			BestAskShares: rec.num("best_asksizeshares"),
		})
	}
	return out, nil
}

// Trades implements DataSource. The correction code and positive price
// filters the SQL backend applies server-side run here instead.
func (c *CSV) Trades(_ context.Context, q Query) ([]taq.TradeRow, error) {
	recs, err := c.read(TableTrades, q)
	if err != nil {
		return nil, err
	}
	out := make([]taq.TradeRow, 0, len(recs))
	for _, rec := range recs {
		out = append(out, taq.TradeRow{
			Date:           rec.date,
			TimeOfDay:      rec.tod,
			Exchange:       rec.str("ex"),
			SymbolRoot:     rec.str("sym_root"),
			SymbolSuffix:   rec.str("sym_suffix"),
			Size:           rec.num("size"),
			Price:          rec.num("price"),
			SeqNum:         rec.seq("tr_seqnum"),
			Cond:           rec.str("tr_scond"),
			CorrectionCode: rec.str("tr_corr"),
		})
	}
	return taq.FilterRawTrades(out, 0, 0), nil
}

// Symbols implements DataSource.
func (c *CSV) Symbols(_ context.Context, date time.Time) ([]string, error) {
	recs, err := c.read(TableNBBO, Query{Date: date})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, rec := range recs {
		sym := rec.str("sym_root")
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out, nil
}

// record is one parsed extract row with header-indexed field access.
type record struct {
	fields map[string]string
	date   time.Time
	tod    time.Duration
}

func (r record) str(col string) string {
	return r.fields[col]
}

func (r record) num(col string) float64 {
	v := r.fields[col]
	if v == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func (r record) seq(col string) int64 {
	v := r.fields[col]
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// read scans one extract file and returns the rows passing the query's
// symbol and time window filters. Rows carrying a symbol suffix are
// always excluded, matching the SQL backend.
func (c *CSV) read(kind TableKind, q Query) ([]record, error) {
	path := filepath.Join(c.dir, TableForDate(kind, q.Date)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open extract: %w", err)
	}
	defer f.Close()

	rd := csv.NewReader(f)

	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("source: read extract header %s: %w", path, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}

	roots := make(map[string]bool, len(q.Symbols))
	for _, s := range q.Symbols {
		roots[s] = true
	}

	var out []record
	for {
		row, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: read extract %s: %w", path, err)
		}
		fields := make(map[string]string, len(cols))
		for i, col := range cols {
			if i < len(row) {
				fields[col] = row[i]
			}
		}
		if fields["sym_suffix"] != "" {
			continue
		}
		if len(roots) > 0 && !roots[fields["sym_root"]] {
			continue
		}

		tod, err := parseTimeOfDay(fields["time_m"])
		if err != nil {
			return nil, fmt.Errorf("source: extract %s: %w", path, err)
		}
		if !inWindow(tod, q.Start, q.End) {
			continue
		}
		date, err := parseDate(fields["date"])
		if err != nil {
			return nil, fmt.Errorf("source: extract %s: %w", path, err)
		}
		out = append(out, record{fields: fields, date: date, tod: tod})
	}
	return out, nil
}

// inWindow mirrors the query builder's branches: a closed interval when
// both bounds are set, strict comparison when only one is.
func inWindow(tod, start, end time.Duration) bool {
	switch {
	case start > 0 && end > 0:
		return tod >= start && tod <= end
	case start > 0:
		return tod > start
	case end > 0:
		return tod < end
	default:
		return true
	}
}

// parseDate accepts the vendor's YYYY-MM-DD form and the compact
// YYYYMMDD form some extract tools emit.
func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", v)
}

// parseTimeOfDay parses HH:MM:SS with an optional fractional part of up
// to nanosecond resolution. The fraction is parsed as digits, not as a
// float, so microsecond timestamps survive exactly.
func parseTimeOfDay(v string) (time.Duration, error) {
	parts := strings.SplitN(v, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse time of day %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q", v)
	}
	whole, frac, _ := strings.Cut(parts[2], ".")
	s, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q", v)
	}
	var ns int
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		ns, err = strconv.Atoi(frac)
		if err != nil {
			return 0, fmt.Errorf("parse time of day %q", v)
		}
		for i := len(frac); i < 9; i++ {
			ns *= 10
		}
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ns)*time.Nanosecond, nil
}
