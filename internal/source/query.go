package source

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLibrary is the vendor schema holding the per-day TAQ tables.
const DefaultLibrary = "taqmsec"

// TableKind is the per-day table name prefix for one raw table family.
type TableKind string

const (
	TableNBBO         TableKind = "nbbom"
	TableQuotes       TableKind = "cqm"
	TableTrades       TableKind = "ctm"
	TableOfficialNBBO TableKind = "complete_nbbo"
)

// TableForDate returns the vendor table name for a table family on a
// given date, e.g. nbbom_20240115.
func TableForDate(kind TableKind, date time.Time) string {
	return string(kind) + "_" + date.Format("20060102")
}

// Raw column lists for each table family, in the order the cleaners
// expect them.
var (
	NBBOColumns = []string{
		"date", "time_m", "sym_root", "sym_suffix",
		"best_bid", "best_bidsiz", "best_ask", "best_asksiz",
		"qu_cond", "qu_seqnum", "best_askex", "best_bidex", "qu_cancel",
	}
	QuoteColumns = []string{
		"date", "time_m", "ex", "sym_root", "sym_suffix",
		"bid", "bidsiz", "ask", "asksiz",
		"qu_cond", "qu_seqnum", "natbbo_ind", "qu_source", "qu_cancel",
	}
	TradeColumns = []string{
		"date", "time_m", "ex", "sym_root", "sym_suffix",
		"size", "price", "tr_seqnum", "tr_scond", "tr_corr",
	}
	OfficialNBBOColumns = []string{
		"date", "time_m", "sym_root", "sym_suffix",
		"best_bid", "best_bidsizeshares", "best_ask", "best_asksizeshares",
	}
)

// TimeToSQL serializes a time of day to the vendor's literal format,
// HH:MM:SS.mmm, rounding microseconds to the nearest millisecond.
func TimeToSQL(tod time.Duration, quoteChar string) string {
	// Round first so 999.6ms carries into the seconds field.
	rounded := (tod + 500*time.Microsecond) / time.Millisecond * time.Millisecond
	h := int(rounded / time.Hour)
	m := int(rounded % time.Hour / time.Minute)
	s := int(rounded % time.Minute / time.Second)
	ms := int(rounded % time.Second / time.Millisecond)
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d%s", quoteChar, h, m, s, ms, quoteChar)
}

// BuildQuery assembles the SQL statement fetching a raw table slice: the
// requested columns, root-only symbol matching (records with a symbol
// suffix are always excluded), an optional time-of-day window, and any
// extra condition (e.g. the trade correction filter). A zero start or
// end leaves that bound open.
func BuildQuery(columns []string, table, library string, symbols []string, start, end time.Duration, extra string) string {
	if library == "" {
		library = DefaultLibrary
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(library)
	b.WriteString(".")
	b.WriteString(table)

	if len(symbols) > 0 {
		b.WriteString(" WHERE sym_root IN ('")
		b.WriteString(strings.Join(symbols, "','"))
		b.WriteString("') AND sym_suffix IS NULL")
	} else {
		b.WriteString(" WHERE sym_suffix IS NULL")
	}

	switch {
	case start > 0 && end > 0:
		b.WriteString(" AND (time_m BETWEEN ")
		b.WriteString(TimeToSQL(start, "'"))
		b.WriteString(" AND ")
		b.WriteString(TimeToSQL(end, "'"))
		b.WriteString(")")
	case start > 0:
		b.WriteString(" AND (time_m > ")
		b.WriteString(TimeToSQL(start, "'"))
		b.WriteString(")")
	case end > 0:
		b.WriteString(" AND (time_m < ")
		b.WriteString(TimeToSQL(end, "'"))
		b.WriteString(")")
	}

	b.WriteString(extra)
	return b.String()
}

// TradeCondition is the server-side filter keeping only regular,
// positively priced trades.
const TradeCondition = " AND tr_corr = '00' AND price > 0"
