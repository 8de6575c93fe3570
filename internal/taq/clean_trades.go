package taq

import "time"

// CleanTrades derives symbol, timestamp and dollar value for raw trade
// records and projects them to the cleaned schema.
//
// The correction code, positive price and trading hours filters are
// normally applied server-side by the query builder, but flat CSV
// extracts bypass the query path, so FilterRawTrades exists for sources
// that read extracts directly.
func CleanTrades(rows []TradeRow) []Trade {
	out := make([]Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, Trade{
			Timestamp: CombineTimestamp(r.Date, r.TimeOfDay),
			Symbol:    CombineSymbol(r.SymbolRoot, r.SymbolSuffix),
			Exchange:  r.Exchange,
			Size:      r.Size,
			Price:     r.Price,
			Dollar:    r.Price * r.Size,
			SeqNum:    r.SeqNum,
			Cond:      r.Cond,
		})
	}
	return out
}

// FilterRawTrades applies the server-side trade filters to raw records:
// only regular (correction code "00") trades with a positive price inside
// the [start, end] trading hours window survive. Data sources that
// execute SQL never need this; CSV extract sources do. A zero start or
// end leaves that bound open.
func FilterRawTrades(rows []TradeRow, start, end time.Duration) []TradeRow {
	out := make([]TradeRow, 0, len(rows))
	for _, r := range rows {
		if r.CorrectionCode != "00" {
			continue
		}
		if !(r.Price > 0) {
			continue
		}
		if start > 0 && r.TimeOfDay < start {
			continue
		}
		if end > 0 && r.TimeOfDay > end {
			continue
		}
		out = append(out, r)
	}
	return out
}
