package taq

import (
	"math"
)

// CleanNBBO runs the NBBO cleaning pipeline on raw nbbom records and
// returns cleaned best bid and offer observations.
//
// Steps, in fixed order: symbol derivation, quote condition filter,
// cancel filter, empty quote filter, spread/midpoint derivation with
// side nulling and lot-to-share conversion, abnormal spread filter, and
// the optional changes-only collapse.
func CleanNBBO(rows []NBBORow, cfg CleanConfig) []BBO {
	out := make([]BBO, 0, len(rows))
	for _, r := range rows {
		if !cfg.keepCond(r.Cond) {
			continue
		}
		if cfg.DeleteCanceledQuotes && r.Cancel == "B" {
			continue
		}
		if cfg.DeleteEmptyQuotes && emptyQuote(r.BestBid, r.BestBidLots, r.BestAsk, r.BestAskLots) {
			continue
		}
		b := BBO{
			Timestamp: CombineTimestamp(r.Date, r.TimeOfDay),
			Symbol:    CombineSymbol(r.SymbolRoot, r.SymbolSuffix),
			BestBid:   r.BestBid,
			BestAsk:   r.BestAsk,
			BestBidEx: r.BestBidEx,
			BestAskEx: r.BestAskEx,
			SeqNum:    r.SeqNum,
			// Sizes start out in round lots; converted below.
			BestBidShares: r.BestBidLots,
			BestAskShares: r.BestAskLots,
		}
		if cfg.OutputFlags {
			b.Cond = r.Cond
			b.Cancel = r.Cancel
		}
		out = append(out, b)
	}

	for i := range out {
		deriveBestQuotes(&out[i])
	}

	if cfg.DeleteAbnormalSpreads {
		filterAbnormalSpreads(out, cfg.MaxSpread, cfg.MaxQuoteChange)
	}

	if cfg.KeepChangesOnly {
		out = filterChangesOnly(out)
	}

	return out
}

// emptyQuote reports whether both sides of a quote are missing or
// non-positive in price or size. One usable side keeps the row: a
// one-sided market is a valid observation.
func emptyQuote(bid, bidSize, ask, askSize float64) bool {
	if nonPositive(ask) && nonPositive(bid) {
		return true
	}
	if nonPositive(askSize) && nonPositive(bidSize) {
		return true
	}
	if isNull(ask) && isNull(bid) {
		return true
	}
	if isNull(askSize) && isNull(bidSize) {
		return true
	}
	return false
}

// deriveBestQuotes computes spread and midpoint, nulls out any side whose
// price or size is missing or non-positive (both fields together, never
// just one), and converts surviving sizes from round lots to shares.
// Spread and midpoint are derived before the side nulling, from the raw
// values.
func deriveBestQuotes(b *BBO) {
	b.Spread = b.BestAsk - b.BestBid
	b.Midpoint = (b.BestAsk + b.BestBid) / 2

	if missingOrNonPositive(b.BestAsk) || missingOrNonPositive(b.BestAskShares) {
		b.BestAsk = math.NaN()
		b.BestAskShares = math.NaN()
	}
	if missingOrNonPositive(b.BestBid) || missingOrNonPositive(b.BestBidShares) {
		b.BestBid = math.NaN()
		b.BestBidShares = math.NaN()
	}

	b.BestBidShares *= 100
	b.BestAskShares *= 100
}

// filterAbnormalSpreads nulls a quote side that moved implausibly far
// from the previous midpoint while the spread is abnormally wide: if
// spread > maxSpread and the bid dropped more than maxQuoteChange below
// the previous row's midpoint, the bid side is removed; symmetric for
// the ask. The rule is a single pass reading only the lag-1 midpoint, so
// a first-of-day row that itself exceeds maxSpread is left untouched.
// That asymmetry is inherited from the published methodology, not a bug
// to fix here.
func filterAbnormalSpreads(rows []BBO, maxSpread, maxQuoteChange float64) {
	SortBBO(rows)

	prevMid := make(map[string]float64)
	for i := range rows {
		r := &rows[i]
		lmid, ok := prevMid[r.Symbol]
		if !ok {
			lmid = math.NaN()
		}
		// NaN comparisons are false, so rows with a missing spread or
		// no previous midpoint pass through unchanged.
		if r.Spread > maxSpread && r.BestBid < lmid-maxQuoteChange {
			r.BestBid = math.NaN()
			r.BestBidShares = math.NaN()
		}
		if r.Spread > maxSpread && r.BestAsk > lmid+maxQuoteChange {
			r.BestAsk = math.NaN()
			r.BestAskShares = math.NaN()
		}
		prevMid[r.Symbol] = r.Midpoint
	}
}

// filterChangesOnly keeps a row only if any of the four best quote
// fields changed from the previous row of the same symbol. Comparison is
// three-valued: two missing values count as equal, so runs of all-null
// rows collapse to one instead of surviving as spurious duplicates.
// Assumes rows are sorted by (symbol, timestamp, seqnum).
func filterChangesOnly(rows []BBO) []BBO {
	out := rows[:0]
	var prev *BBO
	for i := range rows {
		r := &rows[i]
		if prev == nil || prev.Symbol != r.Symbol ||
			differs(r.BestBid, prev.BestBid) ||
			differs(r.BestAsk, prev.BestAsk) ||
			differs(r.BestBidShares, prev.BestBidShares) ||
			differs(r.BestAskShares, prev.BestAskShares) {
			out = append(out, *r)
			prev = &out[len(out)-1]
		}
	}
	return out
}
