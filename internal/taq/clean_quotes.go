package taq

// CleanQuotes runs the quote table cleaning pipeline on raw cqm records.
// The output schema matches CleanNBBO so both tables can be unioned into
// the official complete NBBO.
//
// Filters, in fixed order: quote condition, cancel flag, crossed market,
// abnormal spread, withdrawn quote, and the national-BBO contributor
// test (source "C" with natbbo indicator "1", or source "N" with "4").
// Rows failing any filter are dropped; unlike the NBBO cleaner, quote
// sides are never nulled individually because a surviving row must have
// both sides populated.
func CleanQuotes(rows []QuoteRow, cfg CleanConfig) []BBO {
	out := make([]BBO, 0, len(rows))
	for _, r := range rows {
		if !cfg.keepCond(r.Cond) {
			continue
		}
		if cfg.DeleteCanceledQuotes && r.Cancel == "B" {
			continue
		}
		if cfg.DeleteCrossedMarkets && !(r.Bid <= r.Ask) {
			// NaN on either side also fails the comparison and drops
			// the row, same as a cross.
			continue
		}
		if cfg.DeleteAbnormalSpreads && !(r.Ask-r.Bid <= cfg.MaxSpread) {
			continue
		}
		if cfg.DeleteWithdrawnQuotes && withdrawnQuote(r) {
			continue
		}
		if cfg.NBBOOnly && !contributesToNBBO(r) {
			continue
		}

		b := BBO{
			Timestamp:     CombineTimestamp(r.Date, r.TimeOfDay),
			Symbol:        CombineSymbol(r.SymbolRoot, r.SymbolSuffix),
			BestBid:       r.Bid,
			BestBidShares: r.BidLots * 100,
			BestAsk:       r.Ask,
			BestAskShares: r.AskLots * 100,
			// The quote comes from a single exchange, so it is both the
			// best bid and best ask venue.
			BestBidEx: r.Exchange,
			BestAskEx: r.Exchange,
			SeqNum:    r.SeqNum,
			Spread:    r.Ask - r.Bid,
			Midpoint:  (r.Ask + r.Bid) / 2,
		}
		if cfg.OutputFlags {
			b.Cond = r.Cond
			b.NatBBOInd = r.NatBBOInd
			b.Source = r.Source
			b.Cancel = r.Cancel
		}
		out = append(out, b)
	}
	return out
}

// withdrawnQuote reports whether any side of the quote has a missing or
// non-positive price or size. See Holden & Jacobsen (2014), p. 11.
func withdrawnQuote(r QuoteRow) bool {
	return missingOrNonPositive(r.Ask) || missingOrNonPositive(r.AskLots) ||
		missingOrNonPositive(r.Bid) || missingOrNonPositive(r.BidLots)
}

// contributesToNBBO reports whether the quote record updates the
// national BBO.
func contributesToNBBO(r QuoteRow) bool {
	return (r.Source == "C" && r.NatBBOInd == "1") ||
		(r.Source == "N" && r.NatBBOInd == "4")
}
