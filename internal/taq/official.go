package taq

// CleanOfficialNBBO cleans records fetched from the vendor's official
// complete NBBO table: derives the symbol, sorts by (symbol, timestamp)
// and projects to the common BBO schema. Sizes arrive already in shares.
func CleanOfficialNBBO(rows []OfficialNBBORow) []BBO {
	out := make([]BBO, 0, len(rows))
	for _, r := range rows {
		out = append(out, BBO{
			Timestamp:     CombineTimestamp(r.Date, r.TimeOfDay),
			Symbol:        CombineSymbol(r.SymbolRoot, r.SymbolSuffix),
			BestBid:       r.BestBid,
			BestBidShares: r.BestBidShares,
			BestAsk:       r.BestAsk,
			BestAskShares: r.BestAskShares,
			Midpoint:      (r.BestAsk + r.BestBid) / 2,
			Spread:        r.BestAsk - r.BestBid,
		})
	}
	SortBBO(out)
	return out
}

// MergeQuotesNBBO synthesizes the official complete NBBO by unioning a
// cleaned NBBO table with a cleaned quote table. With both inputs
// cleaned under default options this reproduces the vendor's official
// complete NBBO table.
//
// Rows are ordered by (symbol, timestamp, sequence number); when
// keepLastOnly is set, same-microsecond updates collapse to the one with
// the highest sequence number, so the last update wins.
func MergeQuotesNBBO(nbbo, quotes []BBO, keepLastOnly bool) []BBO {
	out := make([]BBO, 0, len(nbbo)+len(quotes))
	out = append(out, nbbo...)
	out = append(out, quotes...)
	SortBBO(out)

	if !keepLastOnly {
		return out
	}

	dedup := out[:0]
	for i := range out {
		last := i == len(out)-1 ||
			out[i+1].Symbol != out[i].Symbol ||
			!out[i+1].Timestamp.Equal(out[i].Timestamp)
		if last {
			dedup = append(dedup, out[i])
		}
	}
	return dedup
}
