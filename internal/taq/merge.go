package taq

import (
	"math"
	"sort"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/floatapprox"
)

// quoteBook holds one symbol's quote observations in timestamp order and
// answers "latest quote strictly before t" lookups.
type quoteBook struct {
	times []time.Time
	rows  []*BBO
}

func buildQuoteBooks(nbbo []BBO) map[string]*quoteBook {
	books := make(map[string]*quoteBook)
	for i := range nbbo {
		b := books[nbbo[i].Symbol]
		if b == nil {
			b = &quoteBook{}
			books[nbbo[i].Symbol] = b
		}
		b.rows = append(b.rows, &nbbo[i])
	}
	for _, b := range books {
		if !sort.SliceIsSorted(b.rows, func(i, j int) bool {
			return b.rows[i].Timestamp.Before(b.rows[j].Timestamp)
		}) {
			sort.SliceStable(b.rows, func(i, j int) bool {
				return b.rows[i].Timestamp.Before(b.rows[j].Timestamp)
			})
		}
		b.times = make([]time.Time, len(b.rows))
		for i, r := range b.rows {
			b.times[i] = r.Timestamp
		}
	}
	return books
}

// asOf returns the latest quote with timestamp strictly before t, or nil
// if none exists. Exact timestamp matches are excluded: a quote posted
// in the same instant as a trade cannot have caused it.
func (b *quoteBook) asOf(t time.Time) *BBO {
	// First index with timestamp >= t.
	i := sort.Search(len(b.times), func(i int) bool {
		return !b.times[i].Before(t)
	})
	if i == 0 {
		return nil
	}
	return b.rows[i-1]
}

// MergeTradesNBBO attaches to each trade the official NBBO in force
// strictly before the trade's timestamp, matched within the same symbol.
// Trades with no prior quote get NaN quote fields. The merged rows carry
// the quote midpoint and lock/cross flags; a row whose bid and ask are
// both missing counts as locked, which keeps unmatched trades out of the
// spread sample downstream.
func MergeTradesNBBO(trades []Trade, nbbo []BBO, atol float64) []TradeNBBO {
	SortTradesByTime(trades)
	books := buildQuoteBooks(nbbo)

	out := make([]TradeNBBO, 0, len(trades))
	for _, tr := range trades {
		row := TradeNBBO{
			Trade:         tr,
			BestBid:       math.NaN(),
			BestBidShares: math.NaN(),
			BestAsk:       math.NaN(),
			BestAskShares: math.NaN(),
			BestBidNext:   math.NaN(),
			BestAskNext:   math.NaN(),
			MidpointNext:  math.NaN(),
		}
		if b := books[tr.Symbol]; b != nil {
			if q := b.asOf(tr.Timestamp); q != nil {
				row.BestBid = q.BestBid
				row.BestBidShares = q.BestBidShares
				row.BestAsk = q.BestAsk
				row.BestAskShares = q.BestAskShares
			}
		}
		row.Midpoint = (row.BestBid + row.BestAsk) / 2
		row.Lock = floatapprox.Equal(row.BestBid, row.BestAsk, atol)
		row.Cross = row.BestBid > row.BestAsk
		out = append(out, row)
	}
	return out
}

// MergeFutureNBBO attaches to each merged trade row the quote standing
// delay after the trade: quote timestamps are shifted back by delay and
// matched as-of (strictly before) against the trade time. Rows with no
// such future quote keep NaN next-quote fields. Mutates rows in place.
func MergeFutureNBBO(rows []TradeNBBO, nbbo []BBO, delay time.Duration) {
	shifted := make([]BBO, len(nbbo))
	copy(shifted, nbbo)
	for i := range shifted {
		shifted[i].Timestamp = shifted[i].Timestamp.Add(-delay)
	}
	books := buildQuoteBooks(shifted)

	for i := range rows {
		r := &rows[i]
		r.BestBidNext = math.NaN()
		r.BestAskNext = math.NaN()
		r.MidpointNext = math.NaN()
		b := books[r.Symbol]
		if b == nil {
			continue
		}
		q := b.asOf(r.Timestamp)
		if q == nil {
			continue
		}
		r.BestBidNext = q.BestBid
		r.BestAskNext = q.BestAsk
		r.MidpointNext = (q.BestBid + q.BestAsk) / 2
	}
}
