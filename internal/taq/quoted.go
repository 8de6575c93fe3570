package taq

import (
	"math"
	"time"

	"github.com/Open-Empirical-Finance/gotaq/internal/floatapprox"
)

// QuotedSpread holds the time-weighted daily quoted spread and depth
// measures for one symbol.
type QuotedSpread struct {
	DollarSpread   float64
	PercentSpread  float64
	AskDepthDollar float64
	BidDepthDollar float64
	AskDepthShare  float64
	BidDepthShare  float64
}

// ComputeQuotedSpreads computes time-weighted quoted spreads and depths
// per symbol from an official NBBO table for one trading day.
//
// Each quote is weighted by its time in force: the interval until the
// next quote update for the symbol, or until session end (date+end) for
// the last quote of the day. Quotes before start are dropped, as are
// locked and crossed quotes. A symbol whose surviving quotes carry zero
// total in-force weight, or only null values for a measure, gets NaN for
// that measure.
//
// The input slice is re-sorted by (symbol, timestamp).
func ComputeQuotedSpreads(date time.Time, nbbo []BBO, start, end time.Duration, atol float64) map[string]QuotedSpread {
	sessionEnd := CombineTimestamp(date, end)
	startTS := CombineTimestamp(date, start)

	SortBBO(nbbo)

	// In-force durations must be computed on the full per-symbol
	// sequence before locks and crosses are dropped, so a removed quote
	// still terminates its predecessor's interval.
	type obs struct {
		row     *BBO
		inforce float64 // seconds
	}
	var kept []obs
	for i := range nbbo {
		r := &nbbo[i]
		if r.Timestamp.Before(startTS) {
			continue
		}
		var inforce float64
		if i+1 < len(nbbo) && nbbo[i+1].Symbol == r.Symbol {
			inforce = nbbo[i+1].Timestamp.Sub(r.Timestamp).Seconds()
		} else {
			inforce = math.Abs(sessionEnd.Sub(r.Timestamp).Seconds())
		}
		if floatapprox.Equal(r.BestBid, r.BestAsk, atol) || r.BestBid > r.BestAsk {
			continue
		}
		kept = append(kept, obs{row: r, inforce: inforce})
	}

	type acc struct {
		wv [6]float64
		w  [6]float64
	}
	accs := make(map[string]*acc)
	for _, o := range kept {
		a := accs[o.row.Symbol]
		if a == nil {
			a = &acc{}
			accs[o.row.Symbol] = a
		}
		measures := [6]float64{
			o.row.BestAsk - o.row.BestBid,
			safeLog(o.row.BestAsk) - safeLog(o.row.BestBid),
			o.row.BestAsk * o.row.BestAskShares,
			o.row.BestBid * o.row.BestBidShares,
			o.row.BestAskShares,
			o.row.BestBidShares,
		}
		for k, v := range measures {
			if isNull(v) || isNull(o.inforce) {
				continue
			}
			a.wv[k] += v * o.inforce
			a.w[k] += o.inforce
		}
	}

	out := make(map[string]QuotedSpread, len(accs))
	for sym, a := range accs {
		var vals [6]float64
		for k := range vals {
			if a.w[k] == 0 {
				vals[k] = math.NaN()
			} else {
				vals[k] = a.wv[k] / a.w[k]
			}
		}
		out[sym] = QuotedSpread{
			DollarSpread:   vals[0],
			PercentSpread:  vals[1],
			AskDepthDollar: vals[2],
			BidDepthDollar: vals[3],
			AskDepthShare:  vals[4],
			BidDepthShare:  vals[5],
		}
	}
	return out
}
