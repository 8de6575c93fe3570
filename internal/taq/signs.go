package taq

import (
	"math"

	"github.com/Open-Empirical-Finance/gotaq/internal/floatapprox"
)

// SignTrades computes the trade direction under each classification
// scheme and stores the results on the rows. Rows must come from
// MergeTradesNBBO (midpoint and lock/cross flags populated); they are
// re-sorted by (timestamp, symbol) and mutated in place.
//
// Every scheme starts from the tick test and refines it:
//
//   - LR (Lee-Ready): price above the midpoint is a buy, below a sell;
//     at the midpoint the tick test stands.
//   - EMO (Ellis-Michaely-O'Hara): only trades exactly at the ask (buy)
//     or bid (sell) are reclassified.
//   - CLNV (Chakrabarty-Li-Nguyen-Van Ness): trades within the top
//     threshold fraction of the spread below the ask are buys, within
//     the bottom fraction above the bid sells. This is a genuine
//     threshold window, not EMO's exact-match test.
//
// Locked or crossed quotes leave the tick test untouched for all three.
// With cfg.TrackRetail set, the BJZ sub-penny retail sign and the notBJZ
// variants (base sign kept only where BJZ classified nothing) are added.
func SignTrades(rows []TradeNBBO, cfg CleanConfig) {
	SortTradeNBBOByTime(rows)
	dirs := tickDirections(rows, cfg.Atol)

	for i := range rows {
		r := &rows[i]
		lc := r.Lock || r.Cross
		tick := dirs[i]

		r.setSign(SchemeLR, signLR(r.Price, r.Midpoint, tick, lc, cfg.Atol))
		r.setSign(SchemeEMO, signEMO(r.Price, r.BestBid, r.BestAsk, tick, lc, cfg.Atol))
		r.setSign(SchemeCLNV, signCLNV(r.Price, r.BestBid, r.BestAsk, tick, lc, cfg.CLNVThreshold))

		if cfg.TrackRetail {
			bjz := signBJZ(r.Price, r.Exchange)
			r.setSign(SchemeBJZ, bjz)
			for _, s := range BaseSchemes {
				v := math.NaN()
				if isNull(bjz) {
					v = r.Sign(s)
				}
				r.setSign(s.NotRetail(), v)
			}
		}
	}
}

// tickDirections runs the tick test: the sign of the price change from
// the previous trade in the same symbol. A zero price change carries no
// signal and inherits the last non-zero direction within the symbol;
// the first trade of a symbol has no direction (NaN) until a price
// change occurs.
func tickDirections(rows []TradeNBBO, atol float64) []float64 {
	type state struct {
		prevPrice float64
		lastDir   float64
	}
	states := make(map[string]*state)

	dirs := make([]float64, len(rows))
	for i := range rows {
		r := &rows[i]
		st := states[r.Symbol]
		if st == nil {
			st = &state{prevPrice: math.NaN(), lastDir: math.NaN()}
			states[r.Symbol] = st
		}

		dir := math.NaN()
		if !isNull(st.prevPrice) {
			diff := r.Price - st.prevPrice
			if !floatapprox.Zero(diff, atol) {
				if diff > 0 {
					dir = 1
				} else {
					dir = -1
				}
			}
		}
		if isNull(dir) {
			dir = st.lastDir
		} else {
			st.lastDir = dir
		}
		st.prevPrice = r.Price
		dirs[i] = dir
	}
	return dirs
}

func signLR(price, midpoint, tick float64, lockCross bool, atol float64) float64 {
	if lockCross || floatapprox.Equal(price, midpoint, atol) {
		return tick
	}
	if price > midpoint {
		return 1
	}
	if price < midpoint {
		return -1
	}
	return tick
}

func signEMO(price, bid, ask, tick float64, lockCross bool, atol float64) float64 {
	if lockCross {
		return tick
	}
	if floatapprox.Equal(price, ask, atol) {
		return 1
	}
	if floatapprox.Equal(price, bid, atol) {
		return -1
	}
	return tick
}

func signCLNV(price, bid, ask, tick float64, lockCross bool, threshold float64) float64 {
	if lockCross {
		return tick
	}
	spread := ask - bid
	if price >= ask-threshold*spread && price <= ask {
		return 1
	}
	if price <= bid+threshold*spread && price >= bid {
		return -1
	}
	return tick
}

// signBJZ classifies retail trades following Boehmer, Jones and Zhang,
// "Tracking Retail Investor Activity". Only off-exchange ("D") trades
// qualify; the sub-penny remainder of the price identifies the side:
// just below a penny increment means a retail buy, just above a sell.
func signBJZ(price float64, exchange string) float64 {
	if exchange != "D" {
		return math.NaN()
	}
	z := 100 * math.Mod(price, 0.01)
	if z >= 1e-4 && z < 0.4 {
		return -1
	}
	if z >= 0.6 && z < 1-1e-4 {
		return 1
	}
	return math.NaN()
}
