package taq

import (
	"fmt"

	"github.com/Open-Empirical-Finance/gotaq/internal/floatapprox"
)

// ComputeRealizedSpreadPriceImpact attaches the quote standing
// cfg.RealizedDelay after each trade, drops rows whose future quote is
// locked or crossed, and computes per-scheme realized spreads and price
// impacts:
//
//	dollar realized spread  = sign * (price - future midpoint) * 2
//	percent realized spread = sign * (ln price - ln future midpoint) * 2
//	dollar price impact     = sign * (future midpoint - midpoint) * 2
//	percent price impact    = analogous in logs
//
// Every value passes through the float approximation correction: where
// the two reference prices are numerically indistinguishable the result
// is nulled, so the *2 multiplier cannot turn float noise into a signed
// measure. Rows must already carry signs from SignTrades.
//
// The input slice is mutated by the future quote merge; the returned
// slice holds the rows surviving the lock/cross filter.
func ComputeRealizedSpreadPriceImpact(rows []TradeNBBO, nbbo []BBO, cfg CleanConfig) ([]TradeNBBO, error) {
	MergeFutureNBBO(rows, nbbo, cfg.RealizedDelay)

	out := make([]TradeNBBO, 0, len(rows))
	for i := range rows {
		r := rows[i]
		if floatapprox.Equal(r.BestBidNext, r.BestAskNext, cfg.Atol) || r.BestBidNext > r.BestAskNext {
			continue
		}
		out = append(out, r)
	}

	schemes := BaseSchemes
	if cfg.TrackRetail {
		schemes = append(append([]Scheme{}, BaseSchemes...), RetailSchemes...)
	}

	n := len(out)
	price := make([]float64, n)
	mid := make([]float64, n)
	midNext := make([]float64, n)
	for i := range out {
		price[i] = out[i].Price
		mid[i] = out[i].Midpoint
		midNext[i] = out[i].MidpointNext
	}

	for _, s := range schemes {
		drs := make([]float64, n)
		prs := make([]float64, n)
		dpi := make([]float64, n)
		ppi := make([]float64, n)
		for i := range out {
			sign := out[i].Sign(s)
			drs[i] = sign * (price[i] - midNext[i]) * 2
			prs[i] = sign * (safeLog(price[i]) - safeLog(midNext[i])) * 2
			dpi[i] = sign * (midNext[i] - mid[i]) * 2
			ppi[i] = sign * (safeLog(midNext[i]) - safeLog(mid[i])) * 2
		}

		if err := floatapprox.CorrectSeries(drs, price, midNext, cfg.Atol); err != nil {
			return nil, fmt.Errorf("realized spread correction: %w", err)
		}
		if err := floatapprox.CorrectSeries(prs, price, midNext, cfg.Atol); err != nil {
			return nil, fmt.Errorf("realized spread correction: %w", err)
		}
		if err := floatapprox.CorrectSeries(dpi, mid, midNext, cfg.Atol); err != nil {
			return nil, fmt.Errorf("price impact correction: %w", err)
		}
		if err := floatapprox.CorrectSeries(ppi, mid, midNext, cfg.Atol); err != nil {
			return nil, fmt.Errorf("price impact correction: %w", err)
		}

		for i := range out {
			out[i].setMeasure(DollarRealizedSpreadName(s, cfg.RealizedSuffix), drs[i])
			out[i].setMeasure(PercentRealizedSpreadName(s, cfg.RealizedSuffix), prs[i])
			out[i].setMeasure(DollarPriceImpactName(s, cfg.RealizedSuffix), dpi[i])
			out[i].setMeasure(PercentPriceImpactName(s, cfg.RealizedSuffix), ppi[i])
		}
	}

	return out, nil
}
