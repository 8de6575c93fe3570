package taq

import "math"

// Measure column names produced by the spread computations.
const (
	MeasureDollarEffectiveSpread  = "DollarEffectiveSpread"
	MeasurePercentEffectiveSpread = "PercentEffectiveSpread"
)

// Realized spread and price impact measure names, one set per
// classification scheme and horizon suffix.
func DollarRealizedSpreadName(s Scheme, suffix string) string {
	return "DollarRealizedSpread_" + string(s) + suffix
}

func PercentRealizedSpreadName(s Scheme, suffix string) string {
	return "PercentRealizedSpread_" + string(s) + suffix
}

func DollarPriceImpactName(s Scheme, suffix string) string {
	return "DollarPriceImpact_" + string(s) + suffix
}

func PercentPriceImpactName(s Scheme, suffix string) string {
	return "PercentPriceImpact_" + string(s) + suffix
}

// MeasureNames lists every per-trade measure the pipeline produces under
// the given configuration: the two effective spreads plus realized
// spreads and price impacts for each active classification scheme.
func MeasureNames(cfg CleanConfig) []string {
	names := []string{
		MeasureDollarEffectiveSpread,
		MeasurePercentEffectiveSpread,
	}
	schemes := BaseSchemes
	if cfg.TrackRetail {
		schemes = append(schemes, RetailSchemes...)
	}
	for _, s := range schemes {
		names = append(names,
			DollarRealizedSpreadName(s, cfg.RealizedSuffix),
			PercentRealizedSpreadName(s, cfg.RealizedSuffix),
			DollarPriceImpactName(s, cfg.RealizedSuffix),
			PercentPriceImpactName(s, cfg.RealizedSuffix),
		)
	}
	return names
}

// safeLog is the natural log with NaN for non-positive inputs, so a bad
// price yields a null measure for that row instead of -Inf poisoning an
// aggregate.
func safeLog(x float64) float64 {
	if !(x > 0) {
		return math.NaN()
	}
	return math.Log(x)
}

// ComputeEffectiveSpreads returns the merged rows with locked and
// crossed quotes removed and the dollar and percent effective spread
// measures attached:
//
//	dollar  = 2*|price - midpoint|
//	percent = 2*|ln(price) - ln(midpoint)|
//
// The input slice is not modified; the returned slice holds the
// surviving rows.
func ComputeEffectiveSpreads(rows []TradeNBBO) []TradeNBBO {
	out := make([]TradeNBBO, 0, len(rows))
	for i := range rows {
		if rows[i].Lock || rows[i].Cross {
			continue
		}
		r := rows[i]
		if r.Measures != nil {
			m := make(map[string]float64, len(r.Measures)+2)
			for k, v := range r.Measures {
				m[k] = v
			}
			r.Measures = m
		}
		r.setMeasure(MeasureDollarEffectiveSpread, 2*math.Abs(r.Price-r.Midpoint))
		r.setMeasure(MeasurePercentEffectiveSpread, 2*math.Abs(safeLog(r.Price)-safeLog(r.Midpoint)))
		out = append(out, r)
	}
	return out
}
