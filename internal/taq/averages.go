package taq

import (
	"fmt"
	"math"
)

// Weighting names a weight column and the suffix appended to measure
// names in the aggregated output. An empty column means a simple
// (unweighted) average.
type Weighting struct {
	Column string
	Suffix string
}

// Weight column names understood by ComputeAverages.
const (
	WeightDollar = "dollar" // trade dollar value
	WeightSize   = "size"   // trade share volume
)

// DefaultWeightings is the standard set: simple, dollar-volume-weighted
// and share-volume-weighted averages.
var DefaultWeightings = []Weighting{
	{Column: "", Suffix: "_Ave"},
	{Column: WeightDollar, Suffix: "_DW"},
	{Column: WeightSize, Suffix: "_SW"},
}

// ComputeAverages aggregates measure columns into one weighted average
// per measure per weighting scheme per symbol. The result maps symbol to
// measure-name-plus-suffix to value.
//
// Rows with a null measure or a null weight are excluded cell by cell:
// a row missing one measure still contributes to the others, and a row
// missing the dollar weight still contributes to the simple average. A
// cell that cannot be computed (no surviving rows, or zero total
// weight) is NaN rather than an error, so one bad symbol/measure pair
// never aborts the batch. An unknown weight column is a configuration
// error and is reported before any averaging.
func ComputeAverages(rows []TradeNBBO, measures []string, weightings []Weighting) (map[string]map[string]float64, error) {
	return ComputeAveragesBy(rows, func(r *TradeNBBO) string { return r.Symbol }, measures, weightings)
}

// ComputeAveragesBy is ComputeAverages with a caller-supplied grouping
// key.
func ComputeAveragesBy(rows []TradeNBBO, key func(*TradeNBBO) string, measures []string, weightings []Weighting) (map[string]map[string]float64, error) {
	for _, w := range weightings {
		if _, err := weightValue(&TradeNBBO{}, w.Column); err != nil {
			return nil, err
		}
	}

	type cell struct {
		wv, w float64
		n     int
	}
	cells := make(map[string]map[string]*cell)

	for i := range rows {
		r := &rows[i]
		g := key(r)
		gc := cells[g]
		if gc == nil {
			gc = make(map[string]*cell, len(measures)*len(weightings))
			cells[g] = gc
		}
		for _, m := range measures {
			v := r.Measure(m)
			if isNull(v) {
				continue
			}
			for _, wt := range weightings {
				w, _ := weightValue(r, wt.Column)
				if isNull(w) {
					continue
				}
				name := m + wt.Suffix
				c := gc[name]
				if c == nil {
					c = &cell{}
					gc[name] = c
				}
				c.wv += w * v
				c.w += w
				c.n++
			}
		}
	}

	out := make(map[string]map[string]float64, len(cells))
	for g, gc := range cells {
		row := make(map[string]float64, len(measures)*len(weightings))
		for _, m := range measures {
			for _, wt := range weightings {
				name := m + wt.Suffix
				c := gc[name]
				if c == nil || c.n == 0 || c.w == 0 {
					row[name] = math.NaN()
					continue
				}
				row[name] = c.wv / c.w
			}
		}
		out[g] = row
	}
	return out, nil
}

func weightValue(r *TradeNBBO, column string) (float64, error) {
	switch column {
	case "":
		return 1, nil
	case WeightDollar:
		return r.Dollar, nil
	case WeightSize:
		return r.Size, nil
	default:
		return 0, fmt.Errorf("taq: unknown weight column %q", column)
	}
}
