// Package floatapprox provides tolerance-based floating point comparisons
// used throughout the quote cleaning and trade classification pipeline.
//
// Trade prices and quote midpoints are often equal in the data but differ
// by a few ULPs after arithmetic. Plain == comparisons then misclassify
// locks, crosses and at-the-quote trades, and 2*(price-midpoint) style
// measures pick up the sign of the noise. All equality tests on prices go
// through this package instead.
//
// Unlike IEEE semantics, two NaN values compare equal here. A missing bid
// and a missing ask must count as "equal" for lock detection so that rows
// with no quote on either side are excluded from the spread sample.
package floatapprox

import (
	"fmt"
	"math"
)

// DefaultAtol is the default absolute tolerance for price comparisons.
const DefaultAtol = 1e-6

// Equal reports whether a and b are within atol of each other.
// NaN equals NaN.
func Equal(a, b, atol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= atol
}

// Zero reports whether a is within atol of zero.
func Zero(a, atol float64) bool {
	return Equal(a, 0, atol)
}

// EqualSeries compares two series element-wise for approximate equality.
// The series must have the same length; a mismatch means the caller lost
// row alignment somewhere upstream and the result would be garbage.
func EqualSeries(s1, s2 []float64, atol float64) ([]bool, error) {
	if len(s1) != len(s2) {
		return nil, fmt.Errorf("floatapprox: series length mismatch: %d != %d", len(s1), len(s2))
	}
	out := make([]bool, len(s1))
	for i := range s1 {
		out[i] = Equal(s1[i], s2[i], atol)
	}
	return out, nil
}

// CorrectSeries sets series[i] to NaN wherever s1[i] and s2[i] are
// approximately equal. Used to null realized spreads and price impacts
// where the trade price and the reference midpoint are numerically
// indistinguishable, so the *2 multiplier does not amplify float noise
// into a spurious signed measure. Modifies series in place.
func CorrectSeries(series, s1, s2 []float64, atol float64) error {
	if len(s1) != len(s2) {
		return fmt.Errorf("floatapprox: series length mismatch: %d != %d", len(s1), len(s2))
	}
	if len(series) != len(s1) {
		return fmt.Errorf("floatapprox: series length mismatch: %d != %d", len(series), len(s1))
	}
	for i := range series {
		if Equal(s1[i], s2[i], atol) {
			series[i] = math.NaN()
		}
	}
	return nil
}
