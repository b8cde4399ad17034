package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrendResult is an ordinary least squares fit of a track against its index,
// with the two-sided p-value of the slope.
type TrendResult struct {
	Slope       float64
	Intercept   float64
	Correlation float64
	PValue      float64
}

// linearTrend regresses values against 0..n-1. With fewer than 3 points the
// p-value is 1 (no significance can be claimed).
func linearTrend(values []float64) TrendResult {
	n := len(values)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	r := stat.Correlation(xs, values, nil)

	res := TrendResult{
		Slope:       slope,
		Intercept:   intercept,
		Correlation: r,
		PValue:      1,
	}
	if n < 3 {
		return res
	}

	// Two-sided t-test on the slope via the correlation coefficient.
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		res.PValue = 0
		return res
	}
	t := r * math.Sqrt(df/denom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	res.PValue = 2 * tDist.CDF(-math.Abs(t))
	return res
}
