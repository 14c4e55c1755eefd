package features

import "math"

// PctChange computes r_t = x_t / x_{t-1} - 1. The first element is NaN, as is
// any element whose inputs are missing.
func PctChange(xs []float64) []float64 {
	out := nanSlice(len(xs))
	for i := 1; i < len(xs); i++ {
		prev, cur := xs[i-1], xs[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			continue
		}
		out[i] = cur/prev - 1
	}
	return out
}

// FillNaN returns a copy of xs with NaN replaced by v.
func FillNaN(xs []float64, v float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = v
			continue
		}
		out[i] = x
	}
	return out
}

// Shift moves values forward by n periods. The first n positions become NaN.
func Shift(xs []float64, n int) []float64 {
	out := nanSlice(len(xs))
	for i := n; i < len(xs); i++ {
		out[i] = xs[i-n]
	}
	return out
}

// CumProd returns the running product of (1 + r_t) starting from base.
func CumProd(returns []float64, base float64) []float64 {
	out := make([]float64, len(returns))
	v := base
	for i, r := range returns {
		v *= 1 + r
		out[i] = v
	}
	return out
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std is the sample standard deviation, NaN below two observations.
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return math.Sqrt(sumSquares(xs, Mean(xs)) / float64(len(xs)-1))
}

// AnnualizedVolatility scales the sample deviation of periodic returns by
// sqrt(periodsPerYear).
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return Std(returns) * math.Sqrt(float64(periodsPerYear))
}

// Pearson returns the correlation coefficient of two equal-length series, NaN
// when either has zero variance or fewer than two points.
func Pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// RunningMax returns the maximum observed at or before each position.
func RunningMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	peak := math.Inf(-1)
	for i, x := range xs {
		if x > peak {
			peak = x
		}
		out[i] = peak
	}
	return out
}
