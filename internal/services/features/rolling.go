package features

import "math"

// RollingMean returns the trailing arithmetic mean over window observations.
// out[i] is NaN until the window is full or while it contains a NaN.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		m, ok := windowMean(xs[i-window+1 : i+1])
		if ok {
			out[i] = m
		}
	}
	return out
}

// RollingStd returns the trailing sample standard deviation (n-1 denominator).
// A window of 1 has no defined sample deviation and yields all NaN.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]
		m, ok := windowMean(w)
		if !ok {
			continue
		}
		out[i] = math.Sqrt(sumSquares(w, m) / float64(window-1))
	}
	return out
}

// ZScore returns (x - mean) / std over a trailing window. Positions where the
// deviation is zero or undefined are NaN.
func ZScore(xs []float64, window int) []float64 {
	mean := RollingMean(xs, window)
	std := RollingStd(xs, window)
	out := nanSlice(len(xs))
	for i := range xs {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (xs[i] - mean[i]) / std[i]
	}
	return out
}

func windowMean(w []float64) (float64, bool) {
	var sum float64
	for _, v := range w {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(w)), true
}

func sumSquares(w []float64, mean float64) float64 {
	var ss float64
	for _, v := range w {
		d := v - mean
		ss += d * d
	}
	return ss
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
