package strategy

import (
	"fmt"
	"math"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

// Compound turns a position signal into a cumulative value curve with base 1.0.
// The signal computed through day t is applied to the return realized on day
// t+1. Missing prices count as a 0 return and missing signal values as a flat
// position.
func Compound(prices models.PriceSeries, signal models.Signal) (models.ValueCurve, error) {
	if prices.Empty() {
		return models.ValueCurve{}, models.ErrEmptyPrices
	}
	if !prices.AlignedWith(signal) {
		return models.ValueCurve{}, fmt.Errorf("compound: %w", models.ErrMisaligned)
	}
	return prices.Map(func(asset string, p []float64) []float64 {
		returns := features.FillNaN(features.PctChange(p), 0)
		applied := features.FillNaN(features.Shift(signal.Column(asset), 1), 0)
		for i := range returns {
			returns[i] *= applied[i]
		}
		return features.CumProd(returns, 1)
	}), nil
}

func checkPrices(prices models.PriceSeries, windows ...int) error {
	if prices.Empty() {
		return models.ErrEmptyPrices
	}
	for _, w := range windows {
		if w < 1 {
			return fmt.Errorf("%w: got %d", models.ErrInvalidWindow, w)
		}
	}
	return nil
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// above returns 1 where a > b and 0 otherwise, including where either is NaN.
func above(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if !math.IsNaN(a[i]) && !math.IsNaN(b[i]) && a[i] > b[i] {
			out[i] = 1
		}
	}
	return out
}
