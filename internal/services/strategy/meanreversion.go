package strategy

import (
	"math"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

// MeanReversionSignal enters when the z-score drops below -threshold and exits
// once it climbs back to 0 or above. Between the two triggers the last state is
// held. Undefined z-scores (short history, zero deviation) trigger nothing.
func MeanReversionSignal(prices models.PriceSeries, window int, threshold float64) (models.Signal, error) {
	if err := checkPrices(prices, window); err != nil {
		return models.Signal{}, err
	}
	return prices.Map(func(_ string, p []float64) []float64 {
		return holdScan(features.ZScore(p, window), threshold)
	}), nil
}

func holdScan(z []float64, threshold float64) []float64 {
	out := make([]float64, len(z))
	state := 0.0
	for i, v := range z {
		switch {
		case math.IsNaN(v):
		case v >= 0:
			state = 0
		case v < -threshold:
			state = 1
		}
		out[i] = state
	}
	return out
}

func MeanReversion(prices models.PriceSeries, window int, threshold float64) (models.ValueCurve, error) {
	sig, err := MeanReversionSignal(prices, window, threshold)
	if err != nil {
		return models.ValueCurve{}, err
	}
	return Compound(prices, sig)
}
