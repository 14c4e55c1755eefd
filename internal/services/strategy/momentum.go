package strategy

import (
	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

// MomentumSignal is long while the fast moving average is above the slow one.
// Days where either average is undefined are flat. fast < slow is expected but
// not required.
func MomentumSignal(prices models.PriceSeries, fast, slow int) (models.Signal, error) {
	if err := checkPrices(prices, fast, slow); err != nil {
		return models.Signal{}, err
	}
	return prices.Map(func(_ string, p []float64) []float64 {
		return above(features.RollingMean(p, fast), features.RollingMean(p, slow))
	}), nil
}

func Momentum(prices models.PriceSeries, fast, slow int) (models.ValueCurve, error) {
	sig, err := MomentumSignal(prices, fast, slow)
	if err != nil {
		return models.ValueCurve{}, err
	}
	return Compound(prices, sig)
}
