package strategy

import "QuantLab/internal/domain/models"

// BuyAndHoldSignal is fully long on every day.
func BuyAndHoldSignal(prices models.PriceSeries) (models.Signal, error) {
	if err := checkPrices(prices); err != nil {
		return models.Signal{}, err
	}
	return prices.Map(func(_ string, p []float64) []float64 {
		return constant(len(p), 1)
	}), nil
}

// BuyAndHold reproduces the raw cumulative return of each asset.
func BuyAndHold(prices models.PriceSeries) (models.ValueCurve, error) {
	sig, err := BuyAndHoldSignal(prices)
	if err != nil {
		return models.ValueCurve{}, err
	}
	return Compound(prices, sig)
}
