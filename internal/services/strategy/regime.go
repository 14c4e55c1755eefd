package strategy

import (
	"math"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

// Regimes marks each day as bull (true) when the price is above its trend
// moving average. Days without a defined trend average are bear.
func Regimes(prices models.PriceSeries, trendWindow int) (map[string][]bool, error) {
	if err := checkPrices(prices, trendWindow); err != nil {
		return nil, err
	}
	out := make(map[string][]bool, len(prices.Assets))
	for _, a := range prices.Assets {
		p := prices.Column(a)
		trend := features.RollingMean(p, trendWindow)
		bull := make([]bool, len(p))
		for i := range p {
			bull[i] = !math.IsNaN(trend[i]) && p[i] > trend[i]
		}
		out[a] = bull
	}
	return out, nil
}

// RegimeSwitchingSignal follows momentum (price above its momWindow average)
// in bull regimes and the mean-reversion hold rule in bear regimes. The regime
// picks which signal value is used on each day; both signals are computed over
// the full history.
func RegimeSwitchingSignal(prices models.PriceSeries, trendWindow, momWindow, mrWindow int, mrThreshold float64) (models.Signal, error) {
	if err := checkPrices(prices, trendWindow, momWindow, mrWindow); err != nil {
		return models.Signal{}, err
	}
	regimes, err := Regimes(prices, trendWindow)
	if err != nil {
		return models.Signal{}, err
	}
	mom, err := MomentumSignal(prices, 1, momWindow)
	if err != nil {
		return models.Signal{}, err
	}
	mr, err := MeanReversionSignal(prices, mrWindow, mrThreshold)
	if err != nil {
		return models.Signal{}, err
	}
	return prices.Map(func(a string, p []float64) []float64 {
		out := make([]float64, len(p))
		bull, m, r := regimes[a], mom.Column(a), mr.Column(a)
		for i := range p {
			if bull[i] {
				out[i] = m[i]
			} else {
				out[i] = r[i]
			}
		}
		return out
	}), nil
}

func RegimeSwitching(prices models.PriceSeries, trendWindow, momWindow, mrWindow int, mrThreshold float64) (models.ValueCurve, error) {
	sig, err := RegimeSwitchingSignal(prices, trendWindow, momWindow, mrWindow, mrThreshold)
	if err != nil {
		return models.ValueCurve{}, err
	}
	return Compound(prices, sig)
}
