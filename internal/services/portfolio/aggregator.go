package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

const (
	DefaultBase        = 100.0
	DefaultTradingDays = 252

	// PortfolioColumn names the single column of portfolio-level series.
	PortfolioColumn = "Portfolio"
)

// Aggregator combines per-asset returns into a weighted portfolio.
type Aggregator struct {
	TradingDays int
	Base        float64
}

func NewAggregator(tradingDays int, base float64) *Aggregator {
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	if base <= 0 {
		base = DefaultBase
	}
	return &Aggregator{TradingDays: tradingDays, Base: base}
}

// Returns computes daily percentage changes per asset. The first row and every
// row with an undefined value in any column are dropped.
func (a *Aggregator) Returns(prices models.PriceSeries) (models.Series, error) {
	if prices.Empty() {
		return models.Series{}, models.ErrEmptyPrices
	}
	changes := make(map[string][]float64, len(prices.Assets))
	for _, asset := range prices.Assets {
		col := prices.Column(asset)
		if allNaN(col) {
			return models.Series{}, fmt.Errorf("%w: %s", models.ErrNoData, asset)
		}
		changes[asset] = features.PctChange(col)
	}

	out := models.Series{Assets: prices.Assets, Values: make(map[string][]float64, len(prices.Assets))}
	for i := 1; i < prices.Len(); i++ {
		complete := true
		for _, asset := range prices.Assets {
			if math.IsNaN(changes[asset][i]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		out.Dates = append(out.Dates, prices.Dates[i])
		for _, asset := range prices.Assets {
			out.Values[asset] = append(out.Values[asset], changes[asset][i])
		}
	}
	return out, nil
}

// WeightedReturns is the per-day dot product of the return row and the weight
// vector. Weights must name exactly the return columns and are used as given,
// without normalization.
func (a *Aggregator) WeightedReturns(returns models.Series, weights models.Weights) (models.Series, error) {
	if err := checkWeights(returns.Assets, weights); err != nil {
		return models.Series{}, err
	}
	out := make([]float64, returns.Len())
	for _, asset := range returns.Assets {
		w := weights[asset]
		for i, r := range returns.Column(asset) {
			out[i] += w * r
		}
	}
	return single(returns.Dates, out), nil
}

func checkWeights(assets []string, weights models.Weights) error {
	known := make(map[string]bool, len(assets))
	for _, a := range assets {
		known[a] = true
	}
	var unknown []string
	for a := range weights {
		if !known[a] {
			unknown = append(unknown, a)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %v", models.ErrUnknownAsset, unknown)
	}
	for _, a := range assets {
		if _, ok := weights[a]; !ok {
			return fmt.Errorf("%w: missing weight for %s", models.ErrWeightsMismatch, a)
		}
	}
	return nil
}

// Value compounds portfolio returns into a curve scaled to Base. The first
// point is pinned to exactly Base.
func (a *Aggregator) Value(portfolioReturns models.Series) models.Series {
	r := portfolioReturns.Column(PortfolioColumn)
	v := features.CumProd(r, a.Base)
	if len(v) > 0 {
		v[0] = a.Base
	}
	return single(portfolioReturns.Dates, v)
}

// PortfolioReturn is last/first - 1 of the value curve. It is a plain total
// return over the window, not annualized like performance.CAGR.
func (a *Aggregator) PortfolioReturn(value models.Series) float64 {
	v := value.Column(PortfolioColumn)
	if len(v) == 0 {
		return math.NaN()
	}
	return v[len(v)-1]/v[0] - 1
}

// Volatility annualizes the sample deviation of daily portfolio returns.
func (a *Aggregator) Volatility(portfolioReturns models.Series) float64 {
	return features.AnnualizedVolatility(portfolioReturns.Column(PortfolioColumn), a.TradingDays)
}

// Correlation returns the Pearson correlation matrix of the return columns.
func (a *Aggregator) Correlation(returns models.Series) models.CorrelationMatrix {
	n := len(returns.Assets)
	m := models.CorrelationMatrix{Assets: returns.Assets, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i, ai := range returns.Assets {
		m.Values[i][i] = 1
		for j := i + 1; j < n; j++ {
			c := features.Pearson(returns.Column(ai), returns.Column(returns.Assets[j]))
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

// Analyze runs the whole pipeline. Every column of prices is a selected asset
// and weights must cover exactly those columns.
func (a *Aggregator) Analyze(prices models.PriceSeries, weights models.Weights) (models.PortfolioResult, error) {
	if prices.Empty() {
		return models.PortfolioResult{}, models.ErrEmptyPrices
	}
	for asset := range weights {
		if !prices.Has(asset) {
			return models.PortfolioResult{}, fmt.Errorf("%w: %s", models.ErrUnknownAsset, asset)
		}
	}
	returns, err := a.Returns(prices)
	if err != nil {
		return models.PortfolioResult{}, err
	}
	if returns.Len() == 0 {
		return models.PortfolioResult{}, fmt.Errorf("%w: no overlapping dates", models.ErrNoData)
	}
	daily, err := a.WeightedReturns(returns, weights)
	if err != nil {
		return models.PortfolioResult{}, err
	}
	value := a.Value(daily)
	return models.PortfolioResult{
		Returns:         returns,
		PortfolioDaily:  daily,
		Value:           value,
		PortfolioReturn: a.PortfolioReturn(value),
		Volatility:      a.Volatility(daily),
		Correlation:     a.Correlation(returns),
		WeightSum:       weights.Sum(),
	}, nil
}

func single(dates []time.Time, values []float64) models.Series {
	return models.Series{
		Dates:  dates,
		Assets: []string{PortfolioColumn},
		Values: map[string][]float64{PortfolioColumn: values},
	}
}

func allNaN(xs []float64) bool {
	for _, x := range xs {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}
