package models

import (
	"encoding/json"
	"math"
)

// Weights maps an asset to its portfolio fraction. Weights should sum to 1.0
// but are used as given.
type Weights map[string]float64

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// CorrelationMatrix is a symmetric asset x asset matrix of Pearson
// correlations. Pairs involving a zero-variance series are NaN.
type CorrelationMatrix struct {
	Assets []string
	Values [][]float64
}

// At returns the correlation between two assets, NaN if either is unknown.
func (c CorrelationMatrix) At(a, b string) float64 {
	i, j := -1, -1
	for k, name := range c.Assets {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return c.Values[i][j]
}

func (c CorrelationMatrix) MarshalJSON() ([]byte, error) {
	rows := make([]Floats, len(c.Values))
	for i, r := range c.Values {
		rows[i] = Floats(r)
	}
	return json.Marshal(struct {
		Assets []string `json:"assets"`
		Values []Floats `json:"values"`
	}{c.Assets, rows})
}

// PortfolioResult is everything the aggregator derives from a price table and
// a weight vector.
type PortfolioResult struct {
	Returns         Series            `json:"returns"`
	PortfolioDaily  Series            `json:"portfolio_returns"`
	Value           Series            `json:"value"`
	PortfolioReturn float64           `json:"portfolio_return"`
	Volatility      float64           `json:"volatility"`
	Correlation     CorrelationMatrix `json:"correlation"`
	WeightSum       float64           `json:"weight_sum"`
}
