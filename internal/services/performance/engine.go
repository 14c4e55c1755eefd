package performance

import (
	"math"
	"time"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/features"
)

const (
	DefaultTradingDays = 252
	daysPerYear        = 365.25
	// Spans shorter than this many years are not annualized.
	minCAGRYears = 0.1
)

// Engine derives summary statistics from a cumulative value curve.
type Engine struct {
	TradingDays int
}

func NewEngine(tradingDays int) *Engine {
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	return &Engine{TradingDays: tradingDays}
}

// Compute scores the first column of curve. Missing values are read as 1.0.
// Fewer than two observations produce a report with Available unset.
func (e *Engine) Compute(curve models.ValueCurve, riskFree float64) models.MetricsReport {
	if len(curve.Assets) == 0 || curve.Len() < 2 {
		return models.MetricsReport{}
	}
	v := features.FillNaN(curve.Column(curve.Assets[0]), 1.0)
	if len(v) < 2 {
		return models.MetricsReport{}
	}
	first, last := v[0], v[len(v)-1]

	daily := features.FillNaN(features.PctChange(v), 0)
	vol := features.AnnualizedVolatility(daily, e.TradingDays)
	annual := features.Mean(daily) * float64(e.TradingDays)

	return models.MetricsReport{
		Available:   true,
		TotalReturn: last - 1,
		CAGR:        CAGR(first, last, curve.Dates[0], curve.Dates[len(curve.Dates)-1]),
		Volatility:  vol,
		SharpeRatio: Sharpe(annual, riskFree, vol),
		MaxDrawdown: MaxDrawdown(v),
	}
}

// CAGR is the constant annual growth rate taking first to last between the two
// dates, or 0 when the span is too short to annualize.
func CAGR(first, last float64, from, to time.Time) float64 {
	years := to.Sub(from).Hours() / 24 / daysPerYear
	if years <= minCAGRYears {
		return 0
	}
	return math.Pow(last/first, 1/years) - 1
}

// Sharpe returns (annualReturn - riskFree) / volatility, or 0 when volatility is
// not positive.
func Sharpe(annualReturn, riskFree, volatility float64) float64 {
	if !(volatility > 0) {
		return 0
	}
	return (annualReturn - riskFree) / volatility
}

// MaxDrawdown is the deepest fall from a running peak as a fraction of that
// peak. It is never positive.
func MaxDrawdown(values []float64) float64 {
	var mdd float64
	for i, peak := range features.RunningMax(values) {
		if peak <= 0 {
			continue
		}
		if dd := (values[i] - peak) / peak; dd < mdd {
			mdd = dd
		}
	}
	return mdd
}
