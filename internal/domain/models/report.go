package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type Metric string

const (
	MetricTotalReturn Metric = "Total Return"
	MetricCAGR        Metric = "CAGR"
	MetricVolatility  Metric = "Volatility"
	MetricSharpe      Metric = "Sharpe Ratio"
	MetricMaxDrawdown Metric = "Max Drawdown"
)

// NotAvailable is rendered for every metric of a degenerate curve.
const NotAvailable = "N/A"

// Metrics lists the report keys in display order.
var Metrics = []Metric{MetricTotalReturn, MetricCAGR, MetricVolatility, MetricSharpe, MetricMaxDrawdown}

// MetricsReport holds the raw statistics of one value curve. When Available is
// false every field renders as NotAvailable.
type MetricsReport struct {
	Available   bool
	TotalReturn float64
	CAGR        float64
	Volatility  float64
	SharpeRatio float64
	MaxDrawdown float64
}

// Formatted renders every metric as a percentage with two decimals, except the
// Sharpe ratio which is a plain two-decimal number.
func (r MetricsReport) Formatted() map[Metric]string {
	out := make(map[Metric]string, len(Metrics))
	for _, m := range Metrics {
		out[m] = r.Get(m)
	}
	return out
}

// Get renders a single metric.
func (r MetricsReport) Get(m Metric) string {
	if !r.Available {
		return NotAvailable
	}
	switch m {
	case MetricTotalReturn:
		return percent(r.TotalReturn)
	case MetricCAGR:
		return percent(r.CAGR)
	case MetricVolatility:
		return percent(r.Volatility)
	case MetricSharpe:
		return fmt.Sprintf("%.2f", r.SharpeRatio)
	case MetricMaxDrawdown:
		return percent(r.MaxDrawdown)
	}
	return NotAvailable
}

// percent scales by 100 in float64 and rounds the exact binary result half to
// even, so ties such as 0.03125 render "3.12%" the way printf-style formatting does.
func percent(v float64) string {
	x := v * 100
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprintf("%.2f%%", x)
	}
	return decimal.NewFromFloatWithExponent(x, minFloatExp).StringFixedBank(2) + "%"
}

// minFloatExp is finer than any float64 fraction, which keeps the conversion exact.
const minFloatExp = -1074

func (r MetricsReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Formatted())
}
