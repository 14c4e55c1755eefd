package analytics

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"QuantLab/internal/domain/models"
	domsvc "QuantLab/internal/domain/service"
)

// HTTPForecaster delegates auto-ARIMA fitting to the model service.
type HTTPForecaster struct {
	base     *HTTPServiceBase
	attempts int
}

func NewHTTPForecaster(baseURL string, timeout time.Duration, attempts int) *HTTPForecaster {
	return &HTTPForecaster{base: NewHTTPServiceBase(baseURL, timeout), attempts: attempts}
}

type forecastRequest struct {
	Dates   []string  `json:"dates"`
	Prices  []float64 `json:"prices"`
	Horizon int       `json:"horizon"`
}

type forecastResponse struct {
	Forecast []float64 `json:"forecast"`
	LowerCI  []float64 `json:"lower_ci"`
	UpperCI  []float64 `json:"upper_ci"`
	Order    []int     `json:"order"`
}

// Forecast fits on the first column of prices with missing values dropped.
// Forecast dates are the calendar days following the last observation.
func (f *HTTPForecaster) Forecast(ctx context.Context, prices models.PriceSeries, horizonDays int) (models.Forecast, error) {
	var result models.Forecast
	if horizonDays < 1 {
		return result, fmt.Errorf("%w: horizon %d", models.ErrInvalidWindow, horizonDays)
	}
	if prices.Empty() {
		return result, models.ErrEmptyPrices
	}

	col := prices.Column(prices.Assets[0])
	req := forecastRequest{Horizon: horizonDays}
	var last time.Time
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		req.Dates = append(req.Dates, prices.Dates[i].Format("2006-01-02"))
		req.Prices = append(req.Prices, v)
		last = prices.Dates[i]
	}
	if len(req.Prices) == 0 {
		return result, models.ErrEmptyPrices
	}

	var fr forecastResponse
	if err := f.base.PostJSONWithRetry(ctx, "/forecast", req, &fr, f.attempts); err != nil {
		return result, fmt.Errorf("%w: %v", domsvc.ErrForecastFailed, err)
	}
	if len(fr.Forecast) != horizonDays || len(fr.LowerCI) != horizonDays || len(fr.UpperCI) != horizonDays {
		return result, fmt.Errorf("%w: got %d/%d/%d values for horizon %d", domsvc.ErrForecastFailed,
			len(fr.Forecast), len(fr.LowerCI), len(fr.UpperCI), horizonDays)
	}

	result.Dates = make([]time.Time, horizonDays)
	for i := range result.Dates {
		result.Dates[i] = last.AddDate(0, 0, i+1)
	}
	result.Forecast = fr.Forecast
	result.LowerCI = fr.LowerCI
	result.UpperCI = fr.UpperCI
	result.Model = orderString(fr.Order)
	return result, nil
}

// orderString renders an ARIMA order as "(p, d, q)".
func orderString(order []int) string {
	parts := make([]string, len(order))
	for i, o := range order {
		parts[i] = strconv.Itoa(o)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var _ domsvc.Forecaster = (*HTTPForecaster)(nil)
