package usecase

import (
	"context"
	"fmt"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	domsvc "QuantLab/internal/domain/service"
	"QuantLab/pkg/logger"
)

type ForecastUseCase struct {
	prices     drepo.PriceProvider
	forecaster domsvc.Forecaster
	lookback   int
	horizon    int
	metrics    drepo.Metrics
	log        *logger.Logger
	now        func() time.Time
}

func NewForecastUseCase(prices drepo.PriceProvider, f domsvc.Forecaster, lookbackDays, defaultHorizon int, m drepo.Metrics, l *logger.Logger) *ForecastUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &ForecastUseCase{
		prices:     prices,
		forecaster: f,
		lookback:   lookbackDays,
		horizon:    defaultHorizon,
		metrics:    m,
		log:        l,
		now:        time.Now,
	}
}

type ForecastParams struct {
	Ticker  string
	Start   string
	End     string
	Horizon int
}

type ForecastPoint struct {
	Date     string  `json:"date"`
	Forecast float64 `json:"forecast"`
	LowerCI  float64 `json:"lower_ci"`
	UpperCI  float64 `json:"upper_ci"`
}

type ForecastResult struct {
	Ticker    string          `json:"ticker"`
	Model     string          `json:"model"`
	Horizon   int             `json:"horizon"`
	LastDate  string          `json:"last_date"`
	LastPrice models.Floats   `json:"last_price"`
	Points    []ForecastPoint `json:"points"`
}

func (uc *ForecastUseCase) Forecast(ctx context.Context, p ForecastParams) (*ForecastResult, error) {
	if uc.forecaster == nil {
		return nil, fmt.Errorf("%w: forecaster not configured", domsvc.ErrForecastFailed)
	}
	ticker := normalizeTicker(p.Ticker)
	horizon := p.Horizon
	if horizon == 0 {
		horizon = uc.horizon
	}
	start, end, err := resolvePeriod(p.Start, p.End, uc.lookback, uc.now())
	if err != nil {
		return nil, err
	}
	prices := fetchPrice(ctx, uc.prices, uc.log, ticker, start, end)
	if prices.Empty() {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrEmptyPrices)
	}

	started := time.Now()
	f, err := uc.forecaster.Forecast(ctx, prices, horizon)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("forecast", time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	out := &ForecastResult{
		Ticker:    ticker,
		Model:     "ARIMA" + f.Model,
		Horizon:   horizon,
		LastDate:  prices.Dates[prices.Len()-1].Format("2006-01-02"),
		LastPrice: models.Floats{prices.Last(ticker)},
		Points:    make([]ForecastPoint, len(f.Dates)),
	}
	dates := f.DateStrings()
	for i := range f.Dates {
		out.Points[i] = ForecastPoint{Date: dates[i], Forecast: f.Forecast[i], LowerCI: f.LowerCI[i], UpperCI: f.UpperCI[i]}
	}
	return out, nil
}
