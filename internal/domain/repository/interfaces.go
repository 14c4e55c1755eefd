package repository

import (
	"context"
	"time"

	"QuantLab/internal/domain/models"
)

// PriceProvider fetches daily closing prices. A ticker with no data yields an
// empty series, not an error.
type PriceProvider interface {
	GetPrice(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error)
	GetMultiAssetData(ctx context.Context, tickers []string, start, end time.Time) (models.PriceSeries, error)
}

// RateProvider returns the annualized risk-free rate as a fraction (0.04 = 4%).
// Implementations fall back to a configured value instead of failing.
type RateProvider interface {
	RiskFreeRate(ctx context.Context) float64
}

// PriceArchive keeps a local copy of fetched prices.
type PriceArchive interface {
	Store(ctx context.Context, ticker string, prices models.PriceSeries) error
	Load(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error)
}

// RunSink persists or publishes a finished backtest.
type RunSink interface {
	Save(ctx context.Context, run *models.BacktestRun) error
	Close() error
}

// RunStore is a RunSink that can also list what it saved.
type RunStore interface {
	RunSink
	Recent(ctx context.Context, ticker string, limit int) ([]*models.BacktestRun, error)
}

type Metrics interface {
	RecordBacktest(strategy, result string)
	RecordUpstreamError(provider string)
	RecordCache(result string)
	RecordSinkWrite(sink, result string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
