package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/internal/services/performance"
	"QuantLab/internal/services/portfolio"
	"QuantLab/pkg/logger"
)

const weightTolerance = 1e-6

type PortfolioUseCase struct {
	prices   drepo.PriceProvider
	rates    drepo.RateProvider
	agg      *portfolio.Aggregator
	engine   *performance.Engine
	lookback int
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewPortfolioUseCase(
	prices drepo.PriceProvider,
	rates drepo.RateProvider,
	agg *portfolio.Aggregator,
	engine *performance.Engine,
	lookbackDays int,
	m drepo.Metrics,
	l *logger.Logger,
) *PortfolioUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &PortfolioUseCase{
		prices:   prices,
		rates:    rates,
		agg:      agg,
		engine:   engine,
		lookback: lookbackDays,
		metrics:  m,
		log:      l,
		now:      time.Now,
	}
}

type PortfolioParams struct {
	Tickers []string
	Weights map[string]float64
	Start   string
	End     string
	// Base overrides the configured starting value when positive.
	Base float64
}

type PortfolioOutcome struct {
	Tickers  []string             `json:"tickers"`
	Weights  models.Weights       `json:"weights"`
	Start    string               `json:"start"`
	End      string               `json:"end"`
	RiskFree float64              `json:"risk_free_rate"`
	Report   models.MetricsReport `json:"metrics"`
	models.PortfolioResult
}

// Analyze fetches adjusted prices for the tickers and aggregates them with
// the given weights. Weights are used as given; a sum away from 1 is only
// logged.
func (uc *PortfolioUseCase) Analyze(ctx context.Context, p PortfolioParams) (*PortfolioOutcome, error) {
	tickers := make([]string, 0, len(p.Tickers))
	seen := make(map[string]bool, len(p.Tickers))
	for _, t := range p.Tickers {
		t = normalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers", models.ErrEmptyPrices)
	}
	weights := make(models.Weights, len(p.Weights))
	for t, w := range p.Weights {
		weights[normalizeTicker(t)] = w
	}

	start, end, err := resolvePeriod(p.Start, p.End, uc.lookback, uc.now())
	if err != nil {
		return nil, err
	}

	prices, err := uc.prices.GetMultiAssetData(ctx, tickers, start, end)
	if err != nil {
		uc.log.Error("multi-asset fetch failed", logger.Strings("tickers", tickers), logger.Error(err))
		prices = models.PriceSeries{}
	}
	if prices.Empty() {
		return nil, models.ErrEmptyPrices
	}
	for _, t := range tickers {
		if !prices.Has(t) {
			return nil, fmt.Errorf("%w: %s", models.ErrNoData, t)
		}
	}

	if sum := weights.Sum(); math.Abs(sum-1) > weightTolerance {
		uc.log.Warn("portfolio weights do not sum to 1", logger.Float("sum", sum), logger.Strings("tickers", tickers))
	}

	agg := uc.agg
	if p.Base > 0 && p.Base != agg.Base {
		agg = portfolio.NewAggregator(agg.TradingDays, p.Base)
	}
	started := time.Now()
	result, err := agg.Analyze(prices, weights)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("portfolio.analyze", time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	rf := uc.rates.RiskFreeRate(ctx)
	return &PortfolioOutcome{
		Tickers:         tickers,
		Weights:         weights,
		Start:           start.Format("2006-01-02"),
		End:             end.Format("2006-01-02"),
		RiskFree:        rf,
		Report:          uc.engine.Compute(rebase(result.Value, agg.Base), rf),
		PortfolioResult: result,
	}, nil
}

// rebase divides a value curve by its starting capital so the metrics engine
// sees growth of 1.0.
func rebase(v models.ValueCurve, base float64) models.ValueCurve {
	return v.Map(func(_ string, col []float64) []float64 {
		out := make([]float64, len(col))
		for i, x := range col {
			out[i] = x / base
		}
		return out
	})
}
