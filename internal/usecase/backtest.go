package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/internal/services/performance"
	"QuantLab/internal/services/strategy"
	"QuantLab/pkg/logger"
)

// BacktestUseCase evaluates strategies on one asset.
type BacktestUseCase struct {
	prices   drepo.PriceProvider
	rates    drepo.RateProvider
	engine   *performance.Engine
	defaults strategy.Params
	lookback int
	sink     drepo.RunSink
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewBacktestUseCase(
	prices drepo.PriceProvider,
	rates drepo.RateProvider,
	engine *performance.Engine,
	defaults strategy.Params,
	lookbackDays int,
	sink drepo.RunSink,
	m drepo.Metrics,
	l *logger.Logger,
) *BacktestUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &BacktestUseCase{
		prices:   prices,
		rates:    rates,
		engine:   engine,
		defaults: defaults,
		lookback: lookbackDays,
		sink:     sink,
		metrics:  m,
		log:      l,
		now:      time.Now,
	}
}

type BacktestParams struct {
	Ticker   string
	Start    string
	End      string
	Strategy strategy.Kind
	Params   strategy.Params
}

// BacktestResult is one strategy evaluated over one price history.
type BacktestResult struct {
	RunID     string               `json:"run_id,omitempty"`
	Ticker    string               `json:"ticker"`
	Strategy  strategy.Kind        `json:"strategy"`
	Params    map[string]float64   `json:"params,omitempty"`
	Start     string               `json:"start"`
	End       string               `json:"end"`
	Rows      int                  `json:"rows"`
	LastPrice models.Floats        `json:"last_price"`
	RiskFree  float64              `json:"risk_free_rate"`
	Report    models.MetricsReport `json:"metrics"`
	Curve     models.ValueCurve    `json:"curve"`
}

// Backtest fetches prices, runs one strategy, scores the curve and hands the
// run to the configured sinks. A sink failure is logged, not returned.
func (uc *BacktestUseCase) Backtest(ctx context.Context, p BacktestParams) (*BacktestResult, error) {
	ticker := normalizeTicker(p.Ticker)
	start, end, err := resolvePeriod(p.Start, p.End, uc.lookback, uc.now())
	if err != nil {
		return nil, err
	}
	prices := fetchPrice(ctx, uc.prices, uc.log, ticker, start, end)
	rf := uc.rates.RiskFreeRate(ctx)

	res, err := uc.evaluate(prices, ticker, p.Strategy, p.Params.WithDefaults(uc.defaults), rf)
	if err != nil {
		return nil, err
	}
	res.Start, res.End = start.Format("2006-01-02"), end.Format("2006-01-02")

	if uc.sink != nil {
		run := models.NewBacktestRun(ticker, string(res.Strategy), res.Params, start, end)
		run.LastPrice = res.LastPrice[0]
		run.Report = res.Report
		if err := uc.sink.Save(ctx, run); err != nil {
			uc.log.Warn("backtest run not fully persisted", logger.String("run_id", run.ID.String()), logger.Error(err))
		}
		res.RunID = run.ID.String()
	}
	return res, nil
}

func (uc *BacktestUseCase) evaluate(prices models.PriceSeries, ticker string, k strategy.Kind, params strategy.Params, rf float64) (*BacktestResult, error) {
	started := time.Now()
	curve, err := strategy.Run(k, prices, params)
	uc.record(k, err, time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", k, ticker, err)
	}

	last := prices.Last(prices.Assets[0])
	if uc.metrics != nil {
		uc.metrics.RecordLastPrice(ticker, last)
	}
	return &BacktestResult{
		Ticker:    ticker,
		Strategy:  k,
		Params:    params.For(k),
		Rows:      prices.Len(),
		LastPrice: models.Floats{last},
		RiskFree:  rf,
		Report:    uc.engine.Compute(curve, rf),
		Curve:     curve,
	}, nil
}

func (uc *BacktestUseCase) record(k strategy.Kind, err error, d time.Duration) {
	if uc.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	uc.metrics.RecordBacktest(string(k), result)
	uc.metrics.RecordLatency("strategy."+string(k), d.Seconds())
}

type CompareParams struct {
	Ticker string
	Start  string
	End    string
	Params strategy.Params
}

// CompareResult holds every strategy on the same prices, in display order.
type CompareResult struct {
	Ticker     string            `json:"ticker"`
	Start      string            `json:"start"`
	End        string            `json:"end"`
	RiskFree   float64           `json:"risk_free_rate"`
	Strategies []*BacktestResult `json:"strategies"`
}

// Compare fetches prices once and evaluates all strategies concurrently. Any
// strategy failing on the input fails the whole comparison.
func (uc *BacktestUseCase) Compare(ctx context.Context, p CompareParams) (*CompareResult, error) {
	ticker := normalizeTicker(p.Ticker)
	start, end, err := resolvePeriod(p.Start, p.End, uc.lookback, uc.now())
	if err != nil {
		return nil, err
	}
	prices := fetchPrice(ctx, uc.prices, uc.log, ticker, start, end)
	if prices.Empty() {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrEmptyPrices)
	}
	rf := uc.rates.RiskFreeRate(ctx)
	params := p.Params.WithDefaults(uc.defaults)

	type item struct {
		idx int
		res *BacktestResult
		err error
	}
	ch := make(chan item, len(strategy.Kinds))
	var wg sync.WaitGroup
	for i, k := range strategy.Kinds {
		wg.Add(1)
		go func(i int, k strategy.Kind) {
			defer wg.Done()
			res, err := uc.evaluate(prices, ticker, k, params, rf)
			ch <- item{i, res, err}
		}(i, k)
	}
	go func() { wg.Wait(); close(ch) }()

	out := &CompareResult{
		Ticker:     ticker,
		Start:      start.Format("2006-01-02"),
		End:        end.Format("2006-01-02"),
		RiskFree:   rf,
		Strategies: make([]*BacktestResult, len(strategy.Kinds)),
	}
	var errs []error
	for it := range ch {
		if it.err != nil {
			errs = append(errs, it.err)
			continue
		}
		it.res.Start, it.res.End = out.Start, out.End
		out.Strategies[it.idx] = it.res
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
