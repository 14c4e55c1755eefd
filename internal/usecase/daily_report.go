package usecase

import (
	"context"
	"fmt"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/internal/services/performance"
	"QuantLab/internal/services/strategy"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/util"
)

// DailyReportUseCase scores one year of Buy & Hold for a ticker and writes the
// run to every sink.
type DailyReportUseCase struct {
	prices   drepo.PriceProvider
	rates    drepo.RateProvider
	engine   *performance.Engine
	sink     drepo.RunSink
	lookback int
	log      *logger.Logger
	now      func() time.Time
}

func NewDailyReportUseCase(prices drepo.PriceProvider, rates drepo.RateProvider, engine *performance.Engine, sink drepo.RunSink, lookbackDays int, l *logger.Logger) *DailyReportUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &DailyReportUseCase{
		prices:   prices,
		rates:    rates,
		engine:   engine,
		sink:     sink,
		lookback: lookbackDays,
		log:      l,
		now:      time.Now,
	}
}

// Run produces the report for ticker ending today. Sink errors are returned
// together with the run so callers can still print it.
func (uc *DailyReportUseCase) Run(ctx context.Context, ticker string) (*models.BacktestRun, error) {
	ticker = normalizeTicker(ticker)
	start, end := util.Lookback(uc.now(), uc.lookback)
	uc.log.Info("daily report started", logger.String("ticker", ticker),
		logger.String("start", util.FormatDate(start)), logger.String("end", util.FormatDate(end)))

	prices := fetchPrice(ctx, uc.prices, uc.log, ticker, start, end)
	if prices.Empty() {
		uc.log.Warn("no data for daily report", logger.String("ticker", ticker))
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrNoData)
	}

	curve, err := strategy.BuyAndHold(prices)
	if err != nil {
		return nil, err
	}

	run := models.NewBacktestRun(ticker, string(strategy.KindBuyAndHold), nil, start, end)
	run.LastPrice = prices.Last(ticker)
	run.Report = uc.engine.Compute(curve, uc.rates.RiskFreeRate(ctx))

	if uc.sink == nil {
		return run, nil
	}
	if err := uc.sink.Save(ctx, run); err != nil {
		return run, fmt.Errorf("save report: %w", err)
	}
	uc.log.Info("daily report written", logger.String("ticker", ticker), logger.String("run_id", run.ID.String()))
	return run, nil
}
