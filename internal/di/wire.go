//go:build wireinject
// +build wireinject

package di

import (
	"QuantLab/internal/usecase"
	"QuantLab/pkg/config"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/server"

	"github.com/google/wire"
)

var marketSet = wire.NewSet(
	ProvideMetrics,
	ProvideCache,
	ProvideYahoo,
	ProvidePriceProvider,
	ProvideRateProvider,
	ProvideEngine,
)

var sinkSet = wire.NewSet(
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideRunSink,
)

// InitializeApp wires up all dependencies and returns the API application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, l *logger.Logger) (*server.App, func(), error) {
	wire.Build(
		marketSet,
		sinkSet,
		ProvideAggregator,
		ProvideStrategyDefaults,
		ProvideForecaster,

		// Use cases
		ProvideBacktestUseCase,
		ProvidePortfolioUseCase,
		ProvideForecastUseCase,

		// HTTP
		ProvideAnalysisHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeDailyReport wires the daily report job used by the CLI.
func InitializeDailyReport(cfg *config.Config, l *logger.Logger) (*usecase.DailyReportUseCase, func(), error) {
	wire.Build(marketSet, sinkSet, ProvideDailyReportUseCase)
	return nil, nil, nil
}

// InitializeBacktest wires the backtest use case for one-shot CLI runs.
func InitializeBacktest(cfg *config.Config, l *logger.Logger) (*usecase.BacktestUseCase, func(), error) {
	wire.Build(marketSet, sinkSet, ProvideStrategyDefaults, ProvideBacktestUseCase)
	return nil, nil, nil
}

// InitializePortfolio wires the portfolio use case for one-shot CLI runs.
func InitializePortfolio(cfg *config.Config, l *logger.Logger) (*usecase.PortfolioUseCase, func(), error) {
	wire.Build(marketSet, ProvideAggregator, ProvidePortfolioUseCase)
	return nil, nil, nil
}
