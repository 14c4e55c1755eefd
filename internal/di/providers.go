package di

import (
	"context"
	"fmt"
	"time"

	"QuantLab/internal/domain/repository"
	domsvc "QuantLab/internal/domain/service"
	"QuantLab/internal/handler/api"
	internalrepo "QuantLab/internal/repository"
	"QuantLab/internal/service/marketdata"
	"QuantLab/internal/service/ratelimit"
	"QuantLab/internal/services/analytics"
	"QuantLab/internal/services/performance"
	"QuantLab/internal/services/portfolio"
	"QuantLab/internal/services/strategy"
	"QuantLab/internal/usecase"
	"QuantLab/pkg/cache"
	pkgch "QuantLab/pkg/clickhouse"
	"QuantLab/pkg/config"
	xhttp "QuantLab/pkg/http"
	pkgkafka "QuantLab/pkg/kafka"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/metrics"
	"QuantLab/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideCache creates the price cache selected by cache.type.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	var c cache.Service
	switch cfg.Cache.Type {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.PoolSize/4, 4*time.Second),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = rc
		if cfg.Cache.Type == "layered" {
			c = cache.NewLayeredCache(rc,
				cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
				cache.WithLayeredMemoryTTL(cfg.MarketData.CacheTTL),
			)
		}
	default:
		c = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.MemoryCleanup),
		)
	}
	l.Info("price cache ready", logger.String("type", cfg.Cache.Type))
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", logger.Error(err))
		}
	}, nil
}

// ProvideYahoo creates the upstream market data client.
func ProvideYahoo(cfg *config.Config, m repository.Metrics, l *logger.Logger) *marketdata.YahooProvider {
	return marketdata.NewYahooProvider(cfg.MarketData.BaseURL,
		marketdata.WithClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.MarketData.Timeout),
			xhttp.WithHeader("User-Agent", "Mozilla/5.0 (compatible; quantlab/1.0)"),
		)),
		marketdata.WithRateLimit(cfg.MarketData.RequestsPerSec, cfg.MarketData.Burst),
		marketdata.WithMetrics(m),
		marketdata.WithLogger(l),
	)
}

// ProvidePriceProvider stacks cache over archive fallback over Yahoo.
func ProvidePriceProvider(cfg *config.Config, yahoo *marketdata.YahooProvider, c cache.Service, m repository.Metrics, l *logger.Logger) repository.PriceProvider {
	var p repository.PriceProvider = yahoo
	if cfg.MarketData.ArchiveDir != "" {
		p = marketdata.NewArchiveProvider(p, internalrepo.NewParquetPriceArchive(cfg.MarketData.ArchiveDir), l)
	}
	return marketdata.NewCachedProvider(p, c, cfg.MarketData.CacheTTL, m, l)
}

// ProvideRateProvider reads the risk-free rate straight from Yahoo and caches
// the rate itself.
func ProvideRateProvider(cfg *config.Config, yahoo *marketdata.YahooProvider, c cache.Service, l *logger.Logger) repository.RateProvider {
	return marketdata.NewRiskFreeProvider(yahoo, cfg.MarketData.RiskFreeTicker, cfg.Analysis.RiskFreeRate,
		c, cfg.MarketData.RateCacheTTL, l)
}

func ProvideEngine(cfg *config.Config) *performance.Engine {
	return performance.NewEngine(cfg.Analysis.TradingDays)
}

func ProvideAggregator(cfg *config.Config) *portfolio.Aggregator {
	return portfolio.NewAggregator(cfg.Analysis.TradingDays, cfg.Analysis.PortfolioBase)
}

// ProvideStrategyDefaults maps the analysis section onto strategy parameters.
// The regime momentum window follows the momentum fast window.
func ProvideStrategyDefaults(cfg *config.Config) strategy.Params {
	a := cfg.Analysis
	return strategy.Params{
		Fast:      a.MomentumFast,
		Slow:      a.MomentumSlow,
		Window:    a.MeanRevWindow,
		Threshold: a.MeanRevThresh,
		Trend:     a.RegimeTrend,
		Mom:       a.MomentumFast,
	}
}

// ProvideForecaster returns nil when no model service is configured; the
// forecast endpoint then answers 502.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	if cfg.Forecast.URL == "" {
		return nil
	}
	return analytics.NewHTTPForecaster(cfg.Forecast.URL, cfg.Forecast.Timeout, cfg.Forecast.Retries)
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse sink
// is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.HasSink("clickhouse") {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.ClickHouseSchema(cfg.ClickHouse.Database+"."+cfg.Reports.ClickHouseTbl)...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka sink is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.HasSink("kafka") {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRunSink assembles every sink listed in reports.sinks.
func ProvideRunSink(
	cfg *config.Config,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	m repository.Metrics,
	l *logger.Logger,
) (*internalrepo.MultiSink, func(), error) {
	var sinks []internalrepo.NamedSink
	for _, name := range cfg.Reports.Sinks {
		switch name {
		case "file":
			sinks = append(sinks, internalrepo.NamedSink{Name: name, Sink: internalrepo.NewFileRunSink(cfg.Reports.FilePath)})
		case "sqlite":
			s, err := internalrepo.NewSQLiteRunStore(cfg.Reports.SQLitePath)
			if err != nil {
				return nil, nil, fmt.Errorf("sqlite sink: %w", err)
			}
			sinks = append(sinks, internalrepo.NamedSink{Name: name, Sink: s})
		case "clickhouse":
			sinks = append(sinks, internalrepo.NamedSink{Name: name,
				Sink: internalrepo.NewClickHouseRunSink(ch.DB(), cfg.ClickHouse.Database+"."+cfg.Reports.ClickHouseTbl)})
		case "kafka":
			sinks = append(sinks, internalrepo.NamedSink{Name: name, Sink: internalrepo.NewKafkaRunSink(producer, cfg.Reports.KafkaTopic)})
		}
	}
	ms := internalrepo.NewMultiSink(m, l, sinks...)
	l.Info("run sinks ready", logger.Strings("sinks", ms.Names()))
	return ms, func() {
		if err := ms.Close(); err != nil {
			l.Warn("run sink close error", logger.Error(err))
		}
	}, nil
}

func ProvideBacktestUseCase(
	cfg *config.Config,
	prices repository.PriceProvider,
	rates repository.RateProvider,
	engine *performance.Engine,
	defaults strategy.Params,
	sink *internalrepo.MultiSink,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(prices, rates, engine, defaults, cfg.Reports.LookbackDays, sink, m, l)
}

func ProvidePortfolioUseCase(
	cfg *config.Config,
	prices repository.PriceProvider,
	rates repository.RateProvider,
	agg *portfolio.Aggregator,
	engine *performance.Engine,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(prices, rates, agg, engine, cfg.Reports.LookbackDays, m, l)
}

func ProvideForecastUseCase(
	cfg *config.Config,
	prices repository.PriceProvider,
	f domsvc.Forecaster,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(prices, f, cfg.Reports.LookbackDays, cfg.Analysis.ForecastHorizon, m, l)
}

func ProvideDailyReportUseCase(
	cfg *config.Config,
	prices repository.PriceProvider,
	rates repository.RateProvider,
	engine *performance.Engine,
	sink *internalrepo.MultiSink,
	l *logger.Logger,
) *usecase.DailyReportUseCase {
	return usecase.NewDailyReportUseCase(prices, rates, engine, sink, cfg.Reports.LookbackDays, l)
}

// ProvideAnalysisHandler wires the HTTP API.
func ProvideAnalysisHandler(
	cfg *config.Config,
	l *logger.Logger,
	bt *usecase.BacktestUseCase,
	pf *usecase.PortfolioUseCase,
	fc *usecase.ForecastUseCase,
	rates repository.RateProvider,
	sink *internalrepo.MultiSink,
) *api.AnalysisHandler {
	h := api.NewAnalysisHandler(l, bt, pf, fc, rates)
	if cfg.HasSink("sqlite") {
		h.SetRunStore(sink)
	}
	h.SetRateLimiter(ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	return h
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisHandler, l *logger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(cfg, srv, l)
}
