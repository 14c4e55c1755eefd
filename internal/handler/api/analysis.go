package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	domsvc "QuantLab/internal/domain/service"
	"QuantLab/internal/service/metrics"
	"QuantLab/internal/service/ratelimit"
	"QuantLab/internal/services/strategy"
	"QuantLab/internal/usecase"
	xhttp "QuantLab/pkg/http"
	xlogger "QuantLab/pkg/logger"
)

// AnalysisHandler exposes the backtest, portfolio and forecast use cases.
type AnalysisHandler struct {
	logger    *xlogger.Logger
	backtest  *usecase.BacktestUseCase
	portfolio *usecase.PortfolioUseCase
	forecast  *usecase.ForecastUseCase
	rates     drepo.RateProvider
	runs      drepo.RunStore
	rl        *ratelimit.Limiter
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	backtest *usecase.BacktestUseCase,
	portfolio *usecase.PortfolioUseCase,
	forecast *usecase.ForecastUseCase,
	rates drepo.RateProvider,
) *AnalysisHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisHandler{
		logger:    logger,
		backtest:  backtest,
		portfolio: portfolio,
		forecast:  forecast,
		rates:     rates,
	}
}

// SetRunStore enables GET /api/runs.
func (h *AnalysisHandler) SetRunStore(s drepo.RunStore) { h.runs = s }

// SetRateLimiter throttles /api per client address.
func (h *AnalysisHandler) SetRateLimiter(rl *ratelimit.Limiter) { h.rl = rl }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.limit)
	g.GET("/backtest", h.Backtest)
	g.GET("/compare", h.Compare)
	g.POST("/portfolio", h.Portfolio)
	g.GET("/forecast", h.Forecast)
	g.GET("/risk-free", h.RiskFree)
	g.GET("/runs", h.Runs)
}

func (h *AnalysisHandler) limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			h.logger.Warn("api rate_limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
		}
		return next(c)
	}
}

func (h *AnalysisHandler) Backtest(c echo.Context) error {
	defer observe("backtest", time.Now())
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// threshold=0 is a valid request (enter on any dip), so presence decides
	_, thresholdSet := c.QueryParams()["threshold"]
	res, err := h.backtest.Backtest(c.Request().Context(), usecase.BacktestParams{
		Ticker:   req.Ticker,
		Start:    req.Start,
		End:      req.End,
		Strategy: strategy.Kind(req.Strategy),
		Params: strategy.Params{
			Fast:      req.Fast,
			Slow:      req.Slow,
			Window:    req.Window,
			Threshold: req.Threshold,
			Trend:     req.Trend,
			Mom:       req.Mom,

			ThresholdSet: thresholdSet,
		},
	})
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Compare(c echo.Context) error {
	defer observe("compare", time.Now())
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtest.Compare(c.Request().Context(), usecase.CompareParams{
		Ticker: req.Ticker,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		return h.fail(c, "compare", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Portfolio(c echo.Context) error {
	defer observe("portfolio", time.Now())
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Analyze(c.Request().Context(), usecase.PortfolioParams{
		Tickers: req.Tickers,
		Weights: req.Weights,
		Start:   req.Start,
		End:     req.End,
		Base:    req.Base,
	})
	if err != nil {
		return h.fail(c, "portfolio", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Forecast(c echo.Context) error {
	defer observe("forecast", time.Now())
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecast.Forecast(c.Request().Context(), usecase.ForecastParams{
		Ticker:  req.Ticker,
		Start:   req.Start,
		End:     req.End,
		Horizon: req.Horizon,
	})
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) RiskFree(c echo.Context) error {
	rate := h.rates.RiskFreeRate(c.Request().Context())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, map[string]float64{"risk_free_rate": rate})
}

func (h *AnalysisHandler) Runs(c echo.Context) error {
	if h.runs == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("run history is not enabled"))
	}
	ticker := c.QueryParam("ticker")
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 20)
	if limit < 1 || limit > 500 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("limit must be between 1 and 500, got %d", limit).
			WithParam("min", 1).WithParam("max", 500))
	}
	runs, err := h.runs.Recent(c.Request().Context(), normalize(ticker), limit)
	if err != nil {
		return h.fail(c, "runs", err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}

// fail maps use case errors to the API envelope: bad input is 400, a failing
// forecaster 502, anything else 500.
func (h *AnalysisHandler) fail(c echo.Context, endpoint string, err error) error {
	switch {
	case models.IsInputError(err):
		metrics.AnalyticsErrors.WithLabelValues(endpoint, "input").Inc()
		h.logger.Debug(endpoint+" rejected input", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, domsvc.ErrForecastFailed):
		metrics.AnalyticsErrors.WithLabelValues(endpoint, "upstream").Inc()
		h.logger.Error(endpoint+" upstream error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("forecast service unavailable").WithError(err))
	default:
		metrics.AnalyticsErrors.WithLabelValues(endpoint, "internal").Inc()
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
	}
}

func observe(endpoint string, start time.Time) {
	metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
