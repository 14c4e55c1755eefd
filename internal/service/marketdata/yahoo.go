package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	xhttp "QuantLab/pkg/http"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/util"
)

const providerYahoo = "yahoo"

// Column selects which price field of the chart payload becomes the series.
type Column int

const (
	Close Column = iota
	AdjClose
)

// YahooProvider reads daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL string
	client  *xhttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics drepo.Metrics
	log     *logger.Logger
}

// YahooOption configures YahooProvider.
type YahooOption func(*YahooProvider)

func WithClient(c *xhttp.Client) YahooOption {
	return func(p *YahooProvider) { p.client = c }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) YahooOption {
	return func(p *YahooProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func WithMetrics(m drepo.Metrics) YahooOption {
	return func(p *YahooProvider) { p.metrics = m }
}

func WithLogger(l *logger.Logger) YahooOption {
	return func(p *YahooProvider) { p.log = l }
}

// NewYahooProvider creates a provider rooted at baseURL.
func NewYahooProvider(baseURL string, opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = xhttp.NewClient(
			xhttp.WithTimeout(15*time.Second),
			xhttp.WithHeader("User-Agent", "Mozilla/5.0 (compatible; quantlab/1.0)"),
		)
	}
	p.breaker = newBreaker(providerYahoo)
	return p
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 5 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
	}
	// a missing ticker is a valid answer, not an outage
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errNoSuchTicker)
	}
	return gobreaker.NewCircuitBreaker(st)
}

var errNoSuchTicker = errors.New("ticker not found")

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// GetPrice returns the daily close of one ticker between start and end,
// both inclusive. Unknown tickers give an empty series.
func (p *YahooProvider) GetPrice(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	return p.fetch(ctx, ticker, start, end, Close)
}

// GetMultiAssetData fetches adjusted closes for every ticker in parallel and
// outer-joins them on date. Tickers without data are left out.
func (p *YahooProvider) GetMultiAssetData(ctx context.Context, tickers []string, start, end time.Time) (models.PriceSeries, error) {
	type result struct {
		ticker string
		series models.PriceSeries
		err    error
	}

	results := make(chan result, len(tickers))
	var wg sync.WaitGroup
	for _, t := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			s, err := p.fetch(ctx, ticker, start, end, AdjClose)
			results <- result{ticker: ticker, series: s, err: err}
		}(t)
	}
	wg.Wait()
	close(results)

	parts := make(map[string]models.PriceSeries, len(tickers))
	for r := range results {
		if r.err != nil {
			return models.PriceSeries{}, fmt.Errorf("fetch %s: %w", r.ticker, r.err)
		}
		if r.series.Empty() {
			p.log.Warn("no data for ticker", logger.String("ticker", r.ticker))
			continue
		}
		parts[r.ticker] = r.series
	}

	order := make([]string, 0, len(parts))
	for _, t := range tickers {
		if _, ok := parts[t]; ok {
			order = append(order, t)
		}
	}
	return OuterJoin(order, parts)
}

func (p *YahooProvider) fetch(ctx context.Context, ticker string, start, end time.Time, col Column) (models.PriceSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return models.PriceSeries{}, err
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.chart(ctx, ticker, start, end)
	})
	if errors.Is(err, errNoSuchTicker) {
		return models.PriceSeries{}, nil
	}
	if err != nil {
		p.recordError()
		return models.PriceSeries{}, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	return toSeries(ticker, out.(*chartResult), col)
}

func (p *YahooProvider) chart(ctx context.Context, ticker string, start, end time.Time) (*chartResult, error) {
	var resp chartResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"period1":              {strconv.FormatInt(util.Day(start).Unix(), 10)},
			"period2":              {strconv.FormatInt(util.Day(end).AddDate(0, 0, 1).Unix(), 10)},
			"interval":             {"1d"},
			"includeAdjustedClose": {"true"},
		},
	}, &resp)

	var se *xhttp.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, errNoSuchTicker
	}
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, errNoSuchTicker
		}
		return nil, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Timestamp) == 0 {
		return nil, errNoSuchTicker
	}
	return &resp.Chart.Result[0], nil
}

func (p *YahooProvider) recordError() {
	if p.metrics != nil {
		p.metrics.RecordUpstreamError(providerYahoo)
	}
}

// toSeries converts chart bars into a one-column series keyed by exchange-local
// calendar day. Null bars become NaN; repeated days keep the later bar.
func toSeries(ticker string, r *chartResult, col Column) (models.PriceSeries, error) {
	var raw []*float64
	if col == AdjClose && len(r.Indicators.AdjClose) > 0 {
		raw = r.Indicators.AdjClose[0].AdjClose
	}
	if raw == nil && len(r.Indicators.Quote) > 0 {
		raw = r.Indicators.Quote[0].Close
	}
	if len(raw) != len(r.Timestamp) {
		return models.PriceSeries{}, fmt.Errorf("%w: %d timestamps, %d prices", models.ErrMisaligned, len(r.Timestamp), len(raw))
	}

	dates := make([]time.Time, 0, len(raw))
	values := make([]float64, 0, len(raw))
	for i, ts := range r.Timestamp {
		d := util.Day(time.Unix(ts+int64(r.Meta.GMTOffset), 0))
		v := math.NaN()
		if raw[i] != nil {
			v = *raw[i]
		}
		if n := len(dates); n > 0 && !d.After(dates[n-1]) {
			if d.Equal(dates[n-1]) {
				values[n-1] = v
			}
			continue
		}
		dates = append(dates, d)
		values = append(values, v)
	}
	return models.NewSeries(dates, []string{ticker}, map[string][]float64{ticker: values})
}

// OuterJoin merges single-column series on the union of their dates. Dates an
// asset has no bar for are NaN. order fixes the column order.
func OuterJoin(order []string, parts map[string]models.PriceSeries) (models.PriceSeries, error) {
	seen := make(map[int64]time.Time)
	for _, s := range parts {
		for _, d := range s.Dates {
			seen[d.Unix()] = d
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[int64]int, len(dates))
	for i, d := range dates {
		index[d.Unix()] = i
	}

	values := make(map[string][]float64, len(order))
	for _, a := range order {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		s := parts[a]
		src := s.Column(a)
		for i, d := range s.Dates {
			col[index[d.Unix()]] = src[i]
		}
		values[a] = col
	}
	return models.NewSeries(dates, order, values)
}
