package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
	"QuantLab/pkg/cache"
	"QuantLab/pkg/metrics"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// 14:30 UTC on 2024-01-02, 03, 04 (09:30 in New York)
const chartAAPL = `{"chart":{"result":[{"meta":{"symbol":"AAPL","gmtoffset":-18000},
 "timestamp":[1704205800,1704292200,1704378600],
 "indicators":{"quote":[{"close":[185.5,null,181.25]}],"adjclose":[{"adjclose":[184.9,183.1,180.7]}]}}],"error":null}}`

const chartMSFT = `{"chart":{"result":[{"meta":{"symbol":"MSFT","gmtoffset":-18000},
 "timestamp":[1704292200,1704378600,1704465000],
 "indicators":{"quote":[{"close":[370.6,367.9,367.7]}],"adjclose":[{"adjclose":[369,366,365]}]}}],"error":null}}`

func yahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		switch {
		case strings.HasSuffix(r.URL.Path, "/AAPL"):
			fmt.Fprint(w, chartAAPL)
		case strings.HasSuffix(r.URL.Path, "/MSFT"):
			fmt.Fprint(w, chartMSFT)
		case strings.HasSuffix(r.URL.Path, "/BOOM"):
			http.Error(w, "upstream down", http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		}
	}))
}

func TestYahooGetPrice(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()

	p := NewYahooProvider(srv.URL, WithRateLimit(100, 10))
	s, err := p.GetPrice(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"AAPL"}, s.Assets)
	assert.Equal(t, day("2024-01-02"), s.Dates[0])
	assert.Equal(t, day("2024-01-04"), s.Dates[2])
	col := s.Column("AAPL")
	assert.InDelta(t, 185.5, col[0], 1e-9)
	assert.True(t, math.IsNaN(col[1]))
	assert.InDelta(t, 181.25, col[2], 1e-9)
}

func TestYahooUnknownTickerIsEmpty(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()

	p := NewYahooProvider(srv.URL, WithRateLimit(100, 10))
	s, err := p.GetPrice(context.Background(), "NOPE", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestYahooUpstreamErrorCounted(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()

	m := &countingMetrics{}
	p := NewYahooProvider(srv.URL, WithRateLimit(100, 10), WithMetrics(m))
	_, err := p.GetPrice(context.Background(), "BOOM", day("2024-01-01"), day("2024-01-05"))
	require.Error(t, err)
	assert.Equal(t, 1, m.upstream)
}

func TestYahooMultiAssetOuterJoin(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()

	p := NewYahooProvider(srv.URL, WithRateLimit(100, 10))
	s, err := p.GetMultiAssetData(context.Background(), []string{"AAPL", "NOPE", "MSFT"}, day("2024-01-01"), day("2024-01-06"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, s.Assets)
	require.Equal(t, 4, s.Len())
	aapl, msft := s.Column("AAPL"), s.Column("MSFT")
	// adjusted closes, not raw
	assert.InDelta(t, 184.9, aapl[0], 1e-9)
	assert.True(t, math.IsNaN(msft[0]))
	assert.True(t, math.IsNaN(aapl[3]))
	assert.InDelta(t, 365.0, msft[3], 1e-9)
}

func TestRiskFreeRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[1704205800,1704292200],
			"indicators":{"quote":[{"close":[3.95,null]}]}}]}}`)
	}))
	defer srv.Close()

	c := cache.NewMemoryCache()
	defer c.Close()
	p := NewRiskFreeProvider(NewYahooProvider(srv.URL, WithRateLimit(100, 10)), "^TNX", 0.04, c, time.Hour, nil)
	assert.InDelta(t, 0.0395, p.RiskFreeRate(context.Background()), 1e-12)

	srv.Close()
	// served from cache once upstream is gone
	assert.InDelta(t, 0.0395, p.RiskFreeRate(context.Background()), 1e-12)
}

func TestRiskFreeRateFallback(t *testing.T) {
	p := NewRiskFreeProvider(&fakePrices{err: errors.New("dial tcp: refused")}, "^TNX", 0.04, nil, 0, nil)
	assert.InDelta(t, 0.04, p.RiskFreeRate(context.Background()), 1e-12)

	p = NewRiskFreeProvider(&fakePrices{}, "^TNX", 0.025, nil, 0, nil)
	assert.InDelta(t, 0.025, p.RiskFreeRate(context.Background()), 1e-12)
}

func TestCachedProviderHitMiss(t *testing.T) {
	series := oneColumn("AAPL", []float64{1, 2, 3})
	next := &fakePrices{series: series}
	c := cache.NewMemoryCache()
	defer c.Close()
	m := &countingMetrics{}

	p := NewCachedProvider(next, c, time.Minute, m, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s, err := p.GetPrice(ctx, "AAPL", day("2024-01-01"), day("2024-01-03"))
		require.NoError(t, err)
		assert.Equal(t, series.Dates, s.Dates)
		assert.Equal(t, series.Column("AAPL"), s.Column("AAPL"))
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 2, m.hits)
	assert.Equal(t, 1, m.misses)

	require.NoError(t, p.Invalidate(ctx))
	_, err := p.GetPrice(ctx, "AAPL", day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedProviderSkipsEmpty(t *testing.T) {
	next := &fakePrices{}
	c := cache.NewMemoryCache()
	defer c.Close()

	p := NewCachedProvider(next, c, time.Minute, metrics.Nop{}, nil)
	for i := 0; i < 2; i++ {
		s, err := p.GetPrice(context.Background(), "NOPE", day("2024-01-01"), day("2024-01-03"))
		require.NoError(t, err)
		assert.True(t, s.Empty())
	}
	assert.Equal(t, 2, next.calls)
}

func TestArchiveProviderFallback(t *testing.T) {
	series := oneColumn("AAPL", []float64{10, 11, 12})
	archive := &memArchive{data: map[string]models.PriceSeries{}}
	up := &fakePrices{series: series}

	p := NewArchiveProvider(up, archive, nil)
	_, err := p.GetPrice(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	require.Contains(t, archive.data, "AAPL")

	up.err = errors.New("timeout")
	s, err := p.GetPrice(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, s.Column("AAPL"))

	_, err = p.GetPrice(context.Background(), "MSFT", day("2024-01-01"), day("2024-01-03"))
	assert.Error(t, err)
}

func oneColumn(asset string, values []float64) models.PriceSeries {
	dates := make([]time.Time, len(values))
	for i := range values {
		dates[i] = day("2024-01-01").AddDate(0, 0, i)
	}
	s, _ := models.NewSeries(dates, []string{asset}, map[string][]float64{asset: values})
	return s
}

type fakePrices struct {
	series models.PriceSeries
	err    error
	calls  int
}

func (f *fakePrices) GetPrice(_ context.Context, ticker string, _, _ time.Time) (models.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return models.PriceSeries{}, f.err
	}
	if !f.series.Has(ticker) {
		return models.PriceSeries{}, nil
	}
	return f.series, nil
}

func (f *fakePrices) GetMultiAssetData(ctx context.Context, tickers []string, start, end time.Time) (models.PriceSeries, error) {
	return f.GetPrice(ctx, tickers[0], start, end)
}

type memArchive struct {
	data map[string]models.PriceSeries
}

func (a *memArchive) Store(_ context.Context, ticker string, s models.PriceSeries) error {
	a.data[ticker] = s
	return nil
}

func (a *memArchive) Load(_ context.Context, ticker string, _, _ time.Time) (models.PriceSeries, error) {
	return a.data[ticker], nil
}

type countingMetrics struct {
	metrics.Nop
	hits, misses, upstream int
}

func (m *countingMetrics) RecordCache(result string) {
	if result == "hit" {
		m.hits++
		return
	}
	m.misses++
}

func (m *countingMetrics) RecordUpstreamError(string) { m.upstream++ }
