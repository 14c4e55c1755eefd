package analytics

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
	domsvc "QuantLab/internal/domain/service"
)

func prices(t *testing.T, values ...float64) models.PriceSeries {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, len(values))
	for i := range values {
		dates[i] = start.AddDate(0, 0, i)
	}
	s, err := models.NewSeries(dates, []string{"AAPL"}, map[string][]float64{"AAPL": values})
	require.NoError(t, err)
	return s
}

func TestHTTPForecaster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		var req forecastRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []float64{10, 12}, req.Prices)
		assert.Equal(t, []string{"2024-03-01", "2024-03-03"}, req.Dates)
		assert.Equal(t, 2, req.Horizon)
		_ = json.NewEncoder(w).Encode(forecastResponse{
			Forecast: []float64{12.1, 12.2},
			LowerCI:  []float64{11, 10.5},
			UpperCI:  []float64{13.2, 13.9},
			Order:    []int{1, 1, 0},
		})
	}))
	defer srv.Close()

	f := NewHTTPForecaster(srv.URL, time.Second, 1)
	out, err := f.Forecast(context.Background(), prices(t, 10, math.NaN(), 12), 2)
	require.NoError(t, err)
	assert.Equal(t, "(1, 1, 0)", out.Model)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05"}, out.DateStrings())
	assert.Equal(t, []float64{12.1, 12.2}, out.Forecast)
	assert.Equal(t, []float64{13.2, 13.9}, out.UpperCI)
}

func TestHTTPForecasterRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(forecastResponse{
			Forecast: []float64{1}, LowerCI: []float64{0}, UpperCI: []float64{2}, Order: []int{0, 1, 0},
		})
	}))
	defer srv.Close()

	out, err := NewHTTPForecaster(srv.URL, time.Second, 3).Forecast(context.Background(), prices(t, 1, 2), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, out.Forecast, 1)
}

func TestHTTPForecasterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "cannot fit", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	f := NewHTTPForecaster(srv.URL, time.Second, 3)
	_, err := f.Forecast(context.Background(), prices(t, 1, 2, 3), 5)
	assert.ErrorIs(t, err, domsvc.ErrForecastFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")

	_, err = f.Forecast(context.Background(), models.PriceSeries{}, 5)
	assert.ErrorIs(t, err, models.ErrEmptyPrices)

	_, err = f.Forecast(context.Background(), prices(t, 1, 2), 0)
	assert.ErrorIs(t, err, models.ErrInvalidWindow)

	_, err = NewHTTPForecaster("", time.Second, 1).Forecast(context.Background(), prices(t, 1, 2), 1)
	assert.ErrorIs(t, err, domsvc.ErrForecastFailed)
}
