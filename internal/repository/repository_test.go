package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
	pkgkafka "QuantLab/pkg/kafka"
	"QuantLab/pkg/metrics"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func sampleRun(ticker string) *models.BacktestRun {
	run := models.NewBacktestRun(ticker, "buy_and_hold", map[string]float64{"window": 20}, day("2023-06-01"), day("2024-06-01"))
	run.LastPrice = 192.254
	run.Report = models.MetricsReport{
		Available:   true,
		TotalReturn: 0.1234,
		CAGR:        0.1201,
		Volatility:  0.2150,
		SharpeRatio: 0.38,
		MaxDrawdown: -0.0876,
	}
	return run
}

func TestWriteDailyReport(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteDailyReport(&b, sampleRun("AAPL")))

	want := "\n========================================\n" +
		"📅 DAILY REPORT - 2024-06-01\n" +
		"========================================\n" +
		"🔹 Asset            : AAPL\n" +
		"💰 Closing price  : 192.25 $\n" +
		"📈 Performance (1Y) : 12.34%\n" +
		"📉 Max Drawdown     : -8.76%\n" +
		"📊 Volatility       : 21.50%\n" +
		"----------------------------------------\n"
	assert.Equal(t, want, b.String())
}

func TestFileRunSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "daily.txt")
	s := NewFileRunSink(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRun("AAPL")))
	require.NoError(t, s.Save(ctx, sampleRun("MSFT")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "DAILY REPORT"))
	assert.Less(t, strings.Index(string(b), "AAPL"), strings.Index(string(b), "MSFT"))
}

func TestSQLiteRunStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	older := sampleRun("AAPL")
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer := sampleRun("AAPL")
	newer.LastPrice = math.NaN()
	other := sampleRun("MSFT")
	for _, r := range []*models.BacktestRun{older, newer, other} {
		require.NoError(t, s.Save(ctx, r))
	}

	runs, err := s.Recent(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
	assert.True(t, math.IsNaN(runs[0].LastPrice))
	assert.Equal(t, older.Report, runs[1].Report)
	assert.Equal(t, map[string]float64{"window": 20}, runs[1].Params)
	assert.Equal(t, day("2023-06-01"), runs[1].Start)

	all, err := s.Recent(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestParquetPriceArchive(t *testing.T) {
	a := NewParquetPriceArchive(t.TempDir())
	ctx := context.Background()

	first, err := models.NewSeries(
		[]time.Time{day("2024-01-02"), day("2024-01-03")},
		[]string{"^TNX"},
		map[string][]float64{"^TNX": {3.9, math.NaN()}},
	)
	require.NoError(t, err)
	require.NoError(t, a.Store(ctx, "^TNX", first))

	second, err := models.NewSeries(
		[]time.Time{day("2024-01-03"), day("2024-01-04")},
		[]string{"^TNX"},
		map[string][]float64{"^TNX": {3.95, 4.0}},
	)
	require.NoError(t, err)
	require.NoError(t, a.Store(ctx, "^TNX", second))

	got, err := a.Load(ctx, "^TNX", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, []float64{3.9, 3.95, 4.0}, got.Column("^TNX"))

	got, err = a.Load(ctx, "^TNX", day("2024-01-03"), day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	missing, err := a.Load(ctx, "ZZZ", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	assert.True(t, missing.Empty())
}

func TestParquetPriceArchiveKeepsMissingCloses(t *testing.T) {
	a := NewParquetPriceArchive(t.TempDir())
	s, err := models.NewSeries([]time.Time{day("2024-01-02"), day("2024-01-03")}, []string{"X"},
		map[string][]float64{"X": {1, math.NaN()}})
	require.NoError(t, err)
	require.NoError(t, a.Store(context.Background(), "X", s))

	got, err := a.Load(context.Background(), "X", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Column("X")[1]))
}

type stubSink struct {
	err    error
	saved  int
	closed bool
}

func (s *stubSink) Save(context.Context, *models.BacktestRun) error {
	s.saved++
	return s.err
}

func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

type sinkMetrics struct {
	metrics.Nop
	writes map[string]string
}

func (m *sinkMetrics) RecordSinkWrite(sink, result string) { m.writes[sink] = result }

func TestMultiSinkFanOut(t *testing.T) {
	good := &stubSink{}
	bad := &stubSink{err: errors.New("disk full")}
	m := &sinkMetrics{writes: map[string]string{}}

	ms := NewMultiSink(m, nil, NamedSink{"file", good}, NamedSink{"sqlite", bad})
	err := ms.Save(context.Background(), sampleRun("AAPL"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: disk full")
	assert.Equal(t, 1, good.saved)
	assert.Equal(t, 1, bad.saved)
	assert.Equal(t, map[string]string{"file": "ok", "sqlite": "error"}, m.writes)
	assert.Equal(t, []string{"file", "sqlite"}, ms.Names())

	require.NoError(t, ms.Close())
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaRunSink(t *testing.T) {
	w := &recordingWriter{}
	s := NewKafkaRunSink(pkgkafka.NewProducerWithWriter(w, "gzip"), "quantlab.backtests")

	run := sampleRun("AAPL")
	run.LastPrice = math.NaN()
	require.NoError(t, s.Save(context.Background(), run))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.Equal(t, "quantlab.backtests", w.msgs[0].Topic)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, run.ID.String(), event["id"])
	assert.Nil(t, event["last_price"])
	assert.Equal(t, "12.34%", event["metrics"].(map[string]interface{})["Total Return"])
}
