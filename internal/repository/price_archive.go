package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
)

var _ drepo.PriceArchive = (*ParquetPriceArchive)(nil)

// ParquetPriceArchive keeps one Parquet file of daily closes per ticker:
//
//	<DataDir>/<TICKER>.parquet
type ParquetPriceArchive struct {
	DataDir string

	mu sync.Mutex
}

func NewParquetPriceArchive(dataDir string) *ParquetPriceArchive {
	return &ParquetPriceArchive{DataDir: dataDir}
}

// PriceRecord is the on-disk schema. Missing closes are stored as null.
type PriceRecord struct {
	Ticker    string   `parquet:"ticker"`
	Timestamp int64    `parquet:"timestamp,timestamp(millisecond)"`
	Close     *float64 `parquet:"close,optional"`
}

// Store merges prices into the ticker's file, newer values winning per day.
func (a *ParquetPriceArchive) Store(_ context.Context, ticker string, prices models.PriceSeries) error {
	col := prices.Column(ticker)
	if col == nil {
		return fmt.Errorf("%w: %s", models.ErrNoData, ticker)
	}
	incoming := make([]PriceRecord, len(prices.Dates))
	for i, d := range prices.Dates {
		incoming[i] = PriceRecord{Ticker: ticker, Timestamp: d.UnixMilli()}
		if !math.IsNaN(col[i]) {
			v := col[i]
			incoming[i].Close = &v
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.path(ticker)
	existing, _ := readParquetFile[PriceRecord](path)
	if err := writeParquetFile(path, mergePriceRecords(existing, incoming)); err != nil {
		return fmt.Errorf("writing prices for %s: %w", ticker, err)
	}
	return nil
}

// Load returns archived closes in [start, end]. A ticker never stored gives
// an empty series.
func (a *ParquetPriceArchive) Load(_ context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	a.mu.Lock()
	records, err := readParquetFile[PriceRecord](a.path(ticker))
	a.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return models.PriceSeries{}, nil
	}
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("reading prices for %s: %w", ticker, err)
	}

	var dates []time.Time
	var values []float64
	for _, r := range records {
		ts := time.UnixMilli(r.Timestamp).UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		v := math.NaN()
		if r.Close != nil {
			v = *r.Close
		}
		dates = append(dates, ts)
		values = append(values, v)
	}
	if len(dates) == 0 {
		return models.PriceSeries{}, nil
	}
	return models.NewSeries(dates, []string{ticker}, map[string][]float64{ticker: values})
}

func (a *ParquetPriceArchive) path(ticker string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "^", "_").Replace(strings.ToUpper(ticker))
	return filepath.Join(a.DataDir, safe+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	seen := make(map[int64]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
