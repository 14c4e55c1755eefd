package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Series is a date-indexed table of per-asset values. It is the shape shared by
// price tables, position signals and cumulative value curves. Missing values are
// NaN. Dates are strictly increasing; gaps are allowed and never forward-filled.
type Series struct {
	Dates  []time.Time
	Assets []string
	Values map[string][]float64
}

// PriceSeries holds closing prices.
type PriceSeries = Series

// Signal holds the target position weight per asset per day (0.0 or 1.0 here).
type Signal = Series

// ValueCurve holds the compounded value of a strategy, base 1.0.
type ValueCurve = Series

// NewSeries builds a Series after checking date order and column lengths.
func NewSeries(dates []time.Time, assets []string, values map[string][]float64) (Series, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return Series{}, fmt.Errorf("%w: %s after %s", ErrUnsortedDates,
				dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}
	for _, a := range assets {
		col, ok := values[a]
		if !ok {
			return Series{}, fmt.Errorf("%w: %s", ErrNoData, a)
		}
		if len(col) != len(dates) {
			return Series{}, fmt.Errorf("%w: %s has %d values for %d dates", ErrMisaligned, a, len(col), len(dates))
		}
	}
	return Series{Dates: dates, Assets: assets, Values: values}, nil
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Dates) }

// Empty reports whether the series has no rows or no columns.
func (s Series) Empty() bool { return len(s.Dates) == 0 || len(s.Assets) == 0 }

// Column returns the values for one asset (nil if absent). The slice is shared.
func (s Series) Column(asset string) []float64 { return s.Values[asset] }

// Has reports whether the asset is a column of the series.
func (s Series) Has(asset string) bool {
	_, ok := s.Values[asset]
	return ok
}

// Last returns the last value of the asset column, NaN when unavailable.
func (s Series) Last(asset string) float64 {
	col := s.Values[asset]
	if len(col) == 0 {
		return math.NaN()
	}
	return col[len(col)-1]
}

// Map builds a new series on the same index by applying fn to every column.
func (s Series) Map(fn func(asset string, col []float64) []float64) Series {
	out := Series{Dates: s.Dates, Assets: s.Assets, Values: make(map[string][]float64, len(s.Assets))}
	for _, a := range s.Assets {
		out.Values[a] = fn(a, s.Values[a])
	}
	return out
}

// Select returns the sub-table for the given assets.
func (s Series) Select(assets ...string) (Series, error) {
	out := Series{Dates: s.Dates, Assets: make([]string, 0, len(assets)), Values: make(map[string][]float64, len(assets))}
	for _, a := range assets {
		col, ok := s.Values[a]
		if !ok {
			return Series{}, fmt.Errorf("%w: %s", ErrNoData, a)
		}
		out.Assets = append(out.Assets, a)
		out.Values[a] = col
	}
	return out, nil
}

// AlignedWith reports whether o has the same index and columns as s.
func (s Series) AlignedWith(o Series) bool {
	if len(s.Dates) != len(o.Dates) {
		return false
	}
	for i := range s.Dates {
		if !s.Dates[i].Equal(o.Dates[i]) {
			return false
		}
	}
	for _, a := range s.Assets {
		if len(o.Values[a]) != len(s.Dates) {
			return false
		}
	}
	return true
}

// Floats marshals NaN and Inf as JSON null.
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(f))
	for i := range f {
		if math.IsNaN(f[i]) || math.IsInf(f[i], 0) {
			continue
		}
		v := f[i]
		out[i] = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null entries back as NaN.
func (f *Floats) UnmarshalJSON(b []byte) error {
	var in []*float64
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*f = out
	return nil
}

type seriesJSON struct {
	Dates  []string          `json:"dates"`
	Assets []string          `json:"assets"`
	Values map[string]Floats `json:"values"`
}

// MarshalJSON renders dates as YYYY-MM-DD and missing values as null.
func (s Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{Dates: make([]string, len(s.Dates)), Assets: s.Assets, Values: make(map[string]Floats, len(s.Assets))}
	for i, d := range s.Dates {
		out.Dates[i] = d.Format("2006-01-02")
	}
	for _, a := range s.Assets {
		out.Values[a] = Floats(s.Values[a])
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON and revalidates the table.
func (s *Series) UnmarshalJSON(b []byte) error {
	var in seriesJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	dates := make([]time.Time, len(in.Dates))
	for i, d := range in.Dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return fmt.Errorf("series date %q: %w", d, err)
		}
		dates[i] = t
	}
	values := make(map[string][]float64, len(in.Values))
	for a, col := range in.Values {
		values[a] = []float64(col)
	}
	out, err := NewSeries(dates, in.Assets, values)
	if err != nil {
		return err
	}
	*s = out
	return nil
}
