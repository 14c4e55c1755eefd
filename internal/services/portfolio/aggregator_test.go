package portfolio

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
)

func prices(t *testing.T, cols map[string][]float64, order ...string) models.PriceSeries {
	t.Helper()
	n := len(cols[order[0]])
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}
	s, err := models.NewSeries(dates, order, cols)
	require.NoError(t, err)
	return s
}

func twoAssets(t *testing.T) models.PriceSeries {
	return prices(t, map[string][]float64{
		"AAA": {100, 110, 99, 108.9},
		"BBB": {50, 50, 55, 60.5},
	}, "AAA", "BBB")
}

func TestReturnsDropFirstAndIncompleteRows(t *testing.T) {
	p := prices(t, map[string][]float64{
		"AAA": {100, 110, math.NaN(), 121, 133.1},
		"BBB": {10, 11, 12, 13, 14},
	}, "AAA", "BBB")

	r, err := NewAggregator(252, 100).Returns(p)
	require.NoError(t, err)
	// row 0 has no reference; rows 2 and 3 have an undefined AAA change
	require.Equal(t, 2, r.Len())
	assert.Equal(t, p.Dates[1], r.Dates[0])
	assert.Equal(t, p.Dates[4], r.Dates[1])
	assert.InDelta(t, 0.1, r.Column("AAA")[1], 1e-12)
}

func TestReturnsNoDataForEmptyColumn(t *testing.T) {
	p := prices(t, map[string][]float64{
		"AAA": {100, 110},
		"BBB": {math.NaN(), math.NaN()},
	}, "AAA", "BBB")
	_, err := NewAggregator(252, 100).Returns(p)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestWeightedReturnsNotRenormalized(t *testing.T) {
	a := NewAggregator(252, 100)
	r, err := a.Returns(twoAssets(t))
	require.NoError(t, err)

	half, err := a.WeightedReturns(r, models.Weights{"AAA": 0.25, "BBB": 0.25})
	require.NoError(t, err)
	full, err := a.WeightedReturns(r, models.Weights{"AAA": 0.5, "BBB": 0.5})
	require.NoError(t, err)

	for i := range full.Column(PortfolioColumn) {
		assert.InDelta(t, 2*half.Column(PortfolioColumn)[i], full.Column(PortfolioColumn)[i], 1e-12)
	}
	// day 1: 0.5*0.1 + 0.5*0
	assert.InDelta(t, 0.05, full.Column(PortfolioColumn)[0], 1e-12)
	assert.InDelta(t, 0.025, half.Column(PortfolioColumn)[0], 1e-12)
}

func TestWeightsMustCoverAssets(t *testing.T) {
	a := NewAggregator(252, 100)
	r, err := a.Returns(twoAssets(t))
	require.NoError(t, err)

	_, err = a.WeightedReturns(r, models.Weights{"AAA": 1})
	assert.ErrorIs(t, err, models.ErrWeightsMismatch)

	_, err = a.WeightedReturns(r, models.Weights{"AAA": 0.5, "BBB": 0.3, "ZZZ": 0.2})
	assert.ErrorIs(t, err, models.ErrUnknownAsset)
	assert.True(t, models.IsInputError(err))

	_, err = a.Analyze(twoAssets(t), models.Weights{"AAA": 0.5, "CCC": 0.5})
	assert.ErrorIs(t, err, models.ErrUnknownAsset)
}

func TestValuePinnedToBase(t *testing.T) {
	a := NewAggregator(252, 100)
	daily := single([]time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}, []float64{0.1, 0.1, -0.5})

	v := a.Value(daily).Column(PortfolioColumn)
	assert.Equal(t, 100.0, v[0])
	assert.InDelta(t, 121.0, v[1], 1e-9)
	assert.InDelta(t, 60.5, v[2], 1e-9)

	a.Base = 1
	assert.Equal(t, 1.0, a.Value(daily).Column(PortfolioColumn)[0])
}

func TestPortfolioReturnIsSimpleRatio(t *testing.T) {
	a := NewAggregator(252, 100)
	v := single([]time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, []float64{100, 150})
	// four years apart, but the ratio is not annualized
	assert.InDelta(t, 0.5, a.PortfolioReturn(v), 1e-12)
}

func TestCorrelation(t *testing.T) {
	p := prices(t, map[string][]float64{
		"UP":   {100, 110, 99, 108.9, 119.79},
		"SAME": {50, 55, 49.5, 54.45, 59.895},
		"FLAT": {10, 10, 10, 10, 10},
	}, "UP", "SAME", "FLAT")

	a := NewAggregator(252, 100)
	r, err := a.Returns(p)
	require.NoError(t, err)
	c := a.Correlation(r)

	assert.Equal(t, 1.0, c.At("UP", "UP"))
	assert.Equal(t, 1.0, c.At("FLAT", "FLAT"))
	assert.InDelta(t, 1.0, c.At("UP", "SAME"), 1e-9)
	assert.Equal(t, c.At("UP", "SAME"), c.At("SAME", "UP"))
	assert.True(t, math.IsNaN(c.At("UP", "FLAT")))

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), "null")
}

func TestAnalyze(t *testing.T) {
	res, err := NewAggregator(252, 100).Analyze(twoAssets(t), models.Weights{"AAA": 0.6, "BBB": 0.4})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Returns.Len())
	assert.Equal(t, 100.0, res.Value.Column(PortfolioColumn)[0])
	v := res.Value.Column(PortfolioColumn)
	assert.InDelta(t, v[len(v)-1]/100-1, res.PortfolioReturn, 1e-12)
	assert.Greater(t, res.Volatility, 0.0)
	assert.InDelta(t, 1.0, res.WeightSum, 1e-12)
	assert.Equal(t, []string{"AAA", "BBB"}, res.Correlation.Assets)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := NewAggregator(0, 0).Analyze(models.PriceSeries{}, models.Weights{"AAA": 1})
	assert.ErrorIs(t, err, models.ErrEmptyPrices)
}
