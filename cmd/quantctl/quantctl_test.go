package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/strategy"
	"QuantLab/internal/usecase"
)

func TestParseWeights(t *testing.T) {
	tickers, w, err := parseWeights([]string{"aapl=0.6", " msft = 0.4", "AAPL=0.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
	assert.InDelta(t, 0.5, w["AAPL"], 1e-12)
	assert.InDelta(t, 0.4, w["MSFT"], 1e-12)

	_, _, err = parseWeights([]string{"AAPL"})
	assert.Error(t, err)
	_, _, err = parseWeights([]string{"AAPL=half"})
	assert.Error(t, err)
}

func TestWriteResultTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeResultTable(&buf, []*usecase.BacktestResult{{
		Ticker: "AAPL", Strategy: strategy.KindMomentum, Start: "2024-01-01", End: "2024-06-30",
		Report: models.MetricsReport{Available: true, TotalReturn: 0.1234, SharpeRatio: 1.5},
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "SHARPE RATIO")
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "12.34%")
	assert.Contains(t, out, "1.50")
}
