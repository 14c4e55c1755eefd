package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestRun is the record persisted and published by run sinks.
type BacktestRun struct {
	ID        uuid.UUID          `json:"id"`
	Ticker    string             `json:"ticker"`
	Strategy  string             `json:"strategy"`
	Params    map[string]float64 `json:"params,omitempty"`
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	LastPrice float64            `json:"last_price"`
	Report    MetricsReport      `json:"report"`
	CreatedAt time.Time          `json:"created_at"`
}

func NewBacktestRun(ticker, strategy string, params map[string]float64, start, end time.Time) *BacktestRun {
	return &BacktestRun{
		ID:        uuid.New(),
		Ticker:    ticker,
		Strategy:  strategy,
		Params:    params,
		Start:     start,
		End:       end,
		CreatedAt: time.Now().UTC(),
	}
}
