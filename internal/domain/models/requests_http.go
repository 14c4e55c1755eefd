package models

// Requests for the HTTP API. Dates are YYYY-MM-DD; empty start/end fall back
// to the configured lookback window ending today.

type BacktestRequest struct {
	Ticker    string  `query:"ticker" json:"ticker" validate:"required"`
	Start     string  `query:"start" json:"start"`
	End       string  `query:"end" json:"end"`
	Strategy  string  `query:"strategy" json:"strategy" default:"buy_and_hold" validate:"oneof=buy_and_hold momentum mean_reversion regime_switching"`
	Fast      int     `query:"fast" json:"fast" validate:"gte=0,lte=1000"`
	Slow      int     `query:"slow" json:"slow" validate:"gte=0,lte=1000"`
	Window    int     `query:"window" json:"window" validate:"gte=0,lte=1000"`
	Threshold float64 `query:"threshold" json:"threshold" validate:"gte=0"`
	Trend     int     `query:"trend" json:"trend" validate:"gte=0,lte=1000"`
	Mom       int     `query:"mom" json:"mom" validate:"gte=0,lte=1000"`
}

type CompareRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Start  string `query:"start" json:"start"`
	End    string `query:"end" json:"end"`
}

type PortfolioRequest struct {
	Tickers []string           `json:"tickers" validate:"required,min=1,dive,required"`
	Weights map[string]float64 `json:"weights" validate:"required,dive,gte=0"`
	Start   string             `json:"start"`
	End     string             `json:"end"`
	Base    float64            `json:"base" validate:"gte=0"`
}

type ForecastRequest struct {
	Ticker  string `query:"ticker" json:"ticker" validate:"required"`
	Start   string `query:"start" json:"start"`
	End     string `query:"end" json:"end"`
	Horizon int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
}
