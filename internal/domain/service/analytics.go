package service

import (
	"context"
	"errors"

	"QuantLab/internal/domain/models"
)

// Forecaster calibrates an auto-regressive model on one price column and
// returns point forecasts with confidence bounds for the next horizon days.
type Forecaster interface {
	Forecast(ctx context.Context, prices models.PriceSeries, horizonDays int) (models.Forecast, error)
}

// ErrForecastFailed marks a failure of the forecasting collaborator itself
// (unreachable, bad response), as opposed to bad input.
var ErrForecastFailed = errors.New("forecast service failed")
