package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/util"
)

// resolvePeriod parses optional YYYY-MM-DD bounds. A missing end is today and
// a missing start is lookbackDays before end.
func resolvePeriod(start, end string, lookbackDays int, now time.Time) (time.Time, time.Time, error) {
	e := util.Day(now)
	if end != "" {
		t, ok := util.ParseDate(end)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", models.ErrInvalidDate, end)
		}
		e = t
	}
	s := e.AddDate(0, 0, -lookbackDays)
	if start != "" {
		t, ok := util.ParseDate(start)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", models.ErrInvalidDate, start)
		}
		s = t
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is not before end %s",
			models.ErrInvalidDate, util.FormatDate(s), util.FormatDate(e))
	}
	return s, e, nil
}

// fetchPrice loads one ticker. Upstream failures are logged and read as "no
// data" so the core reports them as empty input.
func fetchPrice(ctx context.Context, p drepo.PriceProvider, l *logger.Logger, ticker string, start, end time.Time) models.PriceSeries {
	s, err := p.GetPrice(ctx, ticker, start, end)
	if err != nil {
		l.Error("price fetch failed", logger.String("ticker", ticker),
			logger.String("start", util.FormatDate(start)), logger.String("end", util.FormatDate(end)), logger.Error(err))
		return models.PriceSeries{}
	}
	return s
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
