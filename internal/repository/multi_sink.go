package repository

import (
	"context"
	"errors"
	"fmt"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/pkg/logger"
)

var _ drepo.RunSink = (*MultiSink)(nil)

// NamedSink pairs a sink with the label used in logs and metrics.
type NamedSink struct {
	Name string
	Sink drepo.RunSink
}

// MultiSink fans a run out to every configured sink. A failing sink does not
// stop the others; the errors are joined.
type MultiSink struct {
	sinks   []NamedSink
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewMultiSink(m drepo.Metrics, l *logger.Logger, sinks ...NamedSink) *MultiSink {
	if l == nil {
		l = logger.Nop()
	}
	return &MultiSink{sinks: sinks, metrics: m, log: l}
}

// Names lists the wrapped sinks in order.
func (s *MultiSink) Names() []string {
	out := make([]string, len(s.sinks))
	for i, ns := range s.sinks {
		out[i] = ns.Name
	}
	return out
}

func (s *MultiSink) Save(ctx context.Context, run *models.BacktestRun) error {
	var errs []error
	for _, ns := range s.sinks {
		result := "ok"
		if err := ns.Sink.Save(ctx, run); err != nil {
			result = "error"
			s.log.Error("run sink failed", logger.String("sink", ns.Name),
				logger.String("ticker", run.Ticker), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", ns.Name, err))
		}
		if s.metrics != nil {
			s.metrics.RecordSinkWrite(ns.Name, result)
		}
	}
	return errors.Join(errs...)
}

// Recent reads from the first sink that keeps history.
func (s *MultiSink) Recent(ctx context.Context, ticker string, limit int) ([]*models.BacktestRun, error) {
	for _, ns := range s.sinks {
		if store, ok := ns.Sink.(drepo.RunStore); ok {
			return store.Recent(ctx, ticker, limit)
		}
	}
	return nil, nil
}

func (s *MultiSink) Close() error {
	var errs []error
	for _, ns := range s.sinks {
		if err := ns.Sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ns.Name, err))
		}
	}
	return errors.Join(errs...)
}
