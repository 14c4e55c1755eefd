package repository

import (
	"context"
	"math"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	pkgkafka "QuantLab/pkg/kafka"
)

var _ drepo.RunSink = (*KafkaRunSink)(nil)

// KafkaRunSink publishes each run as a JSON event keyed by ticker so runs of
// one asset stay ordered within a partition.
type KafkaRunSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRunSink(producer *pkgkafka.Producer, topic string) *KafkaRunSink {
	return &KafkaRunSink{producer: producer, topic: topic}
}

func (p *KafkaRunSink) Save(ctx context.Context, run *models.BacktestRun) error {
	return p.producer.Publish(ctx, p.topic, []byte(run.Ticker), runEvent(run))
}

func (p *KafkaRunSink) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func runEvent(r *models.BacktestRun) map[string]interface{} {
	return map[string]interface{}{
		"id":         r.ID.String(),
		"ticker":     r.Ticker,
		"strategy":   r.Strategy,
		"params":     r.Params,
		"start":      r.Start.Format("2006-01-02"),
		"end":        r.End.Format("2006-01-02"),
		"last_price": finiteOrNil(r.LastPrice),
		"metrics":    r.Report.Formatted(),
		"created_at": r.CreatedAt,
	}
}

func finiteOrNil(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
