package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
)

var _ drepo.RunSink = (*ClickHouseRunSink)(nil)

// runColumns is the column order shared by the DDL and the INSERT.
var runColumns = []struct{ name, typ string }{
	{"id", "UUID"},
	{"ticker", "LowCardinality(String)"},
	{"strategy", "LowCardinality(String)"},
	{"params", "String"},
	{"start_date", "Date"},
	{"end_date", "Date"},
	{"last_price", "Float64"},
	{"available", "UInt8"},
	{"total_return", "Float64"},
	{"cagr", "Float64"},
	{"volatility", "Float64"},
	{"sharpe", "Float64"},
	{"max_drawdown", "Float64"},
	{"created_at", "DateTime64(3, 'UTC')"},
}

// ClickHouseSchema returns the DDL for the runs table.
func ClickHouseSchema(table string) []string {
	defs := make([]string, len(runColumns))
	for i, c := range runColumns {
		defs[i] = fmt.Sprintf("\t%s %s", c.name, c.typ)
	}
	return []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n) ENGINE = MergeTree\nORDER BY (ticker, strategy, created_at)",
		table, strings.Join(defs, ",\n"))}
}

func insertRunQuery(table string) string {
	names := make([]string, len(runColumns))
	for i, c := range runColumns {
		names[i] = c.name
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(runColumns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), marks)
}

// ClickHouseRunSink appends runs to a ClickHouse table for analytics.
type ClickHouseRunSink struct {
	db    *sql.DB
	table string
}

// NewClickHouseRunSink wraps a connection owned by pkg/clickhouse.Client.
func NewClickHouseRunSink(db *sql.DB, table string) *ClickHouseRunSink {
	return &ClickHouseRunSink{db: db, table: table}
}

func (s *ClickHouseRunSink) Save(ctx context.Context, run *models.BacktestRun) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return err
	}
	var available uint8
	if run.Report.Available {
		available = 1
	}
	r := run.Report
	_, err = s.db.ExecContext(ctx, insertRunQuery(s.table),
		run.ID.String(),
		run.Ticker,
		run.Strategy,
		string(params),
		run.Start,
		run.End,
		run.LastPrice,
		available,
		r.TotalReturn,
		r.CAGR,
		r.Volatility,
		r.SharpeRatio,
		r.MaxDrawdown,
		run.CreatedAt,
	)
	return err
}

func (s *ClickHouseRunSink) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseRunSink) Close() error {
	return nil // Managed by pkg
}
