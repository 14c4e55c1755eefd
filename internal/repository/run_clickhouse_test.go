package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickHouseRunSinkSave(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	run := sampleRun("AAPL")
	mock.ExpectExec(insertRunQuery("quantlab.backtest_runs")).
		WithArgs(
			run.ID.String(), "AAPL", "buy_and_hold", `{"window":20}`,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			192.254, uint8(1),
			0.1234, 0.1201, 0.2150, 0.38, -0.0876,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewClickHouseRunSink(db, "quantlab.backtest_runs")
	require.NoError(t, sink.Save(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseRunSinkSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("table is read-only"))
	err = NewClickHouseRunSink(db, "runs").Save(context.Background(), sampleRun("MSFT"))
	assert.ErrorContains(t, err, "read-only")
}

func TestClickHouseSchemaMatchesInsert(t *testing.T) {
	ddl := ClickHouseSchema("quantlab.backtest_runs")
	require.Len(t, ddl, 1)
	assert.True(t, strings.HasPrefix(ddl[0], "CREATE TABLE IF NOT EXISTS quantlab.backtest_runs ("))
	assert.Contains(t, ddl[0], "ENGINE = MergeTree")

	q := insertRunQuery("quantlab.backtest_runs")
	cols := regexp.MustCompile(`\(([^)]*)\) VALUES \(([^)]*)\)`).FindStringSubmatch(q)
	require.Len(t, cols, 3)
	names := strings.Split(cols[1], ", ")
	assert.Len(t, names, 14)
	assert.Len(t, strings.Split(cols[2], ", "), len(names))
	for _, n := range names {
		assert.Regexp(t, `(?m)^\t`+n+` `, ddl[0], "column %s missing from DDL", n)
	}
}
