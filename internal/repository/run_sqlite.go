package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ drepo.RunStore = (*SQLiteRunStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id           TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	params       TEXT NOT NULL,
	start_date   TEXT NOT NULL,
	end_date     TEXT NOT NULL,
	last_price   REAL,
	available    INTEGER NOT NULL,
	total_return REAL,
	cagr         REAL,
	volatility   REAL,
	sharpe       REAL,
	max_drawdown REAL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_ticker ON backtest_runs (ticker, created_at);
`

// SQLiteRunStore keeps run history in a local SQLite database.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY on concurrent saves
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteRunStore{db: db}, nil
}

func (s *SQLiteRunStore) Save(ctx context.Context, run *models.BacktestRun) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return err
	}
	r := run.Report
	_, err = s.db.ExecContext(ctx, `INSERT INTO backtest_runs
		(id, ticker, strategy, params, start_date, end_date, last_price, available,
		 total_return, cagr, volatility, sharpe, max_drawdown, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Ticker, run.Strategy, string(params),
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"), run.LastPrice, r.Available,
		r.TotalReturn, r.CAGR, r.Volatility, r.SharpeRatio, r.MaxDrawdown, run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest runs for ticker, newest first. An empty ticker
// matches every run.
func (s *SQLiteRunStore) Recent(ctx context.Context, ticker string, limit int) ([]*models.BacktestRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ticker, strategy, params, start_date, end_date, last_price,
		available, total_return, cagr, volatility, sharpe, max_drawdown, created_at
		FROM backtest_runs WHERE (? = '' OR ticker = ?) ORDER BY created_at DESC LIMIT ?`,
		ticker, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.BacktestRun
	for rows.Next() {
		var (
			run              models.BacktestRun
			id, params       string
			startStr, endStr string
			createdAt        int64
			nums             [6]sql.NullFloat64
		)
		if err := rows.Scan(&id, &run.Ticker, &run.Strategy, &params, &startStr, &endStr, &nums[0],
			&run.Report.Available, &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &createdAt); err != nil {
			return nil, err
		}
		run.LastPrice = orNaN(nums[0])
		run.Report.TotalReturn = orNaN(nums[1])
		run.Report.CAGR = orNaN(nums[2])
		run.Report.Volatility = orNaN(nums[3])
		run.Report.SharpeRatio = orNaN(nums[4])
		run.Report.MaxDrawdown = orNaN(nums[5])
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, err
		}
		run.Start, _ = time.Parse("2006-01-02", startStr)
		run.End, _ = time.Parse("2006-01-02", endStr)
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// SQLite stores NaN as NULL.
func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
