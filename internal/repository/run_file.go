package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
)

var _ drepo.RunSink = (*FileRunSink)(nil)

// FileRunSink appends a human readable daily report block per run to a text
// file. The file is never truncated.
type FileRunSink struct {
	path string
	mu   sync.Mutex
}

func NewFileRunSink(path string) *FileRunSink {
	return &FileRunSink{path: path}
}

func (s *FileRunSink) Save(_ context.Context, run *models.BacktestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	if err := WriteDailyReport(f, run); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (s *FileRunSink) Close() error { return nil }

const reportRule = "========================================"

// WriteDailyReport renders one report block for run.
func WriteDailyReport(w io.Writer, run *models.BacktestRun) error {
	var b strings.Builder
	b.WriteString("\n" + reportRule + "\n")
	fmt.Fprintf(&b, "📅 DAILY REPORT - %s\n", run.End.Format("2006-01-02"))
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "🔹 Asset            : %s\n", run.Ticker)
	fmt.Fprintf(&b, "💰 Closing price  : %.2f $\n", run.LastPrice)
	fmt.Fprintf(&b, "📈 Performance (1Y) : %s\n", run.Report.Get(models.MetricTotalReturn))
	fmt.Fprintf(&b, "📉 Max Drawdown     : %s\n", run.Report.Get(models.MetricMaxDrawdown))
	fmt.Fprintf(&b, "📊 Volatility       : %s\n", run.Report.Get(models.MetricVolatility))
	b.WriteString(strings.Repeat("-", len(reportRule)) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
