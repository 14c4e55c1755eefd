package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"QuantLab/internal/di"
	"QuantLab/internal/repository"
	"QuantLab/pkg/logger"
)

var reportTicker string

// reportCmd runs the daily buy-and-hold report for one ticker.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the daily buy-and-hold report",
	Long: `Fetch the last year of prices for a ticker, evaluate buy-and-hold and
write the report block to stdout and to every configured run sink.

Examples:
  quantctl report
  quantctl report --ticker MSFT`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportTicker, "ticker", "", "ticker to report on (default: reports.default_ticker)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	ticker := strings.ToUpper(strings.TrimSpace(reportTicker))
	if ticker == "" {
		ticker = cfg.Reports.DefaultTicker
	}

	uc, cleanup, err := di.InitializeDailyReport(cfg, l)
	if err != nil {
		return fmt.Errorf("daily report init: %w", err)
	}
	defer cleanup()

	run, err := uc.Run(cmd.Context(), ticker)
	if run != nil {
		if werr := repository.WriteDailyReport(cmd.OutOrStdout(), run); werr != nil {
			return werr
		}
	}
	if err != nil {
		if run != nil {
			// the report was computed; only a sink failed
			l.Warn("daily report saved partially", logger.String("ticker", ticker), logger.Error(err))
			return nil
		}
		return fmt.Errorf("daily report for %s: %w", ticker, err)
	}
	l.Info("daily report complete", logger.String("ticker", ticker), logger.Strings("sinks", cfg.Reports.Sinks))
	return nil
}
