package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"QuantLab/internal/di"
	"QuantLab/pkg/config"
	"QuantLab/pkg/logger"
)

var configPath string

// rootCmd is the base command for the QuantLab CLI
var rootCmd = &cobra.Command{
	Use:   "quantctl",
	Short: "QuantLab strategy backtesting and reporting",
	Long: `quantctl runs the QuantLab analytics from the command line: the daily
buy-and-hold report job, one-off strategy backtests and portfolio analysis.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger. CLI logs go to stderr so
// that stdout carries only command output.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}
