package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"QuantLab/internal/di"
	"QuantLab/internal/domain/models"
	"QuantLab/internal/services/strategy"
	"QuantLab/internal/usecase"
)

var (
	btStrategy  string
	btStart     string
	btEnd       string
	btFormat    string
	btCompare   bool
	btFast      int
	btSlow      int
	btWindow    int
	btThreshold float64
	btTrend     int
	btMom       int
)

// backtestCmd evaluates one strategy, or all of them with --compare.
var backtestCmd = &cobra.Command{
	Use:   "backtest TICKER",
	Short: "Backtest a strategy on a ticker",
	Long: `Fetch prices for TICKER and evaluate a strategy. Window flags left at
zero take the configured defaults.

Examples:
  quantctl backtest AAPL
  quantctl backtest AAPL --strategy momentum --fast 10 --slow 30
  quantctl backtest SPY --compare --start 2020-01-01 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVar(&btStrategy, "strategy", string(strategy.KindBuyAndHold), "buy_and_hold|momentum|mean_reversion|regime_switching")
	f.StringVar(&btStart, "start", "", "start date YYYY-MM-DD (default: end minus lookback)")
	f.StringVar(&btEnd, "end", "", "end date YYYY-MM-DD (default: today)")
	f.StringVar(&btFormat, "format", "table", "output format (table|json)")
	f.BoolVar(&btCompare, "compare", false, "evaluate every strategy")
	f.IntVar(&btFast, "fast", 0, "momentum fast window")
	f.IntVar(&btSlow, "slow", 0, "momentum slow window")
	f.IntVar(&btWindow, "window", 0, "mean-reversion window")
	f.Float64Var(&btThreshold, "threshold", 0, "mean-reversion z-score threshold (0 enters on any dip)")
	f.IntVar(&btTrend, "trend", 0, "regime trend window")
	f.IntVar(&btMom, "mom", 0, "regime momentum window")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	uc, cleanup, err := di.InitializeBacktest(cfg, l)
	if err != nil {
		return fmt.Errorf("backtest init: %w", err)
	}
	defer cleanup()

	params := strategy.Params{
		Fast: btFast, Slow: btSlow,
		Window: btWindow, Threshold: btThreshold,
		Trend: btTrend, Mom: btMom,

		ThresholdSet: cmd.Flags().Changed("threshold"),
	}

	var results []*usecase.BacktestResult
	if btCompare {
		res, err := uc.Compare(cmd.Context(), usecase.CompareParams{
			Ticker: args[0], Start: btStart, End: btEnd, Params: params,
		})
		if err != nil {
			return err
		}
		results = res.Strategies
	} else {
		kind, err := strategy.ParseKind(btStrategy)
		if err != nil {
			return err
		}
		res, err := uc.Backtest(cmd.Context(), usecase.BacktestParams{
			Ticker: args[0], Start: btStart, End: btEnd, Strategy: kind, Params: params,
		})
		if err != nil {
			return err
		}
		results = []*usecase.BacktestResult{res}
	}

	if strings.EqualFold(btFormat, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return writeResultTable(cmd.OutOrStdout(), results)
}

func writeResultTable(out io.Writer, results []*usecase.BacktestResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "TICKER\tSTRATEGY\tPERIOD"
	for _, m := range models.Metrics {
		header += "\t" + strings.ToUpper(string(m))
	}
	fmt.Fprintln(w, header)
	for _, r := range results {
		row := fmt.Sprintf("%s\t%s\t%s..%s", r.Ticker, r.Strategy, r.Start, r.End)
		for _, m := range models.Metrics {
			row += "\t" + r.Report.Get(m)
		}
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}
