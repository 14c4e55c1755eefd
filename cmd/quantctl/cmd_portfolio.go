package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"QuantLab/internal/di"
	"QuantLab/internal/domain/models"
	"QuantLab/internal/usecase"
)

var (
	pfWeights []string
	pfStart   string
	pfEnd     string
	pfBase    float64
)

// portfolioCmd analyzes a weighted basket of tickers.
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Analyze a weighted portfolio",
	Long: `Aggregate adjusted closes for a weighted basket of tickers and print
the portfolio return, volatility, correlation matrix and metrics as JSON.

Examples:
  quantctl portfolio --weight AAPL=0.6 --weight MSFT=0.4
  quantctl portfolio --weight SPY=0.5,TLT=0.5 --start 2022-01-01 --base 1000`,
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)

	f := portfolioCmd.Flags()
	f.StringSliceVar(&pfWeights, "weight", nil, "TICKER=WEIGHT pairs")
	f.StringVar(&pfStart, "start", "", "start date YYYY-MM-DD")
	f.StringVar(&pfEnd, "end", "", "end date YYYY-MM-DD")
	f.Float64Var(&pfBase, "base", 0, "starting portfolio value (default: analysis.portfolio_base)")
	_ = portfolioCmd.MarkFlagRequired("weight")
}

func parseWeights(pairs []string) ([]string, models.Weights, error) {
	tickers := make([]string, 0, len(pairs))
	weights := make(models.Weights, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, nil, fmt.Errorf("weight %q: expected TICKER=WEIGHT", p)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("weight %q: %w", p, err)
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		if _, dup := weights[name]; !dup {
			tickers = append(tickers, name)
		}
		weights[name] = w
	}
	return tickers, weights, nil
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	tickers, weights, err := parseWeights(pfWeights)
	if err != nil {
		return err
	}
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	uc, cleanup, err := di.InitializePortfolio(cfg, l)
	if err != nil {
		return fmt.Errorf("portfolio init: %w", err)
	}
	defer cleanup()

	out, err := uc.Analyze(cmd.Context(), usecase.PortfolioParams{
		Tickers: tickers, Weights: weights, Start: pfStart, End: pfEnd, Base: pfBase,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
