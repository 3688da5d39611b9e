package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/atlas-desktop/quantbt/internal/runner"
	"github.com/atlas-desktop/quantbt/internal/strategy"
)

var (
	compareSymbol string
	compareCSV    string
)

var compareCmd = &cobra.Command{
	Use:   "compare [strategy...]",
	Short: "Run multiple strategies against the same data and rank them",
	Long:  "Run the named strategies (or all of them) concurrently against the same series and rank by total return",
	RunE:  runCompareCmd,
}

func init() {
	compareCmd.Flags().StringVar(&compareSymbol, "symbol", "SAMPLE", "Symbol to backtest")
	compareCmd.Flags().StringVar(&compareCSV, "csv", "", "CSV file to load instead of the data directory")

	rootCmd.AddCommand(compareCmd)
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)
	defer logger.Sync()

	series, err := loadSeries(cfg.Data.Dir, compareSymbol, compareCSV, logger)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry(logger.Named("strategy"))
	run := runner.New(logger.Named("runner"), registry, prometheus.NewRegistry())

	entries := run.Compare(context.Background(), series, args, cfg.BacktestTypes(""))

	fmt.Println("=== quantbt compare ===")
	fmt.Printf("Symbol: %s   Bars: %d\n\n", series.Symbol(), series.Len())
	fmt.Printf("%-4s %-22s %12s %9s %10s %8s %7s\n",
		"#", "Strategy", "Return %", "Win %", "MaxDD %", "Sharpe", "Trades")
	for i, e := range entries {
		if e.Err != "" {
			fmt.Printf("%-4d %-22s failed: %s\n", i+1, e.Strategy, e.Err)
			continue
		}
		fmt.Printf("%-4d %-22s %12s %9s %10s %8s %7d\n",
			i+1, e.Strategy,
			e.TotalReturn.StringFixed(2),
			e.WinRate.StringFixed(2),
			e.MaxDrawdown.StringFixed(2),
			e.SharpeRatio.StringFixed(2),
			e.Trades)
	}
	return nil
}
