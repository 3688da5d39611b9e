package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/internal/backtester"
	"github.com/atlas-desktop/quantbt/internal/data"
	"github.com/atlas-desktop/quantbt/internal/runner"
	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
)

var (
	backtestSymbol  string
	backtestCSV     string
	backtestOptions bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a strategy against historical data",
	Long:  "Run a strategy against historical data and print performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "SAMPLE", "Symbol to backtest")
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "CSV file to load instead of the data directory")
	backtestCmd.Flags().BoolVar(&backtestOptions, "options", false, "Run as an options strategy")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)
	defer logger.Sync()

	series, err := loadSeries(cfg.Data.Dir, backtestSymbol, backtestCSV, logger)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry(logger.Named("strategy"))
	run := runner.New(logger.Named("runner"), registry, prometheus.NewRegistry())
	btConfig := cfg.BacktestTypes(name)

	fmt.Println("=== quantbt backtest ===")
	fmt.Printf("Strategy: %s\n", name)
	fmt.Printf("Symbol:   %s\n", series.Symbol())
	fmt.Printf("Bars:     %d\n", series.Len())
	fmt.Println()

	if backtestOptions {
		result, err := run.RunOptions(context.Background(), series, name, btConfig, nil)
		if err != nil {
			return err
		}
		printOptionsResult(result)
		return nil
	}

	result, err := run.Run(context.Background(), series, name, btConfig, nil)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

// loadSeries reads a series from an explicit CSV file when one is given,
// otherwise from the data store.
func loadSeries(dataDir, symbol, csvPath string, logger *zap.Logger) (*types.PriceSeries, error) {
	if csvPath != "" {
		return data.LoadCSV(csvPath, symbol)
	}
	store, err := data.NewStore(logger.Named("data"), dataDir)
	if err != nil {
		return nil, err
	}
	return store.Load(symbol)
}

func printResult(r *backtester.Result) {
	fmt.Printf("Initial capital: %s\n", r.InitialCapital.StringFixed(2))
	fmt.Printf("Final capital:   %s\n", r.FinalCapital.StringFixed(2))
	fmt.Printf("Total return:    %s%%\n", r.TotalReturn().StringFixed(2))
	fmt.Printf("Trades:          %d\n", len(r.Trades))
	fmt.Printf("Win rate:        %s%%\n", r.WinRate().StringFixed(2))
	fmt.Printf("Profit factor:   %s\n", r.ProfitFactor().StringFixed(2))
	fmt.Printf("Average win:     %s\n", r.AverageWin().StringFixed(2))
	fmt.Printf("Average loss:    %s\n", r.AverageLoss().StringFixed(2))
	fmt.Printf("Max drawdown:    %s%%\n", r.MaxDrawdown().StringFixed(2))
	fmt.Printf("Sharpe ratio:    %s\n", r.SharpeRatio().StringFixed(2))
}

func printOptionsResult(r *backtester.OptionsResult) {
	fmt.Printf("Initial capital: %s\n", r.InitialCapital.StringFixed(2))
	fmt.Printf("Final capital:   %s\n", r.FinalCapital.StringFixed(2))
	fmt.Printf("Total return:    %s%%\n", r.TotalReturn().StringFixed(2))
	fmt.Printf("Trades:          %d\n", len(r.Trades))
	fmt.Printf("Win rate:        %s%%\n", r.WinRate().StringFixed(2))
	fmt.Printf("Profit factor:   %s\n", r.ProfitFactor().StringFixed(2))
	fmt.Printf("Max drawdown:    %s%%\n", r.MaxDrawdown().StringFixed(2))
	fmt.Printf("Sharpe ratio:    %s\n", r.SharpeRatio().StringFixed(2))
}
