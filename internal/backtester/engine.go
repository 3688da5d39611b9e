package backtester

import (
	"fmt"
	"time"

	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// progressEvery controls how often a running engine reports progress.
const progressEvery = 50

// Engine drives an equity backtest: a tight sequential loop over the series
// that owns the cash balance and the single open position. One Engine value
// may be reused across runs; all per-run state is local to Run.
type Engine struct {
	logger     *zap.Logger
	config     *types.BacktestConfig
	OnProgress func(types.RunProgress)
}

// NewEngine creates an equity backtest engine.
func NewEngine(logger *zap.Logger, config *types.BacktestConfig) *Engine {
	return &Engine{logger: logger, config: config}
}

// Run simulates the strategy over the full series. It fails before touching
// any bar when the series is empty or the strategy is missing; otherwise it
// always completes the whole series.
func (e *Engine) Run(series *types.PriceSeries, strat strategy.Strategy) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("backtest requires a non-empty price series")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest requires a strategy")
	}

	cash := e.config.InitialCapital
	commission := e.config.Commission
	var currentTrade *Trade

	result := NewResult(strat.Name(), e.config.InitialCapital,
		series.Bar(0).Date, series.Bar(series.Len()-1).Date)

	e.logger.Info("Starting backtest",
		zap.String("strategy", strat.Name()),
		zap.Int("bars", series.Len()),
		zap.String("initialCapital", e.config.InitialCapital.String()),
	)

	for i := 0; i < series.Len(); i++ {
		bar := series.Bar(i)
		signal := strat.Evaluate(series, i)

		// Mark to market before acting on the signal.
		equity := cash
		if currentTrade != nil {
			equity = cash.Add(bar.Close.Mul(currentTrade.Shares))
		}
		result.AppendEquity(equity)

		switch signal {
		case types.SignalBuy:
			if currentTrade != nil {
				break // at most one open position
			}
			shares := cash.Sub(commission).Div(bar.Close).Floor()
			if !shares.IsPositive() {
				break
			}
			trade, err := NewTrade(types.DirectionLong, bar.Date, bar.Close, shares)
			if err != nil {
				return nil, err
			}
			cash = cash.Sub(shares.Mul(bar.Close)).Sub(commission)
			currentTrade = trade

		case types.SignalSell:
			if currentTrade == nil {
				break
			}
			proceeds := bar.Close.Mul(currentTrade.Shares).Sub(commission)
			cash = cash.Add(proceeds)
			if err := currentTrade.Close(bar.Date, bar.Close); err != nil {
				return nil, err
			}
			result.AddTrade(currentTrade)
			currentTrade = nil
		}

		e.reportProgress(result, strat.Name(), i, series.Len(), bar.Date, equity)
	}

	// Force-close a position left open at the end of the series; the exit
	// commission is still charged.
	if currentTrade != nil {
		last := series.Bar(series.Len() - 1)
		proceeds := last.Close.Mul(currentTrade.Shares).Sub(commission)
		cash = cash.Add(proceeds)
		if err := currentTrade.Close(last.Date, last.Close); err != nil {
			return nil, err
		}
		result.AddTrade(currentTrade)
	}

	result.FinalCapital = cash

	e.logger.Info("Backtest completed",
		zap.String("strategy", strat.Name()),
		zap.Int("trades", len(result.Trades)),
		zap.String("finalCapital", cash.String()),
		zap.String("totalReturn", result.TotalReturn().String()),
	)

	return result, nil
}

func (e *Engine) reportProgress(result *Result, name string, i, total int, date time.Time, equity decimal.Decimal) {
	if e.OnProgress == nil {
		return
	}
	if (i+1)%progressEvery != 0 && i != total-1 {
		return
	}
	e.OnProgress(types.RunProgress{
		ID:           e.config.ID,
		Strategy:     name,
		Status:       "running",
		Progress:     float64(i+1) / float64(total) * 100,
		BarsSeen:     i + 1,
		TotalBars:    total,
		CurrentDate:  date,
		TradesClosed: len(result.Trades),
		Equity:       equity,
	})
}
