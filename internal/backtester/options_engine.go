package backtester

import (
	"fmt"
	"time"

	"github.com/atlas-desktop/quantbt/internal/pricing"
	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/atlas-desktop/quantbt/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// volLookback is the trailing close window used to estimate volatility
	// for premium pricing on each bar.
	volLookback = 20
	// maxContracts caps position size per trade.
	maxContracts = 10
	// riskFraction is the share of initial capital allocated per position
	// when sizing contracts.
	riskFraction = 0.10
	// daysPerYear converts calendar days to year fractions for pricing.
	daysPerYear = 365.0
)

// OptionsEngine drives an options backtest. Premiums are synthetic: each bar
// the engine reprices the contract with Black-Scholes using historical
// volatility estimated from the trailing closes.
type OptionsEngine struct {
	logger     *zap.Logger
	config     *types.BacktestConfig
	OnProgress func(types.RunProgress)
}

// NewOptionsEngine creates an options backtest engine.
func NewOptionsEngine(logger *zap.Logger, config *types.BacktestConfig) *OptionsEngine {
	return &OptionsEngine{logger: logger, config: config}
}

// Run simulates the options strategy over the full series.
func (e *OptionsEngine) Run(series *types.PriceSeries, strat strategy.OptionsStrategy) (*OptionsResult, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("backtest requires a non-empty price series")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest requires a strategy")
	}

	cash := e.config.InitialCapital
	commission := e.config.Commission
	rate, _ := e.config.RiskFreeRate.Float64()
	var currentTrade *OptionsTrade

	result := NewOptionsResult(strat.Name(), e.config.InitialCapital,
		series.Bar(0).Date, series.Bar(series.Len()-1).Date)

	e.logger.Info("Starting options backtest",
		zap.String("strategy", strat.Name()),
		zap.Int("bars", series.Len()),
		zap.String("initialCapital", e.config.InitialCapital.String()),
	)

	for i := 0; i < series.Len(); i++ {
		bar := series.Bar(i)
		vol := pricing.EstimateVolatility(series.Closes(maxInt(0, i-volLookback+1), i+1), volLookback)

		// Settle a position whose contract has reached expiration before
		// anything else happens on this bar. Expiry settles at intrinsic
		// value and carries no commission.
		if currentTrade != nil && !bar.Date.Before(currentTrade.ExpirationDate) {
			intrinsic := pricing.IntrinsicValue(currentTrade.OptionType, bar.Close, currentTrade.Strike)
			cash = e.settleCash(cash, currentTrade, intrinsic, decimal.Zero)
			if err := currentTrade.Expire(bar.Date, intrinsic); err != nil {
				return nil, err
			}
			result.AddTrade(currentTrade)
			currentTrade = nil
		}

		signal := strat.Evaluate(series, i)

		// Mark to market before acting on the signal.
		equity := cash
		if currentTrade != nil {
			mark := e.markPremium(currentTrade, bar, rate, vol)
			equity = e.markEquity(cash, currentTrade, mark)
		}
		result.AppendEquity(equity)

		switch signal {
		case types.OptionSignalOpen:
			if currentTrade != nil {
				break // at most one open position
			}
			trade, newCash, err := e.open(series, strat, i, cash, commission, rate, vol)
			if err != nil {
				return nil, err
			}
			if trade != nil {
				currentTrade = trade
				cash = newCash
			}

		case types.OptionSignalClose:
			if currentTrade == nil {
				break
			}
			premium := e.markPremium(currentTrade, bar, rate, vol)
			exitCommission := commission.Mul(decimal.NewFromInt(int64(currentTrade.Contracts)))
			cash = e.settleCash(cash, currentTrade, premium, exitCommission)
			if err := currentTrade.Close(bar.Date, premium); err != nil {
				return nil, err
			}
			result.AddTrade(currentTrade)
			currentTrade = nil
		}

		e.reportProgress(result, strat.Name(), i, series.Len(), bar.Date, equity)
	}

	// Force-close a position left open at the end of the series, priced with
	// one day of remaining time value.
	if currentTrade != nil {
		last := series.Bar(series.Len() - 1)
		vol := pricing.EstimateVolatility(
			series.Closes(maxInt(0, series.Len()-volLookback), series.Len()), volLookback)
		premium := pricing.Price(currentTrade.OptionType, last.Close, currentTrade.Strike,
			1.0/daysPerYear, rate, vol)
		exitCommission := commission.Mul(decimal.NewFromInt(int64(currentTrade.Contracts)))
		cash = e.settleCash(cash, currentTrade, premium, exitCommission)
		if err := currentTrade.Close(last.Date, premium); err != nil {
			return nil, err
		}
		result.AddTrade(currentTrade)
	}

	result.FinalCapital = cash

	e.logger.Info("Options backtest completed",
		zap.String("strategy", strat.Name()),
		zap.Int("trades", len(result.Trades)),
		zap.String("finalCapital", cash.String()),
		zap.String("totalReturn", result.TotalReturn().String()),
	)

	return result, nil
}

// open prices and opens a new position. It returns a nil trade, without
// error, when the theoretical premium is not positive; a worthless contract
// is not tradable.
func (e *OptionsEngine) open(
	series *types.PriceSeries,
	strat strategy.OptionsStrategy,
	i int,
	cash, commission decimal.Decimal,
	rate, vol float64,
) (*OptionsTrade, decimal.Decimal, error) {
	bar := series.Bar(i)
	strike := strat.StrikePrice(series, i)
	dte := strat.DaysToExpiry()
	expiration := bar.Date.AddDate(0, 0, dte)

	premium := pricing.Price(strat.OptionType(), bar.Close, strike,
		float64(dte)/daysPerYear, rate, vol)
	if !premium.IsPositive() {
		return nil, cash, nil
	}

	contracts := e.sizeContracts(bar.Close)
	trade, err := NewOptionsTrade(strat.OptionType(), strat.Direction(), strike,
		expiration, bar.Date, premium, contracts, bar.Volume)
	if err != nil {
		return nil, cash, err
	}

	entryCommission := commission.Mul(decimal.NewFromInt(int64(contracts)))
	if trade.Direction == types.OptionBuy {
		cash = cash.Sub(trade.EntryCost()).Sub(entryCommission)
	} else {
		cash = cash.Add(trade.EntryCost()).Sub(entryCommission)
	}
	return trade, cash, nil
}

// sizeContracts sizes a position so its notional is near a fixed fraction of
// initial capital, clamped to [1, maxContracts].
func (e *OptionsEngine) sizeContracts(close decimal.Decimal) int {
	budget := e.config.InitialCapital.Mul(decimal.NewFromFloat(riskFraction))
	notional := close.Mul(contractMultiplier)
	n := int(notional.Div(budget).Floor().IntPart())
	return utils.ClampInt(n, 1, maxContracts)
}

// markPremium reprices the open contract at the current bar with its
// remaining time to expiry.
func (e *OptionsEngine) markPremium(t *OptionsTrade, bar types.PriceBar, rate, vol float64) decimal.Decimal {
	remaining := t.ExpirationDate.Sub(bar.Date).Hours() / 24 / daysPerYear
	return pricing.Price(t.OptionType, bar.Close, t.Strike, remaining, rate, vol)
}

// settleCash applies the exit cash flow: buyers receive the position value,
// writers pay to buy it back.
func (e *OptionsEngine) settleCash(cash decimal.Decimal, t *OptionsTrade, premium, exitCommission decimal.Decimal) decimal.Decimal {
	value := t.MarkValue(premium)
	if t.Direction == types.OptionBuy {
		return cash.Add(value).Sub(exitCommission)
	}
	return cash.Sub(value).Sub(exitCommission)
}

// markEquity values the portfolio with the position marked at the given
// premium. A written position is carried as the collected credit less the
// cost to buy it back.
func (e *OptionsEngine) markEquity(cash decimal.Decimal, t *OptionsTrade, premium decimal.Decimal) decimal.Decimal {
	mark := t.MarkValue(premium)
	if t.Direction == types.OptionBuy {
		return cash.Add(mark)
	}
	return cash.Add(t.EntryCost()).Sub(mark)
}

func (e *OptionsEngine) reportProgress(result *OptionsResult, name string, i, total int, date time.Time, equity decimal.Decimal) {
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
