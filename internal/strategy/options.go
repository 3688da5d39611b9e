package strategy

import (
	"github.com/atlas-desktop/quantbt/internal/indicators"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// CoveredCall writes out-of-the-money calls while price trades above its
// moving average with positive momentum, and buys them back when price
// drops through the exit threshold below the average. The strike is the MA
// lifted by a percentage offset, rounded up to a whole dollar.
type CoveredCall struct {
	maPeriod      int
	momentumBars  int
	strikeOffset  decimal.Decimal
	exitThreshold decimal.Decimal
	dte           int
}

// NewCoveredCall creates the covered-call strategy: 20-bar MA, 5% OTM
// strike, 30-day contracts.
func NewCoveredCall() *CoveredCall {
	return &CoveredCall{
		maPeriod:      20,
		momentumBars:  5,
		strikeOffset:  decimal.NewFromFloat(1.05),
		exitThreshold: decimal.NewFromFloat(0.98),
		dte:           30,
	}
}

func (s *CoveredCall) Name() string { return "covered_call" }

func (s *CoveredCall) WarmupPeriod() int { return s.maPeriod + s.momentumBars }

func (s *CoveredCall) OptionType() types.OptionType { return types.OptionCall }

func (s *CoveredCall) Direction() types.OptionDirection { return types.OptionSell }

func (s *CoveredCall) DaysToExpiry() int { return s.dte }

func (s *CoveredCall) Evaluate(series *types.PriceSeries, i int) types.OptionSignal {
	if i < s.WarmupPeriod() {
		return types.OptionSignalHold
	}

	close := series.Close(i)
	ma := indicators.SMA(series, i, s.maPeriod)

	momentumUp := close.GreaterThan(series.Close(i - s.momentumBars))
	if close.GreaterThan(ma) && momentumUp {
		return types.OptionSignalOpen
	}
	if close.LessThan(ma.Mul(s.exitThreshold)) {
		return types.OptionSignalClose
	}
	return types.OptionSignalHold
}

// StrikePrice lifts the moving average by the strike offset, ceiling to a
// whole dollar.
func (s *CoveredCall) StrikePrice(series *types.PriceSeries, i int) decimal.Decimal {
	ma := indicators.SMA(series, i, s.maPeriod)
	return ma.Mul(s.strikeOffset).Ceil()
}

// ProtectivePut buys out-of-the-money puts when price breaks below its
// moving average with downward momentum, and sells them once price recovers
// through the exit threshold above the average. The strike is the MA
// discounted by a percentage offset, rounded down to a whole dollar.
type ProtectivePut struct {
	maPeriod      int
	momentumBars  int
	strikeOffset  decimal.Decimal
	exitThreshold decimal.Decimal
	dte           int
}

// NewProtectivePut creates the protective-put strategy: 20-bar MA, 5% OTM
// strike, 30-day contracts.
func NewProtectivePut() *ProtectivePut {
	return &ProtectivePut{
		maPeriod:      20,
		momentumBars:  5,
		strikeOffset:  decimal.NewFromFloat(0.95),
		exitThreshold: decimal.NewFromFloat(1.02),
		dte:           30,
	}
}

func (s *ProtectivePut) Name() string { return "protective_put" }

func (s *ProtectivePut) WarmupPeriod() int { return s.maPeriod + s.momentumBars }

func (s *ProtectivePut) OptionType() types.OptionType { return types.OptionPut }

func (s *ProtectivePut) Direction() types.OptionDirection { return types.OptionBuy }

func (s *ProtectivePut) DaysToExpiry() int { return s.dte }

func (s *ProtectivePut) Evaluate(series *types.PriceSeries, i int) types.OptionSignal {
	if i < s.WarmupPeriod() {
		return types.OptionSignalHold
	}

	close := series.Close(i)
	ma := indicators.SMA(series, i, s.maPeriod)

	momentumDown := close.LessThan(series.Close(i - s.momentumBars))
	if close.LessThan(ma) && momentumDown {
		return types.OptionSignalOpen
	}
	if close.GreaterThan(ma.Mul(s.exitThreshold)) {
		return types.OptionSignalClose
	}
	return types.OptionSignalHold
}

// StrikePrice discounts the moving average by the strike offset, flooring
// to a whole dollar.
func (s *ProtectivePut) StrikePrice(series *types.PriceSeries, i int) decimal.Decimal {
	ma := indicators.SMA(series, i, s.maPeriod)
	return ma.Mul(s.strikeOffset).Floor()
}
