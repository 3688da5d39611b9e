package strategy

import (
	"fmt"

	"github.com/atlas-desktop/quantbt/internal/indicators"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// SMACrossover trades golden/death crosses of two simple moving averages:
// BUY when the short average crosses above the long one, SELL on the
// opposite cross. The cross is detected by comparing the relative order of
// the two averages on the current and previous bar.
type SMACrossover struct {
	short int
	long  int
}

// NewSMACrossover creates a crossover strategy with the given periods.
func NewSMACrossover(short, long int) *SMACrossover {
	return &SMACrossover{short: short, long: long}
}

func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma_crossover_%d_%d", s.short, s.long)
}

func (s *SMACrossover) WarmupPeriod() int { return s.long + 1 }

func (s *SMACrossover) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	prevShort := indicators.SMA(series, i-1, s.short)
	prevLong := indicators.SMA(series, i-1, s.long)
	currShort := indicators.SMA(series, i, s.short)
	currLong := indicators.SMA(series, i, s.long)

	wasAbove := prevShort.GreaterThan(prevLong)
	isAbove := currShort.GreaterThan(currLong)

	switch {
	case !wasAbove && isAbove:
		return types.SignalBuy
	case wasAbove && !isAbove:
		return types.SignalSell
	default:
		return types.SignalHold
	}
}

// RSIStrategy buys when RSI crosses up through the oversold threshold and
// sells when it crosses down through the overbought threshold.
type RSIStrategy struct {
	period     int
	oversold   decimal.Decimal
	overbought decimal.Decimal
}

// NewRSIStrategy creates an RSI threshold-cross strategy.
func NewRSIStrategy(period int, oversold, overbought int64) *RSIStrategy {
	return &RSIStrategy{
		period:     period,
		oversold:   decimal.NewFromInt(oversold),
		overbought: decimal.NewFromInt(overbought),
	}
}

func (s *RSIStrategy) Name() string { return fmt.Sprintf("rsi_%d", s.period) }

func (s *RSIStrategy) WarmupPeriod() int { return s.period + 2 }

func (s *RSIStrategy) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	prev := indicators.RSI(series, i-1, s.period)
	curr := indicators.RSI(series, i, s.period)

	switch {
	case prev.LessThanOrEqual(s.oversold) && curr.GreaterThan(s.oversold):
		return types.SignalBuy
	case prev.GreaterThanOrEqual(s.overbought) && curr.LessThan(s.overbought):
		return types.SignalSell
	default:
		return types.SignalHold
	}
}

// MACDStrategy trades crosses of the MACD line through its signal line.
type MACDStrategy struct {
	fast   int
	slow   int
	signal int
}

// NewMACDStrategy creates a MACD signal-line cross strategy.
func NewMACDStrategy(fast, slow, signal int) *MACDStrategy {
	return &MACDStrategy{fast: fast, slow: slow, signal: signal}
}

func (s *MACDStrategy) Name() string {
	return fmt.Sprintf("macd_%d_%d_%d", s.fast, s.slow, s.signal)
}

func (s *MACDStrategy) WarmupPeriod() int { return s.slow + s.signal }

func (s *MACDStrategy) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	prev := indicators.MACD(series, i-1, s.fast, s.slow, s.signal)
	curr := indicators.MACD(series, i, s.fast, s.slow, s.signal)

	wasAbove := prev.Line.GreaterThan(prev.Signal)
	isAbove := curr.Line.GreaterThan(curr.Signal)

	switch {
	case !wasAbove && isAbove:
		return types.SignalBuy
	case wasAbove && !isAbove:
		return types.SignalSell
	default:
		return types.SignalHold
	}
}
