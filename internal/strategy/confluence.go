package strategy

import (
	"fmt"

	"github.com/atlas-desktop/quantbt/internal/indicators"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// MomentumConfluence enters only when several trend and momentum signals
// line up: a bullish MACD cross with ADX above 25, +DI leading -DI, price
// above the 200-bar EMA and OBV rising. It exits on a bearish MACD cross,
// or when the trend dies (ADX below 20) while price sits under the long EMA.
type MomentumConfluence struct {
	macdFast    int
	macdSlow    int
	macdSignal  int
	adxPeriod   int
	emaPeriod   int
	obvLookback int

	adxStrong decimal.Decimal
	adxWeak   decimal.Decimal
}

// NewMomentumConfluence creates the momentum confluence strategy.
func NewMomentumConfluence() *MomentumConfluence {
	return &MomentumConfluence{
		macdFast:    12,
		macdSlow:    26,
		macdSignal:  9,
		adxPeriod:   14,
		emaPeriod:   200,
		obvLookback: 5,
		adxStrong:   decimal.NewFromInt(25),
		adxWeak:     decimal.NewFromInt(20),
	}
}

func (s *MomentumConfluence) Name() string { return "momentum_confluence" }

func (s *MomentumConfluence) WarmupPeriod() int { return s.emaPeriod + 1 }

func (s *MomentumConfluence) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	prev := indicators.MACD(series, i-1, s.macdFast, s.macdSlow, s.macdSignal)
	curr := indicators.MACD(series, i, s.macdFast, s.macdSlow, s.macdSignal)
	bullishCross := !prev.Line.GreaterThan(prev.Signal) && curr.Line.GreaterThan(curr.Signal)
	bearishCross := prev.Line.GreaterThan(prev.Signal) && !curr.Line.GreaterThan(curr.Signal)

	dir := indicators.ADX(series, i, s.adxPeriod)
	ema := indicators.EMA(series, i, s.emaPeriod)
	close := series.Close(i)

	if bullishCross &&
		dir.ADX.GreaterThan(s.adxStrong) &&
		dir.PlusDI.GreaterThan(dir.MinusDI) &&
		close.GreaterThan(ema) &&
		indicators.IsOBVRising(series, i, s.obvLookback) {
		return types.SignalBuy
	}

	if bearishCross {
		return types.SignalSell
	}
	if dir.ADX.LessThan(s.adxWeak) && close.LessThan(ema) {
		return types.SignalSell
	}

	return types.SignalHold
}

// MultiConfluence scores up to eight bullish and eight bearish conditions
// across trend, momentum and volume, and trades only when one side reaches
// the configured threshold while strictly outscoring the other.
type MultiConfluence struct {
	threshold int
}

// NewMultiConfluence creates the scoring strategy; threshold is the minimum
// winning score out of eight.
func NewMultiConfluence(threshold int) *MultiConfluence {
	return &MultiConfluence{threshold: threshold}
}

func (s *MultiConfluence) Name() string {
	return fmt.Sprintf("multi_confluence_%d", s.threshold)
}

func (s *MultiConfluence) WarmupPeriod() int { return 201 }

func (s *MultiConfluence) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	close := series.Close(i)
	sma50 := indicators.SMA(series, i, 50)
	ema200 := indicators.EMA(series, i, 200)
	macd := indicators.MACD(series, i, 12, 26, 9)
	rsi := indicators.RSI(series, i, 14)
	dir := indicators.ADX(series, i, 14)
	stoch := indicators.Stochastic(series, i, 14, 3)
	vwap := indicators.VWAP(series, i, 20)
	fifty := decimal.NewFromInt(50)

	var bullish, bearish int

	// Trend
	score(&bullish, &bearish, close.GreaterThan(sma50), close.LessThan(sma50))
	score(&bullish, &bearish, close.GreaterThan(ema200), close.LessThan(ema200))
	score(&bullish, &bearish, indicators.IsSARBullish(series, i), !indicators.IsSARBullish(series, i))

	// Momentum
	score(&bullish, &bearish, macd.Histogram.IsPositive(), macd.Histogram.IsNegative())
	score(&bullish, &bearish, rsi.GreaterThan(fifty), rsi.LessThan(fifty))
	score(&bullish, &bearish, dir.PlusDI.GreaterThan(dir.MinusDI), dir.MinusDI.GreaterThan(dir.PlusDI))
	score(&bullish, &bearish, stoch.K.GreaterThan(stoch.D), stoch.K.LessThan(stoch.D))

	// Volume
	score(&bullish, &bearish,
		indicators.IsOBVRising(series, i, 5) && close.GreaterThan(vwap),
		!indicators.IsOBVRising(series, i, 5) && close.LessThan(vwap))

	switch {
	case bullish >= s.threshold && bullish > bearish:
		return types.SignalBuy
	case bearish >= s.threshold && bearish > bullish:
		return types.SignalSell
	default:
		return types.SignalHold
	}
}

func score(bullish, bearish *int, up, down bool) {
	if up {
		*bullish++
	}
	if down {
		*bearish++
	}
}
