package strategy

import (
	"github.com/atlas-desktop/quantbt/internal/indicators"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// Breakout detects a volatility squeeze (Bollinger width near its minimum
// over the lookback, or expanding ATR) and buys a close above the upper band
// confirmed by volume at 1.5x its 20-bar average. It sells on a lower-band
// breakdown or a failed breakout, where price re-enters below the middle
// band after having been above the upper band.
type Breakout struct {
	bbPeriod       int
	bbMult         decimal.Decimal
	squeezeWindow  int
	atrPeriod      int
	volumePeriod   int
	volumeMult     decimal.Decimal
	failedLookback int
}

// NewBreakout creates the breakout strategy with its standard parameters.
func NewBreakout() *Breakout {
	return &Breakout{
		bbPeriod:       20,
		bbMult:         decimal.NewFromInt(2),
		squeezeWindow:  50,
		atrPeriod:      14,
		volumePeriod:   20,
		volumeMult:     decimal.NewFromFloat(1.5),
		failedLookback: 5,
	}
}

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) WarmupPeriod() int { return s.squeezeWindow + s.bbPeriod }

func (s *Breakout) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	bb := indicators.Bollinger(series, i, s.bbPeriod, s.bbMult)
	close := series.Close(i)

	if s.hasSetup(series, i) && close.GreaterThan(bb.Upper) && s.volumeConfirms(series, i) {
		return types.SignalBuy
	}

	if close.LessThan(bb.Lower) {
		return types.SignalSell
	}
	if close.LessThan(bb.Middle) && s.wasAboveUpperBand(series, i) {
		// Failed breakout: price gave back the move and fell through the
		// middle band.
		return types.SignalSell
	}

	return types.SignalHold
}

// hasSetup reports a volatility squeeze or an ATR expansion.
func (s *Breakout) hasSetup(series *types.PriceSeries, i int) bool {
	width := indicators.Bollinger(series, i, s.bbPeriod, s.bbMult).Width

	minWidth := width
	for j := i - s.squeezeWindow + 1; j < i; j++ {
		w := indicators.Bollinger(series, j, s.bbPeriod, s.bbMult).Width
		if w.LessThan(minWidth) {
			minWidth = w
		}
	}
	squeezed := width.LessThanOrEqual(minWidth.Mul(decimal.NewFromFloat(1.1)))

	atr := indicators.ATR(series, i, s.atrPeriod)
	prevATR := indicators.ATR(series, i-s.atrPeriod, s.atrPeriod)
	expanding := !prevATR.IsZero() && atr.GreaterThan(prevATR.Mul(decimal.NewFromFloat(1.5)))

	return squeezed || expanding
}

func (s *Breakout) volumeConfirms(series *types.PriceSeries, i int) bool {
	avg := indicators.AvgVolume(series, i, s.volumePeriod)
	if avg.IsZero() {
		return false
	}
	return series.Bar(i).Volume.GreaterThanOrEqual(avg.Mul(s.volumeMult))
}

func (s *Breakout) wasAboveUpperBand(series *types.PriceSeries, i int) bool {
	for j := i - s.failedLookback; j < i; j++ {
		if j < s.bbPeriod {
			continue
		}
		bb := indicators.Bollinger(series, j, s.bbPeriod, s.bbMult)
		if series.Close(j).GreaterThan(bb.Upper) {
			return true
		}
	}
	return false
}
