package strategy

import (
	"github.com/atlas-desktop/quantbt/internal/indicators"
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// BollingerRSI is a mean-reversion strategy that only trades in range-bound
// markets (ADX below a threshold). It buys when price touches the lower
// band while RSI is recovering from oversold and the stochastic confirms,
// and sells symmetrically at the upper band.
type BollingerRSI struct {
	bbPeriod     int
	bbMult       decimal.Decimal
	rsiPeriod    int
	adxPeriod    int
	adxThreshold decimal.Decimal

	rsiLowZone  decimal.Decimal
	rsiHighZone decimal.Decimal
	stochLow    decimal.Decimal
	stochHigh   decimal.Decimal
}

// NewBollingerRSI creates the mean-reversion strategy with its conventional
// parameters: 20-bar bands at 2 sigma, 14-bar RSI, ADX(14) < 25 filter.
func NewBollingerRSI() *BollingerRSI {
	return &BollingerRSI{
		bbPeriod:     20,
		bbMult:       decimal.NewFromInt(2),
		rsiPeriod:    14,
		adxPeriod:    14,
		adxThreshold: decimal.NewFromInt(25),
		rsiLowZone:   decimal.NewFromInt(40),
		rsiHighZone:  decimal.NewFromInt(60),
		stochLow:     decimal.NewFromInt(20),
		stochHigh:    decimal.NewFromInt(80),
	}
}

func (s *BollingerRSI) Name() string { return "bollinger_rsi" }

func (s *BollingerRSI) WarmupPeriod() int { return 2 * s.adxPeriod }

func (s *BollingerRSI) Evaluate(series *types.PriceSeries, i int) types.Signal {
	if i < s.WarmupPeriod() {
		return types.SignalHold
	}

	// Mean reversion only works when no trend is in force.
	dir := indicators.ADX(series, i, s.adxPeriod)
	if dir.ADX.GreaterThanOrEqual(s.adxThreshold) {
		return types.SignalHold
	}

	bb := indicators.Bollinger(series, i, s.bbPeriod, s.bbMult)
	rsi := indicators.RSI(series, i, s.rsiPeriod)
	prevRSI := indicators.RSI(series, i-1, s.rsiPeriod)
	stoch := indicators.Stochastic(series, i, 14, 3)
	close := series.Close(i)

	rsiRecovering := rsi.LessThan(s.rsiLowZone) && rsi.GreaterThan(prevRSI)
	if close.LessThanOrEqual(bb.Lower) && rsiRecovering && stoch.K.LessThan(s.stochLow) {
		return types.SignalBuy
	}

	rsiRollingOver := rsi.GreaterThan(s.rsiHighZone) && rsi.LessThan(prevRSI)
	if close.GreaterThanOrEqual(bb.Upper) && rsiRollingOver && stoch.K.GreaterThan(s.stochHigh) {
		return types.SignalSell
	}

	return types.SignalHold
}
