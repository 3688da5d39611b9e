package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	fifty      = decimal.NewFromInt(50)
	neutralWPR = decimal.NewFromInt(-50)
)

// RSI returns the relative strength index over the trailing period changes
// ending at end, using a simple trailing average of gains and losses.
// Returns 50 when there is not enough history and 100 when the window holds
// no losing change.
func RSI(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period || end >= s.Len() {
		return fifty
	}

	gains := decimal.Zero
	losses := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		change := s.Close(i).Sub(s.Close(i - 1))
		if change.IsPositive() {
			gains = gains.Add(change)
		} else {
			losses = losses.Add(change.Abs())
		}
	}

	periodDec := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(periodDec)
	avgLoss := losses.Div(periodDec)

	if avgLoss.IsZero() {
		return hundred
	}
	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(one.Add(rs)))
}

// StochasticValue holds the %K and %D lines at one index.
type StochasticValue struct {
	K decimal.Decimal
	D decimal.Decimal
}

// Stochastic computes %K = 100*(close-lowestLow)/(highestHigh-lowestLow)
// over the trailing period and %D as the SMA of %K over smoothing bars.
// Both default to 50 on insufficient history or a flat window.
func Stochastic(s *types.PriceSeries, end, period, smoothing int) StochasticValue {
	warmup := period + smoothing - 2
	if period <= 0 || smoothing <= 0 || end < warmup || end >= s.Len() {
		return StochasticValue{K: fifty, D: fifty}
	}

	k := stochasticK(s, end, period)
	sum := decimal.Zero
	for i := end - smoothing + 1; i <= end; i++ {
		sum = sum.Add(stochasticK(s, i, period))
	}
	return StochasticValue{K: k, D: sum.Div(decimal.NewFromInt(int64(smoothing)))}
}

func stochasticK(s *types.PriceSeries, end, period int) decimal.Decimal {
	high, low := windowHighLow(s, end, period)
	spread := high.Sub(low)
	if spread.IsZero() {
		return fifty
	}
	return hundred.Mul(s.Close(end).Sub(low)).Div(spread)
}

// WilliamsR computes Williams %R over the trailing period, in [-100, 0].
// Defaults to -50 on insufficient history or a flat window.
func WilliamsR(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return neutralWPR
	}

	high, low := windowHighLow(s, end, period)
	spread := high.Sub(low)
	if spread.IsZero() {
		return neutralWPR
	}
	return hundred.Neg().Mul(high.Sub(s.Close(end))).Div(spread)
}

// CCI computes the commodity channel index using typical price (H+L+C)/3
// and mean absolute deviation, scaled by the conventional 0.015 constant.
// Defaults to 0 on insufficient history or zero deviation.
func CCI(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return decimal.Zero
	}

	periodDec := decimal.NewFromInt(int64(period))

	sum := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		sum = sum.Add(typicalPrice(s.Bar(i)))
	}
	avgTP := sum.Div(periodDec)

	dev := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		dev = dev.Add(typicalPrice(s.Bar(i)).Sub(avgTP).Abs())
	}
	meanDev := dev.Div(periodDec)
	if meanDev.IsZero() {
		return decimal.Zero
	}

	tp := typicalPrice(s.Bar(end))
	return tp.Sub(avgTP).Div(decimal.NewFromFloat(0.015).Mul(meanDev))
}

// MFI computes the money flow index using typical price * volume as raw
// money flow partitioned by typical-price direction. Defaults to 50 on
// insufficient history; returns 100 when the window has no negative flow.
func MFI(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period || end >= s.Len() {
		return fifty
	}

	positive := decimal.Zero
	negative := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		tp := typicalPrice(s.Bar(i))
		prevTP := typicalPrice(s.Bar(i - 1))
		flow := tp.Mul(s.Bar(i).Volume)
		switch {
		case tp.GreaterThan(prevTP):
			positive = positive.Add(flow)
		case tp.LessThan(prevTP):
			negative = negative.Add(flow)
		}
	}

	if negative.IsZero() {
		return hundred
	}
	ratio := positive.Div(negative)
	return hundred.Sub(hundred.Div(one.Add(ratio)))
}

func typicalPrice(b types.PriceBar) decimal.Decimal {
	return b.High.Add(b.Low).Add(b.Close).Div(decimal.NewFromInt(3))
}

func windowHighLow(s *types.PriceSeries, end, period int) (decimal.Decimal, decimal.Decimal) {
	high := s.Bar(end).High
	low := s.Bar(end).Low
	for i := end - period + 1; i < end; i++ {
		if s.Bar(i).High.GreaterThan(high) {
			high = s.Bar(i).High
		}
		if s.Bar(i).Low.LessThan(low) {
			low = s.Bar(i).Low
		}
	}
	return high, low
}
