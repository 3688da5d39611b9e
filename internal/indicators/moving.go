// Package indicators provides technical indicator calculations over a price
// series. Every indicator is a pure function of (series, endIndex, params):
// repeated queries at different indices are referentially transparent, and
// recursive indicators (EMA, ADX, SAR) replay their full recursion on each
// call so results never depend on query order.
//
// All arithmetic is fixed-point decimal. When an index does not have enough
// preceding bars, each function returns its documented neutral default
// instead of an error; strategies are expected to gate on their own warmup
// period before acting on indicator output.
package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// SMA returns the simple moving average of closes over the trailing period
// ending at end. Falls back to the current close when there is not enough
// history.
func SMA(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return currentClose(s, end)
	}

	sum := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		sum = sum.Add(s.Close(i))
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}

// EMA returns the exponential moving average of closes at end. The seed is
// the SMA over the first period bars of the series; the recursion is then
// replayed forward bar by bar up to end. Falls back to the current close
// when there is not enough history.
func EMA(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return currentClose(s, end)
	}

	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(s.Close(i))
	}
	ema := sum.Div(decimal.NewFromInt(int64(period)))

	k := two.Div(decimal.NewFromInt(int64(period + 1)))
	oneMinusK := one.Sub(k)
	for i := period; i <= end; i++ {
		ema = s.Close(i).Mul(k).Add(ema.Mul(oneMinusK))
	}
	return ema
}

// EMAOf applies the same seeded EMA recursion to an arbitrary value series
// and returns the value at the final element. Used for smoothing derived
// series such as the MACD line.
func EMAOf(values []decimal.Decimal, period int) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	if period <= 0 || len(values) < period {
		return values[len(values)-1]
	}

	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(values[i])
	}
	ema := sum.Div(decimal.NewFromInt(int64(period)))

	k := two.Div(decimal.NewFromInt(int64(period + 1)))
	oneMinusK := one.Sub(k)
	for i := period; i < len(values); i++ {
		ema = values[i].Mul(k).Add(ema.Mul(oneMinusK))
	}
	return ema
}

// AvgVolume returns the mean volume over the trailing period ending at end.
func AvgVolume(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return decimal.Zero
	}

	sum := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		sum = sum.Add(s.Bar(i).Volume)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}

func currentClose(s *types.PriceSeries, end int) decimal.Decimal {
	if end < 0 || end >= s.Len() {
		return decimal.Zero
	}
	return s.Close(end)
}
