package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// FibonacciLevels holds the retracement levels between the lookback's
// extremes.
type FibonacciLevels struct {
	High     decimal.Decimal
	Low      decimal.Decimal
	Level236 decimal.Decimal
	Level382 decimal.Decimal
	Level500 decimal.Decimal
	Level618 decimal.Decimal
	Level786 decimal.Decimal
}

// Fibonacci computes retracement levels from the highest high and lowest low
// over the trailing lookback ending at end: level(p) = high - (high-low)*p.
func Fibonacci(s *types.PriceSeries, end, lookback int) FibonacciLevels {
	if lookback <= 0 || end < lookback-1 || end >= s.Len() {
		close := currentClose(s, end)
		return FibonacciLevels{
			High: close, Low: close,
			Level236: close, Level382: close, Level500: close,
			Level618: close, Level786: close,
		}
	}

	high, low := windowHighLow(s, end, lookback)
	spread := high.Sub(low)

	level := func(ratio float64) decimal.Decimal {
		return high.Sub(spread.Mul(decimal.NewFromFloat(ratio)))
	}

	return FibonacciLevels{
		High:     high,
		Low:      low,
		Level236: level(0.236),
		Level382: level(0.382),
		Level500: level(0.5),
		Level618: level(0.618),
		Level786: level(0.786),
	}
}

// SupportResistance scans the trailing lookback for local extrema: a bar is
// a local low (high) when its low (high) is the minimum (maximum) within
// window bars on both sides. Support is the nearest such low below the
// current close; resistance the nearest such high above it. Falls back to
// the window extremes when no local pivot qualifies.
func SupportResistance(s *types.PriceSeries, end, lookback, window int) (support, resistance decimal.Decimal) {
	if lookback <= 0 || window <= 0 || end < lookback-1 || end >= s.Len() {
		close := currentClose(s, end)
		return close, close
	}

	close := s.Close(end)
	start := end - lookback + 1

	for i := end - window; i >= start+window; i-- {
		bar := s.Bar(i)
		if support.IsZero() && isLocalLow(s, i, window) && bar.Low.LessThan(close) {
			support = bar.Low
		}
		if resistance.IsZero() && isLocalHigh(s, i, window) && bar.High.GreaterThan(close) {
			resistance = bar.High
		}
		if !support.IsZero() && !resistance.IsZero() {
			break
		}
	}

	high, low := windowHighLow(s, end, lookback)
	if support.IsZero() {
		support = low
	}
	if resistance.IsZero() {
		resistance = high
	}
	return support, resistance
}

func isLocalLow(s *types.PriceSeries, i, window int) bool {
	low := s.Bar(i).Low
	for j := i - window; j <= i+window; j++ {
		if j == i || j < 0 || j >= s.Len() {
			continue
		}
		if s.Bar(j).Low.LessThan(low) {
			return false
		}
	}
	return true
}

func isLocalHigh(s *types.PriceSeries, i, window int) bool {
	high := s.Bar(i).High
	for j := i - window; j <= i+window; j++ {
		if j == i || j < 0 || j >= s.Len() {
			continue
		}
		if s.Bar(j).High.GreaterThan(high) {
			return false
		}
	}
	return true
}
