package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// DefaultVolatility is assumed when fewer than two usable closes exist.
	DefaultVolatility = 0.20
	// MinVolatility floors the estimate so degenerate flat windows still
	// price to something nonzero.
	MinVolatility = 0.01

	tradingDaysPerYear = 252
)

// EstimateVolatility returns the annualized standard deviation of log
// returns over the trailing lookback closes. Non-positive closes are
// skipped; the estimate is floored at MinVolatility and defaults to
// DefaultVolatility when fewer than two usable prices remain.
func EstimateVolatility(closes []decimal.Decimal, lookback int) float64 {
	if lookback > 0 && len(closes) > lookback {
		closes = closes[len(closes)-lookback:]
	}

	prices := make([]float64, 0, len(closes))
	for _, c := range closes {
		f, _ := c.Float64()
		if f > 0 {
			prices = append(prices, f)
		}
	}
	if len(prices) < 2 {
		return DefaultVolatility
	}

	logReturns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		logReturns = append(logReturns, math.Log(prices[i]/prices[i-1]))
	}
	if len(logReturns) < 2 {
		return DefaultVolatility
	}

	var sum float64
	for _, r := range logReturns {
		sum += r
	}
	mean := sum / float64(len(logReturns))

	var sumSquares float64
	for _, r := range logReturns {
		diff := r - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / float64(len(logReturns)-1))

	vol := stdDev * math.Sqrt(tradingDaysPerYear)
	if vol < MinVolatility {
		return MinVolatility
	}
	return vol
}
