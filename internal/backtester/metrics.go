package backtester

import (
	"math"

	"github.com/atlas-desktop/quantbt/pkg/utils"
	"github.com/shopspring/decimal"
)

// infiniteProfitFactor is the domain convention for a trade set with gross
// profit and no gross loss.
var infiniteProfitFactor = decimal.NewFromFloat(999.99)

// totalReturnPct returns (final - initial) / initial as a percentage.
func totalReturnPct(initial, final decimal.Decimal) decimal.Decimal {
	return utils.RoundToDecimalPlaces(utils.CalculatePercentageChange(initial, final), 2)
}

// winRatePct returns the share of profitable trades as a percentage.
func winRatePct(pnls []decimal.Decimal) decimal.Decimal {
	if len(pnls) == 0 {
		return decimal.Zero
	}

	wins := 0
	for _, pnl := range pnls {
		if pnl.IsPositive() {
			wins++
		}
	}
	return decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(len(pnls)))).
		Mul(decimal.NewFromInt(100)).Round(2)
}

// profitFactor returns gross profit over gross loss. An all-winning set
// yields 999.99; an empty or profitless set yields 0. Defined fallbacks,
// not error suppression.
func profitFactor(pnls []decimal.Decimal) decimal.Decimal {
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	for _, pnl := range pnls {
		if pnl.IsPositive() {
			grossProfit = grossProfit.Add(pnl)
		} else if pnl.IsNegative() {
			grossLoss = grossLoss.Add(pnl.Abs())
		}
	}

	if grossLoss.IsZero() {
		if grossProfit.IsPositive() {
			return infiniteProfitFactor
		}
		return decimal.Zero
	}
	return grossProfit.Div(grossLoss).Round(2)
}

// averageWin returns the mean profit of winning trades.
func averageWin(pnls []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, pnl := range pnls {
		if pnl.IsPositive() {
			sum = sum.Add(pnl)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// averageLoss returns the mean absolute loss of losing trades.
func averageLoss(pnls []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, pnl := range pnls {
		if pnl.IsNegative() {
			sum = sum.Add(pnl.Abs())
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// maxDrawdownPct returns the largest peak-to-trough decline of the equity
// curve as a percentage.
func maxDrawdownPct(equityCurve []decimal.Decimal) decimal.Decimal {
	if len(equityCurve) == 0 {
		return decimal.Zero
	}

	maxDD := decimal.Zero
	peak := equityCurve[0]
	for _, equity := range equityCurve {
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if peak.IsZero() {
			continue
		}
		dd := peak.Sub(equity).Div(peak)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD.Mul(decimal.NewFromInt(100)).Round(2)
}

// sharpeRatio annualizes mean daily return over its standard deviation
// (risk-free rate 0, 252 trading days). A curve shorter than two points or
// with zero variance yields 0.
func sharpeRatio(equityCurve []decimal.Decimal) decimal.Decimal {
	series := utils.CalculateReturns(equityCurve)
	if len(series) < 2 {
		return decimal.Zero
	}

	returns := make([]float64, len(series))
	for i, r := range series {
		returns[i], _ = r.Float64()
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sumSquares float64
	for _, r := range returns {
		diff := r - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / float64(len(returns)-1))
	if stdDev == 0 {
		return decimal.Zero
	}

	sharpe := mean / stdDev * math.Sqrt(252)
	return decimal.NewFromFloat(sharpe).Round(2)
}
