package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/atlas-desktop/quantbt/pkg/utils"
	"github.com/shopspring/decimal"
)

// BollingerValue holds one Bollinger Bands snapshot.
type BollingerValue struct {
	Upper    decimal.Decimal
	Middle   decimal.Decimal
	Lower    decimal.Decimal
	Width    decimal.Decimal
	PercentB decimal.Decimal
}

// Bollinger computes Bollinger Bands over the trailing period with the given
// standard-deviation multiplier. The middle band is the SMA, the deviation is
// the population standard deviation of the window's closes. %B defaults to
// 0.5 when the bands collapse onto each other.
func Bollinger(s *types.PriceSeries, end, period int, mult decimal.Decimal) BollingerValue {
	if period <= 0 || end < period-1 || end >= s.Len() {
		close := currentClose(s, end)
		return BollingerValue{
			Upper:    close,
			Middle:   close,
			Lower:    close,
			PercentB: decimal.NewFromFloat(0.5),
		}
	}

	middle := SMA(s, end, period)
	periodDec := decimal.NewFromInt(int64(period))

	variance := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		diff := s.Close(i).Sub(middle)
		variance = variance.Add(diff.Mul(diff))
	}
	variance = variance.Div(periodDec)
	stdDev := utils.SqrtDecimal(variance)

	band := stdDev.Mul(mult)
	upper := middle.Add(band)
	lower := middle.Sub(band)
	width := upper.Sub(lower)

	percentB := decimal.NewFromFloat(0.5)
	if !width.IsZero() {
		percentB = s.Close(end).Sub(lower).Div(width)
	}

	return BollingerValue{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Width:    width,
		PercentB: percentB,
	}
}
