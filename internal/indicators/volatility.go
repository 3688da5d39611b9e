package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) at
// index i. For the first bar the plain high-low range is used.
func TrueRange(s *types.PriceSeries, i int) decimal.Decimal {
	if i < 0 || i >= s.Len() {
		return decimal.Zero
	}

	bar := s.Bar(i)
	tr := bar.High.Sub(bar.Low)
	if i == 0 {
		return tr
	}

	prevClose := s.Close(i - 1)
	if hc := bar.High.Sub(prevClose).Abs(); hc.GreaterThan(tr) {
		tr = hc
	}
	if lc := bar.Low.Sub(prevClose).Abs(); lc.GreaterThan(tr) {
		tr = lc
	}
	return tr
}

// ATR returns the trailing average of true ranges over period bars ending at
// end. Returns zero when there is not enough history.
func ATR(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period || end >= s.Len() {
		return decimal.Zero
	}

	sum := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		sum = sum.Add(TrueRange(s, i))
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
