package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// OBV returns on-balance volume accumulated from the start of the series
// through end: +volume on up closes, -volume on down closes, unchanged on
// flat closes.
func OBV(s *types.PriceSeries, end int) decimal.Decimal {
	if end < 0 || end >= s.Len() {
		return decimal.Zero
	}

	obv := decimal.Zero
	for i := 1; i <= end; i++ {
		switch {
		case s.Close(i).GreaterThan(s.Close(i - 1)):
			obv = obv.Add(s.Bar(i).Volume)
		case s.Close(i).LessThan(s.Close(i - 1)):
			obv = obv.Sub(s.Bar(i).Volume)
		}
	}
	return obv
}

// IsOBVRising reports whether OBV at end exceeds OBV lookback bars earlier.
func IsOBVRising(s *types.PriceSeries, end, lookback int) bool {
	if lookback <= 0 || end-lookback < 0 || end >= s.Len() {
		return false
	}
	return OBV(s, end).GreaterThan(OBV(s, end-lookback))
}

// VWAP returns the volume-weighted average price of typical prices over the
// trailing period ending at end. Falls back to the current close when volume
// is absent or history is insufficient.
func VWAP(s *types.PriceSeries, end, period int) decimal.Decimal {
	if period <= 0 || end < period-1 || end >= s.Len() {
		return currentClose(s, end)
	}

	priceVolume := decimal.Zero
	volume := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		bar := s.Bar(i)
		priceVolume = priceVolume.Add(typicalPrice(bar).Mul(bar.Volume))
		volume = volume.Add(bar.Volume)
	}
	if volume.IsZero() {
		return currentClose(s, end)
	}
	return priceVolume.Div(volume)
}
