package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// DirectionalValue holds the ADX and directional indicator lines.
type DirectionalValue struct {
	ADX     decimal.Decimal
	PlusDI  decimal.Decimal
	MinusDI decimal.Decimal
}

// ADX computes the average directional index with Wilder-style running
// smoothing of +DM, -DM and TR, replayed from the start of the series so the
// value at end is independent of query order. Requires 2*period bars of
// history; returns zeros otherwise.
func ADX(s *types.PriceSeries, end, period int) DirectionalValue {
	if period <= 0 || end < 2*period-1 || end >= s.Len() {
		return DirectionalValue{}
	}

	periodDec := decimal.NewFromInt(int64(period))

	var smoothedPlus, smoothedMinus, smoothedTR decimal.Decimal
	var adx decimal.Decimal
	dxSum := decimal.Zero
	dxCount := 0
	var plusDI, minusDI decimal.Decimal

	for i := 1; i <= end; i++ {
		plusDM, minusDM := directionalMovement(s, i)
		tr := TrueRange(s, i)

		if i <= period {
			smoothedPlus = smoothedPlus.Add(plusDM)
			smoothedMinus = smoothedMinus.Add(minusDM)
			smoothedTR = smoothedTR.Add(tr)
			if i < period {
				continue
			}
		} else {
			smoothedPlus = smoothedPlus.Sub(smoothedPlus.Div(periodDec)).Add(plusDM)
			smoothedMinus = smoothedMinus.Sub(smoothedMinus.Div(periodDec)).Add(minusDM)
			smoothedTR = smoothedTR.Sub(smoothedTR.Div(periodDec)).Add(tr)
		}

		plusDI = decimal.Zero
		minusDI = decimal.Zero
		if !smoothedTR.IsZero() {
			plusDI = hundred.Mul(smoothedPlus).Div(smoothedTR)
			minusDI = hundred.Mul(smoothedMinus).Div(smoothedTR)
		}

		diSum := plusDI.Add(minusDI)
		dx := decimal.Zero
		if !diSum.IsZero() {
			dx = hundred.Mul(plusDI.Sub(minusDI).Abs()).Div(diSum)
		}

		dxCount++
		if dxCount <= period {
			dxSum = dxSum.Add(dx)
			if dxCount == period {
				adx = dxSum.Div(periodDec)
			}
		} else {
			adx = adx.Mul(periodDec.Sub(one)).Add(dx).Div(periodDec)
		}
	}

	return DirectionalValue{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}
}

func directionalMovement(s *types.PriceSeries, i int) (plusDM, minusDM decimal.Decimal) {
	upMove := s.Bar(i).High.Sub(s.Bar(i - 1).High)
	downMove := s.Bar(i - 1).Low.Sub(s.Bar(i).Low)

	if upMove.GreaterThan(downMove) && upMove.IsPositive() {
		plusDM = upMove
	}
	if downMove.GreaterThan(upMove) && downMove.IsPositive() {
		minusDM = downMove
	}
	return plusDM, minusDM
}

var (
	sarAFStart = decimal.NewFromFloat(0.02)
	sarAFStep  = decimal.NewFromFloat(0.02)
	sarAFMax   = decimal.NewFromFloat(0.2)
)

// ParabolicSAR computes the stop-and-reverse value at end by replaying the
// trend/acceleration recursion from the start of the series. The SAR flips
// to the prior extreme point and resets its acceleration factor whenever
// price crosses it. Returns the current low when fewer than three bars are
// available.
func ParabolicSAR(s *types.PriceSeries, end int) decimal.Decimal {
	if end < 0 || end >= s.Len() {
		return decimal.Zero
	}
	if end < 2 {
		return s.Bar(end).Low
	}

	uptrend := s.Close(1).GreaterThan(s.Close(0))
	var sar, ep decimal.Decimal
	if uptrend {
		sar = decimal.Min(s.Bar(0).Low, s.Bar(1).Low)
		ep = decimal.Max(s.Bar(0).High, s.Bar(1).High)
	} else {
		sar = decimal.Max(s.Bar(0).High, s.Bar(1).High)
		ep = decimal.Min(s.Bar(0).Low, s.Bar(1).Low)
	}
	af := sarAFStart

	for i := 2; i <= end; i++ {
		sar = sar.Add(af.Mul(ep.Sub(sar)))

		bar := s.Bar(i)
		if uptrend {
			// SAR may not rise above the prior two lows.
			limit := decimal.Min(s.Bar(i-1).Low, s.Bar(i-2).Low)
			if sar.GreaterThan(limit) {
				sar = limit
			}
			if bar.Low.LessThan(sar) {
				uptrend = false
				sar = ep
				ep = bar.Low
				af = sarAFStart
			} else if bar.High.GreaterThan(ep) {
				ep = bar.High
				af = decimal.Min(af.Add(sarAFStep), sarAFMax)
			}
		} else {
			limit := decimal.Max(s.Bar(i-1).High, s.Bar(i-2).High)
			if sar.LessThan(limit) {
				sar = limit
			}
			if bar.High.GreaterThan(sar) {
				uptrend = true
				sar = ep
				ep = bar.High
				af = sarAFStart
			} else if bar.Low.LessThan(ep) {
				ep = bar.Low
				af = decimal.Min(af.Add(sarAFStep), sarAFMax)
			}
		}
	}

	return sar
}

// IsSARBullish reports whether the current SAR sits below the closing price.
func IsSARBullish(s *types.PriceSeries, end int) bool {
	if end < 0 || end >= s.Len() {
		return false
	}
	return ParabolicSAR(s, end).LessThan(s.Close(end))
}

// IchimokuValue holds the Ichimoku cloud lines at one index.
type IchimokuValue struct {
	Tenkan     decimal.Decimal
	Kijun      decimal.Decimal
	SenkouA    decimal.Decimal
	SenkouB    decimal.Decimal
	AboveCloud bool
}

// Ichimoku computes the cloud with the conventional 9/26/52 periods.
// AboveCloud is true when the close exceeds both senkou spans. Falls back to
// close-valued lines when fewer than 52 bars precede end.
func Ichimoku(s *types.PriceSeries, end int) IchimokuValue {
	const tenkanPeriod, kijunPeriod, senkouPeriod = 9, 26, 52

	if end < senkouPeriod-1 || end >= s.Len() {
		close := currentClose(s, end)
		return IchimokuValue{Tenkan: close, Kijun: close, SenkouA: close, SenkouB: close}
	}

	tenkan := midpoint(s, end, tenkanPeriod)
	kijun := midpoint(s, end, kijunPeriod)
	senkouA := tenkan.Add(kijun).Div(two)
	senkouB := midpoint(s, end, senkouPeriod)

	close := s.Close(end)
	return IchimokuValue{
		Tenkan:     tenkan,
		Kijun:      kijun,
		SenkouA:    senkouA,
		SenkouB:    senkouB,
		AboveCloud: close.GreaterThan(senkouA) && close.GreaterThan(senkouB),
	}
}

func midpoint(s *types.PriceSeries, end, period int) decimal.Decimal {
	high, low := windowHighLow(s, end, period)
	return high.Add(low).Div(two)
}
