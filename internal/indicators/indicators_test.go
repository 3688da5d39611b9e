package indicators

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-desktop/quantbt/pkg/types"
)

// makeSeries builds a daily series where each bar straddles its close by one
// point, so oscillators always see a non-degenerate high/low range.
func makeSeries(t *testing.T, closes ...float64) *types.PriceSeries {
	t.Helper()

	bars := make([]types.PriceBar, len(closes))
	date := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Date:     date.AddDate(0, 0, i),
			Open:     decimal.NewFromFloat(c),
			High:     decimal.NewFromFloat(c + 1),
			Low:      decimal.NewFromFloat(c - 1),
			Close:    decimal.NewFromFloat(c),
			AdjClose: decimal.NewFromFloat(c),
			Volume:   decimal.NewFromInt(1000),
		}
	}

	s, err := types.NewPriceSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func assertDecimal(t *testing.T, expected float64, actual decimal.Decimal, delta float64) {
	t.Helper()
	got, _ := actual.Float64()
	assert.InDelta(t, expected, got, delta)
}

func TestSMA(t *testing.T) {
	s := makeSeries(t, 1, 2, 3, 4, 5)

	assertDecimal(t, 3, SMA(s, 4, 5), 1e-9)
	assertDecimal(t, 4, SMA(s, 4, 3), 1e-9)

	// Not enough history falls back to the current close.
	assertDecimal(t, 2, SMA(s, 1, 5), 1e-9)
}

func TestEMA(t *testing.T) {
	s := makeSeries(t, 1, 2, 3, 4, 5)

	// Seed SMA(1,2,3) = 2, k = 0.5: 4*0.5+2*0.5 = 3, then 5*0.5+3*0.5 = 4.
	assertDecimal(t, 4, EMA(s, 4, 3), 1e-9)

	flat := makeSeries(t, 10, 10, 10, 10, 10, 10)
	assertDecimal(t, 10, EMA(flat, 5, 3), 1e-9)

	// Same index twice yields the same value.
	first := EMA(s, 4, 3)
	second := EMA(s, 4, 3)
	assert.True(t, first.Equal(second))
}

func TestEMAOf(t *testing.T) {
	values := []decimal.Decimal{
		decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3),
		decimal.NewFromInt(4), decimal.NewFromInt(5),
	}
	assertDecimal(t, 4, EMAOf(values, 3), 1e-9)
	assert.True(t, EMAOf(nil, 3).IsZero())
}

func TestRSI(t *testing.T) {
	up := makeSeries(t, 10, 11, 12, 13, 14, 15)
	down := makeSeries(t, 15, 14, 13, 12, 11, 10)
	s := makeSeries(t, 10, 11, 10, 11)

	// No losing change in the window.
	assertDecimal(t, 100, RSI(up, 5, 3), 1e-9)
	// No winning change: RS = 0.
	assertDecimal(t, 0, RSI(down, 5, 3), 1e-9)
	// Equal gains and losses.
	assertDecimal(t, 50, RSI(s, 3, 2), 1e-9)

	// Warmup returns neutral.
	assertDecimal(t, 50, RSI(up, 2, 3), 1e-9)
}

func TestMACD(t *testing.T) {
	s := makeSeries(t,
		10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
		10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
	)
	v := MACD(s, 19, 3, 6, 4)
	assert.True(t, v.Line.IsZero())
	assert.True(t, v.Signal.IsZero())
	assert.True(t, v.Histogram.IsZero())

	// Warmup returns zeros.
	warm := MACD(s, 5, 3, 6, 4)
	assert.True(t, warm.Line.IsZero())

	// A rising series puts the fast EMA above the slow EMA.
	up := makeSeries(t,
		10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
		20, 21, 22, 23, 24, 25, 26, 27, 28, 29,
	)
	rising := MACD(up, 19, 3, 6, 4)
	assert.True(t, rising.Line.IsPositive())
}

func TestStochastic(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10, 10, 10, 10, 10)

	// Flat bars put the close midway between the window high and low.
	v := Stochastic(flat, 7, 5, 3)
	assertDecimal(t, 50, v.K, 1e-9)
	assertDecimal(t, 50, v.D, 1e-9)

	// Warmup neutral.
	w := Stochastic(flat, 2, 5, 3)
	assertDecimal(t, 50, w.K, 1e-9)

	// Close at the window high yields K near 100.
	up := makeSeries(t, 10, 11, 12, 13, 14, 15, 16, 17)
	k := Stochastic(up, 7, 5, 3).K
	assert.True(t, k.GreaterThan(decimal.NewFromInt(80)))
}

func TestWilliamsR(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10, 10)
	assertDecimal(t, -50, WilliamsR(flat, 4, 3), 1e-9)

	up := makeSeries(t, 10, 12, 14, 16, 18)
	wpr := WilliamsR(up, 4, 3)
	assert.True(t, wpr.GreaterThan(decimal.NewFromInt(-25)))
	assert.True(t, wpr.LessThanOrEqual(decimal.Zero))
}

func TestCCI(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10, 10)
	assert.True(t, CCI(flat, 4, 3).IsZero())

	up := makeSeries(t, 10, 11, 12, 13, 14, 15)
	assert.True(t, CCI(up, 5, 4).IsPositive())
}

func TestMFI(t *testing.T) {
	up := makeSeries(t, 10, 11, 12, 13, 14, 15)
	assertDecimal(t, 100, MFI(up, 5, 3), 1e-9)

	down := makeSeries(t, 15, 14, 13, 12, 11, 10)
	assertDecimal(t, 0, MFI(down, 5, 3), 1e-9)

	assertDecimal(t, 50, MFI(up, 2, 3), 1e-9)
}

func TestBollinger(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10, 10, 10)
	v := Bollinger(flat, 5, 5, two)
	assertDecimal(t, 10, v.Middle, 1e-9)
	assertDecimal(t, 10, v.Upper, 1e-6)
	assertDecimal(t, 10, v.Lower, 1e-6)
	assertDecimal(t, 0.5, v.PercentB, 1e-9)

	s := makeSeries(t, 10, 12, 14, 12, 10)
	b := Bollinger(s, 4, 5, two)
	assertDecimal(t, 11.6, b.Middle, 1e-9)
	assert.True(t, b.Upper.GreaterThan(b.Middle))
	assert.True(t, b.Lower.LessThan(b.Middle))
	assert.True(t, b.Width.Equal(b.Upper.Sub(b.Lower)))
}

func TestTrueRangeAndATR(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10, 10)

	// Every bar spans 2 points and closes at its midpoint.
	assertDecimal(t, 2, TrueRange(flat, 0), 1e-9)
	assertDecimal(t, 2, TrueRange(flat, 3), 1e-9)
	assertDecimal(t, 2, ATR(flat, 4, 3), 1e-9)

	// Warmup returns zero.
	assert.True(t, ATR(flat, 2, 3).IsZero())
}

func TestOBV(t *testing.T) {
	up := makeSeries(t, 10, 11, 12, 13)
	assertDecimal(t, 3000, OBV(up, 3), 1e-9)

	down := makeSeries(t, 13, 12, 11, 10)
	assertDecimal(t, -3000, OBV(down, 3), 1e-9)

	assert.True(t, IsOBVRising(up, 3, 2))
	assert.False(t, IsOBVRising(down, 3, 2))
}

func TestVWAP(t *testing.T) {
	flat := makeSeries(t, 10, 10, 10, 10)
	assertDecimal(t, 10, VWAP(flat, 3, 3), 1e-9)

	// Insufficient history falls back to the close.
	assertDecimal(t, 10, VWAP(flat, 1, 3), 1e-9)
}

func TestADX(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	up := makeSeries(t, closes...)

	v := ADX(up, 39, 14)
	assert.True(t, v.PlusDI.GreaterThan(v.MinusDI))
	assert.True(t, v.ADX.GreaterThan(decimal.NewFromInt(20)))
	assert.True(t, v.ADX.LessThanOrEqual(hundred))

	// Needs 2*period bars of history.
	warm := ADX(up, 20, 14)
	assert.True(t, warm.ADX.IsZero())
}

func TestParabolicSAR(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	up := makeSeries(t, closes...)

	sar := ParabolicSAR(up, 19)
	assert.True(t, sar.LessThan(up.Close(19)))
	assert.True(t, IsSARBullish(up, 19))

	// Too little history returns the current low.
	assertDecimal(t, 10, ParabolicSAR(up, 1), 1e-9)
}

func TestIchimoku(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	up := makeSeries(t, closes...)

	v := Ichimoku(up, 59)
	assert.True(t, v.Tenkan.GreaterThan(v.Kijun))
	assert.True(t, v.AboveCloud)

	// Fallback before 52 bars of history.
	short := Ichimoku(up, 10)
	assert.True(t, short.Tenkan.Equal(up.Close(10)))
	assert.False(t, short.AboveCloud)
}

func TestFibonacci(t *testing.T) {
	s := makeSeries(t, 10, 15, 20, 15, 10)

	// Window high 21, low 9, spread 12.
	f := Fibonacci(s, 4, 5)
	assertDecimal(t, 21, f.High, 1e-9)
	assertDecimal(t, 9, f.Low, 1e-9)
	assertDecimal(t, 15, f.Level500, 1e-9)
	assertDecimal(t, 21-12*0.382, f.Level382, 1e-9)
	assertDecimal(t, 21-12*0.618, f.Level618, 1e-9)
}

func TestSupportResistance(t *testing.T) {
	s := makeSeries(t, 10, 8, 10, 12, 14, 12, 14, 13, 12, 12)

	support, resistance := SupportResistance(s, 9, 10, 2)
	assert.True(t, support.LessThan(s.Close(9)))
	assert.True(t, resistance.GreaterThan(s.Close(9)))
}

func TestSnapshotRoundsToTwoPlaces(t *testing.T) {
	closes := make([]float64, 220)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.37
	}
	s := makeSeries(t, closes...)

	v := Snapshot(s, 219)
	assert.True(t, v.SMA20.Equal(v.SMA20.Round(2)))
	assert.True(t, v.RSI14.Equal(v.RSI14.Round(2)))
	assert.True(t, v.BollingerUpper.Equal(v.BollingerUpper.Round(2)))
	assert.True(t, v.ATR14.Equal(v.ATR14.Round(2)))
}
