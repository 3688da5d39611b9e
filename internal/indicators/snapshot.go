package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// Values is an immutable snapshot of the indicator set at one bar index.
// Fields use the conventional default parameters and are rounded to two
// places for presentation; the snapshot is recomputed per query and never
// cached across bars.
type Values struct {
	Close decimal.Decimal `json:"close"`

	SMA20  decimal.Decimal `json:"sma20"`
	SMA50  decimal.Decimal `json:"sma50"`
	SMA200 decimal.Decimal `json:"sma200"`
	EMA12  decimal.Decimal `json:"ema12"`
	EMA26  decimal.Decimal `json:"ema26"`
	EMA200 decimal.Decimal `json:"ema200"`

	RSI14         decimal.Decimal `json:"rsi14"`
	MACDLine      decimal.Decimal `json:"macdLine"`
	MACDSignal    decimal.Decimal `json:"macdSignal"`
	MACDHistogram decimal.Decimal `json:"macdHistogram"`
	StochasticK   decimal.Decimal `json:"stochasticK"`
	StochasticD   decimal.Decimal `json:"stochasticD"`
	WilliamsR     decimal.Decimal `json:"williamsR"`
	CCI20         decimal.Decimal `json:"cci20"`
	MFI14         decimal.Decimal `json:"mfi14"`

	BollingerUpper  decimal.Decimal `json:"bollingerUpper"`
	BollingerMiddle decimal.Decimal `json:"bollingerMiddle"`
	BollingerLower  decimal.Decimal `json:"bollingerLower"`
	BollingerWidth  decimal.Decimal `json:"bollingerWidth"`
	PercentB        decimal.Decimal `json:"percentB"`
	ATR14           decimal.Decimal `json:"atr14"`

	OBV       decimal.Decimal `json:"obv"`
	OBVRising bool            `json:"obvRising"`
	VWAP20    decimal.Decimal `json:"vwap20"`
	AvgVolume decimal.Decimal `json:"avgVolume"`

	ADX        decimal.Decimal `json:"adx"`
	PlusDI     decimal.Decimal `json:"plusDI"`
	MinusDI    decimal.Decimal `json:"minusDI"`
	SAR        decimal.Decimal `json:"sar"`
	SARBullish bool            `json:"sarBullish"`

	Tenkan     decimal.Decimal `json:"tenkan"`
	Kijun      decimal.Decimal `json:"kijun"`
	SenkouA    decimal.Decimal `json:"senkouA"`
	SenkouB    decimal.Decimal `json:"senkouB"`
	AboveCloud bool            `json:"aboveCloud"`

	Fib382     decimal.Decimal `json:"fib382"`
	Fib500     decimal.Decimal `json:"fib500"`
	Fib618     decimal.Decimal `json:"fib618"`
	Support    decimal.Decimal `json:"support"`
	Resistance decimal.Decimal `json:"resistance"`
}

// Snapshot computes the full indicator set at index i. Indicators without
// enough preceding history surface their neutral defaults, so a snapshot is
// always well defined, even on the first bar.
func Snapshot(s *types.PriceSeries, i int) Values {
	macd := MACD(s, i, 12, 26, 9)
	stoch := Stochastic(s, i, 14, 3)
	bb := Bollinger(s, i, 20, two)
	dir := ADX(s, i, 14)
	cloud := Ichimoku(s, i)
	fib := Fibonacci(s, i, 50)
	support, resistance := SupportResistance(s, i, 50, 3)

	r := func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

	return Values{
		Close: r(s.Close(i)),

		SMA20:  r(SMA(s, i, 20)),
		SMA50:  r(SMA(s, i, 50)),
		SMA200: r(SMA(s, i, 200)),
		EMA12:  r(EMA(s, i, 12)),
		EMA26:  r(EMA(s, i, 26)),
		EMA200: r(EMA(s, i, 200)),

		RSI14:         r(RSI(s, i, 14)),
		MACDLine:      r(macd.Line),
		MACDSignal:    r(macd.Signal),
		MACDHistogram: r(macd.Histogram),
		StochasticK:   r(stoch.K),
		StochasticD:   r(stoch.D),
		WilliamsR:     r(WilliamsR(s, i, 14)),
		CCI20:         r(CCI(s, i, 20)),
		MFI14:         r(MFI(s, i, 14)),

		BollingerUpper:  r(bb.Upper),
		BollingerMiddle: r(bb.Middle),
		BollingerLower:  r(bb.Lower),
		BollingerWidth:  r(bb.Width),
		PercentB:        r(bb.PercentB),
		ATR14:           r(ATR(s, i, 14)),

		OBV:       r(OBV(s, i)),
		OBVRising: IsOBVRising(s, i, 5),
		VWAP20:    r(VWAP(s, i, 20)),
		AvgVolume: r(AvgVolume(s, i, 20)),

		ADX:        r(dir.ADX),
		PlusDI:     r(dir.PlusDI),
		MinusDI:    r(dir.MinusDI),
		SAR:        r(ParabolicSAR(s, i)),
		SARBullish: IsSARBullish(s, i),

		Tenkan:     r(cloud.Tenkan),
		Kijun:      r(cloud.Kijun),
		SenkouA:    r(cloud.SenkouA),
		SenkouB:    r(cloud.SenkouB),
		AboveCloud: cloud.AboveCloud,

		Fib382:     r(fib.Level382),
		Fib500:     r(fib.Level500),
		Fib618:     r(fib.Level618),
		Support:    r(support),
		Resistance: r(resistance),
	}
}
