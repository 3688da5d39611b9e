package indicators

import (
	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// MACDValue holds the three MACD components at one index.
type MACDValue struct {
	Line      decimal.Decimal
	Signal    decimal.Decimal
	Histogram decimal.Decimal
}

// MACD computes line = EMA(fast) - EMA(slow), signal = EMA of the line
// series over signalPeriod, histogram = line - signal. The signal EMA is
// seeded with the simple average of the first signalPeriod points of the
// line's own lookback window, matching the seeding used for price EMAs.
// Returns zeros when end does not have slow+signalPeriod-2 preceding bars.
func MACD(s *types.PriceSeries, end, fast, slow, signalPeriod int) MACDValue {
	warmup := slow + signalPeriod - 2
	if fast <= 0 || slow <= fast || signalPeriod <= 0 || end < warmup || end >= s.Len() {
		return MACDValue{}
	}

	// MACD line is defined from index slow-1 onward.
	line := make([]decimal.Decimal, 0, end-slow+2)
	for i := slow - 1; i <= end; i++ {
		line = append(line, EMA(s, i, fast).Sub(EMA(s, i, slow)))
	}

	signal := EMAOf(line, signalPeriod)
	current := line[len(line)-1]
	return MACDValue{
		Line:      current,
		Signal:    signal,
		Histogram: current.Sub(signal),
	}
}
