// Package pricing provides the Black-Scholes option pricing model used to
// value synthetic option premiums when no options-market data is available.
//
// The closed form needs transcendental functions, so the model computes in
// float64 internally and converts back to decimal at the boundary.
package pricing

import (
	"math"

	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// Price returns the Black-Scholes premium for the given contract. When the
// option has expired (timeToExpiry <= 0) or volatility is degenerate it
// returns pure intrinsic value. The premium is clamped at zero.
func Price(optType types.OptionType, spot, strike decimal.Decimal, timeToExpiry, riskFreeRate, vol float64) decimal.Decimal {
	if timeToExpiry <= 0 || vol <= 0 {
		return IntrinsicValue(optType, spot, strike)
	}

	s, _ := spot.Float64()
	k, _ := strike.Float64()
	if s <= 0 || k <= 0 {
		return IntrinsicValue(optType, spot, strike)
	}

	d1, d2 := dValues(s, k, timeToExpiry, riskFreeRate, vol)
	discount := math.Exp(-riskFreeRate * timeToExpiry)

	var price float64
	if optType == types.OptionCall {
		price = s*normCDF(d1) - k*discount*normCDF(d2)
	} else {
		price = k*discount*normCDF(-d2) - s*normCDF(-d1)
	}

	if price < 0 {
		price = 0
	}
	return decimal.NewFromFloat(price)
}

// Delta returns the option delta. Expired or zero-vol options collapse to
// the moneyness boundary: 1/0 for calls, -1/0 for puts.
func Delta(optType types.OptionType, spot, strike decimal.Decimal, timeToExpiry, riskFreeRate, vol float64) decimal.Decimal {
	if timeToExpiry <= 0 || vol <= 0 {
		if optType == types.OptionCall {
			if spot.GreaterThan(strike) {
				return decimal.NewFromInt(1)
			}
			return decimal.Zero
		}
		if spot.LessThan(strike) {
			return decimal.NewFromInt(-1)
		}
		return decimal.Zero
	}

	s, _ := spot.Float64()
	k, _ := strike.Float64()
	d1, _ := dValues(s, k, timeToExpiry, riskFreeRate, vol)

	if optType == types.OptionCall {
		return decimal.NewFromFloat(normCDF(d1))
	}
	return decimal.NewFromFloat(normCDF(d1) - 1)
}

// Theta returns time decay per calendar day. Degenerate contracts decay
// nothing and return zero.
func Theta(optType types.OptionType, spot, strike decimal.Decimal, timeToExpiry, riskFreeRate, vol float64) decimal.Decimal {
	if timeToExpiry <= 0 || vol <= 0 {
		return decimal.Zero
	}

	s, _ := spot.Float64()
	k, _ := strike.Float64()
	if s <= 0 || k <= 0 {
		return decimal.Zero
	}

	d1, d2 := dValues(s, k, timeToExpiry, riskFreeRate, vol)
	discount := math.Exp(-riskFreeRate * timeToExpiry)
	decay := -s * normPDF(d1) * vol / (2 * math.Sqrt(timeToExpiry))

	var theta float64
	if optType == types.OptionCall {
		theta = decay - riskFreeRate*k*discount*normCDF(d2)
	} else {
		theta = decay + riskFreeRate*k*discount*normCDF(-d2)
	}

	return decimal.NewFromFloat(theta / 365)
}

// IntrinsicValue returns max(spot-strike, 0) for calls and max(strike-spot, 0)
// for puts.
func IntrinsicValue(optType types.OptionType, spot, strike decimal.Decimal) decimal.Decimal {
	var intrinsic decimal.Decimal
	if optType == types.OptionCall {
		intrinsic = spot.Sub(strike)
	} else {
		intrinsic = strike.Sub(spot)
	}
	if intrinsic.IsNegative() {
		return decimal.Zero
	}
	return intrinsic
}

func dValues(s, k, t, r, vol float64) (d1, d2 float64) {
	volSqrtT := vol * math.Sqrt(t)
	d1 = (math.Log(s/k) + (r+vol*vol/2)*t) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// normCDF approximates the cumulative standard normal distribution with the
// Abramowitz-Stegun 7.1.26 polynomial, accurate past six significant digits.
func normCDF(x float64) float64 {
	if x < 0 {
		return 1 - normCDF(-x)
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	z := x / math.Sqrt2
	t := 1 / (1 + p*z)
	erf := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-z*z)
	return 0.5 * (1 + erf)
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
