// Package pricing provides option pricing math for the opportunity scanner.
// All functions are pure and safe for concurrent use.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionSide identifies the contract side of an option.
type OptionSide string

const (
	// Put is a put option (cash-secured put when sold)
	Put OptionSide = "put"
	// Call is a call option (covered call when sold against owned shares)
	Call OptionSide = "call"
)

// stdNormal is the standard normal distribution used for delta computation.
var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Delta computes the Black-Scholes delta of an option.
//
// spot is the underlying price, strike the option strike, timeToExpiry the
// time to expiration in years, riskFreeRate the annual risk-free rate and
// volatility the annualized volatility of the underlying.
//
// Returns 0.0 when timeToExpiry or volatility is non-positive. That fallback
// is deliberate: a zero delta never passes the scanner's delta-band filter,
// so degenerate inputs are silently excluded downstream instead of surfacing
// as errors.
//
// The result lies in [0, 1] for calls and [-1, 0] for puts.
func Delta(spot, strike, timeToExpiry, riskFreeRate, volatility float64, side OptionSide) float64 {
	if timeToExpiry <= 0 || volatility <= 0 {
		return 0.0
	}
	if spot <= 0 || strike <= 0 {
		return 0.0
	}

	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*volatility*volatility)*timeToExpiry) /
		(volatility * math.Sqrt(timeToExpiry))

	if side == Put {
		return -stdNormal.CDF(-d1)
	}
	return stdNormal.CDF(d1)
}
