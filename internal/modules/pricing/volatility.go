package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultVolatility is returned when the price history is too short to
	// estimate volatility from returns.
	DefaultVolatility = 0.25

	// MinVolatility and MaxVolatility clamp the estimate so degenerate
	// histories cannot propagate extreme values into delta computation.
	MinVolatility = 0.10
	MaxVolatility = 2.00

	// tradingDaysPerYear annualizes daily return volatility.
	tradingDaysPerYear = 252
)

// EstimateVolatility derives an annualized volatility estimate from a series
// of daily closing prices, ordered oldest first.
//
// The estimate is the sample standard deviation of log returns between
// consecutive closes, annualized by sqrt(252). Non-positive closes are
// skipped since their log return is undefined. Returns DefaultVolatility
// when fewer than two usable prices are available; the result is always
// clamped to [MinVolatility, MaxVolatility].
func EstimateVolatility(closes []float64) float64 {
	returns := logReturns(closes)
	if len(returns) < 1 {
		return DefaultVolatility
	}

	daily := stat.StdDev(returns, nil)
	if math.IsNaN(daily) {
		return DefaultVolatility
	}

	annualized := daily * math.Sqrt(tradingDaysPerYear)
	return clamp(annualized, MinVolatility, MaxVolatility)
}

// logReturns computes log returns between consecutive positive closes.
func logReturns(closes []float64) []float64 {
	var returns []float64
	prev := 0.0
	for _, c := range closes {
		if c > 0 && prev > 0 {
			returns = append(returns, math.Log(c/prev))
		}
		prev = c
	}
	return returns
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
