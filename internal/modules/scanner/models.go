// Package scanner identifies option-selling opportunities within a target
// delta band: cash-secured puts and covered calls with attractive premium
// yield and near-dated expirations.
package scanner

import (
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
)

// OptionQuote is a single market quote from the quote provider. Quotes are
// produced fresh per scan call and never mutated.
type OptionQuote struct {
	Symbol       string             `json:"symbol"`
	Expiration   string             `json:"expiration"` // YYYY-MM-DD
	Strike       float64            `json:"strike"`
	Bid          float64            `json:"bid"`
	Ask          float64            `json:"ask"`
	Side         pricing.OptionSide `json:"side"`
	SpotPrice    float64            `json:"spot_price"`
	DaysToExpiry int                `json:"days_to_expiry"`
}

// Opportunity is an immutable record derived from an OptionQuote plus
// computed pricing and yield fields.
type Opportunity struct {
	Symbol       string             `json:"symbol"`
	Expiration   string             `json:"expiration"`
	DaysToExpiry int                `json:"days_to_exp"`
	Side         pricing.OptionSide `json:"side"`
	Strike       float64            `json:"strike"`
	SpotPrice    float64            `json:"current_price"`
	Bid          float64            `json:"bid"`
	Ask          float64            `json:"ask"`

	// Premium is the mid price (bid+ask)/2, per share.
	Premium  float64 `json:"premium"`
	Delta    float64 `json:"delta"`
	AbsDelta float64 `json:"abs_delta"`

	// PremiumPercentage is premium relative to strike, in percent.
	PremiumPercentage float64 `json:"premium_percentage"`
	// AnnualizedReturn scales PremiumPercentage to a 365-day year.
	AnnualizedReturn float64 `json:"annualized_return"`

	// CollateralRequired is the cash needed per contract: strike*100 for a
	// cash-secured put, 0 for a covered call (the shares themselves are the
	// collateral, so the figure is informational only).
	CollateralRequired float64 `json:"collateral_required"`
	// MaxProfit is the premium collected per contract (premium*100).
	MaxProfit float64 `json:"max_profit"`
	// Breakeven is the underlying price at which the position breaks even at
	// expiry: strike-premium for a put, spot-premium for a covered call.
	Breakeven float64 `json:"breakeven"`
}

// DeltaBand bounds the absolute delta of surfaced opportunities.
type DeltaBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultDeltaBand targets roughly a 15-25% assignment probability.
var DefaultDeltaBand = DeltaBand{Min: 0.15, Max: 0.25}

// Contains reports whether an absolute delta falls inside the band.
func (b DeltaBand) Contains(absDelta float64) bool {
	return absDelta >= b.Min && absDelta <= b.Max
}

// ScanParams holds all inputs for a single-symbol scan.
type ScanParams struct {
	Symbol           string
	Quotes           []OptionQuote
	SpotPrice        float64
	Volatility       float64
	RiskFreeRate     float64
	ExpiryWindowDays int
	Band             DeltaBand
	Side             pricing.OptionSide
}
