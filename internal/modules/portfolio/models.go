// Package portfolio allocates a fixed capital budget across option-selling
// opportunities on multiple symbols sharing a common expiration date.
package portfolio

import (
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// Score weights blend premium yield with capital utilization when ranking
// allocation candidates.
const (
	premiumScoreWeight    = 0.7
	efficiencyScoreWeight = 0.3
)

// AllocationLeg is one symbol's position within a candidate portfolio.
type AllocationLeg struct {
	Symbol      string              `json:"symbol"`
	Opportunity scanner.Opportunity `json:"opportunity"`
	// Contracts is the number of contracts sold for this leg.
	Contracts int `json:"contracts"`
	// AllocatedCapital is contracts * collateral per contract, always an
	// exact multiple of the per-contract collateral.
	AllocatedCapital float64 `json:"allocated_capital"`
	// Premium is the cash collected: contracts * premium * 100.
	Premium float64 `json:"premium"`
}

// PortfolioAllocation is the result of one allocation attempt for one expiry
// and one combination of opportunities. It always contains exactly one leg
// per requested symbol; partial allocations are rejected, not returned.
type PortfolioAllocation struct {
	ExpiryDate   string          `json:"expiry_date"`
	DaysToExpiry int             `json:"days_to_expiry"`
	Legs         []AllocationLeg `json:"allocations"`

	TotalAllocatedCapital float64 `json:"total_allocated_capital"`
	TotalPremium          float64 `json:"total_premium"`
	// TotalPremiumPercentage is total premium over total allocated capital,
	// in percent.
	TotalPremiumPercentage float64 `json:"total_premium_percentage"`
	// CapitalEfficiency is allocated capital over the full budget, in
	// percent.
	CapitalEfficiency float64 `json:"capital_efficiency"`
	UnusedCapital     float64 `json:"unused_capital"`
	// Score is the ranking blend: 0.7*premium percentage + 0.3*efficiency.
	Score float64 `json:"score"`
}
