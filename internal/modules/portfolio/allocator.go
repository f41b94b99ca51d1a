package portfolio

import (
	"math"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// Allocator distributes a fixed capital budget across one opportunity per
// symbol using a two-phase greedy strategy with per-symbol diversification
// bounds. All fields are plain values; an Allocator is safe to share across
// goroutines.
type Allocator struct {
	// TotalCapital is the full budget for one allocation attempt.
	TotalCapital float64
	// MinFraction is the minimum share of capital each symbol must receive.
	MinFraction float64
	// MaxFraction caps any single symbol's share of capital.
	MaxFraction float64
}

// Allocate computes a best-effort maximal-utilization allocation for one
// combination of opportunities, one per symbol. Symbols are processed in the
// given order, which makes the result fully deterministic.
//
// Phase 1 seeds every symbol with its minimum position: at least one
// contract, or as many as the minimum capital fraction affords. Phase 2 then
// greedily adds single contracts to whichever symbol offers the highest
// premium per collateral dollar, subject to remaining budget and the
// per-symbol cap. A final one-shot correction pass handles the case where
// phase 2 stopped on the cap rather than affordability.
//
// Returns false when the combination is infeasible: the seed minimums
// jointly exceed the budget, or a symbol's collateral makes even one
// contract unaffordable. The greedy strategy does not guarantee maximal
// capital utilization in every case; that is a documented limitation, not a
// bug.
func (a Allocator) Allocate(symbols []string, combo map[string]scanner.Opportunity) (PortfolioAllocation, bool) {
	if len(symbols) == 0 {
		return PortfolioAllocation{}, false
	}

	legs := make([]AllocationLeg, 0, len(symbols))
	remaining := a.TotalCapital
	minCapital := a.TotalCapital * a.MinFraction
	maxCapital := a.TotalCapital * a.MaxFraction

	// Phase 1: seed the minimum position for every symbol. A combination
	// that cannot satisfy the joint minimums fails outright.
	for _, symbol := range symbols {
		opp, ok := combo[symbol]
		if !ok {
			return PortfolioAllocation{}, false
		}
		collateral := opp.CollateralRequired
		if collateral <= 0 {
			// Covered calls carry no cash collateral; capital allocation is
			// only defined for cash-secured positions.
			return PortfolioAllocation{}, false
		}

		contracts := int(math.Floor(minCapital / collateral))
		if contracts < 1 {
			contracts = 1
		}
		seed := float64(contracts) * collateral
		if seed > remaining {
			return PortfolioAllocation{}, false
		}

		legs = append(legs, AllocationLeg{
			Symbol:           symbol,
			Opportunity:      opp,
			Contracts:        contracts,
			AllocatedCapital: seed,
			Premium:          float64(contracts) * opp.Premium * 100,
		})
		remaining -= seed
	}

	// Phase 2: greedy capital maximization. Add one contract at a time to
	// the affordable, under-cap symbol with the best premium-per-dollar
	// ratio; first symbol in iteration order wins exact ratio ties.
	for {
		bestIdx := -1
		bestRatio := 0.0

		for i := range legs {
			collateral := legs[i].Opportunity.CollateralRequired
			if collateral > remaining {
				continue
			}
			if legs[i].AllocatedCapital+collateral > maxCapital {
				continue
			}
			ratio := legs[i].Opportunity.Premium * 100 / collateral
			if ratio > bestRatio {
				bestRatio = ratio
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}
		addContract(&legs[bestIdx])
		remaining -= legs[bestIdx].Opportunity.CollateralRequired
	}

	// Correction pass: when phase 2 stopped on the per-symbol cap rather
	// than affordability, try exactly one more contract on the first leg
	// that can still accept it. A single best-effort pass, not a loop.
	cheapest := math.Inf(1)
	for i := range legs {
		if c := legs[i].Opportunity.CollateralRequired; c < cheapest {
			cheapest = c
		}
	}
	if remaining >= cheapest {
		for i := range legs {
			collateral := legs[i].Opportunity.CollateralRequired
			if collateral <= remaining && legs[i].AllocatedCapital+collateral <= maxCapital {
				addContract(&legs[i])
				remaining -= collateral
				break
			}
		}
	}

	return a.summarize(legs), true
}

// addContract grows a leg by one contract, keeping its capital an exact
// multiple of the per-contract collateral.
func addContract(leg *AllocationLeg) {
	leg.Contracts++
	leg.AllocatedCapital += leg.Opportunity.CollateralRequired
	leg.Premium += leg.Opportunity.Premium * 100
}

// summarize computes the aggregate metrics and combined score for a
// completed set of legs.
func (a Allocator) summarize(legs []AllocationLeg) PortfolioAllocation {
	var allocated, premium float64
	for _, leg := range legs {
		allocated += leg.AllocatedCapital
		premium += leg.Premium
	}

	premiumPct := 0.0
	if allocated > 0 {
		premiumPct = premium / allocated * 100
	}
	efficiency := 0.0
	if a.TotalCapital > 0 {
		efficiency = allocated / a.TotalCapital * 100
	}

	result := PortfolioAllocation{
		Legs:                   legs,
		TotalAllocatedCapital:  allocated,
		TotalPremium:           premium,
		TotalPremiumPercentage: premiumPct,
		CapitalEfficiency:      efficiency,
		UnusedCapital:          a.TotalCapital - allocated,
		Score:                  premiumScoreWeight*premiumPct + efficiencyScoreWeight*efficiency,
	}
	if len(legs) > 0 {
		result.ExpiryDate = legs[0].Opportunity.Expiration
		result.DaysToExpiry = legs[0].Opportunity.DaysToExpiry
	}
	return result
}
