package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

func testOptimizer(alloc Allocator) *Optimizer {
	return NewOptimizer(alloc, DefaultTopKPerSymbol, 5, zerolog.Nop())
}

func groupedOpp(symbol, expiry string, dte int, strike, premium float64) scanner.Opportunity {
	opp := putOpportunity(symbol, strike, premium)
	opp.Expiration = expiry
	opp.DaysToExpiry = dte
	return opp
}

func TestOptimize_NoCommonExpiry(t *testing.T) {
	opt := testOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"X": {"2025-01-10": {groupedOpp("X", "2025-01-10", 5, 50, 1.00)}},
		"Y": {"2025-01-17": {groupedOpp("Y", "2025-01-17", 12, 50, 1.00)}},
	}

	assert.Empty(t, opt.Optimize([]string{"X", "Y"}, grouped))
}

func TestOptimize_SymbolWithoutResults(t *testing.T) {
	opt := testOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"X": {"2025-01-10": {groupedOpp("X", "2025-01-10", 5, 50, 1.00)}},
	}

	assert.Empty(t, opt.Optimize([]string{"X", "Y"}, grouped))
}

func TestOptimize_EmptyAndOversizedGroups(t *testing.T) {
	opt := NewOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60}, 5, 2, zerolog.Nop())
	grouped := map[string]map[string][]scanner.Opportunity{
		"X": {"2025-01-10": {groupedOpp("X", "2025-01-10", 5, 50, 1.00)}},
		"Y": {"2025-01-10": {groupedOpp("Y", "2025-01-10", 5, 50, 1.00)}},
		"Z": {"2025-01-10": {groupedOpp("Z", "2025-01-10", 5, 50, 1.00)}},
	}

	assert.Empty(t, opt.Optimize(nil, grouped))
	assert.Empty(t, opt.Optimize([]string{"X", "Y", "Z"}, grouped))
}

func TestOptimize_OneAllocationPerExpiry(t *testing.T) {
	opt := testOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-10": {groupedOpp("AAA", "2025-01-10", 5, 50, 1.00)},
			"2025-01-17": {groupedOpp("AAA", "2025-01-17", 12, 50, 0.50)},
		},
		"BBB": {
			"2025-01-10": {groupedOpp("BBB", "2025-01-10", 5, 100, 3.00)},
			"2025-01-17": {groupedOpp("BBB", "2025-01-17", 12, 100, 1.50)},
		},
	}

	results := opt.Optimize([]string{"AAA", "BBB"}, grouped)
	require.Len(t, results, 2)

	// Jan 10 carries the richer premiums and ranks first.
	assert.Equal(t, "2025-01-10", results[0].ExpiryDate)
	assert.Equal(t, "2025-01-17", results[1].ExpiryDate)
	assert.Greater(t, results[0].TotalPremiumPercentage, results[1].TotalPremiumPercentage)
}

func TestOptimize_PicksBestCombinationWithinExpiry(t *testing.T) {
	opt := testOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-10": {
				groupedOpp("AAA", "2025-01-10", 5, 50, 0.40),
				groupedOpp("AAA", "2025-01-10", 5, 55, 1.20),
			},
		},
		"BBB": {
			"2025-01-10": {
				groupedOpp("BBB", "2025-01-10", 5, 60, 0.60),
				groupedOpp("BBB", "2025-01-10", 5, 65, 1.80),
			},
		},
	}

	results := opt.Optimize([]string{"AAA", "BBB"}, grouped)
	require.Len(t, results, 1)
	require.Len(t, results[0].Legs, 2)

	// The search must land on the high-premium strike for both legs.
	assert.InDelta(t, 55, results[0].Legs[0].Opportunity.Strike, 1e-9)
	assert.InDelta(t, 65, results[0].Legs[1].Opportunity.Strike, 1e-9)
}

func TestOptimize_InfeasibleCombinationsSkipped(t *testing.T) {
	// Every combination needs more than the budget, so the expiry yields
	// nothing rather than a partial allocation.
	opt := testOptimizer(Allocator{TotalCapital: 5000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"AAA": {"2025-01-10": {groupedOpp("AAA", "2025-01-10", 5, 100, 2.00)}},
		"BBB": {"2025-01-10": {groupedOpp("BBB", "2025-01-10", 5, 100, 2.00)}},
	}

	assert.Empty(t, opt.Optimize([]string{"AAA", "BBB"}, grouped))
}

func TestOptimize_ShortlistBound(t *testing.T) {
	// With topK=1 only the highest premium-percentage strike per symbol
	// enters the search.
	opt := NewOptimizer(Allocator{TotalCapital: 20000, MinFraction: 0.15, MaxFraction: 0.60}, 1, 5, zerolog.Nop())
	grouped := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-10": {
				groupedOpp("AAA", "2025-01-10", 5, 50, 0.50),
				groupedOpp("AAA", "2025-01-10", 5, 55, 1.65),
			},
		},
	}

	results := opt.Optimize([]string{"AAA"}, grouped)
	require.Len(t, results, 1)
	assert.InDelta(t, 55, results[0].Legs[0].Opportunity.Strike, 1e-9)
}

func TestOptimize_Deterministic(t *testing.T) {
	opt := testOptimizer(Allocator{TotalCapital: 60000, MinFraction: 0.15, MaxFraction: 0.60})
	grouped := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-10": {
				groupedOpp("AAA", "2025-01-10", 5, 45, 0.90),
				groupedOpp("AAA", "2025-01-10", 5, 47, 0.95),
				groupedOpp("AAA", "2025-01-10", 5, 50, 1.00),
			},
			"2025-01-17": {
				groupedOpp("AAA", "2025-01-17", 12, 45, 1.30),
				groupedOpp("AAA", "2025-01-17", 12, 50, 1.45),
			},
		},
		"BBB": {
			"2025-01-10": {
				groupedOpp("BBB", "2025-01-10", 5, 80, 1.60),
				groupedOpp("BBB", "2025-01-10", 5, 85, 1.70),
			},
			"2025-01-17": {
				groupedOpp("BBB", "2025-01-17", 12, 80, 2.30),
			},
		},
	}
	symbols := []string{"AAA", "BBB"}

	first := opt.Optimize(symbols, grouped)
	require.NotEmpty(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, opt.Optimize(symbols, grouped))
	}
}
