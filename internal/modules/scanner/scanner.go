package scanner

import (
	"sort"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
)

// Scan computes delta and yield metrics for every quote in the chain and
// returns the opportunities whose absolute delta falls inside the band,
// ordered by premium percentage descending.
//
// Quotes are excluded when they expire outside (0, ExpiryWindowDays], when
// either side of the market is non-positive (no tradable market), or when
// the computed delta misses the band. Degenerate pricing inputs yield a zero
// delta, which never passes the band filter.
//
// An empty result is the normal "no opportunity" outcome, never an error.
func Scan(params ScanParams) []Opportunity {
	opportunities := make([]Opportunity, 0, len(params.Quotes))

	for _, quote := range params.Quotes {
		if quote.DaysToExpiry <= 0 || quote.DaysToExpiry > params.ExpiryWindowDays {
			continue
		}
		if quote.Bid <= 0 || quote.Ask <= 0 {
			continue
		}

		timeToExpiry := float64(quote.DaysToExpiry) / 365.0
		delta := pricing.Delta(
			params.SpotPrice,
			quote.Strike,
			timeToExpiry,
			params.RiskFreeRate,
			params.Volatility,
			params.Side,
		)

		absDelta := delta
		if absDelta < 0 {
			absDelta = -absDelta
		}
		if !params.Band.Contains(absDelta) {
			continue
		}

		opportunities = append(opportunities, buildOpportunity(params, quote, delta, absDelta))
	}

	sortOpportunities(opportunities)
	return opportunities
}

// buildOpportunity derives the yield and risk fields for a qualifying quote.
func buildOpportunity(params ScanParams, quote OptionQuote, delta, absDelta float64) Opportunity {
	premium := (quote.Bid + quote.Ask) / 2
	premiumPct := premium / quote.Strike * 100
	annualized := premiumPct * 365 / float64(quote.DaysToExpiry)

	var collateral, breakeven float64
	if params.Side == pricing.Put {
		// Cash-secured put: reserve cash for 100 shares at the strike
		collateral = quote.Strike * 100
		breakeven = quote.Strike - premium
	} else {
		// Covered call: shares are already owned, premium lowers the basis
		collateral = 0
		breakeven = params.SpotPrice - premium
	}

	return Opportunity{
		Symbol:             params.Symbol,
		Expiration:         quote.Expiration,
		DaysToExpiry:       quote.DaysToExpiry,
		Side:               params.Side,
		Strike:             quote.Strike,
		SpotPrice:          params.SpotPrice,
		Bid:                quote.Bid,
		Ask:                quote.Ask,
		Premium:            premium,
		Delta:              delta,
		AbsDelta:           absDelta,
		PremiumPercentage:  premiumPct,
		AnnualizedReturn:   annualized,
		CollateralRequired: collateral,
		MaxProfit:          premium * 100,
		Breakeven:          breakeven,
	}
}

// sortOpportunities orders by premium percentage descending with a stable
// total ordering: ties break by symbol ascending, then strike ascending.
// The explicit secondary keys keep rankings reproducible under concurrent
// evaluation.
func sortOpportunities(opportunities []Opportunity) {
	sort.Slice(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		if a.PremiumPercentage != b.PremiumPercentage {
			return a.PremiumPercentage > b.PremiumPercentage
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Strike < b.Strike
	})
}

// Merge combines per-symbol opportunity lists into one ranked list using the
// same total ordering as Scan.
func Merge(perSymbol map[string][]Opportunity) []Opportunity {
	var merged []Opportunity
	for _, opportunities := range perSymbol {
		merged = append(merged, opportunities...)
	}
	sortOpportunities(merged)
	return merged
}

// GroupByExpiry organizes per-symbol opportunities by expiration date,
// preserving each symbol's ranking within an expiry. This is the input shape
// consumed by the portfolio optimizer.
func GroupByExpiry(perSymbol map[string][]Opportunity) map[string]map[string][]Opportunity {
	grouped := make(map[string]map[string][]Opportunity, len(perSymbol))
	for symbol, opportunities := range perSymbol {
		if len(opportunities) == 0 {
			continue
		}
		byExpiry := make(map[string][]Opportunity)
		for _, opp := range opportunities {
			byExpiry[opp.Expiration] = append(byExpiry[opp.Expiration], opp)
		}
		grouped[symbol] = byExpiry
	}
	return grouped
}
