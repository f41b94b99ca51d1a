package portfolio

import (
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// DefaultTopKPerSymbol bounds the per-symbol shortlist in the combination
// search. With K=5 and a practical ceiling of 5 symbols the search space
// stays below K^5 combinations per expiry.
const DefaultTopKPerSymbol = 5

// Optimizer searches option combinations across common expiries and ranks
// the resulting allocations.
type Optimizer struct {
	allocator  Allocator
	topK       int
	maxSymbols int
	log        zerolog.Logger
}

// NewOptimizer creates a new portfolio optimizer. maxSymbols is the hard
// ceiling on the symbol group size; the combination search grows
// exponentially with it.
func NewOptimizer(allocator Allocator, topK, maxSymbols int, log zerolog.Logger) *Optimizer {
	if topK <= 0 {
		topK = DefaultTopKPerSymbol
	}
	if maxSymbols <= 0 {
		maxSymbols = 5
	}
	return &Optimizer{
		allocator:  allocator,
		topK:       topK,
		maxSymbols: maxSymbols,
		log:        log.With().Str("module", "portfolio").Logger(),
	}
}

// Optimize evaluates the top-K opportunity combinations per common expiry
// and returns one best allocation per expiry, sorted by total premium
// percentage descending.
//
// An empty result means no common expiry exists or every combination failed
// allocation. That is a normal "no solution" outcome for the caller to
// surface, never an error.
func (o *Optimizer) Optimize(symbols []string, grouped map[string]map[string][]scanner.Opportunity) []PortfolioAllocation {
	if len(symbols) == 0 || len(symbols) > o.maxSymbols {
		if len(symbols) > o.maxSymbols {
			o.log.Warn().
				Int("symbols", len(symbols)).
				Int("max", o.maxSymbols).
				Msg("Symbol group exceeds combination search ceiling")
		}
		return nil
	}

	for _, symbol := range symbols {
		if len(grouped[symbol]) == 0 {
			return nil
		}
	}

	expiries := CommonExpiries(subsetBySymbols(grouped, symbols))
	if len(expiries) == 0 {
		return nil
	}

	var results []PortfolioAllocation
	for _, expiry := range expiries {
		if best, ok := o.optimizeExpiry(symbols, expiry, grouped); ok {
			results = append(results, best)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalPremiumPercentage != results[j].TotalPremiumPercentage {
			return results[i].TotalPremiumPercentage > results[j].TotalPremiumPercentage
		}
		return results[i].ExpiryDate < results[j].ExpiryDate
	})
	return results
}

// optimizeExpiry evaluates every combination of per-symbol shortlists for
// one expiry and returns the allocation with the highest combined score.
func (o *Optimizer) optimizeExpiry(symbols []string, expiry string, grouped map[string]map[string][]scanner.Opportunity) (PortfolioAllocation, bool) {
	shortlists := make([][]scanner.Opportunity, len(symbols))
	total := 1
	for i, symbol := range symbols {
		shortlist := topRanked(grouped[symbol][expiry], o.topK)
		if len(shortlist) == 0 {
			return PortfolioAllocation{}, false
		}
		shortlists[i] = shortlist
		total *= len(shortlist)
	}

	best, bestIdx := o.searchCombinations(symbols, shortlists, total)
	if bestIdx < 0 {
		return PortfolioAllocation{}, false
	}

	o.log.Debug().
		Str("expiry", expiry).
		Int("combinations", total).
		Float64("score", best.Score).
		Msg("Expiry optimization complete")
	return best, true
}

// searchCombinations evaluates all combinations in parallel. Combinations
// are identified by a mixed-radix index over the shortlists, and the merge
// is a max-by-score reduction with the combination index as tie-break, so
// the winner is identical regardless of scheduling.
func (o *Optimizer) searchCombinations(symbols []string, shortlists [][]scanner.Opportunity, total int) (PortfolioAllocation, int) {
	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}

	type candidate struct {
		allocation PortfolioAllocation
		index      int
	}
	locals := make([]candidate, workers)
	for i := range locals {
		locals[i].index = -1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			combo := make(map[string]scanner.Opportunity, len(symbols))
			for idx := w; idx < total; idx += workers {
				decodeCombination(idx, symbols, shortlists, combo)
				allocation, ok := o.allocator.Allocate(symbols, combo)
				if !ok {
					continue
				}
				if locals[w].index < 0 ||
					allocation.Score > locals[w].allocation.Score ||
					(allocation.Score == locals[w].allocation.Score && idx < locals[w].index) {
					locals[w] = candidate{allocation: allocation, index: idx}
				}
			}
		}()
	}
	wg.Wait()

	best := candidate{index: -1}
	for _, local := range locals {
		if local.index < 0 {
			continue
		}
		if best.index < 0 ||
			local.allocation.Score > best.allocation.Score ||
			(local.allocation.Score == best.allocation.Score && local.index < best.index) {
			best = local
		}
	}
	return best.allocation, best.index
}

// decodeCombination maps a mixed-radix index to one opportunity per symbol.
func decodeCombination(index int, symbols []string, shortlists [][]scanner.Opportunity, combo map[string]scanner.Opportunity) {
	for i := len(symbols) - 1; i >= 0; i-- {
		size := len(shortlists[i])
		combo[symbols[i]] = shortlists[i][index%size]
		index /= size
	}
}

// topRanked returns up to k opportunities ordered by premium percentage
// descending with the scanner's stable tie-break. The scanner already ranks
// its output, but re-sorting here keeps the shortlist deterministic even
// for callers that assembled the grouping by hand.
func topRanked(opportunities []scanner.Opportunity, k int) []scanner.Opportunity {
	sorted := make([]scanner.Opportunity, len(opportunities))
	copy(sorted, opportunities)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.PremiumPercentage != b.PremiumPercentage {
			return a.PremiumPercentage > b.PremiumPercentage
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Strike < b.Strike
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// subsetBySymbols restricts the grouped opportunities to the requested
// symbols so the expiry intersection ignores unrelated scan results.
func subsetBySymbols(grouped map[string]map[string][]scanner.Opportunity, symbols []string) map[string]map[string][]scanner.Opportunity {
	subset := make(map[string]map[string][]scanner.Opportunity, len(symbols))
	for _, symbol := range symbols {
		subset[symbol] = grouped[symbol]
	}
	return subset
}
