package portfolio

import (
	"sort"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// CommonExpiries returns the expiration dates present for every symbol in
// the input, sorted ascending.
//
// The intersection is strict: an expiry qualifies only if every symbol has
// at least one opportunity for it. A symbol with no expiries, or an empty
// input, yields an empty result. Degrading to a subset of symbols is
// deliberately not supported; a missing symbol drops the expiry entirely.
func CommonExpiries(perSymbol map[string]map[string][]scanner.Opportunity) []string {
	if len(perSymbol) == 0 {
		return nil
	}

	var common map[string]bool
	for _, byExpiry := range perSymbol {
		current := make(map[string]bool, len(byExpiry))
		for expiry, opportunities := range byExpiry {
			if len(opportunities) > 0 {
				current[expiry] = true
			}
		}

		if common == nil {
			common = current
			continue
		}
		for expiry := range common {
			if !current[expiry] {
				delete(common, expiry)
			}
		}
	}

	expiries := make([]string, 0, len(common))
	for expiry := range common {
		expiries = append(expiries, expiry)
	}
	sort.Strings(expiries)
	return expiries
}
