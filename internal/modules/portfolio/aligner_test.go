package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

func opps(n int) []scanner.Opportunity {
	return make([]scanner.Opportunity, n)
}

func TestCommonExpiries_Intersection(t *testing.T) {
	perSymbol := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-10": opps(2),
			"2025-01-17": opps(1),
			"2025-01-24": opps(3),
		},
		"BBB": {
			"2025-01-10": opps(1),
			"2025-01-24": opps(1),
		},
		"CCC": {
			"2025-01-10": opps(4),
			"2025-01-17": opps(2),
			"2025-01-24": opps(1),
		},
	}

	assert.Equal(t, []string{"2025-01-10", "2025-01-24"}, CommonExpiries(perSymbol))
}

func TestCommonExpiries_DisjointExpiries(t *testing.T) {
	// Symbol X trades only the Jan 10 expiry, symbol Y only Jan 17: there is
	// no date both can fill, so the group has no usable expiry at all.
	perSymbol := map[string]map[string][]scanner.Opportunity{
		"X": {"2025-01-10": opps(1)},
		"Y": {"2025-01-17": opps(1)},
	}

	assert.Empty(t, CommonExpiries(perSymbol))
}

func TestCommonExpiries_EmptyInput(t *testing.T) {
	assert.Empty(t, CommonExpiries(nil))
	assert.Empty(t, CommonExpiries(map[string]map[string][]scanner.Opportunity{}))
}

func TestCommonExpiries_SymbolWithNoExpiriesDropsEverything(t *testing.T) {
	perSymbol := map[string]map[string][]scanner.Opportunity{
		"AAA": {"2025-01-10": opps(1)},
		"BBB": {},
	}

	assert.Empty(t, CommonExpiries(perSymbol))
}

func TestCommonExpiries_ExpiryWithOnlyEmptyListsDoesNotCount(t *testing.T) {
	perSymbol := map[string]map[string][]scanner.Opportunity{
		"AAA": {"2025-01-10": opps(1)},
		"BBB": {"2025-01-10": opps(0)},
	}

	assert.Empty(t, CommonExpiries(perSymbol))
}

func TestCommonExpiries_SortedOutput(t *testing.T) {
	perSymbol := map[string]map[string][]scanner.Opportunity{
		"AAA": {
			"2025-01-24": opps(1),
			"2025-01-10": opps(1),
			"2025-01-17": opps(1),
		},
	}

	assert.Equal(t, []string{"2025-01-10", "2025-01-17", "2025-01-24"}, CommonExpiries(perSymbol))
}
