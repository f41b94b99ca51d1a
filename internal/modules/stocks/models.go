// Package stocks provides current market snapshots with basic technical
// context for watchlist symbols.
package stocks

import "time"

// Trend labels derived from price versus the 20-day moving average.
const (
	TrendUp       = "uptrend"
	TrendDown     = "downtrend"
	TrendSideways = "sideways"
)

// Snapshot is a point-in-time view of one symbol: the live quote plus
// indicator context computed from recent daily closes. SMA20 and RSI14 are
// nil when the price history is too short.
type Snapshot struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	SMA20         *float64  `json:"sma_20,omitempty"`
	RSI14         *float64  `json:"rsi_14,omitempty"`
	Trend         string    `json:"trend"`
	AsOf          time.Time `json:"as_of"`
}
