package clientdata

import "time"

// TTL constants per data type. These are added to time.Now() when storing
// to calculate expires_at.
const (
	// Quotes and chains move with the market.
	TTLQuote = 10 * time.Minute
	TTLChain = 10 * time.Minute

	// Expiration calendars change once a week at most.
	TTLExpirations = time.Hour

	// Daily closes only gain a new bar once per session.
	TTLHistory = 24 * time.Hour

	// Headlines go stale within the hour.
	TTLNews = time.Hour
)
