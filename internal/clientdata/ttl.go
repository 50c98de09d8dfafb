package clientdata

import "time"

// TTL constants for cached FX lookups.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Published rates for past days do not change
	TTLHistoricalRate = 30 * 24 * time.Hour

	// Today's rate may still be revised by the source
	TTLCurrentRate = time.Hour

	// A missing rate is retried sooner than a found one
	TTLMissingRate = 24 * time.Hour
)
