package common

import "time"

// Freshness TTLs for cached data
const (
	// FreshnessToken keeps issued bearer tokens for 23 hours, one hour under
	// the provider's 24 hour lifetime, so a token never expires mid-run.
	FreshnessToken = 23 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
