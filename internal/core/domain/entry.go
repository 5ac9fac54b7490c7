package domain

import "time"

// DefaultTTL is applied to entries written without an explicit TTL.
// One year: effectively unbounded, but not literal infinity, so
// abandoned keys still age out eventually.
const DefaultTTL = 365 * 24 * time.Hour

// Entry is one stored key/value pair with its creation time and TTL.
// The expiry instant is CreatedAt + TTL. Entries are owned exclusively
// by the store; callers always receive copies.
type Entry struct {
	Key       string
	Value     string
	CreatedAt time.Time
	TTL       time.Duration
}

// ExpiresAt returns the instant after which the entry is dead.
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// IsExpired reports whether the entry is expired at the given instant.
func (e Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}
