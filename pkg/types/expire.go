package types

import (
	"math"
	"time"
)

// MaxExpireAt is the largest instant the storage timestamp columns can hold
// (2147483647 seconds since the epoch). Expiry arithmetic across all engines
// clamps to this bound instead of wrapping.
var MaxExpireAt = time.Unix(math.MaxInt32, 0).UTC()

// UnlimitedDuration stands in for "never expires" grants. Large but finite;
// ClampExpire still bounds the resulting instant at MaxExpireAt.
const UnlimitedDuration = 100 * 365 * 24 * time.Hour

// DurationFromMs converts a millisecond count into a duration, saturating
// instead of wrapping when the nanosecond value would exceed int64. An
// oversized catalog or request value therefore degrades to MaxExpireAt via
// ClampExpire, never to an instant expiry.
func DurationFromMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// ClampExpire adds d to base, saturating at MaxExpireAt.
func ClampExpire(base time.Time, d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	if base.After(MaxExpireAt) {
		return MaxExpireAt
	}
	if d > MaxExpireAt.Sub(base) {
		return MaxExpireAt
	}
	return base.Add(d)
}
