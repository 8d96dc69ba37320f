package membership

import (
	"time"

	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/types"
)

// nextExpiry computes a granted level's new expiry. The base is the stored
// expiry when a record exists (even a past one), otherwise now. Clamped so a
// huge duration saturates at MaxExpireAt instead of wrapping.
func nextExpiry(existing *time.Time, now time.Time, d time.Duration) time.Time {
	base := now
	if existing != nil {
		base = *existing
	}
	return types.ClampExpire(base, d)
}

// lowerTierExtensions returns id -> new expiry for every still-valid record
// below the granted level. A higher-tier purchase must not strand a valid
// lower tier, so each one is pushed forward by the full granted duration.
func lowerTierExtensions(records []*models.MembershipRecord, level int, d time.Duration, now time.Time) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, r := range records {
		if r.Level >= level || !r.ExpireAt.After(now) {
			continue
		}
		out[r.ID] = types.ClampExpire(r.ExpireAt, d)
	}
	return out
}

// highestLevel picks the greatest level among the given records; 0 if empty.
// Level is unique per user so there are no ties to break.
func highestLevel(records []*models.MembershipRecord) int {
	best := 0
	for _, r := range records {
		if r.Level > best {
			best = r.Level
		}
	}
	return best
}
