package feature

import (
	"time"

	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/types"
)

// resolveExpiry computes a grant's new expiry: a still-valid record extends
// from its stored expiry, an expired or missing one restarts from now.
func resolveExpiry(existing *models.FeatureRecord, now time.Time, d time.Duration) time.Time {
	if existing != nil && existing.ExpireAt.After(now) {
		return types.ClampExpire(existing.ExpireAt, d)
	}
	return types.ClampExpire(now, d)
}

// resolveExtendBy is the unconditional by-id extension: always from the
// stored expiry, valid or not.
func resolveExtendBy(expireAt time.Time, d time.Duration) time.Time {
	return types.ClampExpire(expireAt, d)
}
