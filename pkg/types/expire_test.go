package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampExpire(t *testing.T) {
	now := time.Now()
	day := 24 * time.Hour

	t.Run("normal addition", func(t *testing.T) {
		assert.True(t, ClampExpire(now, 30*day).Equal(now.Add(30*day)))
	})

	t.Run("negative duration treated as zero", func(t *testing.T) {
		assert.True(t, ClampExpire(now, -day).Equal(now))
	})

	t.Run("saturates at max timestamp", func(t *testing.T) {
		assert.True(t, ClampExpire(now, 200*365*day).Equal(MaxExpireAt))
		assert.True(t, ClampExpire(MaxExpireAt, day).Equal(MaxExpireAt))
		assert.True(t, ClampExpire(MaxExpireAt.Add(time.Hour), day).Equal(MaxExpireAt))
	})

	t.Run("unlimited duration stays inside the bound from today", func(t *testing.T) {
		got := ClampExpire(now, UnlimitedDuration)
		assert.False(t, got.After(MaxExpireAt))
	})
}

func TestDurationFromMs(t *testing.T) {
	now := time.Now()

	t.Run("normal conversion", func(t *testing.T) {
		assert.Equal(t, 1500*time.Millisecond, DurationFromMs(1500))
	})

	t.Run("zero and negative map to zero", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), DurationFromMs(0))
		assert.Equal(t, time.Duration(0), DurationFromMs(-5))
	})

	t.Run("oversized value saturates instead of wrapping", func(t *testing.T) {
		// 1<<60 ms exceeds int64 nanoseconds; a wrapping conversion would
		// yield zero and an instant expiry
		d := DurationFromMs(1 << 60)
		assert.True(t, d > 0)
		assert.True(t, ClampExpire(now, d).Equal(MaxExpireAt))
	})
}

func TestShopContentEntryDuration_OversizedExpirationSaturates(t *testing.T) {
	e := ShopContentEntry{Type: ShopContentTypePoints, Value: "10", ExpirationTime: 1 << 60}
	assert.True(t, ClampExpire(time.Now(), e.Duration()).Equal(MaxExpireAt))

	g := FeatureGrant{Name: "hd_export", DurationMs: 1 << 60}
	assert.True(t, ClampExpire(time.Now(), g.Duration()).Equal(MaxExpireAt))
}
