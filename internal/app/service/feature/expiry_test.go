package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/types"
)

func TestResolveExpiry(t *testing.T) {
	now := time.Now()
	day := 24 * time.Hour

	tests := []struct {
		name     string
		existing *models.FeatureRecord
		d        time.Duration
		want     time.Time
	}{
		{name: "no record starts from now", existing: nil, d: 7 * day, want: now.Add(7 * day)},
		{
			name:     "valid record extends from stored expiry",
			existing: &models.FeatureRecord{ID: "f1", ExpireAt: now.Add(3 * day)},
			d:        7 * day,
			want:     now.Add(10 * day),
		},
		{
			name:     "expired record restarts from now",
			existing: &models.FeatureRecord{ID: "f1", ExpireAt: now.Add(-day)},
			d:        7 * day,
			want:     now.Add(7 * day),
		},
		{
			name:     "huge duration clamps",
			existing: &models.FeatureRecord{ID: "f1", ExpireAt: now.Add(day)},
			d:        200 * 365 * day,
			want:     types.MaxExpireAt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveExpiry(tt.existing, now, tt.d)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestResolveExtendBy(t *testing.T) {
	now := time.Now()
	day := 24 * time.Hour

	// extends even when already expired, no validity check
	expired := now.Add(-5 * day)
	assert.True(t, resolveExtendBy(expired, 2*day).Equal(expired.Add(2*day)))

	// clamped
	assert.True(t, resolveExtendBy(types.MaxExpireAt, day).Equal(types.MaxExpireAt))
}
