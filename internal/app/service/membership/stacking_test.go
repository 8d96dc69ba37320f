package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/types"
)

func rec(id string, level int, expireAt time.Time) *models.MembershipRecord {
	return &models.MembershipRecord{ID: id, UserID: "u1", Level: level, ExpireAt: expireAt}
}

func TestNextExpiry(t *testing.T) {
	now := time.Now()
	day := 24 * time.Hour
	valid := now.Add(10 * day)
	past := now.Add(-2 * day)

	tests := []struct {
		name     string
		existing *time.Time
		d        time.Duration
		want     time.Time
	}{
		{name: "no existing record starts from now", existing: nil, d: 30 * day, want: now.Add(30 * day)},
		{name: "valid record extends from stored expiry", existing: &valid, d: 30 * day, want: valid.Add(30 * day)},
		{name: "expired record still extends from stored expiry", existing: &past, d: day, want: past.Add(day)},
		{name: "zero duration keeps base", existing: &valid, d: 0, want: valid},
		{name: "huge duration clamps", existing: &valid, d: 200 * 365 * day, want: types.MaxExpireAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextExpiry(tt.existing, now, tt.d)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestLowerTierExtensions(t *testing.T) {
	now := time.Now()
	day := 24 * time.Hour

	t.Run("valid lower tier extended by full duration", func(t *testing.T) {
		// level 1 with 10 days left, granting level 2 for 30 days
		records := []*models.MembershipRecord{rec("l1", 1, now.Add(10*day))}
		out := lowerTierExtensions(records, 2, 30*day, now)
		require.Len(t, out, 1)
		assert.True(t, out["l1"].Equal(now.Add(40*day)))
	})

	t.Run("expired lower tier untouched", func(t *testing.T) {
		records := []*models.MembershipRecord{rec("l1", 1, now.Add(-day))}
		out := lowerTierExtensions(records, 2, 30*day, now)
		assert.Empty(t, out)
	})

	t.Run("granted level and higher tiers untouched", func(t *testing.T) {
		records := []*models.MembershipRecord{
			rec("l2", 2, now.Add(5*day)),
			rec("l3", 3, now.Add(5*day)),
		}
		out := lowerTierExtensions(records, 2, 30*day, now)
		assert.Empty(t, out)
	})

	t.Run("multiple valid lower tiers all move", func(t *testing.T) {
		records := []*models.MembershipRecord{
			rec("l1", 1, now.Add(3*day)),
			rec("l2", 2, now.Add(7*day)),
			rec("l4", 4, now.Add(day)),
		}
		out := lowerTierExtensions(records, 3, 10*day, now)
		require.Len(t, out, 2)
		assert.True(t, out["l1"].Equal(now.Add(13*day)))
		assert.True(t, out["l2"].Equal(now.Add(17*day)))
	})

	t.Run("extension clamps at max timestamp", func(t *testing.T) {
		records := []*models.MembershipRecord{rec("l1", 1, types.MaxExpireAt.Add(-time.Hour))}
		out := lowerTierExtensions(records, 2, 200*365*day, now)
		require.Len(t, out, 1)
		assert.True(t, out["l1"].Equal(types.MaxExpireAt))
	})
}

func TestHighestLevel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, highestLevel(nil))
	assert.Equal(t, 3, highestLevel([]*models.MembershipRecord{
		rec("a", 1, now.Add(time.Hour)),
		rec("b", 3, now.Add(time.Minute)),
		rec("c", 2, now.Add(48*time.Hour)),
	}))
}
