package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/entitlement/pkg/types"
)

func TestResolveGrants(t *testing.T) {
	day := int64(24 * time.Hour / time.Millisecond)

	t.Run("full bundle", func(t *testing.T) {
		item := &types.ShopItem{
			ID:    "bundle-1",
			Name:  "Starter Bundle",
			Price: 990,
			Content: []types.ShopContentEntry{
				{Type: types.ShopContentTypePoints, Value: "500", ExpirationTime: 30 * day},
				{Type: types.ShopContentTypeVip, Value: "2", ExpirationTime: 30 * day},
				{Type: types.ShopContentTypeFunction, Value: "hd_export", ExpirationTime: 7 * day},
				{Type: types.ShopContentTypeFunction, Value: "priority_queue", ExpirationTime: -1},
			},
		}

		g, err := ResolveGrants(item)
		require.NoError(t, err)
		assert.Equal(t, int64(500), g.Points)
		assert.Equal(t, 30*day, g.PointsDurationMs)
		assert.Equal(t, 2, g.MembershipLevel)
		assert.Equal(t, 30*day, g.MembershipDurationMs)
		require.Len(t, g.Features, 2)
		assert.Equal(t, "hd_export", g.Features[0].Name)
		assert.Equal(t, 7*day, g.Features[0].DurationMs)
		// -1 means effectively unlimited, mapped to a finite duration
		assert.Equal(t, types.UnlimitedDuration.Milliseconds(), g.Features[1].DurationMs)
	})

	t.Run("unrecognized type ignored", func(t *testing.T) {
		item := &types.ShopItem{
			ID: "i1",
			Content: []types.ShopContentEntry{
				{Type: "sticker_pack", Value: "halloween", ExpirationTime: day},
				{Type: types.ShopContentTypePoints, Value: "10", ExpirationTime: day},
			},
		}
		g, err := ResolveGrants(item)
		require.NoError(t, err)
		assert.Equal(t, int64(10), g.Points)
		assert.Empty(t, g.Features)
	})

	t.Run("unparseable points value errors", func(t *testing.T) {
		item := &types.ShopItem{
			ID:      "i1",
			Content: []types.ShopContentEntry{{Type: types.ShopContentTypePoints, Value: "lots", ExpirationTime: day}},
		}
		_, err := ResolveGrants(item)
		require.Error(t, err)
	})

	t.Run("empty content yields empty set", func(t *testing.T) {
		g, err := ResolveGrants(&types.ShopItem{ID: "i1"})
		require.NoError(t, err)
		assert.True(t, g.Empty())
	})
}
