package payment

import (
	"fmt"

	"github.com/fatflowers/entitlement/pkg/types"
)

// ResolveGrants maps a shop item's tagged content entries into a typed grant
// set. Entries with an unrecognized tag are dropped; a recognized entry with
// an unparseable value is an error rather than a silent zero grant.
func ResolveGrants(item *types.ShopItem) (*types.GrantSet, error) {
	g := &types.GrantSet{}
	for _, entry := range item.Content {
		switch entry.Type {
		case types.ShopContentTypePoints:
			amount, err := entry.IntValue()
			if err != nil {
				return nil, fmt.Errorf("invalid points value %q in item %s: %w", entry.Value, item.ID, err)
			}
			g.Points = amount
			g.PointsDurationMs = entry.Duration().Milliseconds()
		case types.ShopContentTypeVip:
			level, err := entry.IntValue()
			if err != nil {
				return nil, fmt.Errorf("invalid vip level %q in item %s: %w", entry.Value, item.ID, err)
			}
			g.MembershipLevel = int(level)
			g.MembershipDurationMs = entry.Duration().Milliseconds()
		case types.ShopContentTypeFunction:
			g.Features = append(g.Features, types.FeatureGrant{
				Name:       entry.Value,
				DurationMs: entry.Duration().Milliseconds(),
			})
		default:
			// unknown tags are ignored so the catalog can grow ahead of the code
		}
	}
	return g, nil
}
