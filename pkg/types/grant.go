package types

import "time"

// FeatureGrant names a premium feature together with how long it lasts.
type FeatureGrant struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
}

func (g FeatureGrant) Duration() time.Duration {
	return DurationFromMs(g.DurationMs)
}

// GrantSet is the typed result of resolving a shop item's content entries.
// It is built per request and threaded through the payment flow explicitly;
// nothing about an in-flight order lives in shared state.
type GrantSet struct {
	Points               int64          `json:"points"`
	PointsDurationMs     int64          `json:"points_duration_ms"`
	MembershipLevel      int            `json:"membership_level"`
	MembershipDurationMs int64          `json:"membership_duration_ms"`
	Features             []FeatureGrant `json:"features"`
}

func (g *GrantSet) PointsDuration() time.Duration {
	return DurationFromMs(g.PointsDurationMs)
}

func (g *GrantSet) MembershipDuration() time.Duration {
	return DurationFromMs(g.MembershipDurationMs)
}

func (g *GrantSet) Empty() bool {
	return g == nil || (g.Points <= 0 && g.MembershipLevel <= 0 && len(g.Features) == 0)
}
