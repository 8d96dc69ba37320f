package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/entitlement/pkg/types"
)

type OrderStatus string

const (
	OrderStatusCreated      OrderStatus = "created"
	OrderStatusSubmitted    OrderStatus = "gateway_submitted"
	OrderStatusVerified     OrderStatus = "callback_verified"
	OrderStatusCredited     OrderStatus = "credited"
	OrderStatusCreditFailed OrderStatus = "credit_failed"
)

// PaymentOrder tracks one payment from creation through crediting.
// CreditingConfirmed is the idempotency witness: it flips to true only after
// every entitlement write for the order committed, so a replayed callback can
// short-circuit and a crash mid-crediting leaves the order visibly unconfirmed.
type PaymentOrder struct {
	TradeID        string `gorm:"column:trade_id;type:varchar(64);primaryKey" json:"trade_id"`
	GatewayTradeNo string `gorm:"column:gateway_trade_no;type:varchar(64);index" json:"gateway_trade_no"`
	UserID         string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	ItemID         string `gorm:"column:item_id;type:varchar(64);not null" json:"item_id"`
	ItemName       string `gorm:"column:item_name;type:varchar(128);not null" json:"item_name"`
	// Amount is the order price in cents.
	Amount     int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Method     types.PaymentMethod `gorm:"column:method;type:varchar(32);not null" json:"method"`
	DeviceType types.DeviceType    `gorm:"column:device_type;type:varchar(32)" json:"device_type"`
	Status     OrderStatus         `gorm:"column:status;type:varchar(32);not null" json:"status"`
	PaidAt     *time.Time          `gorm:"column:paid_at;default:null" json:"paid_at"`

	// Entitlements resolved from the item at order creation. Stored on the
	// order so crediting replays exactly what was sold, not the current catalog.
	GrantedPoints               int64                                    `gorm:"column:granted_points;type:bigint;not null;default:0" json:"granted_points"`
	GrantedPointsDurationMs     int64                                    `gorm:"column:granted_points_duration_ms;type:bigint;not null;default:0" json:"granted_points_duration_ms"`
	GrantedMembershipLevel      int                                      `gorm:"column:granted_membership_level;type:int;not null;default:0" json:"granted_membership_level"`
	GrantedMembershipDurationMs int64                                    `gorm:"column:granted_membership_duration_ms;type:bigint;not null;default:0" json:"granted_membership_duration_ms"`
	GrantedFeatures             datatypes.JSONType[[]types.FeatureGrant] `gorm:"column:granted_features;type:jsonb;default:'[]'" json:"granted_features"`

	CreditingConfirmed bool      `gorm:"column:crediting_confirmed;not null;default:false" json:"crediting_confirmed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_order"
}

// Grants rebuilds the typed grant set stored on the order.
func (o *PaymentOrder) Grants() *types.GrantSet {
	if o == nil {
		return &types.GrantSet{}
	}
	return &types.GrantSet{
		Points:               o.GrantedPoints,
		PointsDurationMs:     o.GrantedPointsDurationMs,
		MembershipLevel:      o.GrantedMembershipLevel,
		MembershipDurationMs: o.GrantedMembershipDurationMs,
		Features:             o.GrantedFeatures.Data(),
	}
}

// ApplyGrants snapshots a resolved grant set onto the order columns.
func (o *PaymentOrder) ApplyGrants(g *types.GrantSet) {
	if g == nil {
		return
	}
	o.GrantedPoints = g.Points
	o.GrantedPointsDurationMs = g.PointsDurationMs
	o.GrantedMembershipLevel = g.MembershipLevel
	o.GrantedMembershipDurationMs = g.MembershipDurationMs
	o.GrantedFeatures = datatypes.NewJSONType(g.Features)
}
