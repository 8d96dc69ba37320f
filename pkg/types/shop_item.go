package types

import (
	"strconv"
	"time"
)

type PaymentMethod string

const (
	PaymentMethodAlipay PaymentMethod = "alipay"
	PaymentMethodWechat PaymentMethod = "wechat"
	PaymentMethodInner  PaymentMethod = "inner"
)

type DeviceType string

const (
	DeviceTypeWeb    DeviceType = "web"
	DeviceTypeMobile DeviceType = "mobile"
)

// ShopContentType tags an entry inside a shop item's content list.
// Entries with a tag the resolver does not recognize are skipped.
type ShopContentType string

const (
	ShopContentTypePoints   ShopContentType = "points"
	ShopContentTypeVip      ShopContentType = "vip"
	ShopContentTypeFunction ShopContentType = "function"
)

// ShopContentEntry is one entitlement bundled in a shop item.
// ExpirationTime is in milliseconds; -1 means effectively unlimited and is
// mapped to UnlimitedDuration by the resolver (never literal infinity).
type ShopContentEntry struct {
	Type           ShopContentType `json:"type" mapstructure:"type"`
	Value          string          `json:"value" mapstructure:"value"`
	ExpirationTime int64           `json:"expiration_time" mapstructure:"expiration_time"`
}

// Duration converts the entry's expiration into a bounded duration.
func (e *ShopContentEntry) Duration() time.Duration {
	if e.ExpirationTime < 0 {
		return UnlimitedDuration
	}
	return DurationFromMs(e.ExpirationTime)
}

// IntValue parses the entry value as an integer (points amount, vip level).
func (e *ShopContentEntry) IntValue() (int64, error) {
	return strconv.ParseInt(e.Value, 10, 64)
}

// ShopItem is a purchasable catalog entry. Price is in cents.
type ShopItem struct {
	ID      string             `json:"id" mapstructure:"id"`
	Name    string             `json:"name" mapstructure:"name"`
	Price   int64              `json:"price" mapstructure:"price"`
	Content []ShopContentEntry `json:"content" mapstructure:"content"`
}
