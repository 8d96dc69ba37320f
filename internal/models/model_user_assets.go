package models

import "time"

// UserAssets is the aggregate root a user's entitlement rows hang off.
// Created lazily on the first grant; never pre-provisioned.
type UserAssets struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserAssets) TableName() string {
	return "user_assets"
}
