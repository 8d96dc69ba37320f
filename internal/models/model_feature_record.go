package models

import "time"

// FeatureRecord is a named premium entitlement. FeatureName is intentionally
// not unique per user; grants extend the most-recently-expiring record for
// the name, queries order by expire_at desc.
type FeatureRecord struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_feature_user_name,priority:1" json:"user_id"`
	FeatureName string    `gorm:"column:feature_name;type:varchar(128);not null;index:idx_feature_user_name,priority:2" json:"feature_name"`
	ExpireAt    time.Time `gorm:"column:expire_at;not null;index" json:"expire_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FeatureRecord) TableName() string {
	return "feature_record"
}

func (r *FeatureRecord) Valid(now time.Time) bool {
	return r != nil && r.ExpireAt.After(now)
}
