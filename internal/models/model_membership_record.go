package models

import "time"

// MembershipRecord holds one leveled, time-boxed membership. At most one row
// per (user, level); grants only ever push ExpireAt forward.
type MembershipRecord struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:unique_user_level,priority:1" json:"user_id"`
	Level     int       `gorm:"column:level;type:int;not null;uniqueIndex:unique_user_level,priority:2" json:"level"`
	ExpireAt  time.Time `gorm:"column:expire_at;not null;index" json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MembershipRecord) TableName() string {
	return "membership_record"
}

func (r *MembershipRecord) Valid(now time.Time) bool {
	return r != nil && r.ExpireAt.After(now)
}
