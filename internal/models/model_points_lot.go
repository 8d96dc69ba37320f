package models

import "time"

// PointsLot is one independently-timed batch of granted points. A user may
// hold many lots at once; consumption drains the soonest-expiring lots first,
// so the available balance is the sum over non-expired lots, not a counter.
type PointsLot struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_points_user_expire,priority:1" json:"user_id"`
	Amount    int64     `gorm:"column:amount;type:bigint;not null" json:"amount"`
	ExpireAt  time.Time `gorm:"column:expire_at;not null;index:idx_points_user_expire,priority:2" json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PointsLot) TableName() string {
	return "points_lot"
}

func (l *PointsLot) Valid(now time.Time) bool {
	return l != nil && l.Amount > 0 && l.ExpireAt.After(now)
}
