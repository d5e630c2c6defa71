package model

import "time"

// Reward is a single-use discount voucher bought with points.
type Reward struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	OwnerUID    string     `gorm:"column:owner_uid;size:128;index;not null"`
	Tier        string     `gorm:"column:tier;size:32;not null"`
	PointsCost  int64      `gorm:"column:points_cost;not null"`
	DiscountYen int64      `gorm:"column:discount_yen;not null"`
	UsedOrderID *uint64    `gorm:"column:used_order_id"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

func (Reward) TableName() string {
	return "rewards"
}
