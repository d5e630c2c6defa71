package model

import "time"

// UserPoints stores cumulative and spendable loyalty points (1 point = 1 yen off).
type UserPoints struct {
	UID           string    `gorm:"column:uid;primaryKey;size:128"`
	TotalPoints   int64     `gorm:"column:total_points;not null;default:0"`
	BalancePoints int64     `gorm:"column:balance_points;not null;default:0"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (UserPoints) TableName() string {
	return "user_points"
}
