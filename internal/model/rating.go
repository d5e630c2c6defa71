package model

import "time"

type Rating struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64    `gorm:"column:order_id;not null;uniqueIndex:uk_ratings_order"`
	RaterUID  string    `gorm:"column:rater_uid;size:128;not null;index"`
	SellerUID string    `gorm:"column:seller_uid;size:128;not null;index"`
	Score     int       `gorm:"column:score;not null"`
	Comment   string    `gorm:"column:comment;type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}
