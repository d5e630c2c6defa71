package model

import "time"

// Box is a surplus-food blind box listed by a seller.
type Box struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	SellerUID      string    `gorm:"column:seller_uid;size:128;not null;index"`
	Title          string    `gorm:"size:120;not null"`
	Description    string    `gorm:"type:text;not null"`
	Category       string    `gorm:"column:category;size:64;not null;index"`
	PriceYen       int64     `gorm:"column:price_yen;not null"`
	OriginalYen    int64     `gorm:"column:original_yen;not null;default:0"`
	Quantity       int       `gorm:"column:quantity;not null;default:0"`
	PickupStartsAt time.Time `gorm:"column:pickup_starts_at;not null"`
	PickupEndsAt   time.Time `gorm:"column:pickup_ends_at;not null"`
	ImageURL       *string   `gorm:"column:image_url;size:512"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Box) TableName() string {
	return "boxes"
}
