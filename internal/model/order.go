package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPickup OrderStatus = "pending_pickup"
	OrderStatusPickedUp      OrderStatus = "picked_up"
	OrderStatusCanceled      OrderStatus = "canceled"
)

type Order struct {
	ID             uint64      `gorm:"primaryKey;autoIncrement"`
	BoxID          uint64      `gorm:"column:box_id;index;not null"`
	BuyerUID       string      `gorm:"column:buyer_uid;size:128;index;not null"`
	SellerUID      string      `gorm:"column:seller_uid;size:128;index;not null"`
	ConversationID uint64      `gorm:"column:conversation_id;index"`
	Quantity       int         `gorm:"column:quantity;not null"`
	Status         OrderStatus `gorm:"column:status;size:32;not null"`
	SubtotalYen    int64       `gorm:"column:subtotal_yen;not null"`
	RewardID       *uint64     `gorm:"column:reward_id"`
	RewardYen      int64       `gorm:"column:reward_yen;not null;default:0"`
	PointsUsed     int64       `gorm:"column:points_used;not null;default:0"`
	PaidYen        int64       `gorm:"column:paid_yen;not null"`
	PointsEarned   int64       `gorm:"column:points_earned;not null;default:0"`
	PaymentRef     string      `gorm:"column:payment_ref;size:64"`
	PickupCode     string      `gorm:"column:pickup_code;size:16;not null"`
	PickedUpAt     *time.Time  `gorm:"column:picked_up_at"`
	CanceledAt     *time.Time  `gorm:"column:canceled_at"`
	CreatedAt      time.Time   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
