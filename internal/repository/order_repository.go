package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrRewardUnavailable = errors.New("reward unavailable")
	ErrStateChanged      = errors.New("order state changed")
)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, o *model.Order) error
	ConfirmPickup(ctx context.Context, o *model.Order, code string, at time.Time) error
	Cancel(ctx context.Context, o *model.Order, at time.Time) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder reserves stock, spends points, consumes the voucher, writes the
// order and credits the seller. Any failure rolls every step back.
func (r *orderRepository) PlaceOrder(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Box{}).
			Where("id = ? AND quantity >= ?", o.BoxID, o.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", o.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOutOfStock
		}
		if err := deductPoints(tx, o.BuyerUID, o.PointsUsed); err != nil {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if o.RewardID != nil {
			res := tx.Model(&model.Reward{}).
				Where("id = ? AND owner_uid = ? AND used_at IS NULL", *o.RewardID, o.BuyerUID).
				Updates(map[string]interface{}{
					"used_order_id": o.ID,
					"used_at":       o.CreatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRewardUnavailable
			}
		}
		return addRevenue(tx, o.SellerUID, o.PaidYen)
	})
}

// ConfirmPickup completes a pending order whose pickup code matches and
// awards the buyer's points.
func (r *orderRepository) ConfirmPickup(ctx context.Context, o *model.Order, code string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ? AND pickup_code = ?", o.ID, model.OrderStatusPendingPickup, code).
			Updates(map[string]interface{}{
				"status":        model.OrderStatusPickedUp,
				"picked_up_at":  at,
				"points_earned": o.PointsEarned,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateChanged
		}
		return creditPoints(tx, o.BuyerUID, o.PointsEarned, true)
	})
}

// Cancel undoes everything PlaceOrder did for a still-pending order.
func (r *orderRepository) Cancel(ctx context.Context, o *model.Order, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", o.ID, model.OrderStatusPendingPickup).
			Updates(map[string]interface{}{
				"status":      model.OrderStatusCanceled,
				"canceled_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateChanged
		}
		if err := tx.Model(&model.Box{}).
			Where("id = ?", o.BoxID).
			Update("quantity", gorm.Expr("quantity + ?", o.Quantity)).Error; err != nil {
			return err
		}
		if err := creditPoints(tx, o.BuyerUID, o.PointsUsed, false); err != nil {
			return err
		}
		if o.RewardID != nil {
			if err := tx.Model(&model.Reward{}).
				Where("id = ? AND used_order_id = ?", *o.RewardID, o.ID).
				Updates(map[string]interface{}{
					"used_order_id": nil,
					"used_at":       nil,
				}).Error; err != nil {
				return err
			}
		}
		return addRevenue(tx, o.SellerUID, -o.PaidYen)
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ?", buyerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
