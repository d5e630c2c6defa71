package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientPoints = errors.New("insufficient points")

type PointsRepository interface {
	Get(ctx context.Context, uid string) (*model.UserPoints, error)
	RedeemReward(ctx context.Context, reward *model.Reward) error
	ListRewards(ctx context.Context, ownerUID string) ([]model.Reward, error)
	FindReward(ctx context.Context, id uint64) (*model.Reward, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Get(ctx context.Context, uid string) (*model.UserPoints, error) {
	var p model.UserPoints
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		FirstOrCreate(&p, &model.UserPoints{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// RedeemReward spends reward.PointsCost and stores the voucher atomically.
func (r *pointsRepository) RedeemReward(ctx context.Context, reward *model.Reward) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deductPoints(tx, reward.OwnerUID, reward.PointsCost); err != nil {
			return err
		}
		return tx.Create(reward).Error
	})
}

func (r *pointsRepository) ListRewards(ctx context.Context, ownerUID string) ([]model.Reward, error) {
	var list []model.Reward
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("used_at IS NOT NULL, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *pointsRepository) FindReward(ctx context.Context, id uint64) (*model.Reward, error) {
	var rw model.Reward
	if err := r.db.WithContext(ctx).First(&rw, id).Error; err != nil {
		return nil, err
	}
	return &rw, nil
}

func deductPoints(tx *gorm.DB, uid string, points int64) error {
	if points <= 0 {
		return nil
	}
	res := tx.Model(&model.UserPoints{}).
		Where("uid = ? AND balance_points >= ?", uid, points).
		Update("balance_points", gorm.Expr("balance_points - ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// creditPoints adds to the balance; earned points also count toward the total.
func creditPoints(tx *gorm.DB, uid string, points int64, earned bool) error {
	if points <= 0 {
		return nil
	}
	total := int64(0)
	if earned {
		total = points
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance_points": gorm.Expr("balance_points + ?", points),
			"total_points":   gorm.Expr("total_points + ?", total),
			"updated_at":     time.Now().UTC(),
		}),
	}).Create(&model.UserPoints{UID: uid, BalancePoints: points, TotalPoints: total}).Error
}
