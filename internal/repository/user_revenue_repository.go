package repository

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRevenueRepository interface {
	Get(ctx context.Context, uid string) (*model.UserRevenue, error)
}

type userRevenueRepository struct {
	db *gorm.DB
}

func NewUserRevenueRepository(db *gorm.DB) UserRevenueRepository {
	return &userRevenueRepository{db: db}
}

// addRevenue upserts the seller's balance; yen may be negative for reversals.
func addRevenue(tx *gorm.DB, uid string, yen int64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"revenue_yen": gorm.Expr("revenue_yen + ?", yen)}),
	}).Create(&model.UserRevenue{UID: uid, RevenueYen: yen}).Error
}

func (r *userRevenueRepository) Get(ctx context.Context, uid string) (*model.UserRevenue, error) {
	var ur model.UserRevenue
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).FirstOrCreate(&ur, &model.UserRevenue{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &ur, nil
}
