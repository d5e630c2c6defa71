package repository

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/db"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
)

type RatingSummary struct {
	Count   int64
	Average float64
}

type RatingRepository interface {
	Create(ctx context.Context, rt *model.Rating) error
	SummaryForSeller(ctx context.Context, sellerUID string) (RatingSummary, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rt *model.Rating) error {
	if err := r.db.WithContext(ctx).Create(rt).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ratingRepository) SummaryForSeller(ctx context.Context, sellerUID string) (RatingSummary, error) {
	var row struct {
		Cnt int64
		Avg float64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Select("COUNT(*) AS cnt, COALESCE(AVG(score), 0) AS avg").
		Where("seller_uid = ?", sellerUID).
		Scan(&row).Error; err != nil {
		return RatingSummary{}, err
	}
	return RatingSummary{Count: row.Cnt, Average: row.Avg}, nil
}
