package repository

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
)

type BoxRepository interface {
	Create(ctx context.Context, box *model.Box) error
	Update(ctx context.Context, box *model.Box) error
	FindByID(ctx context.Context, id uint64) (*model.Box, error)
	List(ctx context.Context, limit, offset int, category string) ([]model.Box, int64, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Box, error)
	SetImageURL(ctx context.Context, id uint64, url string) error
}

type boxRepository struct {
	db *gorm.DB
}

func NewBoxRepository(db *gorm.DB) BoxRepository {
	return &boxRepository{db: db}
}

func (r *boxRepository) Create(ctx context.Context, box *model.Box) error {
	return r.db.WithContext(ctx).Create(box).Error
}

func (r *boxRepository) Update(ctx context.Context, box *model.Box) error {
	return r.db.WithContext(ctx).Save(box).Error
}

func (r *boxRepository) FindByID(ctx context.Context, id uint64) (*model.Box, error) {
	var box model.Box
	if err := r.db.WithContext(ctx).First(&box, id).Error; err != nil {
		return nil, err
	}
	return &box, nil
}

// List returns boxes that still have stock, newest first.
func (r *boxRepository) List(ctx context.Context, limit, offset int, category string) ([]model.Box, int64, error) {
	var (
		boxes []model.Box
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Box{}).Where("quantity > 0")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&boxes).Error; err != nil {
		return nil, 0, err
	}
	return boxes, total, nil
}

func (r *boxRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Box, error) {
	var boxes []model.Box
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("id DESC").
		Find(&boxes).Error; err != nil {
		return nil, err
	}
	return boxes, nil
}

func (r *boxRepository) SetImageURL(ctx context.Context, id uint64, url string) error {
	return r.db.WithContext(ctx).
		Model(&model.Box{}).
		Where("id = ?", id).
		Update("image_url", url).Error
}
