package repository

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/db"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.UserProfile) error
	Upsert(ctx context.Context, u *model.UserProfile) error
	FindByUID(ctx context.Context, uid string) (*model.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	FindByUIDs(ctx context.Context, uids []string) (map[string]model.UserProfile, error)
	UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *model.UserProfile) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Upsert refreshes display fields from the identity provider. The password
// hash is never touched.
func (r *userRepository) Upsert(ctx context.Context, u *model.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_url", "email", "updated_at"}),
	}).Create(u).Error
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByUIDs(ctx context.Context, uids []string) (map[string]model.UserProfile, error) {
	out := make(map[string]model.UserProfile, len(uids))
	if len(uids) == 0 {
		return out, nil
	}
	var list []model.UserProfile
	if err := r.db.WithContext(ctx).Where("uid IN ?", uids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.UID] = u
	}
	return out, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.UserProfile{}).
		Where("uid = ?", uid).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
