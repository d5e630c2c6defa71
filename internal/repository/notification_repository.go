package repository

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
)

const (
	defaultNotificationPage = 20
	maxNotificationPage     = 50
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	// MarkRead stamps the user's unread notifications, limited to one
	// conversation when convID is non-nil, and reports how many changed.
	MarkRead(ctx context.Context, userUID string, convID *uint64) (int64, error)
	CountUnread(ctx context.Context, userUID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) owned(ctx context.Context, userUID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", userUID)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationPage
	}
	limit = min(limit, maxNotificationPage)
	q := r.owned(ctx, userUID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []model.Notification
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userUID string, convID *uint64) (int64, error) {
	q := r.owned(ctx, userUID).Where("read_at IS NULL")
	if convID != nil {
		q = q.Where("conversation_id = ?", *convID)
	}
	res := q.Update("read_at", r.db.NowFunc())
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	var cnt int64
	err := r.owned(ctx, userUID).Where("read_at IS NULL").Count(&cnt).Error
	return cnt, err
}
