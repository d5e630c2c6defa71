package service

import (
	"context"
	"log"
	"time"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"github.com/shinyyama/secondchances-backend/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userUID, typ, title, body string, convID, orderID *uint64)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) (int64, error)
	MarkByConversation(ctx context.Context, userUID string, convID uint64) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort; failures are logged and never reach the caller.
func (s *notificationService) Notify(ctx context.Context, userUID, typ, title, body string, convID, orderID *uint64) {
	if userUID == "" || typ == "" {
		return
	}
	n := &model.Notification{
		UserUID:        userUID,
		Type:           typ,
		Title:          title,
		Body:           body,
		ConversationID: convID,
		OrderID:        orderID,
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("[notify] rid=%s user=%s type=%s err=%v", reqctx.RID(ctx), userUID, typ, err)
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) (int64, error) {
	if userUID == "" {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, userUID, nil)
}

func (s *notificationService) MarkByConversation(ctx context.Context, userUID string, convID uint64) error {
	if userUID == "" || convID == 0 {
		return nil
	}
	_, err := s.repo.MarkRead(ctx, userUID, &convID)
	return err
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// withShortDeadline keeps side writes from holding up the main flow.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
