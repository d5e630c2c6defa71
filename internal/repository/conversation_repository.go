package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/secondchances-backend/internal/db"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrDuplicate      = errors.New("duplicate key")
	ErrNotParticipant = errors.New("sender is not a participant")
)

const previewRunes = 120

type ConversationRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	FindByPair(ctx context.Context, x, y string) (*model.Conversation, error)
	Create(ctx context.Context, cv *model.Conversation) error
	ListByRole(ctx context.Context, uid string, role model.Role) ([]model.Conversation, error)
	AppendMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error
	ListMessages(ctx context.Context, convID uint64) ([]model.Message, error)
	ResetUnread(ctx context.Context, convID uint64, slot model.Slot) error
	// ReadThread clears the reader's counter and returns the thread in one
	// transaction, so a message committed after the reset stays unread.
	ReadThread(ctx context.Context, convID uint64, slot model.Slot) ([]model.Message, error)
	Delete(ctx context.Context, convID uint64) error
	SumUnread(ctx context.Context, uid string) (int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

// FindByPair looks the pair up in either order.
func (r *conversationRepository) FindByPair(ctx context.Context, x, y string) (*model.Conversation, error) {
	a, b := model.CanonicalPair(x, y)
	var cv model.Conversation
	if err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", a, b).
		First(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

// Create returns ErrDuplicate when another request stored the pair first.
func (r *conversationRepository) Create(ctx context.Context, cv *model.Conversation) error {
	if err := r.db.WithContext(ctx).Create(cv).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *conversationRepository) ListByRole(ctx context.Context, uid string, role model.Role) ([]model.Conversation, error) {
	own, other := model.SlotA, model.SlotB
	if role == model.RoleSeller {
		own, other = model.SlotB, model.SlotA
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("(participant_a = ? AND buyer_slot = ?) OR (participant_b = ? AND buyer_slot = ?)", uid, own, uid, other).
		Order("last_message_at IS NULL, last_message_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// AppendMessage stores msg, moves the last-message pointer and bumps the
// recipient's unread counter in a single transaction.
func (r *conversationRepository) AppendMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error {
	senderSlot, ok := cv.SlotOf(msg.SenderUID)
	if !ok {
		return ErrNotParticipant
	}
	unreadCol := senderSlot.Other().UnreadColumn()
	msg.ConversationID = cv.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Conversation{}).
			Where("id = ?", cv.ID).
			Updates(map[string]interface{}{
				"last_message_id":      msg.ID,
				"last_message_at":      msg.CreatedAt,
				"last_message_preview": model.Preview(msg.Body, previewRunes),
				unreadCol:              gorm.Expr(unreadCol + " + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// deleted between lookup and append
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID uint64) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) ResetUnread(ctx context.Context, convID uint64, slot model.Slot) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn(slot.UnreadColumn(), 0).Error
}

func (r *conversationRepository) ReadThread(ctx context.Context, convID uint64, slot model.Slot) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &conversationRepository{db: tx}
		// the counter update locks the conversation row, which AppendMessage
		// also needs, so appends serialize around the snapshot below
		if err := txRepo.ResetUnread(ctx, convID, slot); err != nil {
			return err
		}
		var err error
		msgs, err = txRepo.ListMessages(ctx, convID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Delete removes the conversation together with its messages.
func (r *conversationRepository) Delete(ctx context.Context, convID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", convID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Conversation{}, convID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *conversationRepository) SumUnread(ctx context.Context, uid string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Select("COALESCE(SUM(CASE WHEN participant_a = ? THEN unread_a ELSE unread_b END), 0)", uid).
		Where("participant_a = ? OR participant_b = ?", uid, uid).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
