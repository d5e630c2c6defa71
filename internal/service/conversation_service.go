package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"gorm.io/gorm"
)

const (
	maxMessageRunes     = 4000
	resolveAttempts     = 2
	notificationPreview = 80
)

// Author is the display information attached to messages and summaries.
type Author struct {
	UID         string
	DisplayName string
	AvatarURL   *string
}

type MessageView struct {
	model.Message
	Author Author
}

// ConversationSummary is one conversation as seen by one of its participants.
type ConversationSummary struct {
	ID                 uint64
	Role               model.Role
	Counterpart        Author
	LastMessageID      *uint64
	LastMessageAt      *time.Time
	LastMessagePreview string
	Unread             int
	CreatedAt          time.Time
}

type ConversationService interface {
	Resolve(ctx context.Context, initiator, counterpart string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, target, author, body string) (*model.Conversation, *MessageView, error)
	ListMessages(ctx context.Context, target, requester string) (*model.Conversation, []MessageView, error)
	ListConversations(ctx context.Context, uid, role string) ([]ConversationSummary, error)
	Get(ctx context.Context, convID uint64, uid string) (*ConversationSummary, error)
	Delete(ctx context.Context, convID uint64, uid string) error
	UnreadTotal(ctx context.Context, uid string) (int64, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	notifier NotificationService
}

func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository, notifier NotificationService) ConversationService {
	return &conversationService{convRepo: convRepo, userRepo: userRepo, notifier: notifier}
}

// Resolve returns the conversation for the unordered pair, creating it with
// initiator as buyer when none exists yet. A concurrent creator losing the
// unique-index race looks the row up again instead of failing.
func (s *conversationService) Resolve(ctx context.Context, initiator, counterpart string) (*model.Conversation, error) {
	if initiator == "" || counterpart == "" {
		return nil, invalid("participant is required")
	}
	if initiator == counterpart {
		return nil, invalid("cannot converse with self")
	}
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		cv, err := s.convRepo.FindByPair(ctx, initiator, counterpart)
		if err == nil {
			return cv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		cv = model.NewConversation(initiator, counterpart)
		err = s.convRepo.Create(ctx, cv)
		if err == nil {
			log.Printf("[chat] rid=%s conv=%d buyer=%s seller=%s stage=created", reqctx.RID(ctx), cv.ID, initiator, counterpart)
			return cv, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		log.Printf("[chat] rid=%s a=%s b=%s attempt=%d stage=create_conflict", reqctx.RID(ctx), initiator, counterpart, attempt)
	}
	return nil, ErrConflict
}

// resolveTarget accepts a conversation id or, failing that, a counterpart uid.
func (s *conversationService) resolveTarget(ctx context.Context, target, uid string) (*model.Conversation, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, invalid("conversation is required")
	}
	if id, err := strconv.ParseUint(target, 10, 64); err == nil {
		cv, err := s.convRepo.FindByID(ctx, id)
		if err == nil {
			if !cv.HasParticipant(uid) {
				return nil, ErrForbidden
			}
			return cv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if _, err := s.userRepo.FindByUID(ctx, target); err != nil {
		return nil, translate(err)
	}
	return s.Resolve(ctx, uid, target)
}

func (s *conversationService) AppendMessage(ctx context.Context, target, author, body string) (*model.Conversation, *MessageView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, invalid("content is required")
	}
	if utf8.RuneCountInString(body) > maxMessageRunes {
		return nil, nil, invalid("content is too long")
	}
	cv, err := s.resolveTarget(ctx, target, author)
	if err != nil {
		return nil, nil, err
	}
	msg := &model.Message{SenderUID: author, Body: body}
	if err := s.convRepo.AppendMessage(ctx, cv, msg); err != nil {
		if errors.Is(err, repository.ErrNotParticipant) {
			return nil, nil, ErrForbidden
		}
		return nil, nil, translate(err)
	}
	log.Printf("[chat] rid=%s conv=%d uid=%s msg=%d stage=append_ok", reqctx.RID(ctx), cv.ID, author, msg.ID)

	authors := s.authors(ctx, author)
	s.notifier.Notify(ctx, cv.Counterpart(author), model.NotificationMessage,
		authors[author].DisplayName, model.Preview(body, notificationPreview), uint64Ptr(cv.ID), nil)

	return cv, &MessageView{Message: *msg, Author: authors[author]}, nil
}

// ListMessages returns the thread oldest first and clears the requester's
// unread counter. The other participant's counter is left alone.
func (s *conversationService) ListMessages(ctx context.Context, target, requester string) (*model.Conversation, []MessageView, error) {
	cv, err := s.resolveTarget(ctx, target, requester)
	if err != nil {
		return nil, nil, err
	}
	slot, _ := cv.SlotOf(requester)
	msgs, err := s.convRepo.ReadThread(ctx, cv.ID, slot)
	if err != nil {
		return nil, nil, err
	}
	if slot == model.SlotA {
		cv.UnreadA = 0
	} else {
		cv.UnreadB = 0
	}
	if err := s.notifier.MarkByConversation(ctx, requester, cv.ID); err != nil {
		log.Printf("[chat] rid=%s conv=%d uid=%s stage=mark_notifications err=%v", reqctx.RID(ctx), cv.ID, requester, err)
	}

	authors := s.authors(ctx, cv.ParticipantA, cv.ParticipantB)
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageView{Message: m, Author: authors[m.SenderUID]})
	}
	return cv, out, nil
}

func (s *conversationService) ListConversations(ctx context.Context, uid, role string) ([]ConversationSummary, error) {
	r, ok := model.ParseRole(role)
	if !ok {
		return nil, invalid("role must be buyer or seller")
	}
	list, err := s.convRepo.ListByRole(ctx, uid, r)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(list))
	for i := range list {
		uids = append(uids, list[i].Counterpart(uid))
	}
	authors := s.authors(ctx, uids...)
	out := make([]ConversationSummary, 0, len(list))
	for i := range list {
		out = append(out, summarize(&list[i], uid, authors))
	}
	return out, nil
}

func (s *conversationService) Get(ctx context.Context, convID uint64, uid string) (*ConversationSummary, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		return nil, translate(err)
	}
	if !cv.HasParticipant(uid) {
		return nil, ErrForbidden
	}
	sum := summarize(cv, uid, s.authors(ctx, cv.Counterpart(uid)))
	return &sum, nil
}

func (s *conversationService) Delete(ctx context.Context, convID uint64, uid string) error {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		return translate(err)
	}
	if !cv.HasParticipant(uid) {
		return ErrForbidden
	}
	if err := s.convRepo.Delete(ctx, convID); err != nil {
		return translate(err)
	}
	log.Printf("[chat] rid=%s conv=%d uid=%s stage=deleted", reqctx.RID(ctx), convID, uid)
	return nil
}

func (s *conversationService) UnreadTotal(ctx context.Context, uid string) (int64, error) {
	return s.convRepo.SumUnread(ctx, uid)
}

// authors loads display info; unknown users fall back to their uid.
func (s *conversationService) authors(ctx context.Context, uids ...string) map[string]Author {
	out := make(map[string]Author, len(uids))
	profiles, err := s.userRepo.FindByUIDs(ctx, uids)
	if err != nil {
		log.Printf("[chat] rid=%s stage=load_profiles err=%v", reqctx.RID(ctx), err)
	}
	for _, uid := range uids {
		a := Author{UID: uid, DisplayName: uid}
		if p, ok := profiles[uid]; ok {
			a.DisplayName = p.DisplayName
			a.AvatarURL = p.AvatarURL
		}
		out[uid] = a
	}
	return out
}

func summarize(cv *model.Conversation, uid string, authors map[string]Author) ConversationSummary {
	role, _ := cv.RoleOf(uid)
	return ConversationSummary{
		ID:                 cv.ID,
		Role:               role,
		Counterpart:        authors[cv.Counterpart(uid)],
		LastMessageID:      cv.LastMessageID,
		LastMessageAt:      cv.LastMessageAt,
		LastMessagePreview: cv.LastMessagePreview,
		Unread:             cv.UnreadFor(uid),
		CreatedAt:          cv.CreatedAt,
	}
}
