package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type AuthorResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

type ConversationResponse struct {
	ConversationID     uint64         `json:"conversationId"`
	Role               string         `json:"role"`
	Counterpart        AuthorResponse `json:"counterpart"`
	LastMessageID      *uint64        `json:"lastMessageId,omitempty"`
	LastMessageAt      *string        `json:"lastMessageAt,omitempty"`
	LastMessagePreview string         `json:"lastMessagePreview"`
	Unread             int            `json:"unread"`
	CreatedAt          string         `json:"createdAt"`
}

type MessageResponse struct {
	ID             uint64         `json:"id"`
	ConversationID uint64         `json:"conversationId"`
	Author         AuthorResponse `json:"author"`
	Body           string         `json:"body"`
	CreatedAt      string         `json:"createdAt"`
}

type ThreadResponse struct {
	ConversationID uint64            `json:"conversationId"`
	Role           string            `json:"role"`
	Messages       []MessageResponse `json:"messages"`
}

type MessageRequest struct {
	Content string `json:"content"`
}

func toAuthorResponse(a service.Author) AuthorResponse {
	return AuthorResponse{UID: a.UID, DisplayName: a.DisplayName, AvatarURL: a.AvatarURL}
}

func toConversationResponse(s service.ConversationSummary) ConversationResponse {
	return ConversationResponse{
		ConversationID:     s.ID,
		Role:               string(s.Role),
		Counterpart:        toAuthorResponse(s.Counterpart),
		LastMessageID:      s.LastMessageID,
		LastMessageAt:      timePtr(s.LastMessageAt),
		LastMessagePreview: s.LastMessagePreview,
		Unread:             s.Unread,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
	}
}

func toMessageResponse(m service.MessageView) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Author:         toAuthorResponse(m.Author),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	role := c.QueryParam("role")
	if role == "" {
		role = string(model.RoleBuyer)
	}
	list, err := h.svc.ListConversations(c.Request().Context(), uid, role)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]ConversationResponse, 0, len(list))
	for _, s := range list {
		resp = append(resp, toConversationResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) Unread(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	total, err := h.svc.UnreadTotal(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": total})
}

func (h *ConversationHandler) Get(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	convID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	sum, err := h.svc.Get(c.Request().Context(), convID, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(*sum))
}

// ListMessages accepts a conversation id or the counterpart's uid in :id.
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	cv, msgs, err := h.svc.ListMessages(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	role, _ := cv.RoleOf(uid)
	resp := ThreadResponse{
		ConversationID: cv.ID,
		Role:           string(role),
		Messages:       make([]MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	_, msg, err := h.svc.AppendMessage(c.Request().Context(), c.Param("id"), uid, req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

func (h *ConversationHandler) Delete(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	convID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	if err := h.svc.Delete(c.Request().Context(), convID, uid); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
