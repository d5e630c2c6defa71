package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/service"
)

const maxUploadBytes = 5 << 20

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type MeResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Email       *string `json:"email,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type PublicUserResponse struct {
	UID           string  `json:"uid"`
	DisplayName   string  `json:"displayName"`
	AvatarURL     *string `json:"avatarUrl"`
	RatingCount   int64   `json:"ratingCount"`
	RatingAverage float64 `json:"ratingAverage"`
}

type UpdateMeRequest struct {
	DisplayName string `json:"displayName"`
}

func toMeResponse(u *model.UserProfile) MeResponse {
	return MeResponse{
		UID:         u.UID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func (h *UserHandler) Me(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	u, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMeResponse(u))
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	var req UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	u, err := h.svc.UpdateDisplayName(c.Request().Context(), uid, req.DisplayName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMeResponse(u))
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	file, contentType, err := openUpload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	defer file.Close()
	u, err := h.svc.SetAvatar(c.Request().Context(), uid, contentType, file)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMeResponse(u))
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	p, err := h.svc.Public(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:           p.UID,
		DisplayName:   p.DisplayName,
		AvatarURL:     p.AvatarURL,
		RatingCount:   p.RatingCount,
		RatingAverage: p.RatingAverage,
	})
}
