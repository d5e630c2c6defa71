package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/service"
)

type PointsHandler struct {
	svc service.PointsService
}

func NewPointsHandler(svc service.PointsService) *PointsHandler {
	return &PointsHandler{svc: svc}
}

type RewardResponse struct {
	ID          uint64  `json:"id"`
	Tier        string  `json:"tier"`
	PointsCost  int64   `json:"pointsCost"`
	DiscountYen int64   `json:"discountYen"`
	Used        bool    `json:"used"`
	UsedOrderID *uint64 `json:"usedOrderId,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type redeemRequest struct {
	Tier string `json:"tier"`
}

func toRewardResponse(r model.Reward) RewardResponse {
	return RewardResponse{
		ID:          r.ID,
		Tier:        r.Tier,
		PointsCost:  r.PointsCost,
		DiscountYen: r.DiscountYen,
		Used:        r.UsedAt != nil,
		UsedOrderID: r.UsedOrderID,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func (h *PointsHandler) Get(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	p, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":   p.TotalPoints,
		"balance": p.BalancePoints,
	})
}

func (h *PointsHandler) Tiers(c echo.Context) error {
	resp := make([]map[string]interface{}, 0, len(service.RewardTiers))
	for _, t := range service.RewardTiers {
		resp = append(resp, map[string]interface{}{
			"tier":        t.Name,
			"pointsCost":  t.PointsCost,
			"discountYen": t.DiscountYen,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PointsHandler) Redeem(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	rw, err := h.svc.Redeem(c.Request().Context(), uid, req.Tier)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toRewardResponse(*rw))
}

func (h *PointsHandler) ListRewards(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	list, err := h.svc.ListRewards(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]RewardResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, toRewardResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}
