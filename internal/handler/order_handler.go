package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/pickup"
	"github.com/shinyyama/secondchances-backend/internal/report"
	"github.com/shinyyama/secondchances-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHandler struct {
	svc     service.OrderService
	ratings service.RatingService
}

func NewOrderHandler(svc service.OrderService, ratings service.RatingService) *OrderHandler {
	return &OrderHandler{svc: svc, ratings: ratings}
}

type OrderResponse struct {
	ID             uint64       `json:"id"`
	BoxID          uint64       `json:"boxId"`
	BuyerUID       string       `json:"buyerUid"`
	SellerUID      string       `json:"sellerUid"`
	ConversationID uint64       `json:"conversationId"`
	Quantity       int          `json:"quantity"`
	Status         string       `json:"status"`
	SubtotalYen    int64        `json:"subtotalYen"`
	RewardID       *uint64      `json:"rewardId,omitempty"`
	RewardYen      int64        `json:"rewardYen"`
	PointsUsed     int64        `json:"pointsUsed"`
	PaidYen        int64        `json:"paidYen"`
	PointsEarned   int64        `json:"pointsEarned"`
	PickupCode     string       `json:"pickupCode,omitempty"`
	PickedUpAt     *string      `json:"pickedUpAt,omitempty"`
	CanceledAt     *string      `json:"canceledAt,omitempty"`
	CreatedAt      string       `json:"createdAt"`
	Box            *BoxResponse `json:"box,omitempty"`
}

type CheckoutRequest struct {
	Quantity   int     `json:"quantity"`
	PointsUsed int64   `json:"pointsUsed"`
	RewardID   *uint64 `json:"rewardId"`
}

type PickupRequest struct {
	Code string `json:"code"`
}

type RatingRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// toOrderResponse hides the pickup code from everyone but the buyer.
func toOrderResponse(o *model.Order, box *model.Box, viewer string) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID,
		BoxID:          o.BoxID,
		BuyerUID:       o.BuyerUID,
		SellerUID:      o.SellerUID,
		ConversationID: o.ConversationID,
		Quantity:       o.Quantity,
		Status:         string(o.Status),
		SubtotalYen:    o.SubtotalYen,
		RewardID:       o.RewardID,
		RewardYen:      o.RewardYen,
		PointsUsed:     o.PointsUsed,
		PaidYen:        o.PaidYen,
		PointsEarned:   o.PointsEarned,
		PickedUpAt:     timePtr(o.PickedUpAt),
		CanceledAt:     timePtr(o.CanceledAt),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if viewer == o.BuyerUID {
		resp.PickupCode = o.PickupCode
	}
	if box != nil {
		b := toBoxResponse(box)
		resp.Box = &b
	}
	return resp
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	boxID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid box id")
	}
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	o, err := h.svc.Checkout(c.Request().Context(), boxID, uid, service.CheckoutInput{
		Quantity:   req.Quantity,
		PointsUsed: req.PointsUsed,
		RewardID:   req.RewardID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o, nil, uid))
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	o, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, nil, uid))
}

func (h *OrderHandler) listResponse(list []service.OrderWithBox, uid string) []OrderResponse {
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i].Order, list[i].Box, uid))
	}
	return resp
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	list, err := h.svc.ListByBuyer(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.listResponse(list, uid))
}

func (h *OrderHandler) ListSales(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.listResponse(list, uid))
}

func (h *OrderHandler) ExportSales(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	rows := make([]report.SaleRow, 0, len(list))
	for _, ob := range list {
		row := report.SaleRow{
			OrderID:     ob.Order.ID,
			CreatedAt:   ob.Order.CreatedAt,
			Quantity:    ob.Order.Quantity,
			Status:      string(ob.Order.Status),
			SubtotalYen: ob.Order.SubtotalYen,
			RewardYen:   ob.Order.RewardYen,
			PointsUsed:  ob.Order.PointsUsed,
			PaidYen:     ob.Order.PaidYen,
		}
		if ob.Box != nil {
			row.BoxTitle = ob.Box.Title
		}
		rows = append(rows, row)
	}
	data, err := report.SalesWorkbook(rows)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="sales.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (h *OrderHandler) PickupQR(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	code, err := h.svc.PickupCode(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	png, err := pickup.QRCode(id, code)
	if err != nil {
		return writeError(c, fmt.Errorf("render qr: %w", err))
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *OrderHandler) ConfirmPickup(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var req PickupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	o, err := h.svc.ConfirmPickup(c.Request().Context(), id, uid, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, nil, uid))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	o, err := h.svc.Cancel(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, nil, uid))
}

func (h *OrderHandler) Rate(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var req RatingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	rt, err := h.ratings.Rate(c.Request().Context(), id, uid, req.Score, req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      rt.ID,
		"orderId": rt.OrderID,
		"score":   rt.Score,
		"comment": rt.Comment,
	})
}
