package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/service"
)

type BoxHandler struct {
	svc service.BoxService
}

func NewBoxHandler(svc service.BoxService) *BoxHandler {
	return &BoxHandler{svc: svc}
}

type BoxResponse struct {
	ID             uint64  `json:"id"`
	SellerUID      string  `json:"sellerUid"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	PriceYen       int64   `json:"priceYen"`
	OriginalYen    int64   `json:"originalPriceYen"`
	Quantity       int     `json:"quantity"`
	PickupStartsAt string  `json:"pickupStartsAt"`
	PickupEndsAt   string  `json:"pickupEndsAt"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

type BoxListResponse struct {
	Boxes []BoxResponse `json:"boxes"`
	Total int64         `json:"total"`
}

type BoxRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	PriceYen       int64     `json:"priceYen"`
	OriginalYen    int64     `json:"originalPriceYen"`
	Quantity       int       `json:"quantity"`
	PickupStartsAt time.Time `json:"pickupStartsAt"`
	PickupEndsAt   time.Time `json:"pickupEndsAt"`
	ImageURL       *string   `json:"imageUrl"`
}

func (r BoxRequest) input() service.BoxInput {
	return service.BoxInput{
		Title:          r.Title,
		Description:    r.Description,
		Category:       r.Category,
		PriceYen:       r.PriceYen,
		OriginalYen:    r.OriginalYen,
		Quantity:       r.Quantity,
		PickupStartsAt: r.PickupStartsAt,
		PickupEndsAt:   r.PickupEndsAt,
		ImageURL:       r.ImageURL,
	}
}

func toBoxResponse(b *model.Box) BoxResponse {
	return BoxResponse{
		ID:             b.ID,
		SellerUID:      b.SellerUID,
		Title:          b.Title,
		Description:    b.Description,
		Category:       b.Category,
		PriceYen:       b.PriceYen,
		OriginalYen:    b.OriginalYen,
		Quantity:       b.Quantity,
		PickupStartsAt: b.PickupStartsAt.Format(time.RFC3339),
		PickupEndsAt:   b.PickupEndsAt.Format(time.RFC3339),
		ImageURL:       b.ImageURL,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *BoxHandler) Create(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	var req BoxRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	box, err := h.svc.Create(c.Request().Context(), uid, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBoxResponse(box))
}

func (h *BoxHandler) Update(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req BoxRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	box, err := h.svc.Update(c.Request().Context(), id, uid, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBoxResponse(box))
}

func (h *BoxHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	box, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBoxResponse(box))
}

func (h *BoxHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	boxes, total, err := h.svc.List(c.Request().Context(), limit, offset, c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	resp := BoxListResponse{
		Boxes: make([]BoxResponse, 0, len(boxes)),
		Total: total,
	}
	for i := range boxes {
		resp.Boxes = append(resp.Boxes, toBoxResponse(&boxes[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BoxHandler) ListMine(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	boxes, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]BoxResponse, 0, len(boxes))
	for i := range boxes {
		resp = append(resp, toBoxResponse(&boxes[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BoxHandler) UploadImage(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	file, contentType, err := openUpload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	defer file.Close()
	box, err := h.svc.SetImage(c.Request().Context(), id, uid, contentType, file)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBoxResponse(box))
}
