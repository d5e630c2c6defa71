package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"gorm.io/gorm"
)

// PaymentGateway charges the buyer and returns a provider reference.
type PaymentGateway interface {
	Charge(ctx context.Context, buyerUID string, amountYen int64) (string, error)
}

// StubGateway accepts every charge.
type StubGateway struct{}

func (StubGateway) Charge(_ context.Context, _ string, _ int64) (string, error) {
	return "stub_" + uuid.NewString(), nil
}

type CheckoutInput struct {
	Quantity   int
	PointsUsed int64
	RewardID   *uint64
}

type OrderWithBox struct {
	Order model.Order
	Box   *model.Box
}

type OrderService interface {
	Checkout(ctx context.Context, boxID uint64, buyerUID string, in CheckoutInput) (*model.Order, error)
	Get(ctx context.Context, id uint64, uid string) (*model.Order, error)
	PickupCode(ctx context.Context, id uint64, buyerUID string) (string, error)
	ConfirmPickup(ctx context.Context, id uint64, sellerUID, code string) (*model.Order, error)
	Cancel(ctx context.Context, id uint64, buyerUID string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]OrderWithBox, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]OrderWithBox, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	boxRepo       repository.BoxRepository
	pointsRepo    repository.PointsRepository
	conversations ConversationService
	notifier      NotificationService
	payments      PaymentGateway
	perHundred    int64
	now           func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	boxRepo repository.BoxRepository,
	pointsRepo repository.PointsRepository,
	conversations ConversationService,
	notifier NotificationService,
	payments PaymentGateway,
	pointsPer100Yen int64,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		boxRepo:       boxRepo,
		pointsRepo:    pointsRepo,
		conversations: conversations,
		notifier:      notifier,
		payments:      payments,
		perHundred:    pointsPer100Yen,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func newPickupCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func (s *orderService) Checkout(ctx context.Context, boxID uint64, buyerUID string, in CheckoutInput) (*model.Order, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, invalid("quantity must be positive")
	}
	if in.PointsUsed < 0 {
		return nil, invalid("pointsUsed must not be negative")
	}
	box, err := s.boxRepo.FindByID(ctx, boxID)
	if err != nil {
		return nil, translate(err)
	}
	if box.SellerUID == buyerUID {
		return nil, invalid("cannot buy your own box")
	}
	if box.Quantity < in.Quantity {
		return nil, fmt.Errorf("%w: out of stock", ErrConflict)
	}

	var rewardYen int64
	if in.RewardID != nil {
		rw, err := s.pointsRepo.FindReward(ctx, *in.RewardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalid("reward not found")
			}
			return nil, err
		}
		if rw.OwnerUID != buyerUID {
			return nil, ErrForbidden
		}
		if rw.UsedAt != nil {
			return nil, invalid("reward already used")
		}
		rewardYen = rw.DiscountYen
	}
	if in.PointsUsed > 0 {
		p, err := s.pointsRepo.Get(ctx, buyerUID)
		if err != nil {
			return nil, err
		}
		if p.BalancePoints < in.PointsUsed {
			return nil, invalid("insufficient points")
		}
	}
	q, err := PriceOrder(box.PriceYen, in.Quantity, rewardYen, in.PointsUsed)
	if err != nil {
		return nil, err
	}

	cv, err := s.conversations.Resolve(ctx, buyerUID, box.SellerUID)
	if err != nil {
		return nil, err
	}
	ref, err := s.payments.Charge(ctx, buyerUID, q.PaidYen)
	if err != nil {
		return nil, err
	}
	o := &model.Order{
		BoxID:          box.ID,
		BuyerUID:       buyerUID,
		SellerUID:      box.SellerUID,
		ConversationID: cv.ID,
		Quantity:       in.Quantity,
		Status:         model.OrderStatusPendingPickup,
		SubtotalYen:    q.SubtotalYen,
		RewardID:       in.RewardID,
		RewardYen:      q.RewardYen,
		PointsUsed:     q.PointsUsed,
		PaidYen:        q.PaidYen,
		PaymentRef:     ref,
		PickupCode:     newPickupCode(),
	}
	if err := s.orderRepo.PlaceOrder(ctx, o); err != nil {
		switch {
		case errors.Is(err, repository.ErrOutOfStock):
			return nil, fmt.Errorf("%w: out of stock", ErrConflict)
		case errors.Is(err, repository.ErrRewardUnavailable):
			return nil, fmt.Errorf("%w: reward already used", ErrConflict)
		case errors.Is(err, repository.ErrInsufficientPoints):
			return nil, invalid("insufficient points")
		}
		return nil, err
	}
	log.Printf("[order] rid=%s order=%d box=%d buyer=%s paid=%d stage=placed", reqctx.RID(ctx), o.ID, box.ID, buyerUID, o.PaidYen)

	body := fmt.Sprintf("Order #%d placed: %d x %s. Pickup between %s and %s.",
		o.ID, o.Quantity, box.Title,
		box.PickupStartsAt.Format("01/02 15:04"), box.PickupEndsAt.Format("01/02 15:04"))
	s.postToThread(ctx, o, buyerUID, body)
	s.notifier.Notify(ctx, o.SellerUID, model.NotificationOrderPlaced, "New order", body, uint64Ptr(cv.ID), uint64Ptr(o.ID))
	return o, nil
}

// postToThread records an order event in the buyer/seller conversation.
func (s *orderService) postToThread(ctx context.Context, o *model.Order, author, body string) {
	if o.ConversationID == 0 {
		return
	}
	if _, _, err := s.conversations.AppendMessage(ctx, strconv.FormatUint(o.ConversationID, 10), author, body); err != nil {
		log.Printf("[order] rid=%s order=%d conv=%d stage=thread_message err=%v", reqctx.RID(ctx), o.ID, o.ConversationID, err)
	}
}

func (s *orderService) Get(ctx context.Context, id uint64, uid string) (*model.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if uid != o.BuyerUID && uid != o.SellerUID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *orderService) PickupCode(ctx context.Context, id uint64, buyerUID string) (string, error) {
	o, err := s.Get(ctx, id, buyerUID)
	if err != nil {
		return "", err
	}
	if o.BuyerUID != buyerUID {
		return "", ErrForbidden
	}
	if o.Status != model.OrderStatusPendingPickup {
		return "", fmt.Errorf("%w: order is %s", ErrConflict, o.Status)
	}
	return o.PickupCode, nil
}

func (s *orderService) ConfirmPickup(ctx context.Context, id uint64, sellerUID, code string) (*model.Order, error) {
	o, err := s.Get(ctx, id, sellerUID)
	if err != nil {
		return nil, err
	}
	if o.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	if o.Status != model.OrderStatusPendingPickup {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, o.Status)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != o.PickupCode {
		return nil, invalid("pickup code does not match")
	}
	o.PointsEarned = PointsEarned(o.PaidYen, s.perHundred)
	if err := s.orderRepo.ConfirmPickup(ctx, o, code, s.now()); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("%w: order changed", ErrConflict)
		}
		return nil, err
	}
	log.Printf("[order] rid=%s order=%d points=%d stage=picked_up", reqctx.RID(ctx), o.ID, o.PointsEarned)
	body := fmt.Sprintf("Order #%d picked up. %d points earned.", o.ID, o.PointsEarned)
	s.postToThread(ctx, o, sellerUID, body)
	s.notifier.Notify(ctx, o.BuyerUID, model.NotificationOrderPickedUp, "Picked up", body, uint64Ptr(o.ConversationID), uint64Ptr(o.ID))
	return s.reload(ctx, o.ID)
}

func (s *orderService) Cancel(ctx context.Context, id uint64, buyerUID string) (*model.Order, error) {
	o, err := s.Get(ctx, id, buyerUID)
	if err != nil {
		return nil, err
	}
	if o.BuyerUID != buyerUID {
		return nil, ErrForbidden
	}
	if o.Status != model.OrderStatusPendingPickup {
		return nil, fmt.Errorf("%w: cannot cancel after pickup", ErrConflict)
	}
	if err := s.orderRepo.Cancel(ctx, o, s.now()); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("%w: order changed", ErrConflict)
		}
		return nil, err
	}
	log.Printf("[order] rid=%s order=%d stage=canceled", reqctx.RID(ctx), o.ID)
	body := fmt.Sprintf("Order #%d was canceled.", o.ID)
	s.postToThread(ctx, o, buyerUID, body)
	s.notifier.Notify(ctx, o.SellerUID, model.NotificationOrderCanceled, "Order canceled", body, uint64Ptr(o.ConversationID), uint64Ptr(o.ID))
	return s.reload(ctx, o.ID)
}

func (s *orderService) reload(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerUID string) ([]OrderWithBox, error) {
	orders, err := s.orderRepo.ListByBuyer(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	return s.withBoxes(ctx, orders), nil
}

func (s *orderService) ListBySeller(ctx context.Context, sellerUID string) ([]OrderWithBox, error) {
	orders, err := s.orderRepo.ListBySeller(ctx, sellerUID)
	if err != nil {
		return nil, err
	}
	return s.withBoxes(ctx, orders), nil
}

func (s *orderService) withBoxes(ctx context.Context, orders []model.Order) []OrderWithBox {
	resp := make([]OrderWithBox, 0, len(orders))
	boxes := make(map[uint64]*model.Box)
	for _, o := range orders {
		box, ok := boxes[o.BoxID]
		if !ok {
			box, _ = s.boxRepo.FindByID(ctx, o.BoxID)
			boxes[o.BoxID] = box
		}
		resp = append(resp, OrderWithBox{Order: o, Box: box})
	}
	return resp
}
