package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/repository"
)

type RatingService interface {
	Rate(ctx context.Context, orderID uint64, raterUID string, score int, comment string) (*model.Rating, error)
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	orderRepo  repository.OrderRepository
}

func NewRatingService(ratingRepo repository.RatingRepository, orderRepo repository.OrderRepository) RatingService {
	return &ratingService{ratingRepo: ratingRepo, orderRepo: orderRepo}
}

// Rate lets the buyer score the seller once per collected order.
func (s *ratingService) Rate(ctx context.Context, orderID uint64, raterUID string, score int, comment string) (*model.Rating, error) {
	if score < 1 || score > 5 {
		return nil, invalid("score must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > 1000 {
		return nil, invalid("comment is too long")
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, translate(err)
	}
	if o.BuyerUID != raterUID {
		return nil, ErrForbidden
	}
	if o.Status != model.OrderStatusPickedUp {
		return nil, invalid("order has not been picked up")
	}
	rt := &model.Rating{OrderID: o.ID, RaterUID: raterUID, SellerUID: o.SellerUID, Score: score, Comment: comment}
	if err := s.ratingRepo.Create(ctx, rt); err != nil {
		return nil, translate(err)
	}
	return rt, nil
}
