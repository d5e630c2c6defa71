package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"github.com/shinyyama/secondchances-backend/internal/repository"
)

type PointsService interface {
	Get(ctx context.Context, uid string) (*model.UserPoints, error)
	Redeem(ctx context.Context, uid, tier string) (*model.Reward, error)
	ListRewards(ctx context.Context, uid string) ([]model.Reward, error)
}

type pointsService struct {
	repo repository.PointsRepository
}

func NewPointsService(repo repository.PointsRepository) PointsService {
	return &pointsService{repo: repo}
}

func (s *pointsService) Get(ctx context.Context, uid string) (*model.UserPoints, error) {
	return s.repo.Get(ctx, uid)
}

func (s *pointsService) Redeem(ctx context.Context, uid, tier string) (*model.Reward, error) {
	t, ok := FindRewardTier(strings.ToLower(strings.TrimSpace(tier)))
	if !ok {
		return nil, invalid("unknown reward tier")
	}
	rw := &model.Reward{OwnerUID: uid, Tier: t.Name, PointsCost: t.PointsCost, DiscountYen: t.DiscountYen}
	if err := s.repo.RedeemReward(ctx, rw); err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			return nil, invalid("insufficient points")
		}
		return nil, err
	}
	log.Printf("[points] rid=%s uid=%s reward=%d tier=%s stage=redeemed", reqctx.RID(ctx), uid, rw.ID, rw.Tier)
	return rw, nil
}

func (s *pointsService) ListRewards(ctx context.Context, uid string) ([]model.Reward, error) {
	return s.repo.ListRewards(ctx, uid)
}
