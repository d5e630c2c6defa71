package service

import (
	"context"

	"github.com/shinyyama/secondchances-backend/internal/repository"
)

type RevenueService interface {
	Get(ctx context.Context, uid string) (int64, error)
}

type revenueService struct {
	repo repository.UserRevenueRepository
}

func NewRevenueService(repo repository.UserRevenueRepository) RevenueService {
	return &revenueService{repo: repo}
}

func (s *revenueService) Get(ctx context.Context, uid string) (int64, error) {
	r, err := s.repo.Get(ctx, uid)
	if err != nil {
		return 0, err
	}
	return r.RevenueYen, nil
}
