package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/repository"
)

// BoxInput carries the editable fields of a listing.
type BoxInput struct {
	Title          string
	Description    string
	Category       string
	PriceYen       int64
	OriginalYen    int64
	Quantity       int
	PickupStartsAt time.Time
	PickupEndsAt   time.Time
	ImageURL       *string
}

type BoxService interface {
	Create(ctx context.Context, sellerUID string, in BoxInput) (*model.Box, error)
	Update(ctx context.Context, id uint64, sellerUID string, in BoxInput) (*model.Box, error)
	Get(ctx context.Context, id uint64) (*model.Box, error)
	List(ctx context.Context, limit, offset int, category string) ([]model.Box, int64, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Box, error)
	SetImage(ctx context.Context, id uint64, sellerUID, contentType string, r io.Reader) (*model.Box, error)
}

type boxService struct {
	repo   repository.BoxRepository
	images ImageStore
}

func NewBoxService(repo repository.BoxRepository, images ImageStore) BoxService {
	return &boxService{repo: repo, images: images}
}

func (in *BoxInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" || utf8.RuneCountInString(in.Title) > 120 {
		return invalid("invalid title")
	}
	if in.Description == "" {
		return invalid("invalid description")
	}
	if in.Category == "" {
		return invalid("category is required")
	}
	if in.PriceYen <= 0 {
		return invalid("price must be positive")
	}
	if in.OriginalYen < 0 {
		return invalid("originalPrice must not be negative")
	}
	if in.Quantity < 0 {
		return invalid("quantity must not be negative")
	}
	if in.PickupStartsAt.IsZero() || !in.PickupEndsAt.After(in.PickupStartsAt) {
		return invalid("pickup window must end after it starts")
	}
	if in.ImageURL != nil {
		u := strings.TrimSpace(*in.ImageURL)
		if strings.HasPrefix(u, "data:") {
			return invalid("imageUrl must be a URL, not data URI")
		}
		if u == "" {
			in.ImageURL = nil
		} else {
			in.ImageURL = &u
		}
	}
	return nil
}

func (in BoxInput) apply(box *model.Box) {
	box.Title = in.Title
	box.Description = in.Description
	box.Category = in.Category
	box.PriceYen = in.PriceYen
	box.OriginalYen = in.OriginalYen
	box.Quantity = in.Quantity
	box.PickupStartsAt = in.PickupStartsAt.UTC()
	box.PickupEndsAt = in.PickupEndsAt.UTC()
	if in.ImageURL != nil {
		box.ImageURL = in.ImageURL
	}
}

func (s *boxService) Create(ctx context.Context, sellerUID string, in BoxInput) (*model.Box, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	box := &model.Box{SellerUID: sellerUID}
	in.apply(box)
	if err := s.repo.Create(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

func (s *boxService) owned(ctx context.Context, id uint64, sellerUID string) (*model.Box, error) {
	box, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if box.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	return box, nil
}

func (s *boxService) Update(ctx context.Context, id uint64, sellerUID string, in BoxInput) (*model.Box, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	box, err := s.owned(ctx, id, sellerUID)
	if err != nil {
		return nil, err
	}
	in.apply(box)
	if err := s.repo.Update(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

func (s *boxService) Get(ctx context.Context, id uint64) (*model.Box, error) {
	box, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return box, nil
}

func (s *boxService) List(ctx context.Context, limit, offset int, category string) ([]model.Box, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset, strings.TrimSpace(category))
}

func (s *boxService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Box, error) {
	return s.repo.ListBySeller(ctx, sellerUID)
}

func (s *boxService) SetImage(ctx context.Context, id uint64, sellerUID, contentType string, r io.Reader) (*model.Box, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("file must be an image")
	}
	box, err := s.owned(ctx, id, sellerUID)
	if err != nil {
		return nil, err
	}
	url, err := s.images.Upload(ctx, fmt.Sprintf("boxes/%d", box.ID), contentType, r)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetImageURL(ctx, box.ID, url); err != nil {
		return nil, err
	}
	box.ImageURL = &url
	return box, nil
}
