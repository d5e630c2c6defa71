package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"gorm.io/gorm"
)

const maxDisplayNameRunes = 60

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, folder, contentType string, r io.Reader) (string, error)
}

type PublicProfile struct {
	UID           string
	DisplayName   string
	AvatarURL     *string
	RatingCount   int64
	RatingAverage float64
}

type UserService interface {
	SyncIdentity(ctx context.Context, uid, name, picture, email string) error
	Get(ctx context.Context, uid string) (*model.UserProfile, error)
	UpdateDisplayName(ctx context.Context, uid, name string) (*model.UserProfile, error)
	SetAvatar(ctx context.Context, uid, contentType string, r io.Reader) (*model.UserProfile, error)
	Public(ctx context.Context, uid string) (*PublicProfile, error)
}

type userService struct {
	userRepo   repository.UserRepository
	ratingRepo repository.RatingRepository
	images     ImageStore
}

func NewUserService(userRepo repository.UserRepository, ratingRepo repository.RatingRepository, images ImageStore) UserService {
	return &userService{userRepo: userRepo, ratingRepo: ratingRepo, images: images}
}

// SyncIdentity creates the profile on first sight of a hosted-identity user.
// Existing profiles are left as edited by their owner.
func (s *userService) SyncIdentity(ctx context.Context, uid, name, picture, email string) error {
	if uid == "" {
		return invalid("uid is required")
	}
	if _, err := s.userRepo.FindByUID(ctx, uid); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u := &model.UserProfile{UID: uid, DisplayName: fallbackName(name, email)}
	if picture != "" {
		u.AvatarURL = &picture
	}
	if email != "" {
		e := strings.ToLower(email)
		u.Email = &e
	}
	return s.userRepo.Upsert(ctx, u)
}

func fallbackName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "user"
}

func (s *userService) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	u, err := s.userRepo.FindByUID(ctx, uid)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *userService) UpdateDisplayName(ctx context.Context, uid, name string) (*model.UserProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxDisplayNameRunes {
		return nil, invalid("invalid displayName")
	}
	if err := s.userRepo.UpdateProfile(ctx, uid, map[string]interface{}{"display_name": name}); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, uid)
}

func (s *userService) SetAvatar(ctx context.Context, uid, contentType string, r io.Reader) (*model.UserProfile, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("file must be an image")
	}
	url, err := s.images.Upload(ctx, "avatars/"+uid, contentType, r)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, uid, map[string]interface{}{"avatar_url": url}); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, uid)
}

func (s *userService) Public(ctx context.Context, uid string) (*PublicProfile, error) {
	u, err := s.userRepo.FindByUID(ctx, uid)
	if err != nil {
		return nil, translate(err)
	}
	sum, err := s.ratingRepo.SummaryForSeller(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		UID:           u.UID,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		RatingCount:   sum.Count,
		RatingAverage: sum.Average,
	}, nil
}
