package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	GenerateToken(uid string) (string, time.Time, error)
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.UserProfile
}

// AccountService handles email/password accounts when tokens are issued locally.
type AccountService interface {
	Register(ctx context.Context, email, password, displayName string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type accountService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewAccountService(userRepo repository.UserRepository, tokens TokenIssuer) AccountService {
	return &accountService{userRepo: userRepo, tokens: tokens}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email")
	}
	return email, nil
}

func (s *accountService) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.UserProfile{
		UID:          uuid.NewString(),
		DisplayName:  fallbackName(displayName, email),
		Email:        &email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	log.Printf("[auth] rid=%s uid=%s stage=registered", reqctx.RID(ctx), u.UID)
	return s.session(u)
}

func (s *accountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return s.session(u)
}

func (s *accountService) session(u *model.UserProfile) (*Session, error) {
	token, exp, err := s.tokens.GenerateToken(u.UID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}
