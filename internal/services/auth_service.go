package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const bcryptCost = 12

type AuthService struct {
	Admins   *repos.AdminRepo
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewAuthService(admins *repos.AdminRepo, ttl time.Duration) *AuthService {
	return &AuthService{Admins: admins, TokenTTL: ttl, Now: time.Now}
}

// Init creates the bootstrap admin if it does not exist yet.
func (s *AuthService) Init(ctx context.Context, email, password string) (*domain.Admin, bool, error) {
	if email == "" || password == "" {
		return nil, false, invalid("admin", "email and password are required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, false, err
	}
	return s.Admins.Create(ctx, email, string(h), "admin")
}

// Login verifies credentials and issues an opaque bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	a, err := s.Admins.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrBadCreds
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	token := uuid.NewString()
	if err := s.Admins.BindSession(ctx, token, a.ID, s.Now().Add(s.TokenTTL)); err != nil {
		return "", nil, err
	}
	return token, a, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Admins.UnbindSession(ctx, token)
}

// Authenticate resolves a bearer token to its admin.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Admin, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	a, err := s.Admins.SessionAdmin(ctx, token, s.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return a, nil
}
