package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", httpx.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, "", httpx.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", httpx.ErrUnauthorized
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// ResolveToken maps a bearer token to its account, or nil when the token is
// unknown, expired, or the account went inactive since issuance.
func (s *Service) ResolveToken(ctx context.Context, token string) (*User, error) {
	userID, ok, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}
