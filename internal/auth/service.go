package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/shared"
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
func (s *Service) Login(ctx context.Context, email, password string) (string, *shared.Principal, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	principal := shared.Principal{UserID: user.ID, Email: user.Email, Name: user.Name}
	token, err := s.tokens.Issue(ctx, principal)
	if err != nil {
		return "", nil, err
	}
	return token, &principal, nil
}

// Logout revokes a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Resolve maps a bearer token to its principal.
func (s *Service) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	return s.tokens.Resolve(ctx, token)
}
