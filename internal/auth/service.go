package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/entities"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrAuthRequired = errors.New("authentication required")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetUserByToken(ctx context.Context, token string) (*entities.User, error)
}

// Service resolves bearer tokens to users.
type Service struct {
	users  UserRepository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(users UserRepository, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		config: cfg,
	}
}

// ValidateToken returns the user owning token. Unknown tokens yield ErrInvalidToken.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByToken(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode != config.AuthModeNone
}

// GetAuthMode returns the configured authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}
