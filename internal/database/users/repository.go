// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByToken(ctx, token)
package users

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/marked/internal/auth"
	"github.com/mrlokans/marked/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user with a generated API token. Only the token
// hash is stored; the returned plaintext cannot be recovered later.
func (r *Repository) CreateUser(ctx context.Context, username, email string) (*entities.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", fmt.Errorf("username is required")
	}

	token, hash, err := auth.GenerateAPIToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	user := &entities.User{
		Username:  username,
		Email:     strings.TrimSpace(email),
		TokenHash: hash,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByToken retrieves the user owning a plaintext API token.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user entities.User
	err := r.db.WithContext(ctx).Where("token_hash = ?", auth.HashToken(token)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
