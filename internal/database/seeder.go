// internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"po-bridge-api-server/config"
	"po-bridge-api-server/internal/auth"
	"po-bridge-api-server/internal/models"
)

// UserRepository is implemented by both user store backends.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SeedBuyer creates the configured buyer account if it does not exist yet.
// It reports whether an account was created.
func SeedBuyer(ctx context.Context, users UserRepository, cfg config.SeedConfig) (bool, error) {
	email := strings.TrimSpace(cfg.BuyerEmail)
	if email == "" || cfg.BuyerPassword == "" {
		return false, nil
	}

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hashedPassword, err := auth.HashPassword(cfg.BuyerPassword)
	if err != nil {
		return false, err
	}

	buyer := &models.User{
		Email:     email,
		Name:      cfg.BuyerName,
		Password:  hashedPassword,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, buyer); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
