// Package repository provides persistence for user credential records.
package repository

import (
	"context"

	"rental-auth-service/internal/user/domain"
)

// Repository is the user credential store.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns the user with the given email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user. The user must have ID set.
	Create(ctx context.Context, u *domain.User) error
	// UpdatePassword replaces the stored password hash for the user.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
