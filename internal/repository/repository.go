package repository

import (
	"context"
	"errors"

	"docportal/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record conflict")
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a user and returns it with its generated ID.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByUsername returns a user by username, or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}
