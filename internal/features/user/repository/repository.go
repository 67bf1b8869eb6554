package repository

import (
	"context"
	"errors"

	"videobot-backend/internal/features/user/models"
)

// ErrNotFound is returned when no user record exists for the given ID.
var ErrNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// AddSeen records a video in the user's per-category history.
	// Set semantics: adding an already-seen ID is a no-op.
	AddSeen(ctx context.Context, userID int64, category, videoID string) error
	// Seen returns the IDs the user has already been shown in the
	// category, in insertion order.
	Seen(ctx context.Context, userID int64, category string) ([]string, error)
	HasSeen(ctx context.Context, userID int64, category, videoID string) (bool, error)
}
