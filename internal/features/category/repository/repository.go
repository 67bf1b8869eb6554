package repository

import (
	"context"
	"errors"

	"videobot-backend/internal/features/category/models"
)

var (
	ErrNotFound = errors.New("category not found")
	// ErrExists is returned by Create when the name is already taken.
	// The check-and-write must be atomic at the store level.
	ErrExists = errors.New("category already exists")
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*models.Category, error)
}
