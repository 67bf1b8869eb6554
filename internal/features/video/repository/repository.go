package repository

import (
	"context"
	"errors"

	"videobot-backend/internal/features/video/models"
)

var (
	ErrNotFound = errors.New("video not found")
	ErrExists   = errors.New("video already exists")
)

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id string) (*models.Video, error)
	// ListByCategory returns the category's videos in registration order.
	ListByCategory(ctx context.Context, category string) ([]*models.Video, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
}
