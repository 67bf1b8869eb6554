package service

import (
	"context"
	"errors"
	"sort"
	"time"

	apperrors "videobot-backend/internal/common/errors"
	"videobot-backend/internal/features/category/models"
	"videobot-backend/internal/features/category/repository"
)

// Custom errors for category service
var (
	ErrNotFound = errors.New("category not found")
	ErrExists   = errors.New("category already exists")
)

// CategoryService is authorization-agnostic: callers are responsible for
// checking admin-ship before invoking Add or Remove.
type CategoryService interface {
	Add(ctx context.Context, name, channelID string) (*models.Category, error)
	Remove(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) Add(ctx context.Context, name, channelID string) (*models.Category, error) {
	category := &models.Category{
		Name:      name,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	}

	err := s.repo.Create(ctx, category)
	if errors.Is(err, repository.ErrExists) {
		return nil, ErrExists
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "create category", err)
	}
	return category, nil
}

func (s *categoryService) Remove(ctx context.Context, name string) error {
	err := s.repo.Delete(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "delete category", err)
	}
	return nil
}

func (s *categoryService) Get(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load category", err)
	}
	return category, nil
}

// List returns categories sorted by name so keyboard rendering is stable
// within one render call.
func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "list categories", err)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}
