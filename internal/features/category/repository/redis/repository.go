package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"videobot-backend/internal/features/category/models"
	"videobot-backend/internal/features/category/repository"
)

// All categories live in one hash keyed by name. HSetNX makes creation a
// single atomic existence-check-then-write, so two concurrent admins
// cannot both create the same name.
const categoriesKey = "categories"

type categoryRepository struct {
	client *redis.Client
}

func NewCategoryRepository(client *redis.Client) repository.CategoryRepository {
	return &categoryRepository{client: client}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	data, err := json.Marshal(category)
	if err != nil {
		return err
	}

	created, err := r.client.HSetNX(ctx, categoriesKey, category.Name, data).Result()
	if err != nil {
		return err
	}
	if !created {
		return repository.ErrExists
	}
	return nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	data, err := r.client.HGet(ctx, categoriesKey, name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var category models.Category
	if err := json.Unmarshal(data, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, name string) error {
	removed, err := r.client.HDel(ctx, categoriesKey, name).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	entries, err := r.client.HGetAll(ctx, categoriesKey).Result()
	if err != nil {
		return nil, err
	}

	categories := make([]*models.Category, 0, len(entries))
	for _, data := range entries {
		var category models.Category
		if err := json.Unmarshal([]byte(data), &category); err != nil {
			continue
		}
		categories = append(categories, &category)
	}
	return categories, nil
}
