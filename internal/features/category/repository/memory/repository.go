package memory

import (
	"context"
	"sync"

	"videobot-backend/internal/features/category/models"
	"videobot-backend/internal/features/category/repository"
)

// Repository is an in-memory CategoryRepository used by tests.
type Repository struct {
	mu         sync.Mutex
	categories map[string]models.Category
}

func New() *Repository {
	return &Repository{categories: make(map[string]models.Category)}
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.Name]; ok {
		return repository.ErrExists
	}
	r.categories[category.Name] = *category
	return nil
}

func (r *Repository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := category
	return &copied, nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[name]; !ok {
		return repository.ErrNotFound
	}
	delete(r.categories, name)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Category, 0, len(r.categories))
	for _, category := range r.categories {
		copied := category
		out = append(out, &copied)
	}
	return out, nil
}
