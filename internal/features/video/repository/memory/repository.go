package memory

import (
	"context"
	"sync"

	"videobot-backend/internal/features/video/models"
	"videobot-backend/internal/features/video/repository"
)

// Repository is an in-memory VideoRepository used by tests.
type Repository struct {
	mu       sync.Mutex
	videos   map[string]models.Video
	byBucket map[string][]string
}

func New() *Repository {
	return &Repository{
		videos:   make(map[string]models.Video),
		byBucket: make(map[string][]string),
	}
}

func (r *Repository) Create(ctx context.Context, video *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[video.ID]; ok {
		return repository.ErrExists
	}
	r.videos[video.ID] = *video
	r.byBucket[video.Category] = append(r.byBucket[video.Category], video.ID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := video
	return &copied, nil
}

func (r *Repository) ListByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byBucket[category]
	out := make([]*models.Video, 0, len(ids))
	for _, id := range ids {
		video := r.videos[id]
		copied := video
		out = append(out, &copied)
	}
	return out, nil
}

func (r *Repository) CountByCategory(ctx context.Context, category string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byBucket[category])), nil
}
