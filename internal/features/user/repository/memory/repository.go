package memory

import (
	"context"
	"sync"

	"videobot-backend/internal/features/user/models"
	"videobot-backend/internal/features/user/repository"
)

// Repository is an in-memory UserRepository used by tests.
type Repository struct {
	mu    sync.Mutex
	users map[int64]models.User
	seen  map[int64]map[string][]string

	// FailWrites makes Create/Update return this error when set.
	FailWrites error
}

func New() *Repository {
	return &Repository{
		users: make(map[int64]models.User),
		seen:  make(map[int64]map[string][]string),
	}
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	r.users[user.ID] = *user
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := user
	return &copied, nil
}

func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.Create(ctx, user)
}

func (r *Repository) AddSeen(ctx context.Context, userID int64, category, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[userID] == nil {
		r.seen[userID] = make(map[string][]string)
	}
	for _, id := range r.seen[userID][category] {
		if id == videoID {
			return nil
		}
	}
	r.seen[userID][category] = append(r.seen[userID][category], videoID)
	return nil
}

func (r *Repository) Seen(ctx context.Context, userID int64, category string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen[userID][category]...), nil
}

func (r *Repository) HasSeen(ctx context.Context, userID int64, category, videoID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.seen[userID][category] {
		if id == videoID {
			return true, nil
		}
	}
	return false, nil
}
