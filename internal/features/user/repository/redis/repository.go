package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videobot-backend/internal/features/user/models"
	"videobot-backend/internal/features/user/repository"
)

const (
	userKey = "user:%d"
	// Sorted set of seen video IDs per user and category; the score is the
	// insertion timestamp so history keeps its order while staying a set.
	seenKey = "user:%d:seen:%s"
)

type userRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, fmt.Sprintf(userKey, user.ID), data, 0).Err()
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(userKey, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	return r.Create(ctx, user)
}

func (r *userRepository) AddSeen(ctx context.Context, userID int64, category, videoID string) error {
	key := fmt.Sprintf(seenKey, userID, category)
	return r.client.ZAddNX(ctx, key, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: videoID,
	}).Err()
}

func (r *userRepository) Seen(ctx context.Context, userID int64, category string) ([]string, error) {
	key := fmt.Sprintf(seenKey, userID, category)
	return r.client.ZRange(ctx, key, 0, -1).Result()
}

func (r *userRepository) HasSeen(ctx context.Context, userID int64, category, videoID string) (bool, error) {
	key := fmt.Sprintf(seenKey, userID, category)
	err := r.client.ZScore(ctx, key, videoID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
