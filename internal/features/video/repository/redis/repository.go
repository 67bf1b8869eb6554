package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"videobot-backend/internal/features/video/models"
	"videobot-backend/internal/features/video/repository"
)

const (
	videoKey = "video:%s"
	// List of video IDs per category, in registration order. The list
	// backs the sequential cursor, so order must be stable.
	categoryVideosKey = "category:%s:videos"
)

type videoRepository struct {
	client *redis.Client
}

func NewVideoRepository(client *redis.Client) repository.VideoRepository {
	return &videoRepository{client: client}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	data, err := json.Marshal(video)
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, fmt.Sprintf(videoKey, video.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return repository.ErrExists
	}
	return r.client.RPush(ctx, fmt.Sprintf(categoryVideosKey, video.Category), video.ID).Err()
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(videoKey, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var video models.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) ListByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	ids, err := r.client.LRange(ctx, fmt.Sprintf(categoryVideosKey, category), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(videoKey, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	videos := make([]*models.Video, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var video models.Video
		if err := json.Unmarshal([]byte(data), &video); err != nil {
			continue
		}
		videos = append(videos, &video)
	}
	return videos, nil
}

func (r *videoRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	return r.client.LLen(ctx, fmt.Sprintf(categoryVideosKey, category)).Result()
}
