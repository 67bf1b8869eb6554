package service

import (
	"context"
	"errors"

	apperrors "videobot-backend/internal/common/errors"
	"videobot-backend/internal/common/keylock"
	usermodels "videobot-backend/internal/features/user/models"
	userrepo "videobot-backend/internal/features/user/repository"
	"videobot-backend/internal/features/video/models"
	"videobot-backend/internal/features/video/repository"
	"videobot-backend/internal/utils/random"
)

// Custom errors for video service
var (
	// ErrNoneAvailable means the user has seen every video in the
	// category. A terminal navigation state, not a failure.
	ErrNoneAvailable = errors.New("no unseen videos available")
	// ErrEndOfList means the sequential cursor reached the end of the
	// category. The cursor clamps at the end and never goes beyond it.
	ErrEndOfList = errors.New("end of category list")
	ErrExists    = errors.New("video already exists")
	ErrUserGone  = errors.New("user not found")
)

type VideoService interface {
	// NextUnseen picks a uniformly random video the user has not yet
	// seen in the category, marks it seen and charges the balance.
	NextUnseen(ctx context.Context, userID int64, category string) (*models.Video, error)
	// Current returns the video at the user's cursor without moving it.
	Current(ctx context.Context, userID int64, category string) (*models.Video, error)
	// Next advances the cursor by one and delivers the video there.
	Next(ctx context.Context, userID int64, category string) (*models.Video, error)
	// Prev moves the cursor back by one, clamped at zero, and delivers
	// the video there.
	Prev(ctx context.Context, userID int64, category string) (*models.Video, error)
	Register(ctx context.Context, id, category, fileID string) (*models.Video, error)
	RecentlySeen(ctx context.Context, userID int64, category string, limit int) ([]string, error)
}

type videoService struct {
	videos repository.VideoRepository
	users  userrepo.UserRepository
	locks  *keylock.KeyLock
}

func NewVideoService(videos repository.VideoRepository, users userrepo.UserRepository, locks *keylock.KeyLock) VideoService {
	return &videoService{
		videos: videos,
		users:  users,
		locks:  locks,
	}
}

func (s *videoService) NextUnseen(ctx context.Context, userID int64, category string) (*models.Video, error) {
	var picked *models.Video
	err := s.locks.Do(userID, func() error {
		all, err := s.videos.ListByCategory(ctx, category)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "list videos", err)
		}

		seen, err := s.users.Seen(ctx, userID, category)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load history", err)
		}
		seenSet := make(map[string]struct{}, len(seen))
		for _, id := range seen {
			seenSet[id] = struct{}{}
		}

		unseen := make([]*models.Video, 0, len(all))
		for _, v := range all {
			if _, ok := seenSet[v.ID]; !ok {
				unseen = append(unseen, v)
			}
		}
		if len(unseen) == 0 {
			return ErrNoneAvailable
		}

		picked, err = random.Pick(unseen)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, "random pick", err)
		}
		return s.deliver(ctx, userID, category, picked)
	})
	if err != nil {
		return nil, err
	}
	return picked, nil
}

func (s *videoService) Current(ctx context.Context, userID int64, category string) (*models.Video, error) {
	var video *models.Video
	err := s.locks.Do(userID, func() error {
		user, all, err := s.loadUserAndList(ctx, userID, category)
		if err != nil {
			return err
		}
		if user.Cursor >= len(all) {
			return ErrEndOfList
		}
		video = all[user.Cursor]
		return s.deliver(ctx, userID, category, video)
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) Next(ctx context.Context, userID int64, category string) (*models.Video, error) {
	var video *models.Video
	err := s.locks.Do(userID, func() error {
		user, all, err := s.loadUserAndList(ctx, userID, category)
		if err != nil {
			return err
		}
		// The cursor may sit at len(all), the one-past-end sentinel, but
		// never beyond it, so a following Prev lands on the last item.
		if user.Cursor >= len(all) {
			return ErrEndOfList
		}
		user.Cursor++
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "persist cursor", err)
		}
		if user.Cursor == len(all) {
			return ErrEndOfList
		}
		video = all[user.Cursor]
		return s.deliver(ctx, userID, category, video)
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) Prev(ctx context.Context, userID int64, category string) (*models.Video, error) {
	var video *models.Video
	err := s.locks.Do(userID, func() error {
		user, all, err := s.loadUserAndList(ctx, userID, category)
		if err != nil {
			return err
		}
		if user.Cursor > 0 {
			user.Cursor--
			if err := s.users.Update(ctx, user); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "persist cursor", err)
			}
		}
		if user.Cursor >= len(all) {
			return ErrEndOfList
		}
		video = all[user.Cursor]
		return s.deliver(ctx, userID, category, video)
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) Register(ctx context.Context, id, category, fileID string) (*models.Video, error) {
	video := &models.Video{
		ID:       id,
		Category: category,
		FileID:   fileID,
	}
	err := s.videos.Create(ctx, video)
	if errors.Is(err, repository.ErrExists) {
		return nil, ErrExists
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "register video", err)
	}
	return video, nil
}

func (s *videoService) RecentlySeen(ctx context.Context, userID int64, category string, limit int) ([]string, error) {
	seen, err := s.users.Seen(ctx, userID, category)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load history", err)
	}
	if limit > 0 && len(seen) > limit {
		seen = seen[len(seen)-limit:]
	}
	return seen, nil
}

func (s *videoService) loadUserAndList(ctx context.Context, userID int64, category string) (*usermodels.User, []*models.Video, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, nil, ErrUserGone
	}
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
	}

	all, err := s.videos.ListByCategory(ctx, category)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "list videos", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrNoneAvailable
	}
	return user, all, nil
}

// deliver records the view: the video goes into the per-category history
// (idempotently) and one token is charged unless the user has a bypass.
// Runs under the caller's user lock so a double-tap cannot double-charge.
func (s *videoService) deliver(ctx context.Context, userID int64, category string, video *models.Video) error {
	if err := s.users.AddSeen(ctx, userID, category, video.ID); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "record view", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, userrepo.ErrNotFound) {
		return ErrUserGone
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
	}
	if user.Subscription || user.IsPremium {
		return nil
	}
	if user.Tokens > 0 {
		user.Tokens--
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "charge view", err)
	}
	return nil
}
