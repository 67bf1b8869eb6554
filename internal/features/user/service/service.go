package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"videobot-backend/internal/common/config"
	apperrors "videobot-backend/internal/common/errors"
	"videobot-backend/internal/common/keylock"
	"videobot-backend/internal/features/user/models"
	"videobot-backend/internal/features/user/repository"
	"videobot-backend/internal/utils/token"
)

// Custom errors for user service
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenMismatch = errors.New("token issued for another user")
)

const accessGrant = 24 * time.Hour

// Shortener produces a short form of a long URL. Implementations must
// not fail: on any trouble they return a usable fallback.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	// RefreshURL is set on denial: the link the user must follow to
	// refresh access.
	RefreshURL string
	// Expiry is the unix expiry backing RefreshURL.
	Expiry int64
}

type UserService interface {
	GetOrCreate(ctx context.Context, id int64, username string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	CheckAccess(ctx context.Context, id int64) (*Decision, error)
	RedeemToken(ctx context.Context, id int64, tok string) error
	SelectCategory(ctx context.Context, id int64, category string) error
	IsAdmin(id int64) bool
}

type userService struct {
	repo      repository.UserRepository
	locks     *keylock.KeyLock
	shortener Shortener
	cfg       *config.Config
	now       func() time.Time
}

func NewUserService(repo repository.UserRepository, locks *keylock.KeyLock, shortener Shortener, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		locks:     locks,
		shortener: shortener,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *userService) IsAdmin(id int64) bool {
	return s.cfg.IsAdmin(id)
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *userService) GetOrCreate(ctx context.Context, id int64, username string) (*models.User, error) {
	var user *models.User
	err := s.locks.Do(id, func() error {
		existing, err := s.repo.GetByID(ctx, id)
		if err == nil {
			if username != "" && existing.Username != username {
				existing.Username = username
				if err := s.repo.Update(ctx, existing); err != nil {
					return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "update user", err)
				}
			}
			user = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
		}

		now := s.now()
		user = &models.User{
			ID:               id,
			Username:         username,
			SelectedCategory: s.cfg.Content.DefaultCategory,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CheckAccess decides whether the user may receive content right now.
//
// On denial the new 24h expiry is persisted immediately, before the user
// has followed the refresh link. A second check within the window then
// succeeds instead of minting another link. If the persist fails no link
// is returned at all.
func (s *userService) CheckAccess(ctx context.Context, id int64) (*Decision, error) {
	if s.cfg.IsAdmin(id) {
		return &Decision{Allowed: true}, nil
	}

	var (
		denied bool
		expiry int64
	)
	err := s.locks.Do(id, func() error {
		user, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
		}

		if user.Subscription {
			return nil
		}
		if s.now().Unix() <= user.TokenExpiry && user.HasBalance() {
			return nil
		}

		denied = true
		expiry = s.now().Add(accessGrant).Unix()
		user.TokenExpiry = expiry
		user.Tokens = s.cfg.Content.VideosPerGrant
		if err := s.repo.Update(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "persist access grant", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !denied {
		return &Decision{Allowed: true}, nil
	}

	// The shortener call happens outside the lock: it only needs the
	// already-computed expiry and may take seconds.
	longURL := s.deepLink(id, expiry)
	return &Decision{
		Allowed:    false,
		RefreshURL: s.shortener.Shorten(ctx, longURL),
		Expiry:     expiry,
	}, nil
}

// RedeemToken applies a refresh token carried by a /start deep link.
func (s *userService) RedeemToken(ctx context.Context, id int64, tok string) error {
	uid, expiry, err := token.Decode(tok)
	if err != nil {
		return ErrTokenInvalid
	}
	if uid != id {
		return ErrTokenMismatch
	}
	if expiry < s.now().Unix() {
		return ErrTokenExpired
	}

	return s.locks.Do(id, func() error {
		user, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
		}

		if expiry > user.TokenExpiry {
			user.TokenExpiry = expiry
		}
		if user.Tokens < s.cfg.Content.VideosPerGrant {
			user.Tokens = s.cfg.Content.VideosPerGrant
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "persist token redemption", err)
		}
		return nil
	})
}

// SelectCategory switches the user's active category and resets the
// sequential cursor. History is never cleared on a switch.
func (s *userService) SelectCategory(ctx context.Context, id int64, category string) error {
	return s.locks.Do(id, func() error {
		user, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "load user", err)
		}

		user.SelectedCategory = category
		user.Cursor = 0
		if err := s.repo.Update(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "persist category switch", err)
		}
		return nil
	})
}

func (s *userService) deepLink(id int64, expiry int64) string {
	tok := token.Encode(id, expiry)
	return fmt.Sprintf("https://telegram.dog/%s?start=token_%s", s.cfg.Telegram.BotUsername, tok)
}
