package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"videobot-backend/internal/common/config"
	apperrors "videobot-backend/internal/common/errors"
	"videobot-backend/internal/common/logger"
	categoryservice "videobot-backend/internal/features/category/service"
	userservice "videobot-backend/internal/features/user/service"
	videoservice "videobot-backend/internal/features/video/service"
)

const (
	storeRetries    = 2
	storeRetryDelay = 100 * time.Millisecond

	msgTryAgain      = "Something went wrong, please try again."
	msgNotAuthorized = "❌ You are not authorized to use this command."
	msgNoVideos      = "No more unseen videos in this category! Try another category."
	msgEndOfList     = "You reached the end of this category."
)

// Dispatcher routes inbound commands and callbacks to the services and
// maps every outcome to exactly one user-visible response.
type Dispatcher struct {
	users      userservice.UserService
	categories categoryservice.CategoryService
	videos     videoservice.VideoService
	cfg        *config.Config
}

func NewDispatcher(users userservice.UserService, categories categoryservice.CategoryService, videos videoservice.VideoService, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		users:      users,
		categories: categories,
		videos:     videos,
		cfg:        cfg,
	}
}

// HandleCommand processes a slash command from userID.
func (d *Dispatcher) HandleCommand(ctx context.Context, name string, userID int64, username string, args []string) Response {
	switch name {
	case "start":
		return d.handleStart(ctx, userID, username, args)
	case "getvideo":
		return d.handleGetVideo(ctx, userID, username)
	case "categories":
		return d.handleCategories(ctx)
	case "history":
		return d.handleHistory(ctx, userID, username)
	case "addcategory":
		return d.handleAddCategory(ctx, userID, args)
	case "removecategory":
		return d.handleRemoveCategory(ctx, userID, args)
	case "addvideo":
		return d.handleAddVideo(ctx, userID, args)
	default:
		return NoOp{}
	}
}

// HandleCallback processes an inline keyboard press.
func (d *Dispatcher) HandleCallback(ctx context.Context, data string, userID int64, username string) Response {
	switch {
	case data == "getvideo":
		return d.handleGetVideo(ctx, userID, username)
	case data == "next" || data == "prev":
		return d.handleNavigation(ctx, userID, username, data)
	case data == "show_categories":
		return d.handleShowCategories(ctx)
	case strings.HasPrefix(data, "category_"):
		return d.handleSelectCategory(ctx, userID, username, strings.TrimPrefix(data, "category_"))
	default:
		return NoOp{}
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, userID int64, username string, args []string) Response {
	if _, err := d.users.GetOrCreate(ctx, userID, username); err != nil {
		return d.failure(err)
	}

	if len(args) > 0 && strings.HasPrefix(args[0], "token_") {
		return d.handleRedeem(ctx, userID, strings.TrimPrefix(args[0], "token_"))
	}

	decision, err := d.checkAccess(ctx, userID)
	if err != nil {
		return d.failure(err)
	}
	if !decision.Allowed {
		return TextMessage{Text: refreshText(decision.RefreshURL)}
	}

	return TextMessage{
		Text:     "👋 Welcome! Use /getvideo or the button below to get a random video.",
		Keyboard: startKeyboard(),
	}
}

func (d *Dispatcher) handleRedeem(ctx context.Context, userID int64, tok string) Response {
	err := d.users.RedeemToken(ctx, userID, tok)
	switch {
	case err == nil:
		return TextMessage{
			Text:     "✅ Access refreshed for 24 hours. Enjoy!",
			Keyboard: startKeyboard(),
		}
	case errors.Is(err, userservice.ErrTokenExpired):
		return TextMessage{Text: "This link has expired. Use /getvideo to request a new one."}
	case errors.Is(err, userservice.ErrTokenInvalid), errors.Is(err, userservice.ErrTokenMismatch):
		return TextMessage{Text: "This link is not valid for your account."}
	default:
		return d.failure(err)
	}
}

func (d *Dispatcher) handleGetVideo(ctx context.Context, userID int64, username string) Response {
	user, err := d.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return d.failure(err)
	}

	decision, err := d.checkAccess(ctx, userID)
	if err != nil {
		return d.failure(err)
	}
	if !decision.Allowed {
		return TextMessage{Text: refreshText(decision.RefreshURL)}
	}

	category := user.SelectedCategory
	if category == "" {
		category = d.cfg.Content.DefaultCategory
	}

	video, err := d.videos.NextUnseen(ctx, userID, category)
	if errors.Is(err, videoservice.ErrNoneAvailable) {
		return TextMessage{Text: msgNoVideos}
	}
	if err != nil {
		return d.failure(err)
	}

	return VideoMessage{
		FileID:   video.FileID,
		Caption:  "Category: " + category,
		Keyboard: navigationKeyboard(),
	}
}

func (d *Dispatcher) handleNavigation(ctx context.Context, userID int64, username, direction string) Response {
	user, err := d.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return d.failure(err)
	}

	decision, err := d.checkAccess(ctx, userID)
	if err != nil {
		return d.failure(err)
	}
	if !decision.Allowed {
		return TextMessage{Text: refreshText(decision.RefreshURL)}
	}

	category := user.SelectedCategory
	if category == "" {
		category = d.cfg.Content.DefaultCategory
	}

	move := d.videos.Next
	if direction == "prev" {
		move = d.videos.Prev
	}

	video, err := move(ctx, userID, category)
	if errors.Is(err, videoservice.ErrEndOfList) {
		return NoOp{Notice: msgEndOfList}
	}
	if errors.Is(err, videoservice.ErrNoneAvailable) {
		return NoOp{Notice: msgNoVideos}
	}
	if err != nil {
		return d.failure(err)
	}

	return EditMessage{
		FileID:   video.FileID,
		Caption:  "Category: " + category,
		Keyboard: navigationKeyboard(),
	}
}

func (d *Dispatcher) handleCategories(ctx context.Context) Response {
	categories, err := d.categories.List(ctx)
	if err != nil {
		return d.failure(err)
	}
	if len(categories) == 0 {
		return TextMessage{Text: "No categories yet."}
	}
	return TextMessage{
		Text:     "Select a category:",
		Keyboard: categoriesKeyboard(categories),
	}
}

func (d *Dispatcher) handleShowCategories(ctx context.Context) Response {
	categories, err := d.categories.List(ctx)
	if err != nil {
		return d.failure(err)
	}
	if len(categories) == 0 {
		return NoOp{Notice: "No categories yet."}
	}
	return EditMessage{
		Text:     "Select a category:",
		Keyboard: categoriesKeyboard(categories),
	}
}

func (d *Dispatcher) handleSelectCategory(ctx context.Context, userID int64, username, name string) Response {
	if _, err := d.users.GetOrCreate(ctx, userID, username); err != nil {
		return d.failure(err)
	}

	if _, err := d.categories.Get(ctx, name); err != nil {
		if errors.Is(err, categoryservice.ErrNotFound) {
			return NoOp{Notice: fmt.Sprintf("Category %q does not exist.", name)}
		}
		return d.failure(err)
	}

	if err := d.users.SelectCategory(ctx, userID, name); err != nil {
		return d.failure(err)
	}
	return EditMessage{
		Text: fmt.Sprintf("✅ Category switched to: %s\nUse /getvideo to get a video.", name),
	}
}

func (d *Dispatcher) handleHistory(ctx context.Context, userID int64, username string) Response {
	user, err := d.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return d.failure(err)
	}

	category := user.SelectedCategory
	if category == "" {
		category = d.cfg.Content.DefaultCategory
	}

	seen, err := d.videos.RecentlySeen(ctx, userID, category, 20)
	if err != nil {
		return d.failure(err)
	}
	return TextMessage{
		Text: fmt.Sprintf("You have watched %d video(s) in %q.", len(seen), category),
	}
}

func (d *Dispatcher) handleAddCategory(ctx context.Context, userID int64, args []string) Response {
	if !d.users.IsAdmin(userID) {
		return TextMessage{Text: msgNotAuthorized}
	}
	if len(args) < 2 {
		return TextMessage{Text: "Usage: /addcategory <category_name> <channel_id>"}
	}

	name, channelID := args[0], args[1]
	if _, err := d.categories.Add(ctx, name, channelID); err != nil {
		if errors.Is(err, categoryservice.ErrExists) {
			return TextMessage{Text: fmt.Sprintf("Category %q already exists.", name)}
		}
		return d.failure(err)
	}
	return TextMessage{Text: fmt.Sprintf("✅ Category %q added with channel ID %s.", name, channelID)}
}

func (d *Dispatcher) handleRemoveCategory(ctx context.Context, userID int64, args []string) Response {
	if !d.users.IsAdmin(userID) {
		return TextMessage{Text: msgNotAuthorized}
	}
	if len(args) < 1 {
		return TextMessage{Text: "Usage: /removecategory <category_name>"}
	}

	name := args[0]
	if err := d.categories.Remove(ctx, name); err != nil {
		if errors.Is(err, categoryservice.ErrNotFound) {
			return TextMessage{Text: fmt.Sprintf("Category %q does not exist.", name)}
		}
		return d.failure(err)
	}
	return TextMessage{Text: fmt.Sprintf("✅ Category %q removed.", name)}
}

func (d *Dispatcher) handleAddVideo(ctx context.Context, userID int64, args []string) Response {
	if !d.users.IsAdmin(userID) {
		return TextMessage{Text: msgNotAuthorized}
	}
	if len(args) < 2 {
		return TextMessage{Text: "Usage: /addvideo <category_name> <file_id>"}
	}

	name, fileID := args[0], args[1]
	if _, err := d.categories.Get(ctx, name); err != nil {
		if errors.Is(err, categoryservice.ErrNotFound) {
			return TextMessage{Text: fmt.Sprintf("Category %q does not exist.", name)}
		}
		return d.failure(err)
	}

	video, err := d.videos.Register(ctx, uuid.NewString(), name, fileID)
	if err != nil {
		return d.failure(err)
	}
	return TextMessage{Text: fmt.Sprintf("✅ Video %s added to %q.", video.ID, name)}
}

// checkAccess runs the gate with a bounded retry on transient store
// failures.
func (d *Dispatcher) checkAccess(ctx context.Context, userID int64) (*userservice.Decision, error) {
	var (
		decision *userservice.Decision
		err      error
	)
	for attempt := 0; ; attempt++ {
		decision, err = d.users.CheckAccess(ctx, userID)
		if err == nil || !isTransient(err) || attempt == storeRetries {
			return decision, err
		}
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Transient store failure, retrying access check")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(storeRetryDelay):
		}
	}
}

func (d *Dispatcher) failure(err error) Response {
	logger.Error().Err(err).Msg("Turn failed")
	return TextMessage{Text: msgTryAgain}
}

func isTransient(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.IsTransient()
}

func refreshText(url string) string {
	return "⏳ Your access has expired.\nFollow this link to refresh it for 24 hours:\n" + url
}
