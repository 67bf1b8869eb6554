package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videobot-backend/internal/common/config"
	"videobot-backend/internal/common/keylock"
	categorymemory "videobot-backend/internal/features/category/repository/memory"
	categoryservice "videobot-backend/internal/features/category/service"
	usermodels "videobot-backend/internal/features/user/models"
	usermemory "videobot-backend/internal/features/user/repository/memory"
	userservice "videobot-backend/internal/features/user/service"
	videomodels "videobot-backend/internal/features/video/models"
	videomemory "videobot-backend/internal/features/video/repository/memory"
	videoservice "videobot-backend/internal/features/video/service"
	"videobot-backend/internal/utils/token"
)

const adminID int64 = 1920026281

type passthroughShortener struct{}

func (passthroughShortener) Shorten(_ context.Context, longURL string) string {
	return longURL
}

type fixture struct {
	dispatcher *Dispatcher
	users      *usermemory.Repository
	videos     *videomemory.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Telegram.BotUsername = "videobot"
	cfg.Telegram.AdminIDs = []int64{adminID}
	cfg.Content.DefaultCategory = "general"
	cfg.Content.VideosPerGrant = 20

	users := usermemory.New()
	categories := categorymemory.New()
	videos := videomemory.New()
	locks := keylock.New()

	userSvc := userservice.NewUserService(users, locks, passthroughShortener{}, cfg)
	categorySvc := categoryservice.NewCategoryService(categories)
	videoSvc := videoservice.NewVideoService(videos, users, locks)

	return &fixture{
		dispatcher: NewDispatcher(userSvc, categorySvc, videoSvc, cfg),
		users:      users,
		videos:     videos,
	}
}

func (f *fixture) seedActiveUser(t *testing.T, id int64) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &usermodels.User{
		ID:               id,
		Tokens:           20,
		TokenExpiry:      time.Now().Add(time.Hour).Unix(),
		SelectedCategory: "general",
	}))
}

func (f *fixture) seedVideos(t *testing.T, category string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.videos.Create(context.Background(), &videomodels.Video{
			ID:       id,
			Category: category,
			FileID:   "file-" + id,
		}))
	}
}

// New user starts with access lapsed: the first /start creates the
// record and answers with a refresh link carrying a decodable token.
func TestStartNewUserGetsRefreshLink(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatcher.HandleCommand(context.Background(), "start", 42, "alice", nil)

	msg, ok := resp.(TextMessage)
	require.True(t, ok, "expected TextMessage, got %T", resp)
	require.Contains(t, msg.Text, "https://")

	idx := strings.Index(msg.Text, "start=token_")
	require.GreaterOrEqual(t, idx, 0, "link must embed a token")
	uid, expiry, err := token.Decode(msg.Text[idx+len("start=token_"):])
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.InDelta(t, time.Now().Unix()+86400, expiry, 2)

	stored, err := f.users.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "general", stored.SelectedCategory)
	assert.Equal(t, expiry, stored.TokenExpiry)
}

func TestStartWithValidAccess(t *testing.T) {
	f := newFixture(t)
	f.seedActiveUser(t, 7)

	resp := f.dispatcher.HandleCommand(context.Background(), "start", 7, "bob", nil)

	msg, ok := resp.(TextMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Welcome")
	require.NotNil(t, msg.Keyboard)
}

func TestStartRedeemsToken(t *testing.T) {
	f := newFixture(t)
	f.seedActiveUser(t, 7)

	tok := token.Encode(7, time.Now().Add(48*time.Hour).Unix())
	resp := f.dispatcher.HandleCommand(context.Background(), "start", 7, "bob", []string{"token_" + tok})

	msg, ok := resp.(TextMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "refreshed")
}

// Three consecutive random picks cover the whole category with no
// repeats, then the well runs dry.
func TestGetVideoExhaustsCategory(t *testing.T) {
	f := newFixture(t)
	f.seedActiveUser(t, 7)
	f.seedVideos(t, "general", "a", "b", "c")

	got := make(map[string]bool)
	for i := 0; i < 3; i++ {
		resp := f.dispatcher.HandleCommand(context.Background(), "getvideo", 7, "bob", nil)
		video, ok := resp.(VideoMessage)
		require.True(t, ok, "expected VideoMessage, got %T", resp)
		assert.False(t, got[video.FileID], "video %s repeated", video.FileID)
		got[video.FileID] = true
		assert.Equal(t, "Category: general", video.Caption)
	}
	require.Len(t, got, 3)

	resp := f.dispatcher.HandleCommand(context.Background(), "getvideo", 7, "bob", nil)
	msg, ok := resp.(TextMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "No more unseen videos")
}

func TestGetVideoDeniedUserGetsLink(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &usermodels.User{
		ID:               9,
		SelectedCategory: "general",
	}))
	f.seedVideos(t, "general", "a")

	resp := f.dispatcher.HandleCommand(context.Background(), "getvideo", 9, "eve", nil)

	msg, ok := resp.(TextMessage)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "start=token_")
}

func TestAdminCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"movies", "123"})
	assert.Contains(t, resp.(TextMessage).Text, "added")

	resp = f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"movies", "456"})
	assert.Contains(t, resp.(TextMessage).Text, "already exists")

	resp = f.dispatcher.HandleCommand(ctx, "removecategory", adminID, "root", []string{"movies"})
	assert.Contains(t, resp.(TextMessage).Text, "removed")

	resp = f.dispatcher.HandleCommand(ctx, "removecategory", adminID, "root", []string{"movies"})
	assert.Contains(t, resp.(TextMessage).Text, "does not exist")
}

func TestAdminCommandsRejectNonAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, cmd := range []struct {
		name string
		args []string
	}{
		{"addcategory", []string{"movies", "123"}},
		{"removecategory", []string{"movies"}},
		{"addvideo", []string{"movies", "file-1"}},
	} {
		resp := f.dispatcher.HandleCommand(ctx, cmd.name, 7, "bob", cmd.args)
		msg, ok := resp.(TextMessage)
		require.True(t, ok)
		assert.Contains(t, msg.Text, "not authorized", "command %s", cmd.name)
	}
}

func TestAddVideoIntoCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"movies", "123"})

	resp := f.dispatcher.HandleCommand(ctx, "addvideo", adminID, "root", []string{"movies", "file-1"})
	assert.Contains(t, resp.(TextMessage).Text, "added")

	resp = f.dispatcher.HandleCommand(ctx, "addvideo", adminID, "root", []string{"ghost", "file-2"})
	assert.Contains(t, resp.(TextMessage).Text, "does not exist")
}

func TestCallbackCategorySwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedActiveUser(t, 7)
	f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"movies", "123"})

	resp := f.dispatcher.HandleCallback(ctx, "category_movies", 7, "bob")
	edit, ok := resp.(EditMessage)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "movies")

	stored, err := f.users.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "movies", stored.SelectedCategory)
	assert.Zero(t, stored.Cursor)

	resp = f.dispatcher.HandleCallback(ctx, "category_ghost", 7, "bob")
	noop, ok := resp.(NoOp)
	require.True(t, ok)
	assert.Contains(t, noop.Notice, "does not exist")
}

func TestCallbackNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedActiveUser(t, 7)
	f.seedVideos(t, "general", "a", "b")

	resp := f.dispatcher.HandleCallback(ctx, "next", 7, "bob")
	edit, ok := resp.(EditMessage)
	require.True(t, ok)
	assert.Equal(t, "file-b", edit.FileID)

	resp = f.dispatcher.HandleCallback(ctx, "next", 7, "bob")
	noop, ok := resp.(NoOp)
	require.True(t, ok)
	assert.Contains(t, noop.Notice, "end")

	resp = f.dispatcher.HandleCallback(ctx, "prev", 7, "bob")
	edit, ok = resp.(EditMessage)
	require.True(t, ok)
	assert.Equal(t, "file-b", edit.FileID)
}

func TestShowCategoriesCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"movies", "1"})
	f.dispatcher.HandleCommand(ctx, "addcategory", adminID, "root", []string{"anime", "2"})

	resp := f.dispatcher.HandleCallback(ctx, "show_categories", 7, "bob")
	edit, ok := resp.(EditMessage)
	require.True(t, ok)
	require.NotNil(t, edit.Keyboard)
	require.Len(t, edit.Keyboard.InlineKeyboard, 2)
	// Sorted by name for stable rendering.
	assert.Equal(t, "anime", edit.Keyboard.InlineKeyboard[0][0].Text)
	assert.Equal(t, "movies", edit.Keyboard.InlineKeyboard[1][0].Text)
}

func TestUnknownCommandIsNoOp(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatcher.HandleCommand(context.Background(), "frobnicate", 7, "bob", nil)
	assert.IsType(t, NoOp{}, resp)
}
