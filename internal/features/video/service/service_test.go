package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videobot-backend/internal/common/keylock"
	usermodels "videobot-backend/internal/features/user/models"
	usermemory "videobot-backend/internal/features/user/repository/memory"
	"videobot-backend/internal/features/video/models"
	videomemory "videobot-backend/internal/features/video/repository/memory"
)

func newTestService(t *testing.T) (VideoService, *usermemory.Repository, *videomemory.Repository) {
	t.Helper()
	users := usermemory.New()
	videos := videomemory.New()
	return NewVideoService(videos, users, keylock.New()), users, videos
}

func seedUser(t *testing.T, users *usermemory.Repository, id int64, tokens int) {
	t.Helper()
	require.NoError(t, users.Create(context.Background(), &usermodels.User{
		ID:               id,
		Tokens:           tokens,
		SelectedCategory: "general",
	}))
}

func seedVideos(t *testing.T, videos *videomemory.Repository, category string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, videos.Create(context.Background(), &models.Video{
			ID:       id,
			Category: category,
			FileID:   "file-" + id,
		}))
	}
}

func TestNextUnseenNeverRepeats(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 100)
	seedVideos(t, videos, "general", "a", "b", "c")

	got := make(map[string]bool)
	for i := 0; i < 3; i++ {
		video, err := svc.NextUnseen(context.Background(), 7, "general")
		require.NoError(t, err)
		assert.False(t, got[video.ID], "video %s repeated", video.ID)
		got[video.ID] = true
	}
	assert.Len(t, got, 3)

	_, err := svc.NextUnseen(context.Background(), 7, "general")
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestNextUnseenEmptyCategory(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, 7, 5)

	_, err := svc.NextUnseen(context.Background(), 7, "general")
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestNextUnseenChargesOneToken(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 5)
	seedVideos(t, videos, "general", "a")

	_, err := svc.NextUnseen(context.Background(), 7, "general")
	require.NoError(t, err)

	user, err := users.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 4, user.Tokens)
}

func TestNextUnseenSubscriberNotCharged(t *testing.T) {
	svc, users, videos := newTestService(t)
	require.NoError(t, users.Create(context.Background(), &usermodels.User{
		ID:           7,
		Subscription: true,
	}))
	seedVideos(t, videos, "general", "a")

	_, err := svc.NextUnseen(context.Background(), 7, "general")
	require.NoError(t, err)

	user, err := users.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, user.Tokens)
}

func TestNextUnseenHistoryIsPerCategory(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 100)
	seedVideos(t, videos, "general", "a")
	seedVideos(t, videos, "movies", "m")

	_, err := svc.NextUnseen(context.Background(), 7, "general")
	require.NoError(t, err)
	_, err = svc.NextUnseen(context.Background(), 7, "general")
	assert.ErrorIs(t, err, ErrNoneAvailable)

	// Exhausting one category leaves the other untouched.
	video, err := svc.NextUnseen(context.Background(), 7, "movies")
	require.NoError(t, err)
	assert.Equal(t, "m", video.ID)
}

func TestConcurrentTapsDoNotDoubleCharge(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 1)
	seedVideos(t, videos, "general", "a", "b")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.NextUnseen(context.Background(), 7, "general")
		}()
	}
	wg.Wait()

	user, err := users.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, user.Tokens, 0, "balance must never go below zero")
}

func TestSequentialCursorClamp(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 100)
	seedVideos(t, videos, "general", "a", "b", "c")

	ctx := context.Background()

	// Prev at zero is a no-op and stays on the first item.
	video, err := svc.Prev(ctx, 7, "general")
	require.NoError(t, err)
	assert.Equal(t, "a", video.ID)

	video, err = svc.Next(ctx, 7, "general")
	require.NoError(t, err)
	assert.Equal(t, "b", video.ID)

	video, err = svc.Next(ctx, 7, "general")
	require.NoError(t, err)
	assert.Equal(t, "c", video.ID)

	// Next past the last item reports the end; repeating it does not
	// push the cursor any further.
	_, err = svc.Next(ctx, 7, "general")
	assert.ErrorIs(t, err, ErrEndOfList)
	_, err = svc.Next(ctx, 7, "general")
	assert.ErrorIs(t, err, ErrEndOfList)

	// A following Prev returns to the last valid item.
	video, err = svc.Prev(ctx, 7, "general")
	require.NoError(t, err)
	assert.Equal(t, "c", video.ID)

	video, err = svc.Prev(ctx, 7, "general")
	require.NoError(t, err)
	assert.Equal(t, "b", video.ID)
}

func TestSequentialEmptyCategory(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, 7, 5)

	_, err := svc.Next(context.Background(), 7, "general")
	assert.ErrorIs(t, err, ErrNoneAvailable)
	_, err = svc.Prev(context.Background(), 7, "general")
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestSequentialMarksSeen(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 100)
	seedVideos(t, videos, "general", "a", "b")

	_, err := svc.Current(context.Background(), 7, "general")
	require.NoError(t, err)

	seen, err := users.Seen(context.Background(), 7, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, seen)

	// Re-viewing the same item does not duplicate history.
	_, err = svc.Current(context.Background(), 7, "general")
	require.NoError(t, err)
	seen, err = users.Seen(context.Background(), 7, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, seen)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "v1", "general", "file-1")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "v1", "general", "file-1")
	assert.ErrorIs(t, err, ErrExists)
}

func TestRecentlySeenLimit(t *testing.T) {
	svc, users, videos := newTestService(t)
	seedUser(t, users, 7, 100)

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}
	seedVideos(t, videos, "general", ids...)
	for range ids {
		_, err := svc.NextUnseen(context.Background(), 7, "general")
		require.NoError(t, err)
	}

	seen, err := svc.RecentlySeen(context.Background(), 7, "general", 3)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}
