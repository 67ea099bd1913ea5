package xsession

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/quanta/pkg/resilience/xretry"
	"github.com/omeyang/quanta/pkg/social/xstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var epoch = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func seededStore() *xstore.Memory {
	mem := xstore.NewMemory()
	authors := []string{"alice", "bob", "carol", "dave"}
	for i := range 40 {
		mem.AddPosts(xstore.FeedItem{
			PostID:    fmt.Sprintf("p%02d", i),
			AuthorID:  authors[i%len(authors)],
			CreatedAt: epoch.Add(-time.Duration(i) * time.Minute),
		})
	}
	for _, a := range authors {
		mem.SetProfile(xstore.Profile{AvatarID: a, DisplayName: a})
		mem.SetStats(xstore.Stats{AvatarID: a, Posts: 10})
	}
	return mem
}

func newSession(t *testing.T, mem *xstore.Memory, opts ...Option) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: epoch}
	s, err := New("viewer", mem, DefaultConfig(), append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, clock
}

func TestNew_Errors(t *testing.T) {
	_, err := New("", xstore.NewMemory(), DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New("viewer", nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.MuteCleanupSpec = "sometimes"
	_, err = New("viewer", xstore.NewMemory(), cfg, WithMuteCleanup())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSession_FeedPaging(t *testing.T) {
	s, _ := newSession(t, seededStore())
	ctx := context.Background()

	page, err := s.GetNextFeedPage(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, "p00", page.Items[0].PostID)

	page, err = s.GetNextFeedPage(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "p20", page.Items[0].PostID)

	s.RefreshFeed()
	assert.Zero(t, s.FeedState().Offset)

	page, err = s.GetNextFeedPage(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "p00", page.Items[0].PostID)
	assert.Equal(t, 1, s.GetPaginationStats().Scopes)
}

func TestSession_BlockFiltersFeedAndInvalidatesAvatar(t *testing.T) {
	mem := seededStore()
	s, _ := newSession(t, mem)
	ctx := context.Background()

	_, err := s.GetAvatarProfile(ctx, "bob")
	require.NoError(t, err)
	loaded, err := s.GetAvatarProfile(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, loaded.FromCache)

	require.NoError(t, s.BlockUser(ctx, "bob"))
	require.NoError(t, s.BlockUser(ctx, "bob"))

	loaded, err = s.GetAvatarProfile(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, loaded.FromCache, "block invalidates the target's cached views")

	page, err := s.GetNextFeedPage(ctx, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 20)
	for _, it := range page.Items {
		assert.NotEqual(t, "bob", it.AuthorID)
	}

	require.NoError(t, s.UnblockUser(ctx, "bob"))
	excluded, err := s.IsExcluded(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestSession_MuteExpires(t *testing.T) {
	s, clock := newSession(t, seededStore())
	ctx := context.Background()

	require.NoError(t, s.MuteUser(ctx, "carol", time.Hour))
	clock.Advance(30 * time.Minute)
	excluded, err := s.IsExcluded(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, excluded)

	clock.Advance(31 * time.Minute)
	excluded, err = s.IsExcluded(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, excluded)

	require.NoError(t, s.MuteUser(ctx, "carol", 0))
	require.NoError(t, s.UnmuteUser(ctx, "carol"))
	excluded, err = s.IsExcluded(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, excluded)

	assert.Error(t, s.BlockUser(ctx, "viewer"))
}

func TestSession_AvatarPostsAndStats(t *testing.T) {
	mem := seededStore()
	s, _ := newSession(t, mem)
	ctx := context.Background()

	page, err := s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	for _, it := range page.Items {
		assert.Equal(t, "alice", it.AuthorID)
	}

	page, err = s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 5, page.Offset)

	s.RefreshAvatarPosts("alice")
	page, err = s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Zero(t, page.Offset)

	st, err := s.GetAvatarStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Value.Posts)

	_, err = s.GetAvatarProfile(ctx, "")
	assert.ErrorIs(t, err, xstore.ErrInvalidArgument)
	_, err = s.GetAvatarProfile(ctx, "nobody")
	assert.ErrorIs(t, err, xstore.ErrNotFound)
}

func TestSession_RefreshAvatarPostsAfterNewPost(t *testing.T) {
	mem := seededStore()
	s, _ := newSession(t, mem)
	ctx := context.Background()

	page, err := s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	require.Equal(t, "p00", page.Items[0].PostID)

	mem.AddPosts(xstore.FeedItem{PostID: "fresh", AuthorID: "alice", CreatedAt: epoch.Add(time.Minute)})

	// 缓存的首页在 TTL 内不变，刷新后新帖子才出现
	s.RefreshAvatarPosts("alice")
	page, err = s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, "fresh", page.Items[0].PostID)

	next, err := s.GetAvatarPosts(ctx, "alice", 5)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, it := range append(page.Items, next.Items...) {
		assert.False(t, seen[it.PostID], "duplicate %s across pages", it.PostID)
		seen[it.PostID] = true
	}
}

func TestSession_CacheStatsAndInvalidate(t *testing.T) {
	s, _ := newSession(t, seededStore())
	ctx := context.Background()

	require.NoError(t, s.WarmAvatars(ctx, []string{"alice", "bob", "alice"}))
	assert.Equal(t, 2, s.GetCacheStats().Avatars.Profiles.Size)

	s.InvalidateAvatar("alice")
	assert.Equal(t, 1, s.GetCacheStats().Avatars.Profiles.Size)
}

func TestSession_StaleProfileWhenUpstreamDown(t *testing.T) {
	mem := seededStore()
	s, clock := newSession(t, mem)
	ctx := context.Background()

	_, err := s.GetAvatarProfile(ctx, "dave")
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	mem.Fail(xstore.ErrUpstreamUnavailable)

	loaded, err := s.GetAvatarProfile(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, loaded.Stale)
	assert.Equal(t, "dave", loaded.Value.DisplayName)
}

func TestSession_WithResilience(t *testing.T) {
	mem := seededStore()
	retryer := xretry.NewRetryer(xretry.WithMaxAttempts(1))
	s, _ := newSession(t, mem, WithResilience(xstore.WithRetryer(retryer)))
	ctx := context.Background()

	mem.Fail(context.DeadlineExceeded)
	_, err := s.GetNextFeedPage(ctx, 10)
	assert.ErrorIs(t, err, xstore.ErrUpstreamUnavailable)
	assert.False(t, s.FeedState().IsLoading)

	mem.Fail(nil)
	page, err := s.GetNextFeedPage(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
}

func TestSession_MuteCleanupAndClose(t *testing.T) {
	s, _ := newSession(t, seededStore(), WithMuteCleanup())
	ctx := context.Background()

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	_, err := s.GetNextFeedPage(ctx, 10)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.GetAvatarProfile(ctx, "alice")
	assert.ErrorIs(t, err, ErrClosed)
}
