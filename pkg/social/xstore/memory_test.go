package xstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPosts(m *Memory, n int, authors ...string) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]FeedItem, n)
	for i := range n {
		items[i] = FeedItem{
			PostID:    fmt.Sprintf("p%03d", i),
			AuthorID:  authors[i%len(authors)],
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	m.AddPosts(items...)
}

func TestMemory_FeedPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedPosts(m, 25, "a", "b")

	first, err := m.FetchFeedPage(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, first, 20)
	assert.Equal(t, "p000", first[0].PostID, "newest first")

	rest, err := m.FetchFeedPage(ctx, 20, 20)
	require.NoError(t, err)
	assert.Len(t, rest, 5)

	empty, err := m.FetchFeedPage(ctx, 100, 20)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = m.FetchFeedPage(ctx, -1, 20)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	own, err := m.FetchAvatarPosts(ctx, "b", 0, 100)
	require.NoError(t, err)
	assert.Len(t, own, 12)
	for _, it := range own {
		assert.Equal(t, "b", it.AuthorID)
	}
	assert.Equal(t, 1, m.Calls(OpFetchAvatarPosts))
}

func TestMemory_ProfilesAndStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.SetProfile(Profile{AvatarID: "nova", DisplayName: "Nova"})
	m.SetStats(Stats{AvatarID: "nova", Followers: 3})

	p, err := m.FetchAvatarProfile(ctx, "nova")
	require.NoError(t, err)
	assert.Equal(t, "Nova", p.DisplayName)

	s, err := m.FetchAvatarStats(ctx, "nova")
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Followers)

	_, err = m.FetchAvatarProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.FetchAvatarStats(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Relations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.PutBlock(ctx, BlockRecord{BlockerID: "v", BlockedID: "a", CreatedAt: t0}))
	require.NoError(t, m.PutBlock(ctx, BlockRecord{BlockerID: "v", BlockedID: "a", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, m.PutBlock(ctx, BlockRecord{BlockerID: "b", BlockedID: "v", CreatedAt: t0}))

	blocks, err := m.FetchBlocks(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, blocks, 2, "both directions, duplicate block ignored")

	require.NoError(t, m.DeleteBlock(ctx, "v", "a"))
	require.NoError(t, m.DeleteBlock(ctx, "v", "a"), "idempotent")
	blocks, err = m.FetchBlocks(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)

	require.NoError(t, m.PutMute(ctx, MuteRecord{MuterID: "v", MutedID: "x", MutedAt: t0, Duration: time.Hour}))
	require.NoError(t, m.PutMute(ctx, MuteRecord{MuterID: "v", MutedID: "y", MutedAt: t0}))
	mutes, err := m.FetchMutes(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, mutes, 2)

	n, err := m.PurgeExpiredMutes(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, m.DeleteMute(ctx, "v", "y"))
	mutes, err = m.FetchMutes(ctx, "v")
	require.NoError(t, err)
	assert.Empty(t, mutes)
}

func TestMemory_FailAndCancel(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.Fail(boom)
	_, err := m.FetchFeedPage(context.Background(), 0, 1)
	assert.ErrorIs(t, err, boom)
	m.Fail(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.FetchBlocks(ctx, "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompose(t *testing.T) {
	feed := NewMemory()
	rel := NewMemory()
	seedPosts(feed, 3, "a")
	require.NoError(t, rel.PutBlock(context.Background(), BlockRecord{BlockerID: "v", BlockedID: "a"}))

	s := Compose(feed, rel)
	items, err := s.FetchFeedPage(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	blocks, err := s.FetchBlocks(context.Background(), "v")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.Zero(t, rel.Calls(OpFetchFeedPage))
}
