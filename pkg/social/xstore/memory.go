package xstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// 操作名，用于 Memory.Calls 与观测。
const (
	OpFetchFeedPage      = "fetch_feed_page"
	OpFetchAvatarProfile = "fetch_avatar_profile"
	OpFetchAvatarPosts   = "fetch_avatar_posts"
	OpFetchAvatarStats   = "fetch_avatar_stats"
	OpFetchBlocks        = "fetch_blocks"
	OpFetchMutes         = "fetch_mutes"
	OpPutBlock           = "put_block"
	OpDeleteBlock        = "delete_block"
	OpPutMute            = "put_mute"
	OpDeleteMute         = "delete_mute"
	OpPurgeExpiredMutes  = "purge_expired_mutes"
)

type pairKey struct{ from, to string }

// Memory 是进程内的 Store 实现，用于演示与测试。
//
// Fail 注入的错误会被之后所有读操作返回，直到以 nil 清除。
type Memory struct {
	mu       sync.RWMutex
	posts    []FeedItem
	profiles map[string]Profile
	stats    map[string]Stats
	blocks   map[pairKey]BlockRecord
	mutes    map[pairKey]MuteRecord
	failure  error
	calls    map[string]int
}

var _ Store = (*Memory)(nil)

// NewMemory 创建空的内存存储。
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]Profile),
		stats:    make(map[string]Stats),
		blocks:   make(map[pairKey]BlockRecord),
		mutes:    make(map[pairKey]MuteRecord),
		calls:    make(map[string]int),
	}
}

// AddPosts 添加帖子，保持按创建时间倒序（同一时间按 PostID 升序）。
func (m *Memory) AddPosts(items ...FeedItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, items...)
	slices.SortStableFunc(m.posts, func(a, b FeedItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.PostID, b.PostID)
	})
}

// SetProfile 写入资料。
func (m *Memory) SetProfile(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.AvatarID] = p
}

// SetStats 写入统计。
func (m *Memory) SetStats(s Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.AvatarID] = s
}

// Fail 设置读操作返回的错误，nil 表示恢复正常。
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// Calls 返回 op 被调用的次数。
func (m *Memory) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// begin 记录调用并返回注入的错误。调用方需持有写锁。
func (m *Memory) begin(ctx context.Context, op string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.failure
}

func (m *Memory) FetchFeedPage(ctx context.Context, offset, limit int) ([]FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchFeedPage); err != nil {
		return nil, err
	}
	return page(m.posts, offset, limit)
}

func (m *Memory) FetchAvatarPosts(ctx context.Context, avatarID string, offset, limit int) ([]FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchAvatarPosts); err != nil {
		return nil, err
	}
	var own []FeedItem
	for _, p := range m.posts {
		if p.AuthorID == avatarID {
			own = append(own, p)
		}
	}
	return page(own, offset, limit)
}

func (m *Memory) FetchAvatarProfile(ctx context.Context, avatarID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchAvatarProfile); err != nil {
		return Profile{}, err
	}
	p, ok := m.profiles[avatarID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) FetchAvatarStats(ctx context.Context, avatarID string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchAvatarStats); err != nil {
		return Stats{}, err
	}
	s, ok := m.stats[avatarID]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) FetchBlocks(ctx context.Context, viewerID string) ([]BlockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchBlocks); err != nil {
		return nil, err
	}
	var out []BlockRecord
	for _, b := range m.blocks {
		if b.BlockerID == viewerID || b.BlockedID == viewerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) FetchMutes(ctx context.Context, viewerID string) ([]MuteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpFetchMutes); err != nil {
		return nil, err
	}
	var out []MuteRecord
	for _, rec := range m.mutes {
		if rec.MuterID == viewerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) PutBlock(ctx context.Context, rec BlockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpPutBlock); err != nil {
		return err
	}
	key := pairKey{rec.BlockerID, rec.BlockedID}
	if _, exists := m.blocks[key]; !exists {
		m.blocks[key] = rec
	}
	return nil
}

func (m *Memory) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpDeleteBlock); err != nil {
		return err
	}
	delete(m.blocks, pairKey{blockerID, blockedID})
	return nil
}

func (m *Memory) PutMute(ctx context.Context, rec MuteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpPutMute); err != nil {
		return err
	}
	m.mutes[pairKey{rec.MuterID, rec.MutedID}] = rec
	return nil
}

func (m *Memory) DeleteMute(ctx context.Context, muterID, mutedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpDeleteMute); err != nil {
		return err
	}
	delete(m.mutes, pairKey{muterID, mutedID})
	return nil
}

func (m *Memory) PurgeExpiredMutes(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpPurgeExpiredMutes); err != nil {
		return 0, err
	}
	n := 0
	for k, rec := range m.mutes {
		if !rec.Active(now) {
			delete(m.mutes, k)
			n++
		}
	}
	return n, nil
}

func page(items []FeedItem, offset, limit int) ([]FeedItem, error) {
	if offset < 0 || limit < 0 {
		return nil, ErrInvalidArgument
	}
	if offset >= len(items) {
		return []FeedItem{}, nil
	}
	end := min(offset+limit, len(items))
	return slices.Clone(items[offset:end]), nil
}
