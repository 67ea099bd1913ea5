package xavatar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/quanta/internal/keyload"
	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/social/xstore"
	"github.com/omeyang/quanta/pkg/util/xlru"
)

// 默认配置
const (
	DefaultProfileCapacity = 100
	DefaultPostsCapacity   = 500
	DefaultStatsCapacity   = 200
	DefaultTTL             = 15 * time.Minute
	DefaultWarmConcurrency = 4
)

// Source 是回源加载使用的后端接口，xstore.Store 满足此接口。
type Source interface {
	FetchAvatarProfile(ctx context.Context, avatarID string) (xstore.Profile, error)
	FetchAvatarPosts(ctx context.Context, avatarID string, offset, limit int) ([]xstore.FeedItem, error)
	FetchAvatarStats(ctx context.Context, avatarID string) (xstore.Stats, error)
}

// Config 缓存配置。
type Config struct {
	ProfileCapacity int
	PostsCapacity   int
	StatsCapacity   int
	// TTL 三个缓存共用的过期时间。
	TTL time.Duration
	// WarmConcurrency Warm 的最大并发回源数。
	WarmConcurrency int
	// LoadTimeout 单次回源的超时，<= 0 使用默认值。
	// 回源与调用方的取消解耦，调用方取消只放弃自己的等待。
	LoadTimeout time.Duration
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		ProfileCapacity: DefaultProfileCapacity,
		PostsCapacity:   DefaultPostsCapacity,
		StatsCapacity:   DefaultStatsCapacity,
		TTL:             DefaultTTL,
		WarmConcurrency: DefaultWarmConcurrency,
		LoadTimeout:     keyload.DefaultTimeout,
	}
}

// Option 配置 Store。
type Option func(*options)

type options struct {
	now    func() time.Time
	logger xlog.Logger
}

// WithClock 注入时钟。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Loaded 是回源加载的结果。
type Loaded[T any] struct {
	Value T
	// FromCache 为 true 表示未访问后端。
	FromCache bool
	// Stale 为 true 表示后端失败，返回的是已过期的缓存值。
	Stale bool
}

// CacheStats 三个缓存的统计。
type CacheStats struct {
	Profiles xlru.Stats
	Posts    xlru.Stats
	Stats    xlru.Stats
}

// postsPage 缓存的首页帖子。Limit 是抓取时的页大小，
// 条数少于 Limit 表示该 avatar 的帖子已全部在内。
type postsPage struct {
	Items []xstore.FeedItem
	Limit int
}

// Store 是 avatar 资料、帖子首页与统计三个 LRU 缓存的组合。
type Store struct {
	profiles *xlru.Cache[string, xstore.Profile]
	posts    *xlru.Cache[string, postsPage]
	stats    *xlru.Cache[string, xstore.Stats]

	source          Source
	logger          xlog.Logger
	warmConcurrency int
	loads           *keyload.Group
}

// New 创建 Store。source 可以为 nil，此时只能使用 Get/Put。
func New(cfg Config, source Source, opts ...Option) (*Store, error) {
	o := &options{now: time.Now, logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if cfg.WarmConcurrency <= 0 {
		return nil, fmt.Errorf("%w: warm concurrency must be positive", ErrInvalidConfig)
	}

	profiles, err := xlru.New(xlru.Config{Size: cfg.ProfileCapacity, TTL: cfg.TTL}, xlru.WithClock[string, xstore.Profile](o.now))
	if err != nil {
		return nil, fmt.Errorf("%w: profiles: %w", ErrInvalidConfig, err)
	}
	posts, err := xlru.New(xlru.Config{Size: cfg.PostsCapacity, TTL: cfg.TTL}, xlru.WithClock[string, postsPage](o.now))
	if err != nil {
		return nil, fmt.Errorf("%w: posts: %w", ErrInvalidConfig, err)
	}
	stats, err := xlru.New(xlru.Config{Size: cfg.StatsCapacity, TTL: cfg.TTL}, xlru.WithClock[string, xstore.Stats](o.now))
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %w", ErrInvalidConfig, err)
	}

	return &Store{
		profiles:        profiles,
		posts:           posts,
		stats:           stats,
		source:          source,
		logger:          o.logger,
		warmConcurrency: cfg.WarmConcurrency,
		loads:           keyload.New(cfg.LoadTimeout),
	}, nil
}

// GetProfile 读取缓存的资料。
func (s *Store) GetProfile(avatarID string) (xstore.Profile, bool) {
	return s.profiles.Get(avatarID)
}

// PutProfile 写入资料，进行中的回源不会再覆盖它。
func (s *Store) PutProfile(avatarID string, p xstore.Profile) {
	s.loads.Invalidate(avatarID)
	s.profiles.Set(avatarID, p)
}

// GetPosts 读取缓存的帖子首页。
func (s *Store) GetPosts(avatarID string) ([]xstore.FeedItem, bool) {
	page, ok := s.posts.Get(avatarID)
	if !ok {
		return nil, false
	}
	return slices.Clone(page.Items), true
}

// PutPosts 写入帖子首页。
func (s *Store) PutPosts(avatarID string, items []xstore.FeedItem) {
	s.loads.Invalidate(avatarID)
	s.posts.Set(avatarID, postsPage{Items: slices.Clone(items), Limit: len(items)})
}

// GetStats 读取缓存的统计。
func (s *Store) GetStats(avatarID string) (xstore.Stats, bool) {
	return s.stats.Get(avatarID)
}

// PutStats 写入统计。
func (s *Store) PutStats(avatarID string, st xstore.Stats) {
	s.loads.Invalidate(avatarID)
	s.stats.Set(avatarID, st)
}

// InvalidateAvatar 在三个缓存中同时删除该 avatar。
// 资料修改、新帖子、关注或点赞变化都可能让任意一个视图过期，因此总是整体失效。
// 失效前已开始的回源完成后不会写回。
func (s *Store) InvalidateAvatar(avatarID string) {
	s.loads.Invalidate(avatarID)
	s.profiles.Delete(avatarID)
	s.posts.Delete(avatarID)
	s.stats.Delete(avatarID)
}

// Clear 清空三个缓存及其统计。
func (s *Store) Clear() {
	s.loads.InvalidateAll()
	s.profiles.Clear()
	s.posts.Clear()
	s.stats.Clear()
}

// Stats 返回三个缓存的统计快照。
func (s *Store) Stats() CacheStats {
	return CacheStats{
		Profiles: s.profiles.Stats(),
		Posts:    s.posts.Stats(),
		Stats:    s.stats.Stats(),
	}
}

// LoadProfile 缓存优先读取资料，未命中时回源并写入缓存。
// 回源失败且存在过期缓存时返回过期值（Stale=true）。
func (s *Store) LoadProfile(ctx context.Context, avatarID string) (Loaded[xstore.Profile], error) {
	return load(ctx, s, s.profiles, "profile:"+avatarID, avatarID,
		func(ctx context.Context) (xstore.Profile, error) {
			return s.source.FetchAvatarProfile(ctx, avatarID)
		})
}

// LoadStats 缓存优先读取统计，语义同 LoadProfile。
func (s *Store) LoadStats(ctx context.Context, avatarID string) (Loaded[xstore.Stats], error) {
	return load(ctx, s, s.stats, "stats:"+avatarID, avatarID,
		func(ctx context.Context) (xstore.Stats, error) {
			return s.source.FetchAvatarStats(ctx, avatarID)
		})
}

// LoadPosts 读取 avatar 的帖子。
//
// offset 为 0 时缓存优先：缓存的首页不少于 limit 条，或抓取时的页大小不小于 limit，
// 即视为命中。其余 offset 直接回源。
//
// 首页缓存期间 avatar 发布新帖子时，后续页的 offset 相对于新的序列，
// 可能与缓存首页重复。得知有新帖子时调用 InvalidateAvatar
// （或 xsession 的 RefreshAvatarPosts）从头重新分页。
func (s *Store) LoadPosts(ctx context.Context, avatarID string, offset, limit int) (Loaded[[]xstore.FeedItem], error) {
	if s.source == nil {
		return Loaded[[]xstore.FeedItem]{}, ErrNoSource
	}
	if offset != 0 {
		items, err := s.source.FetchAvatarPosts(ctx, avatarID, offset, limit)
		return Loaded[[]xstore.FeedItem]{Value: items}, err
	}

	// GetStale 不移除过期条目，回源失败时仍可降级
	cached, stale, cachedOK := s.posts.GetStale(avatarID)
	if cachedOK && !stale && cached.Limit >= limit {
		return Loaded[[]xstore.FeedItem]{Value: firstN(cached.Items, limit), FromCache: true}, nil
	}

	key := fmt.Sprintf("posts:%s:%d", avatarID, limit)
	v, err := s.loads.Do(ctx, key, avatarID,
		func(ctx context.Context) (any, error) {
			return s.source.FetchAvatarPosts(ctx, avatarID, 0, limit)
		},
		func(v any) {
			items, _ := v.([]xstore.FeedItem)
			s.posts.Set(avatarID, postsPage{Items: slices.Clone(items), Limit: limit})
		})
	if err != nil {
		if cachedOK && !errors.Is(err, xstore.ErrNotFound) {
			s.logStale(ctx, "posts", avatarID, err)
			return Loaded[[]xstore.FeedItem]{Value: firstN(cached.Items, limit), FromCache: true, Stale: stale}, nil
		}
		return Loaded[[]xstore.FeedItem]{}, err
	}
	items, _ := v.([]xstore.FeedItem)
	return Loaded[[]xstore.FeedItem]{Value: slices.Clone(items)}, nil
}

// Warm 批量预热资料缓存，已有新鲜缓存的 id 跳过。
//
// 单个 id 失败不会中断其他 id，所有失败合并后返回。
func (s *Store) Warm(ctx context.Context, avatarIDs []string) error {
	if s.source == nil {
		return ErrNoSource
	}

	var (
		mu   sync.Mutex
		errs []error
		seen = make(map[string]struct{}, len(avatarIDs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.warmConcurrency)
	for _, id := range avatarIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.profiles.Contains(id) {
			continue
		}
		g.Go(func() error {
			if _, err := s.LoadProfile(gctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("avatar %s: %w", id, err))
				mu.Unlock()
			}
			// 单个失败不取消其余预热
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		s.logger.Warn(ctx, "avatar warm partially failed",
			xlog.Count(len(errs)), xlog.Err(errs[0]))
	}
	return errors.Join(errs...)
}

func load[T any](ctx context.Context, s *Store, cache *xlru.Cache[string, T], key, avatarID string,
	fetch func(ctx context.Context) (T, error),
) (Loaded[T], error) {
	if s.source == nil {
		return Loaded[T]{}, ErrNoSource
	}
	old, stale, cachedOK := cache.GetStale(avatarID)
	if cachedOK && !stale {
		return Loaded[T]{Value: old, FromCache: true}, nil
	}

	v, err := s.loads.Do(ctx, key, avatarID,
		func(ctx context.Context) (any, error) {
			return fetch(ctx)
		},
		func(v any) {
			cache.Set(avatarID, v.(T))
		})
	if err != nil {
		// 不存在是确定的结果，不用旧值掩盖
		if errors.Is(err, xstore.ErrNotFound) {
			cache.Delete(avatarID)
			return Loaded[T]{}, err
		}
		if cachedOK {
			s.logStale(ctx, key, avatarID, err)
			return Loaded[T]{Value: old, FromCache: true, Stale: stale}, nil
		}
		return Loaded[T]{}, err
	}
	typed, _ := v.(T)
	return Loaded[T]{Value: typed}, nil
}

func (s *Store) logStale(ctx context.Context, what, avatarID string, err error) {
	s.logger.Warn(ctx, "serving stale avatar cache",
		xlog.Component(what), xlog.AvatarID(avatarID), xlog.Err(err))
}

func firstN(items []xstore.FeedItem, n int) []xstore.FeedItem {
	if n > len(items) {
		n = len(items)
	}
	return slices.Clone(items[:n])
}
