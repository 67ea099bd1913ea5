package xsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
	"github.com/omeyang/quanta/pkg/social/xavatar"
	"github.com/omeyang/quanta/pkg/social/xfeed"
	"github.com/omeyang/quanta/pkg/social/xpage"
	"github.com/omeyang/quanta/pkg/social/xsafety"
	"github.com/omeyang/quanta/pkg/social/xstore"
)

// Option 配置 Session。
type Option func(*options)

type options struct {
	logger     xlog.Logger
	observer   xmetrics.Observer
	now        func() time.Time
	janitor    bool
	resilience []xstore.ResilientOption
	resilient  bool
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock 注入时钟，作用于缓存 TTL 与静音过期判断。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMuteCleanup 按 Config.MuteCleanupSpec 周期清理过期静音。
func WithMuteCleanup() Option {
	return func(o *options) { o.janitor = true }
}

// WithResilience 用 xstore.Resilient 包装后端，增加超时、重试与熔断。
func WithResilience(opts ...xstore.ResilientOption) Option {
	return func(o *options) {
		o.resilient = true
		o.resilience = opts
	}
}

// CacheStats 会话缓存统计。
type CacheStats struct {
	Avatars xavatar.CacheStats
}

// Session 是一个 viewer 的客户端会话，持有该 viewer 的缓存、分页游标与过滤器。
//
// 后端在构造时注入，内存实现与网络实现对 Session 没有区别。
type Session struct {
	viewerID  string
	avatars   *xavatar.Store
	tracker   *xpage.Tracker
	filter    *xsafety.Filter
	assembler *xfeed.Assembler
	janitor   *xsafety.Janitor
	logger    xlog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New 为 viewer 创建会话。
func New(viewerID string, store xstore.Store, cfg Config, opts ...Option) (*Session, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("%w: empty viewer id", ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: xlog.Discard(), observer: xmetrics.NoopObserver{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.resilient {
		store = xstore.NewResilient(store, append([]xstore.ResilientOption{xstore.WithObserver(o.observer)}, o.resilience...)...)
	}
	logger := o.logger.With(xlog.ViewerID(viewerID))

	avatars, err := xavatar.New(cfg.avatarConfig(), store, xavatar.WithClock(o.now), xavatar.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	filter, err := xsafety.New(store, cfg.safetyConfig(), xsafety.WithClock(o.now), xsafety.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	tracker := xpage.New(xpage.WithDefaultPageSize(cfg.DefaultPageSize))
	assembler, err := xfeed.New(cfg.feedConfig(), store, tracker, filter,
		xfeed.WithPostLoader(avatars), xfeed.WithLogger(logger), xfeed.WithObserver(o.observer))
	if err != nil {
		return nil, err
	}

	s := &Session{
		viewerID:  viewerID,
		avatars:   avatars,
		tracker:   tracker,
		filter:    filter,
		assembler: assembler,
		logger:    logger,
	}
	if o.janitor {
		j, err := xsafety.NewJanitor(filter, cfg.MuteCleanupSpec, cfg.FetchTimeout, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: muteCleanupSpec: %w", ErrInvalidConfig, err)
		}
		j.Start()
		s.janitor = j
	}
	return s, nil
}

// ViewerID 返回会话所属的 viewer。
func (s *Session) ViewerID() string { return s.viewerID }

// GetNextFeedPage 返回全局 feed 的下一页，pageSize 为 0 时使用默认页大小。
func (s *Session) GetNextFeedPage(ctx context.Context, pageSize int) (xfeed.Page, error) {
	return s.nextPage(ctx, xpage.FeedScope(), pageSize)
}

// GetAvatarPosts 返回 avatar 帖子的下一页，首页缓存优先。
func (s *Session) GetAvatarPosts(ctx context.Context, avatarID string, pageSize int) (xfeed.Page, error) {
	return s.nextPage(ctx, xpage.AvatarScope(avatarID), pageSize)
}

func (s *Session) nextPage(ctx context.Context, scope xpage.Scope, pageSize int) (xfeed.Page, error) {
	if s.closed.Load() {
		return xfeed.Page{}, ErrClosed
	}
	if pageSize == 0 {
		pageSize = s.tracker.DefaultPageSize()
	}
	return s.assembler.GetNextPage(ctx, s.viewerID, scope, pageSize)
}

// GetAvatarProfile 读取 avatar 资料，缓存优先，后端不可用时可能返回过期值。
func (s *Session) GetAvatarProfile(ctx context.Context, avatarID string) (xavatar.Loaded[xstore.Profile], error) {
	if s.closed.Load() {
		return xavatar.Loaded[xstore.Profile]{}, ErrClosed
	}
	if avatarID == "" {
		return xavatar.Loaded[xstore.Profile]{}, fmt.Errorf("%w: empty avatar id", xstore.ErrInvalidArgument)
	}
	return s.avatars.LoadProfile(ctx, avatarID)
}

// GetAvatarStats 读取 avatar 统计，缓存优先。
func (s *Session) GetAvatarStats(ctx context.Context, avatarID string) (xavatar.Loaded[xstore.Stats], error) {
	if s.closed.Load() {
		return xavatar.Loaded[xstore.Stats]{}, ErrClosed
	}
	if avatarID == "" {
		return xavatar.Loaded[xstore.Stats]{}, fmt.Errorf("%w: empty avatar id", xstore.ErrInvalidArgument)
	}
	return s.avatars.LoadStats(ctx, avatarID)
}

// WarmAvatars 预热一批 avatar 资料，部分失败以合并错误返回。
func (s *Session) WarmAvatars(ctx context.Context, avatarIDs []string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.avatars.Warm(ctx, avatarIDs)
}

// RefreshFeed 将 feed 游标重置到开头，进行中的请求结果会被丢弃。
func (s *Session) RefreshFeed() {
	s.tracker.Reset(xpage.Key{ViewerID: s.viewerID, Scope: xpage.FeedScope()})
}

// RefreshAvatarPosts 重置 avatar 帖子游标并丢弃其缓存。
// 得知 avatar 有新帖子时调用，否则缓存的首页与后续页可能重复。
func (s *Session) RefreshAvatarPosts(avatarID string) {
	s.tracker.Reset(xpage.Key{ViewerID: s.viewerID, Scope: xpage.AvatarScope(avatarID)})
	s.avatars.InvalidateAvatar(avatarID)
}

// InvalidateAvatar 失效 avatar 的资料、帖子与统计缓存。
func (s *Session) InvalidateAvatar(avatarID string) {
	s.avatars.InvalidateAvatar(avatarID)
}

// IsExcluded 判断 author 的内容是否对当前 viewer 隐藏。
func (s *Session) IsExcluded(ctx context.Context, authorID string) (bool, error) {
	return s.filter.IsExcluded(ctx, s.viewerID, authorID)
}

// BlockUser 屏蔽 author。
func (s *Session) BlockUser(ctx context.Context, authorID string) error {
	return s.relationChanged(ctx, "block", authorID, s.filter.Block(ctx, s.viewerID, authorID))
}

// UnblockUser 解除屏蔽。
func (s *Session) UnblockUser(ctx context.Context, authorID string) error {
	return s.relationChanged(ctx, "unblock", authorID, s.filter.Unblock(ctx, s.viewerID, authorID))
}

// MuteUser 静音 author，duration 为 0 表示无限期。
func (s *Session) MuteUser(ctx context.Context, authorID string, duration time.Duration) error {
	return s.relationChanged(ctx, "mute", authorID, s.filter.Mute(ctx, s.viewerID, authorID, duration))
}

// UnmuteUser 取消静音。
func (s *Session) UnmuteUser(ctx context.Context, authorID string) error {
	return s.relationChanged(ctx, "unmute", authorID, s.filter.Unmute(ctx, s.viewerID, authorID))
}

// relationChanged 在关系写入成功后失效 author 的缓存视图。
func (s *Session) relationChanged(ctx context.Context, action, authorID string, err error) error {
	if err != nil {
		return err
	}
	s.avatars.InvalidateAvatar(authorID)
	s.logger.Info(ctx, "relation updated", xlog.Component(action), xlog.AuthorID(authorID))
	return nil
}

// GetCacheStats 返回缓存统计。
func (s *Session) GetCacheStats() CacheStats {
	return CacheStats{Avatars: s.avatars.Stats()}
}

// GetPaginationStats 返回分页统计。
func (s *Session) GetPaginationStats() xpage.Stats {
	return s.tracker.Stats()
}

// FeedState 返回 feed 游标的状态快照。
func (s *Session) FeedState() xpage.State {
	return s.tracker.State(xpage.Key{ViewerID: s.viewerID, Scope: xpage.FeedScope()})
}

// Close 停止后台清理并丢弃缓存，可重复调用。
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		var errs []error
		if s.janitor != nil {
			errs = append(errs, s.janitor.Stop(ctx))
		}
		s.avatars.Clear()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
