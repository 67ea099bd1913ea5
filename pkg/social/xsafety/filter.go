package xsafety

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/quanta/internal/keyload"
	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/social/xstore"
	"github.com/omeyang/quanta/pkg/util/xlru"
)

// 默认配置
const (
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = 30 * time.Second
)

// Config 关系快照缓存配置。
type Config struct {
	// CacheCapacity 最多缓存的 viewer 快照数。
	CacheCapacity int
	// CacheTTL 快照有效期，<= 0 表示不缓存，每次都读后端。
	CacheTTL time.Duration
	// LoadTimeout 单次关系加载的超时，<= 0 使用默认值。
	// 加载与调用方的取消解耦，调用方取消只放弃自己的等待。
	LoadTimeout time.Duration
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{CacheCapacity: DefaultCacheCapacity, CacheTTL: DefaultCacheTTL}
}

// Option 配置 Filter。
type Option func(*Filter)

// WithClock 注入时钟，用于静音过期判断与写入时间戳。
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.logger = l
		}
	}
}

// snapshot 是某个 viewer 的关系视图。
// 静音保留原始记录，过期在每次读取时判断。
type snapshot struct {
	blocked map[string]struct{}
	mutes   map[string]xstore.MuteRecord
}

// Filter 根据屏蔽与静音关系决定哪些作者的内容对 viewer 不可见。
//
// 后端是唯一数据源，Filter 只短暂缓存每个 viewer 的关系快照，
// 任何写操作都会失效双方的快照。
type Filter struct {
	store  xstore.RelationStore
	cache  *xlru.Cache[string, snapshot]
	now    func() time.Time
	logger xlog.Logger
	loads  *keyload.Group
}

// New 创建 Filter。
func New(store xstore.RelationStore, cfg Config, opts ...Option) (*Filter, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil relation store", ErrInvalidConfig)
	}
	f := &Filter{store: store, now: time.Now, logger: xlog.Discard(), loads: keyload.New(cfg.LoadTimeout)}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if cfg.CacheTTL > 0 {
		cache, err := xlru.New(xlru.Config{Size: cfg.CacheCapacity, TTL: cfg.CacheTTL},
			xlru.WithClock[string, snapshot](f.now))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		f.cache = cache
	}
	return f, nil
}

// IsExcluded 判断 author 的内容是否应对 viewer 隐藏：
// 任一方向存在屏蔽，或 viewer 对 author 的静音仍然生效。
func (f *Filter) IsExcluded(ctx context.Context, viewerID, authorID string) (bool, error) {
	if viewerID == authorID {
		return false, nil
	}
	snap, err := f.snapshot(ctx, viewerID)
	if err != nil {
		return false, err
	}
	if _, ok := snap.blocked[authorID]; ok {
		return true, nil
	}
	m, ok := snap.mutes[authorID]
	return ok && m.Active(f.now()), nil
}

// ExcludedAuthorIDs 返回 viewer 当前应排除的全部作者，供批量过滤使用。
func (f *Filter) ExcludedAuthorIDs(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	snap, err := f.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	now := f.now()
	out := make(map[string]struct{}, len(snap.blocked)+len(snap.mutes))
	for id := range snap.blocked {
		out[id] = struct{}{}
	}
	for id, m := range snap.mutes {
		if m.Active(now) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// Block 屏蔽 author，重复屏蔽不报错。
func (f *Filter) Block(ctx context.Context, viewerID, authorID string) error {
	if err := validatePair(viewerID, authorID); err != nil {
		return err
	}
	rec := xstore.BlockRecord{BlockerID: viewerID, BlockedID: authorID, CreatedAt: f.now()}
	if err := f.store.PutBlock(ctx, rec); err != nil {
		return fmt.Errorf("xsafety: block: %w", err)
	}
	f.invalidate(viewerID, authorID)
	return nil
}

// Unblock 解除屏蔽，未屏蔽时同样成功。
func (f *Filter) Unblock(ctx context.Context, viewerID, authorID string) error {
	if err := validatePair(viewerID, authorID); err != nil {
		return err
	}
	if err := f.store.DeleteBlock(ctx, viewerID, authorID); err != nil {
		return fmt.Errorf("xsafety: unblock: %w", err)
	}
	f.invalidate(viewerID, authorID)
	return nil
}

// Mute 静音 author。duration 为 0 表示无限期，重复静音以最新一次为准。
func (f *Filter) Mute(ctx context.Context, viewerID, authorID string, duration time.Duration) error {
	if err := validatePair(viewerID, authorID); err != nil {
		return err
	}
	if duration < 0 {
		return fmt.Errorf("%w: negative mute duration %s", ErrInvalidArgument, duration)
	}
	rec := xstore.MuteRecord{MuterID: viewerID, MutedID: authorID, MutedAt: f.now(), Duration: duration}
	if err := f.store.PutMute(ctx, rec); err != nil {
		return fmt.Errorf("xsafety: mute: %w", err)
	}
	f.invalidate(viewerID)
	return nil
}

// Unmute 取消静音，未静音时同样成功。
func (f *Filter) Unmute(ctx context.Context, viewerID, authorID string) error {
	if err := validatePair(viewerID, authorID); err != nil {
		return err
	}
	if err := f.store.DeleteMute(ctx, viewerID, authorID); err != nil {
		return fmt.Errorf("xsafety: unmute: %w", err)
	}
	f.invalidate(viewerID)
	return nil
}

// CleanupExpiredMutes 删除后端中已失效的静音记录，返回删除数量。
// 过期静音在读取时已被忽略，清理只回收存储。
func (f *Filter) CleanupExpiredMutes(ctx context.Context) (int, error) {
	n, err := f.store.PurgeExpiredMutes(ctx, f.now())
	if err != nil {
		return 0, fmt.Errorf("xsafety: purge expired mutes: %w", err)
	}
	if n > 0 {
		f.logger.Info(ctx, "expired mutes purged", xlog.Count(n))
	}
	return n, nil
}

// Invalidate 丢弃 viewer 的关系快照，下次读取时重新加载。
func (f *Filter) Invalidate(viewerID string) {
	f.invalidate(viewerID)
}

// invalidate 先推进版本再删除快照，进行中的加载不会写回旧关系。
func (f *Filter) invalidate(ids ...string) {
	f.loads.Invalidate(ids...)
	if f.cache == nil {
		return
	}
	for _, id := range ids {
		f.cache.Delete(id)
	}
}

func (f *Filter) snapshot(ctx context.Context, viewerID string) (snapshot, error) {
	if viewerID == "" {
		return snapshot{}, fmt.Errorf("%w: empty viewer id", ErrInvalidArgument)
	}
	if f.cache != nil {
		if snap, ok := f.cache.Get(viewerID); ok {
			return snap, nil
		}
	}

	v, err := f.loads.Do(ctx, viewerID, viewerID,
		func(ctx context.Context) (any, error) {
			return f.load(ctx, viewerID)
		},
		func(v any) {
			if f.cache != nil {
				f.cache.Set(viewerID, v.(snapshot))
			}
		})
	if err != nil {
		return snapshot{}, err
	}
	snap, _ := v.(snapshot)
	return snap, nil
}

func (f *Filter) load(ctx context.Context, viewerID string) (snapshot, error) {
	var (
		blocks []xstore.BlockRecord
		mutes  []xstore.MuteRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blocks, err = f.store.FetchBlocks(gctx, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		mutes, err = f.store.FetchMutes(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, fmt.Errorf("xsafety: load relations: %w", err)
	}

	snap := snapshot{
		blocked: make(map[string]struct{}, len(blocks)),
		mutes:   make(map[string]xstore.MuteRecord, len(mutes)),
	}
	for _, b := range blocks {
		if other := b.Counterpart(viewerID); other != "" {
			snap.blocked[other] = struct{}{}
		}
	}
	for _, m := range mutes {
		if m.MuterID == viewerID {
			snap.mutes[m.MutedID] = m
		}
	}
	return snap, nil
}

func validatePair(viewerID, authorID string) error {
	if viewerID == "" || authorID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	if viewerID == authorID {
		return fmt.Errorf("%w: cannot target self", ErrInvalidArgument)
	}
	return nil
}
