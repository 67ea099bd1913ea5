package xfeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/quanta/pkg/context/xctx"
	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
	"github.com/omeyang/quanta/pkg/social/xavatar"
	"github.com/omeyang/quanta/pkg/social/xpage"
	"github.com/omeyang/quanta/pkg/social/xstore"
)

// 默认配置
const (
	DefaultMaxBackfillRounds = 3
	DefaultFetchTimeout      = 5 * time.Second
)

// Config 组装配置。
type Config struct {
	// MaxBackfillRounds 一次请求最多的补齐轮数，0 表示不补齐。
	MaxBackfillRounds int
	// FetchTimeout 每次上游读取的超时，<= 0 表示只受调用方 ctx 限制。
	FetchTimeout time.Duration
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxBackfillRounds: DefaultMaxBackfillRounds,
		FetchTimeout:      DefaultFetchTimeout,
	}
}

// Validate 校验配置。
func (c Config) Validate() error {
	if c.MaxBackfillRounds < 0 {
		return fmt.Errorf("%w: negative max backfill rounds %d", ErrInvalidConfig, c.MaxBackfillRounds)
	}
	return nil
}

// Excluder 给出 viewer 应排除的作者集合，xsafety.Filter 满足此接口。
type Excluder interface {
	ExcludedAuthorIDs(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// PostLoader 读取 avatar 帖子，xavatar.Store 满足此接口。
type PostLoader interface {
	LoadPosts(ctx context.Context, avatarID string, offset, limit int) (xavatar.Loaded[[]xstore.FeedItem], error)
}

// Option 配置 Assembler。
type Option func(*Assembler)

// WithPostLoader 让 avatar 范围的读取经过缓存，首页缓存优先。
func WithPostLoader(l PostLoader) Option {
	return func(a *Assembler) {
		if l != nil {
			a.posts = l
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithObserver 设置观测器。
func WithObserver(o xmetrics.Observer) Option {
	return func(a *Assembler) {
		if o != nil {
			a.observer = o
		}
	}
}

// Page 是一次 GetNextPage 的结果。
type Page struct {
	// Items 过滤后的条目，不超过请求的页大小。
	Items []xstore.FeedItem
	// Offset 本页在未过滤序列中的起点。
	Offset int
	// HasMore 上游是否可能还有数据，由最后一个上游批次是否读满决定。
	HasMore bool
	// Consumed 本次消费的未过滤条数，游标前进同样的数量。
	Consumed int
	// BackfillRounds 实际执行的补齐轮数。
	BackfillRounds int
	// BackfillExhausted 补齐轮数用尽仍不满页。不是错误，页可能偏短。
	BackfillExhausted bool
}

// Assembler 组装 viewer 的下一页：读取、过滤屏蔽与静音作者、补齐短页、推进游标。
type Assembler struct {
	source   xstore.FeedSource
	tracker  *xpage.Tracker
	filter   Excluder
	posts    PostLoader
	cfg      Config
	logger   xlog.Logger
	observer xmetrics.Observer
}

// New 创建 Assembler。
func New(cfg Config, source xstore.FeedSource, tracker *xpage.Tracker, filter Excluder, opts ...Option) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil || tracker == nil || filter == nil {
		return nil, fmt.Errorf("%w: source, tracker and filter are required", ErrInvalidConfig)
	}
	a := &Assembler{
		source:   source,
		tracker:  tracker,
		filter:   filter,
		cfg:      cfg,
		logger:   xlog.Discard(),
		observer: xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// GetNextPage 返回 viewer 在 scope 下的下一页。
//
// 同一范围已在加载时返回 ErrAlreadyLoading；首次读取或过滤关系读取失败时
// 游标回到 Idle 且 offset 不变，返回包装了 xstore.ErrUpstreamUnavailable 的错误。
// 补齐轮次失败时返回已经收集到的短页。
func (a *Assembler) GetNextPage(ctx context.Context, viewerID string, scope xpage.Scope, requestedSize int) (page Page, err error) {
	if requestedSize <= 0 {
		return Page{}, fmt.Errorf("%w: page size %d", ErrInvalidArgument, requestedSize)
	}
	if viewerID == "" {
		return Page{}, fmt.Errorf("%w: empty viewer id", ErrInvalidArgument)
	}
	if scope.Kind == xpage.ScopeAvatar && scope.AvatarID == "" {
		return Page{}, fmt.Errorf("%w: empty avatar id", ErrInvalidArgument)
	}

	ctx, err = withIdentity(ctx, viewerID)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	ctx, span := xmetrics.Start(ctx, a.observer, xmetrics.SpanOptions{
		Component: "xfeed",
		Operation: "get_next_page",
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			xmetrics.String("scope", scope.String()),
			xmetrics.Int("page_size", requestedSize),
		},
	})
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{
			xmetrics.Int("items", len(page.Items)),
			xmetrics.Int("consumed", page.Consumed),
			xmetrics.Int("backfill_rounds", page.BackfillRounds),
			xmetrics.Bool("has_more", page.HasMore),
		}})
	}()

	ticket, err := a.tracker.RequestNextPage(xpage.Key{ViewerID: viewerID, Scope: scope}, requestedSize)
	if err != nil {
		if errors.Is(err, xpage.ErrInvalidArgument) {
			return Page{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return Page{}, err
	}

	// 任何未完成的退出（包括 panic）都把范围放回 Idle
	settled := false
	defer func() {
		if !settled {
			_ = a.tracker.Abort(ticket)
		}
	}()

	page, err = a.assemble(ctx, viewerID, scope, ticket)
	if err != nil {
		return Page{}, err
	}

	settled = true
	if err := a.tracker.Complete(ticket, page.Consumed, page.HasMore); err != nil {
		if errors.Is(err, xpage.ErrStaleTicket) {
			return Page{}, fmt.Errorf("%w: %w", ErrPageDiscarded, err)
		}
		return Page{}, err
	}

	a.logger.Debug(ctx, "feed page assembled",
		xlog.Scope(scope.String()), xlog.Offset(page.Offset), xlog.PageSize(requestedSize),
		xlog.Count(len(page.Items)), xlog.Component("xfeed"))
	return page, nil
}

func (a *Assembler) assemble(ctx context.Context, viewerID string, scope xpage.Scope, ticket xpage.Ticket) (Page, error) {
	size := ticket.PageSize
	page := Page{Offset: ticket.Offset, Items: make([]xstore.FeedItem, 0, size)}

	batch, err := a.fetch(ctx, scope, ticket.Offset, size)
	if err != nil {
		return Page{}, upstream("fetch page", err)
	}
	excluded, err := a.filter.ExcludedAuthorIDs(ctx, viewerID)
	if err != nil {
		return Page{}, upstream("load exclusions", err)
	}

	for {
		page.Consumed += len(batch)
		for _, item := range batch {
			if _, skip := excluded[item.AuthorID]; skip {
				continue
			}
			page.Items = append(page.Items, item)
		}
		full := len(batch) > 0 && len(batch) == size
		page.HasMore = full

		missing := ticket.PageSize - len(page.Items)
		if missing <= 0 || !full {
			break
		}
		if page.BackfillRounds >= a.cfg.MaxBackfillRounds {
			page.BackfillExhausted = true
			a.logger.Info(ctx, "backfill rounds exhausted, returning short page",
				xlog.Scope(scope.String()), xlog.Count(len(page.Items)), xlog.PageSize(ticket.PageSize))
			break
		}

		page.BackfillRounds++
		size = missing
		batch, err = a.fetch(ctx, scope, ticket.Offset+page.Consumed, size)
		if err != nil {
			// 已收集的条目照常交付，未消费的部分留给下一次请求
			a.logger.Warn(ctx, "backfill fetch failed, returning short page",
				xlog.Scope(scope.String()), xlog.Offset(ticket.Offset+page.Consumed), xlog.Err(err))
			page.HasMore = true
			break
		}
	}

	if len(page.Items) > ticket.PageSize {
		page.Items = page.Items[:ticket.PageSize]
	}
	return page, nil
}

func (a *Assembler) fetch(ctx context.Context, scope xpage.Scope, offset, limit int) ([]xstore.FeedItem, error) {
	if a.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
	}
	if scope.Kind == xpage.ScopeAvatar {
		if a.posts != nil {
			loaded, err := a.posts.LoadPosts(ctx, scope.AvatarID, offset, limit)
			return loaded.Value, err
		}
		return a.source.FetchAvatarPosts(ctx, scope.AvatarID, offset, limit)
	}
	return a.source.FetchFeedPage(ctx, offset, limit)
}

func upstream(what string, err error) error {
	if errors.Is(err, xstore.ErrUpstreamUnavailable) {
		return fmt.Errorf("xfeed: %s: %w", what, err)
	}
	return fmt.Errorf("%w: xfeed: %s: %w", xstore.ErrUpstreamUnavailable, what, err)
}

// withIdentity 注入 viewer 与请求 ID，供日志 enrich 使用。
func withIdentity(ctx context.Context, viewerID string) (context.Context, error) {
	ctx, err := xctx.WithViewerID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return xctx.EnsureRequestID(ctx)
}
