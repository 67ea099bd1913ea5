package xmongo

import (
	"context"
	"time"

	"github.com/omeyang/quanta/internal/storageopt"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
)

// Collections 各类数据所在的集合名。
type Collections struct {
	Posts   string
	Avatars string
	Stats   string
	Blocks  string
	Mutes   string
}

// DefaultCollections 返回默认集合名。
func DefaultCollections() Collections {
	return Collections{
		Posts:   "posts",
		Avatars: "avatars",
		Stats:   "avatar_stats",
		Blocks:  "blocks",
		Mutes:   "mutes",
	}
}

// SlowQueryInfo 慢查询信息。
type SlowQueryInfo struct {
	Collection string
	Operation  string
}

// SlowQueryHook 慢查询回调，在请求路径上同步执行。
type SlowQueryHook func(ctx context.Context, info SlowQueryInfo, d time.Duration)

// Options 存储配置。
type Options struct {
	Collections Collections

	// HealthTimeout 健康检查超时，默认 5 秒。
	HealthTimeout time.Duration

	// SlowQueryThreshold 慢查询阈值，0 表示禁用。
	SlowQueryThreshold time.Duration
	SlowQueryHook      SlowQueryHook

	Observer xmetrics.Observer
}

// Option 配置函数。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Collections:   DefaultCollections(),
		HealthTimeout: storageopt.DefaultHealthTimeout,
		Observer:      xmetrics.NoopObserver{},
	}
}

// WithCollections 覆盖集合名，空字段保持默认。
func WithCollections(c Collections) Option {
	return func(o *Options) {
		def := &o.Collections
		for _, p := range []struct {
			dst *string
			src string
		}{
			{&def.Posts, c.Posts},
			{&def.Avatars, c.Avatars},
			{&def.Stats, c.Stats},
			{&def.Blocks, c.Blocks},
			{&def.Mutes, c.Mutes},
		} {
			if p.src != "" {
				*p.dst = p.src
			}
		}
	}
}

// WithHealthTimeout 设置健康检查超时。
func WithHealthTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.HealthTimeout = d
		}
	}
}

// WithSlowQueryThreshold 设置慢查询阈值。
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.SlowQueryThreshold = d
		}
	}
}

// WithSlowQueryHook 设置慢查询回调。
func WithSlowQueryHook(hook SlowQueryHook) Option {
	return func(o *Options) {
		o.SlowQueryHook = hook
	}
}

// WithObserver 设置观测器。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *Options) {
		if observer != nil {
			o.Observer = observer
		}
	}
}
