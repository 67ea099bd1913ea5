package xrelation

import (
	"context"
	"time"

	"github.com/omeyang/quanta/internal/storageopt"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
)

// DefaultKeyPrefix 默认 key 前缀。
const DefaultKeyPrefix = "quanta:"

// SlowCommandInfo 慢命令信息。
type SlowCommandInfo struct {
	Operation string
}

// SlowCommandHook 慢命令回调，在请求路径上同步执行。
type SlowCommandHook func(ctx context.Context, info SlowCommandInfo, d time.Duration)

// Options 存储配置。
type Options struct {
	// KeyPrefix 所有 key 的前缀，多个环境共用一个 Redis 时用来隔离。
	KeyPrefix string

	// HealthTimeout 健康检查超时，默认 5 秒。
	HealthTimeout time.Duration

	// SlowThreshold 慢命令阈值，0 表示禁用。
	SlowThreshold time.Duration
	SlowHook      SlowCommandHook

	Observer xmetrics.Observer
}

// Option 配置函数。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		KeyPrefix:     DefaultKeyPrefix,
		HealthTimeout: storageopt.DefaultHealthTimeout,
		Observer:      xmetrics.NoopObserver{},
	}
}

// WithKeyPrefix 设置 key 前缀，允许为空。
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
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

// WithSlowCommand 设置慢命令阈值与回调。
func WithSlowCommand(threshold time.Duration, hook SlowCommandHook) Option {
	return func(o *Options) {
		if threshold >= 0 {
			o.SlowThreshold = threshold
		}
		o.SlowHook = hook
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
