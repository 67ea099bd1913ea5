package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Retryer 重试执行器
//
// 底层使用 avast/retry-go/v5 实现，只返回最后一次错误。
type Retryer struct {
	maxAttempts int
	backoff     ExponentialBackoff
	onRetry     func(attempt int, err error)
}

// RetryerOption 执行器配置选项
type RetryerOption func(*Retryer)

// WithMaxAttempts 设置最大尝试次数（包含首次），小于 1 时按 1 处理。
func WithMaxAttempts(n int) RetryerOption {
	return func(r *Retryer) {
		r.maxAttempts = max(n, 1)
	}
}

// WithBackoff 设置退避策略
func WithBackoff(b ExponentialBackoff) RetryerOption {
	return func(r *Retryer) {
		r.backoff = b
	}
}

// WithOnRetry 设置重试回调函数，attempt 从 1 开始。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器，默认最多尝试 3 次。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		maxAttempts: 3,
		backoff:     DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts 返回最大尝试次数。
func (r *Retryer) MaxAttempts() int {
	return r.maxAttempts
}

// Do 执行带重试的操作
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.buildOptions(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 执行带重试的操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilFunc
	}
	if r == nil {
		r = NewRetryer()
	}
	return retry.NewWithData[T](r.buildOptions(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) buildOptions(ctx context.Context) []retry.Option {
	opts := make([]retry.Option, 0, 6)
	opts = append(opts,
		retry.Context(ctx),
		retry.Attempts(uint(max(r.maxAttempts, 1))), //nolint:gosec // 已保证为正数
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && IsRetryable(err)
		}),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			// retry-go v5 中 DelayType 的 n 从 1 开始
			return r.backoff.NextDelay(safeUintToInt(n))
		}),
		retry.LastErrorOnly(true),
	)
	if r.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// OnRetry 的 n 从 0 开始
			r.onRetry(safeUintToInt(n)+1, err)
		}))
	}
	return opts
}

func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}
