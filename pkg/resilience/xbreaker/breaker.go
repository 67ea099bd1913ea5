package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State 熔断器状态
type State = gobreaker.State

// Counts 熔断器统计计数
type Counts = gobreaker.Counts

// 熔断器状态常量
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Breaker 熔断器执行器，封装 gobreaker。
type Breaker struct {
	name                string
	consecutiveFailures uint32
	timeout             time.Duration
	interval            time.Duration
	maxRequests         uint32
	isSuccessful        func(err error) bool
	onStateChange       func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithConsecutiveFailures 设置连续失败多少次后熔断，默认 5。
func WithConsecutiveFailures(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.consecutiveFailures = n
		}
	}
}

// WithTimeout 设置 Open 到 HalfOpen 的等待时间，默认 30 秒。
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下统计清零周期，默认 0（不清零）。
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		b.interval = d
	}
}

// WithMaxRequests 设置 HalfOpen 状态下允许通过的最大请求数，默认 1。
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithSuccessPolicy 自定义成功判定。
// 例如"记录不存在"属于正常业务结果，不应计入失败。
func WithSuccessPolicy(fn func(err error) bool) BreakerOption {
	return func(b *Breaker) {
		b.isSuccessful = fn
	}
}

// WithOnStateChange 设置状态变化回调
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器。
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:                name,
		consecutiveFailures: 5,
		timeout:             30 * time.Second,
		maxRequests:         1,
	}
	for _, opt := range opts {
		opt(b)
	}

	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.consecutiveFailures
		},
	}
	if b.isSuccessful != nil {
		st.IsSuccessful = b.isSuccessful
	}
	if b.onStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[any](st)
	return b
}

// Execute 执行受熔断器保护的操作（泛型版本）
//
// context 已取消时直接返回 context 错误，不计入熔断统计。
// 熔断拒绝被包装为 BreakerError。
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, wrapBreakerError(err, b.name, b.State())
	}
	if typed, ok := result.(T); ok {
		return typed, nil
	}
	return zero, nil
}

// Do 执行无返回值的受保护操作。
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	_, err := Execute(ctx, b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// State 返回熔断器当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// Counts 返回当前统计计数
func (b *Breaker) Counts() Counts {
	return b.cb.Counts()
}
