package xstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/quanta/pkg/observability/xmetrics"
	"github.com/omeyang/quanta/pkg/resilience/xbreaker"
	"github.com/omeyang/quanta/pkg/resilience/xretry"
)

// DefaultCallTimeout 单次后端调用的默认超时。
const DefaultCallTimeout = 5 * time.Second

// Resilient 为 Store 的每次调用增加超时、重试、熔断与观测。
//
// ErrNotFound 与 ErrInvalidArgument 原样返回，不重试也不计入熔断；
// 其余失败（包括超时与熔断拒绝）都包装为 ErrUpstreamUnavailable。
type Resilient struct {
	next     Store
	timeout  time.Duration
	retryer  *xretry.Retryer
	breaker  *xbreaker.Breaker
	observer xmetrics.Observer
}

var _ Store = (*Resilient)(nil)

// ResilientOption 配置 Resilient。
type ResilientOption func(*Resilient)

// WithCallTimeout 设置每次尝试的超时，<= 0 表示不额外限制。
func WithCallTimeout(d time.Duration) ResilientOption {
	return func(r *Resilient) { r.timeout = d }
}

// WithRetryer 设置重试器。
func WithRetryer(retryer *xretry.Retryer) ResilientOption {
	return func(r *Resilient) {
		if retryer != nil {
			r.retryer = retryer
		}
	}
}

// WithBreaker 设置熔断器。自定义熔断器应使用 [IsExpected] 作为成功判定。
func WithBreaker(b *xbreaker.Breaker) ResilientOption {
	return func(r *Resilient) {
		if b != nil {
			r.breaker = b
		}
	}
}

// WithObserver 设置观测器。
func WithObserver(o xmetrics.Observer) ResilientOption {
	return func(r *Resilient) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewResilient 包装 next。默认 5s 超时、3 次尝试、连续 5 次失败熔断。
func NewResilient(next Store, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		next:     next,
		timeout:  DefaultCallTimeout,
		retryer:  xretry.NewRetryer(),
		breaker:  xbreaker.NewBreaker("xstore", xbreaker.WithSuccessPolicy(IsExpected)),
		observer: xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// IsExpected 判断错误是否属于正常业务结果（nil、不存在、参数错误），
// 这类结果不应触发熔断。
func IsExpected(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument)
}

// Breaker 返回内部熔断器，用于观测其状态。
func (r *Resilient) Breaker() *xbreaker.Breaker {
	return r.breaker
}

func call[T any](ctx context.Context, r *Resilient, op string, attrs []xmetrics.Attr, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := xmetrics.Start(ctx, r.observer, xmetrics.SpanOptions{
		Component: "xstore",
		Operation: op,
		Kind:      xmetrics.KindClient,
		Attrs:     attrs,
	})

	attempts := 0
	v, err := xretry.DoWithResult(ctx, r.retryer, func(ctx context.Context) (T, error) {
		attempts++
		return xbreaker.Execute(ctx, r.breaker, func() (T, error) {
			attemptCtx := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			v, err := fn(attemptCtx)
			if err != nil && IsExpected(err) {
				return v, xretry.NewPermanentError(err)
			}
			return v, err
		})
	})
	err = classify(op, err)

	result := xmetrics.Result{Attrs: []xmetrics.Attr{xmetrics.Int("attempts", attempts)}}
	if err != nil && !IsExpected(err) {
		result.Err = err
	}
	span.End(result)
	return v, err
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *xretry.PermanentError
	if errors.As(err, &pe) && pe.Err != nil {
		err = pe.Err
	}
	if IsExpected(err) || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, op, err)
}

func (r *Resilient) FetchFeedPage(ctx context.Context, offset, limit int) ([]FeedItem, error) {
	return call(ctx, r, OpFetchFeedPage,
		[]xmetrics.Attr{xmetrics.Int("offset", offset), xmetrics.Int("limit", limit)},
		func(ctx context.Context) ([]FeedItem, error) {
			return r.next.FetchFeedPage(ctx, offset, limit)
		})
}

func (r *Resilient) FetchAvatarProfile(ctx context.Context, avatarID string) (Profile, error) {
	return call(ctx, r, OpFetchAvatarProfile,
		[]xmetrics.Attr{xmetrics.String("avatar_id", avatarID)},
		func(ctx context.Context) (Profile, error) {
			return r.next.FetchAvatarProfile(ctx, avatarID)
		})
}

func (r *Resilient) FetchAvatarPosts(ctx context.Context, avatarID string, offset, limit int) ([]FeedItem, error) {
	return call(ctx, r, OpFetchAvatarPosts,
		[]xmetrics.Attr{xmetrics.String("avatar_id", avatarID), xmetrics.Int("offset", offset), xmetrics.Int("limit", limit)},
		func(ctx context.Context) ([]FeedItem, error) {
			return r.next.FetchAvatarPosts(ctx, avatarID, offset, limit)
		})
}

func (r *Resilient) FetchAvatarStats(ctx context.Context, avatarID string) (Stats, error) {
	return call(ctx, r, OpFetchAvatarStats,
		[]xmetrics.Attr{xmetrics.String("avatar_id", avatarID)},
		func(ctx context.Context) (Stats, error) {
			return r.next.FetchAvatarStats(ctx, avatarID)
		})
}

func (r *Resilient) FetchBlocks(ctx context.Context, viewerID string) ([]BlockRecord, error) {
	return call(ctx, r, OpFetchBlocks, nil, func(ctx context.Context) ([]BlockRecord, error) {
		return r.next.FetchBlocks(ctx, viewerID)
	})
}

func (r *Resilient) FetchMutes(ctx context.Context, viewerID string) ([]MuteRecord, error) {
	return call(ctx, r, OpFetchMutes, nil, func(ctx context.Context) ([]MuteRecord, error) {
		return r.next.FetchMutes(ctx, viewerID)
	})
}

func (r *Resilient) PutBlock(ctx context.Context, rec BlockRecord) error {
	_, err := call(ctx, r, OpPutBlock, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.PutBlock(ctx, rec)
	})
	return err
}

func (r *Resilient) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	_, err := call(ctx, r, OpDeleteBlock, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.DeleteBlock(ctx, blockerID, blockedID)
	})
	return err
}

func (r *Resilient) PutMute(ctx context.Context, rec MuteRecord) error {
	_, err := call(ctx, r, OpPutMute, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.PutMute(ctx, rec)
	})
	return err
}

func (r *Resilient) DeleteMute(ctx context.Context, muterID, mutedID string) error {
	_, err := call(ctx, r, OpDeleteMute, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.DeleteMute(ctx, muterID, mutedID)
	})
	return err
}

func (r *Resilient) PurgeExpiredMutes(ctx context.Context, now time.Time) (int, error) {
	return call(ctx, r, OpPurgeExpiredMutes, nil, func(ctx context.Context) (int, error) {
		return r.next.PurgeExpiredMutes(ctx, now)
	})
}
