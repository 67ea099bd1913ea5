package storageopt

import (
	"context"
	"sync/atomic"
	"time"
)

// SlowQueryHook 慢查询回调，在请求路径上同步执行，须保持轻量。
type SlowQueryHook[T any] func(ctx context.Context, info T, d time.Duration)

// SlowQueryDetector 按阈值检测慢操作并计数。
// 零值可用，此时检测关闭。
type SlowQueryDetector[T any] struct {
	threshold time.Duration
	hook      SlowQueryHook[T]
	count     atomic.Int64
}

// NewSlowQueryDetector 创建检测器。threshold <= 0 时禁用检测。
func NewSlowQueryDetector[T any](threshold time.Duration, hook SlowQueryHook[T]) *SlowQueryDetector[T] {
	return &SlowQueryDetector[T]{threshold: threshold, hook: hook}
}

// Observe 在 d >= 阈值时计数并调用钩子，返回是否判定为慢操作。
func (s *SlowQueryDetector[T]) Observe(ctx context.Context, info T, d time.Duration) bool {
	if s == nil || s.threshold <= 0 || d < s.threshold {
		return false
	}
	s.count.Add(1)
	if s.hook != nil {
		s.hook(ctx, info, d)
	}
	return true
}

// Count 返回已检测到的慢操作次数。
func (s *SlowQueryDetector[T]) Count() int64 {
	if s == nil {
		return 0
	}
	return s.count.Load()
}
