package xretry

import (
	"math"
	"math/rand/v2"
	"time"
)

// ExponentialBackoff 指数退避策略
// delay = min(initial * 2^(attempt-1), max) * (1 ± jitter)
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  float64
}

// DefaultBackoff 返回默认退避：50ms 起步，上限 1s，抖动 20%。
func DefaultBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		Initial: 50 * time.Millisecond,
		Max:     time.Second,
		Jitter:  0.2,
	}
}

// NextDelay 返回第 attempt 次重试前的等待时间（attempt 从 1 开始）。
func (b ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.Initial <= 0 {
		return 0
	}
	d := float64(b.Initial) * math.Pow(2, float64(attempt-1))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		j := min(b.Jitter, 1)
		d *= 1 + (rand.Float64()*2-1)*j //nolint:gosec // 退避抖动无需加密随机数
	}
	return time.Duration(d)
}
