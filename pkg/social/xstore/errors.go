package xstore

import (
	"context"
	"errors"
)

var (
	// ErrUpstreamUnavailable 后端存储不可用（网络错误、超时、熔断）。
	// 调用方可以重试或降级到过期缓存。
	ErrUpstreamUnavailable = errors.New("xstore: upstream unavailable")

	// ErrNotFound 请求的资料或统计不存在。
	ErrNotFound = errors.New("xstore: not found")

	// ErrInvalidArgument 参数不合法（空 ID、负 offset 等）。
	ErrInvalidArgument = errors.New("xstore: invalid argument")
)

// IsUnavailable 判断错误是否表示后端暂时不可用。
// context 超时与取消也视为不可用。
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
