package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrOpenState 熔断器处于 Open 状态
	ErrOpenState = gobreaker.ErrOpenState

	// ErrTooManyRequests HalfOpen 状态下请求过多
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// BreakerError 熔断器拒绝执行时返回的错误。
//
// 实现 Retryable() 返回 false，与 xretry 组合使用时不会被重试。
type BreakerError struct {
	Name  string
	State State
	Err   error
}

func (e *BreakerError) Error() string {
	return fmt.Sprintf("xbreaker: %s is %s: %v", e.Name, e.State, e.Err)
}

func (e *BreakerError) Unwrap() error {
	return e.Err
}

// Retryable 熔断拒绝不应重试。
func (e *BreakerError) Retryable() bool {
	return false
}

// IsBreakerOpen 判断错误是否由熔断器拒绝引起。
func IsBreakerOpen(err error) bool {
	return errors.Is(err, ErrOpenState) || errors.Is(err, ErrTooManyRequests)
}

func wrapBreakerError(err error, name string, state State) error {
	if err == nil {
		return nil
	}
	if IsBreakerOpen(err) {
		return &BreakerError{Name: name, State: state, Err: err}
	}
	return err
}
