package xsession

import "errors"

var (
	// ErrInvalidConfig 配置值超出允许范围。
	ErrInvalidConfig = errors.New("xsession: invalid config")

	// ErrClosed 会话已关闭。
	ErrClosed = errors.New("xsession: session closed")
)
