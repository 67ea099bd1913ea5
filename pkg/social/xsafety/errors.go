package xsafety

import "errors"

var (
	// ErrInvalidArgument ID 为空、对自己操作或静音时长为负。
	ErrInvalidArgument = errors.New("xsafety: invalid argument")

	// ErrInvalidConfig 配置不合法。
	ErrInvalidConfig = errors.New("xsafety: invalid config")
)
