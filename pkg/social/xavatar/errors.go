package xavatar

import "errors"

var (
	// ErrInvalidConfig 缓存配置不合法。
	ErrInvalidConfig = errors.New("xavatar: invalid config")

	// ErrNoSource 未配置后端数据源，无法回源加载。
	ErrNoSource = errors.New("xavatar: no source configured")
)
