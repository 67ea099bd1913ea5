package xfeed

import (
	"errors"
	"fmt"

	"github.com/omeyang/quanta/pkg/social/xpage"
)

var (
	// ErrInvalidArgument 请求参数不合法：页大小 <= 0 或超出上限、viewer 为空等。
	// 同时匹配 xpage.ErrInvalidArgument。
	ErrInvalidArgument = fmt.Errorf("xfeed: %w", xpage.ErrInvalidArgument)

	// ErrAlreadyLoading 同一范围已有请求在进行中，调用方应忽略或稍后重试。
	ErrAlreadyLoading = xpage.ErrAlreadyLoading

	// ErrInvalidConfig 配置不合法。
	ErrInvalidConfig = errors.New("xfeed: invalid config")

	// ErrPageDiscarded 加载期间范围被重置，本次结果已丢弃。
	ErrPageDiscarded = errors.New("xfeed: page discarded after reset")
)
