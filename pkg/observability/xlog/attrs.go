package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/quanta/pkg/context/xctx"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyViewerID  = xctx.KeyViewerID
	KeyAvatarID  = "avatar_id"
	KeyAuthorID  = "author_id"
	KeyScope     = "scope"
	KeyOffset    = "offset"
	KeyPageSize  = "page_size"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Count 创建计数属性
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// ViewerID 创建浏览者 ID 属性
func ViewerID(id string) slog.Attr {
	return slog.String(KeyViewerID, id)
}

// AvatarID 创建 avatar ID 属性
func AvatarID(id string) slog.Attr {
	return slog.String(KeyAvatarID, id)
}

// AuthorID 创建作者 ID 属性
func AuthorID(id string) slog.Attr {
	return slog.String(KeyAuthorID, id)
}

// Scope 创建分页范围属性
func Scope(s string) slog.Attr {
	return slog.String(KeyScope, s)
}

// Offset 创建偏移量属性
func Offset(n int) slog.Attr {
	return slog.Int(KeyOffset, n)
}

// PageSize 创建页大小属性
func PageSize(n int) slog.Attr {
	return slog.Int(KeyPageSize, n)
}
