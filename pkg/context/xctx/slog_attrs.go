package xctx

import (
	"context"
	"log/slog"
)

// AppendAttrs 将 context 中的浏览者与请求信息追加到 attrs，只追加非空字段。
func AppendAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := ViewerID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyViewerID, v))
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	return attrs
}

// Attrs 从 context 提取日志属性，都为空时返回 nil。
func Attrs(ctx context.Context) []slog.Attr {
	attrs := AppendAttrs(make([]slog.Attr, 0, 2), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
