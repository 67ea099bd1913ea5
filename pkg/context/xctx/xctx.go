package xctx

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const (
	keyViewerID  contextKey = "viewer_id"
	keyRequestID contextKey = "request_id"
)

// 日志属性 Key 常量。
const (
	KeyViewerID  = "viewer_id"
	KeyRequestID = "request_id"
)

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingViewerID viewer_id 缺失
	ErrMissingViewerID = errors.New("xctx: missing viewer_id")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")
)

// WithViewerID 将当前浏览者 ID 注入 context。
func WithViewerID(ctx context.Context, viewerID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyViewerID, viewerID), nil
}

// ViewerID 从 context 读取浏览者 ID，不存在时返回空字符串。
func ViewerID(ctx context.Context) string {
	return stringValue(ctx, keyViewerID)
}

// RequireViewerID 从 context 获取浏览者 ID，不存在则返回错误。
func RequireViewerID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := ViewerID(ctx)
	if v == "" {
		return "", ErrMissingViewerID
	}
	return v, nil
}

// WithRequestID 将请求 ID 注入 context。
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRequestID, requestID), nil
}

// RequestID 从 context 读取请求 ID，不存在时返回空字符串。
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

// RequireRequestID 从 context 获取请求 ID，不存在则返回错误。
func RequireRequestID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := RequestID(ctx)
	if v == "" {
		return "", ErrMissingRequestID
	}
	return v, nil
}

// EnsureRequestID 确保 context 中存在请求 ID。
// 已存在时原样返回，否则生成 UUIDv7 并注入。
func EnsureRequestID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if RequestID(ctx) != "" {
		return ctx, nil
	}
	return WithRequestID(ctx, NewRequestID())
}

// NewRequestID 生成新的请求 ID。
// 优先使用按时间有序的 UUIDv7，失败时退回随机 UUIDv4。
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
