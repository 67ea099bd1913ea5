package xctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerID(t *testing.T) {
	ctx, err := WithViewerID(context.Background(), "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", ViewerID(ctx))

	v, err := RequireViewerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", v)

	_, err = RequireViewerID(context.Background())
	assert.ErrorIs(t, err, ErrMissingViewerID)
}

func TestNilContext(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 处理
	_, err := WithViewerID(nil, "v")
	assert.ErrorIs(t, err, ErrNilContext)
	//nolint:staticcheck // 同上
	_, err = EnsureRequestID(nil)
	assert.ErrorIs(t, err, ErrNilContext)
	//nolint:staticcheck // 同上
	assert.Empty(t, ViewerID(nil))
	//nolint:staticcheck // 同上
	assert.Nil(t, Attrs(nil))
}

func TestEnsureRequestID(t *testing.T) {
	ctx, err := EnsureRequestID(context.Background())
	require.NoError(t, err)

	id := RequestID(ctx)
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	again, err := EnsureRequestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, RequestID(again), "existing request id must be kept")

	_, err = RequireRequestID(context.Background())
	assert.ErrorIs(t, err, ErrMissingRequestID)
}

func TestAttrs(t *testing.T) {
	assert.Nil(t, Attrs(context.Background()))

	ctx, _ := WithViewerID(context.Background(), "v1")
	ctx, _ = WithRequestID(ctx, "r1")

	attrs := Attrs(ctx)
	require.Len(t, attrs, 2)
	assert.Equal(t, slog.String(KeyViewerID, "v1"), attrs[0])
	assert.Equal(t, slog.String(KeyRequestID, "r1"), attrs[1])
}
