package xmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestProviders(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader, Observer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)
	return exporter, reader, obs
}

func TestOTelObserver_RecordsSpanAndMetrics(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	_, span := Start(context.Background(), obs, SpanOptions{
		Component: "xfeed",
		Operation: "next_page",
		Attrs:     []Attr{String("viewer_id", "v1"), Int("page_size", 20)},
	})
	span.End(Result{Attrs: []Attr{Bool("has_more", true)}})
	span.End(Result{}) // 幂等

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xfeed.next_page", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	var total int64
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == metricOperationTotal {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}

func TestOTelObserver_ErrorStatus(t *testing.T) {
	exporter, _, obs := newTestProviders(t)

	_, span := Start(context.Background(), obs, SpanOptions{Component: "xstore", Operation: "fetch", Kind: KindClient})
	span.End(Result{Err: errors.New("upstream down")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "upstream down", spans[0].Status.Description)
}

func TestStart_NilObserver(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 兜底
	ctx, span := Start(nil, nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
	span.End(Result{})

	_, span = Start(context.Background(), NoopObserver{}, SpanOptions{})
	assert.IsType(t, NoopSpan{}, span)
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: errors.New("x")}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: errors.New("x")}))
}
