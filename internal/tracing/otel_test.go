package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitEnabledInstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := Init(Config{
		ServiceName:    "graylog-relay",
		ServiceVersion: "test",
		Environment:    "test",
		Enabled:        true,
	})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	_, span := Start(context.Background(), "webhook.process", trace.SpanKindInternal)
	End(span, nil)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartEndRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "graylog.search", trace.SpanKindClient, attribute.String("query", "Code:1"))
	End(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "graylog.search", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("query", "Code:1"))
}
