package tracing

import (
	"bytes"
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
)

func TestStartEnd_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := NewProvider(Config{Job: "ev", RunID: "r1"}, sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, good := Start(context.Background(), "impute", attribute.Int("rows", 3))
	End(good, nil)
	_, bad := Start(context.Background(), "load")
	End(bad, errors.New("db down"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "evstar.impute", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("rows", 3))

	assert.Equal(t, "evstar.load", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "db down", spans[1].Status().Description)

	runID, found := spans[0].Resource().Set().Value("evstar.run_id")
	require.True(t, found)
	assert.Equal(t, "r1", runID.AsString())
}

func TestSetup(t *testing.T) {
	shutdown, err := Setup(Config{Exporter: "none"}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = Setup(Config{Exporter: "otlp"}, nil)
	assert.Error(t, err)

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err = Setup(Config{Exporter: "stdout", Job: "ev"}, &buf)
	require.NoError(t, err)
	_, span := Start(context.Background(), "model")
	End(span, nil)
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "evstar.model")
}
