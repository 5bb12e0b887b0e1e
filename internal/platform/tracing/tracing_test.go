package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabled(t *testing.T) {
	tracer, shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid(), "disabled tracing records nothing")
	span.End()

	assert.NotEmpty(t, otel.GetTextMapPropagator().Fields(), "propagator installed")
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitEnabledRequiresEndpoint(t *testing.T) {
	_, _, err := Init(context.Background(), Config{Enabled: true})
	assert.EqualError(t, err, "tracing endpoint is required when tracing is enabled")
}
