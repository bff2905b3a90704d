package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/roach88/eventc/internal/config"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Telemetry{Enabled: true, ServiceName: "eventc"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Telemetry{
		Endpoint:    "http://localhost:4318",
		ServiceName: "eventc",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	original := otel.GetTracerProvider()
	defer otel.SetTracerProvider(original)

	// Non-routable address so no export actually happens.
	shutdown, err := Setup(context.Background(), config.Telemetry{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "eventc-test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
