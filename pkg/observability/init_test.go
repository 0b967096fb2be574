package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/observability"
)

func TestInit_MetricsDisabledUsesNoopMeter(t *testing.T) {
	providers, err := observability.Init(observability.Config{ServiceName: "testintel", LogFormat: "json", LogLevel: "info"})
	require.NoError(t, err)

	assert.NotNil(t, providers.Logger)
	assert.NotNil(t, providers.Metrics)
	assert.Nil(t, providers.Handler)

	providers.Metrics.RecordCacheHit(context.Background(), "memory")
}

func TestInit_MetricsEnabledExposesPrometheusHandler(t *testing.T) {
	registry := prometheus.NewRegistry()

	providers, err := observability.Init(observability.Config{
		ServiceName:        "testintel",
		LogFormat:          "text",
		LogLevel:           "debug",
		MetricsEnabled:     true,
		PrometheusRegistry: registry,
	})
	require.NoError(t, err)

	require.NotNil(t, providers.Handler)

	providers.Metrics.RecordCacheHit(context.Background(), "disk")
	providers.Metrics.RecordCacheMiss(context.Background())

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *observability.Metrics

	assert.NotPanics(t, func() {
		m.RecordCacheHit(context.Background(), "memory")
		m.RecordCacheMiss(context.Background())
		m.RecordBFSVisit(context.Background(), "find_tests", 42)
	})
}
