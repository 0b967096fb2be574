package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "testintel"

// Config configures observability initialization.
type Config struct {
	ServiceName        string
	LogFormat          string // "json" or "text".
	LogLevel           string // slog level name.
	MetricsEnabled     bool
	PrometheusRegistry *prometheus.Registry // nil creates a fresh prometheus.Registry.
}

// Providers holds the initialized observability surface.
type Providers struct {
	Logger  *slog.Logger
	Meter   metric.Meter
	Metrics *Metrics

	// Handler serves the Prometheus scrape endpoint; nil when metrics are
	// disabled.
	Handler http.Handler
}

// Init wires structured logging and, when enabled, an OTel meter backed by
// a Prometheus exporter. With MetricsEnabled false, a no-op meter is used
// so instrument creation still succeeds but nothing is recorded.
func Init(cfg Config) (Providers, error) {
	logger := NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.ServiceName)

	if !cfg.MetricsEnabled {
		mt := noopmetric.NewMeterProvider().Meter(meterName)

		metrics, err := NewMetrics(mt)
		if err != nil {
			return Providers{}, fmt.Errorf("create noop metrics: %w", err)
		}

		return Providers{Logger: logger, Meter: mt, Metrics: metrics}, nil
	}

	registry := cfg.PrometheusRegistry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return Providers{}, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	mt := mp.Meter(meterName)

	metrics, err := NewMetrics(mt)
	if err != nil {
		return Providers{}, fmt.Errorf("create metrics: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return Providers{Logger: logger, Meter: mt, Metrics: metrics, Handler: handler}, nil
}

// Shutdown is a no-op placeholder kept symmetrical with Init for callers
// that defer a shutdown unconditionally; the Prometheus exporter has
// nothing to flush (scrapes pull, they are not pushed).
func (p Providers) Shutdown(_ context.Context) error {
	return nil
}
