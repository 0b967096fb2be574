package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHitsTotal   = "testintel.cache.hits.total"
	metricCacheMissesTotal = "testintel.cache.misses.total"
	metricBFSNodesVisited  = "testintel.bfs.nodes_visited"
	metricParseDuration    = "testintel.parse.duration.seconds"
	metricBuildDuration    = "testintel.build.duration.seconds"

	attrTier = "tier"
	attrOp   = "op"
)

// durationBucketBoundaries covers 1ms to 180s: single-file parses sit at
// the low end, full-solution graph builds at the high end.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 180}

// Metrics holds the OTel instruments the analysis core records against.
type Metrics struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	bfsNodeVisits metric.Int64Histogram
	parseDuration metric.Float64Histogram
	buildDuration metric.Float64Histogram
}

// NewMetrics creates the core's metric instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Cache hits by tier"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	visits, err := mt.Int64Histogram(metricBFSNodesVisited,
		metric.WithDescription("Nodes visited per bounded BFS search"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBFSNodesVisited, err)
	}

	parseDur, err := mt.Float64Histogram(metricParseDuration,
		metric.WithDescription("Per-file parse duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricParseDuration, err)
	}

	buildDur, err := mt.Float64Histogram(metricBuildDuration,
		metric.WithDescription("Call graph build duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBuildDuration, err)
	}

	return &Metrics{
		cacheHits:     hits,
		cacheMisses:   misses,
		bfsNodeVisits: visits,
		parseDuration: parseDur,
		buildDuration: buildDur,
	}, nil
}

// RecordCacheHit records a cache hit at the given tier ("memory" or "disk").
// Safe to call on a nil receiver (no-op), so callers need not guard every
// call site when metrics are disabled.
func (m *Metrics) RecordCacheHit(ctx context.Context, tier string) {
	if m == nil {
		return
	}

	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTier, tier)))
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}

	m.cacheMisses.Add(ctx, 1)
}

// RecordBFSVisit records how many nodes a single bounded BFS search
// visited.
func (m *Metrics) RecordBFSVisit(ctx context.Context, op string, visited int) {
	if m == nil {
		return
	}

	m.bfsNodeVisits.Record(ctx, int64(visited), metric.WithAttributes(attribute.String(attrOp, op)))
}

// RecordParse records a single file's parse duration.
func (m *Metrics) RecordParse(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}

	m.parseDuration.Record(ctx, d.Seconds())
}

// RecordBuild records a full call graph build's duration.
func (m *Metrics) RecordBuild(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}

	m.buildDuration.Record(ctx, d.Seconds())
}
