// Package core wires the Source Acquirer, Call Graph Builder, Coverage
// Analyzer, Diff Parser, and Impact Analyzer into the operations the
// outer shell consumes. Engine is the entry point every cmd/testintel
// command dispatches through: dispatch, flag parsing, and output
// formatting are consumers of this package, never part of it.
package core

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/cache"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/callgraph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/config"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/coverage"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/diffparse"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/impact"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/observability"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

// Engine is the static-analysis core's facade: one sealed call graph per
// resolved workspace, shared across every query the caller issues against
// it. It owns the cache, the builder, and the observability providers;
// callers never touch the pipeline packages directly.
type Engine struct {
	cfg     *config.Config
	builder *callgraph.Builder
	cache   *cache.Cache
	obs     observability.Providers

	mu        sync.RWMutex
	snapshots map[string]*boundWorkspace // keyed by workspace fingerprint.
}

// boundWorkspace pairs a resolved snapshot with the graph built from it
// and the coverage analyzer sharing that graph's path cache across
// queries.
type boundWorkspace struct {
	snapshot *workspace.WorkspaceSnapshot
	graph    *graph.MethodCallGraph
	diag     callgraph.BuildDiagnostics
	analyzer *coverage.Analyzer
}

// New creates an Engine from cfg. obs may be the zero Providers{} (no
// metrics, nil logger guarded by observability's nil-receiver methods).
func New(cfg *config.Config, obs observability.Providers) (*Engine, error) {
	var opts []cache.Option
	if cfg.Cache.MemoryEntries > 0 {
		opts = append(opts, cache.WithMemoryEntries(cfg.Cache.MemoryEntries))
	}

	if cfg.Cache.Enabled && cfg.Cache.Directory != "" {
		opts = append(opts, cache.WithDiskRoot(cfg.Cache.Directory))
	}

	if cfg.Cache.ByteBudget > 0 {
		opts = append(opts, cache.WithByteBudget(cfg.Cache.ByteBudget))
	}

	c := cache.New(opts...)

	builder, err := callgraph.NewBuilder(cfg.Classifier.TestAttributes,
		callgraph.WithWorkers(cfg.Concurrency.MaxWorkers),
		callgraph.WithMethodCache(c),
	)
	if err != nil {
		return nil, fmt.Errorf("create call graph builder: %w", err)
	}

	return &Engine{
		cfg:       cfg,
		builder:   builder,
		cache:     c,
		obs:       obs,
		snapshots: make(map[string]*boundWorkspace),
	}, nil
}

// graphCacheKeyPrefix namespaces serialized whole-workspace graphs in
// the two-tier cache, keyed by workspace fingerprint.
const graphCacheKeyPrefix = "graph/"

// scopedBuildFileThreshold is the workspace size above which seeded
// queries use a scoped build instead of parsing the whole workspace.
// Below it a full build is cheap and its graph is reusable by every
// later query, so full wins.
const scopedBuildFileThreshold = 200

// resolveAndBuild resolves input into a workspace and returns it bound to
// its full call graph: from the in-process fingerprint map if the
// workspace is unchanged, from the two-tier cache if a previous run
// serialized the same fingerprint, and by a fresh bounded-timeout build
// otherwise.
func (e *Engine) resolveAndBuild(ctx context.Context, input string) (*boundWorkspace, error) {
	snap, err := workspace.Resolve(input)
	if err != nil {
		return nil, err
	}

	return e.bindFull(ctx, snap)
}

// resolveForQuery resolves input for a seeded query (find-tests, trace).
// A bound or cached full graph is always preferred; otherwise large
// workspaces get a query-local scoped build expanded from seeds, and
// small ones a full build that later queries reuse. queryDepth is the
// query's own BFS bound — the scoped expansion must reach at least that
// far or the build would truncate paths the search is still allowed to
// find.
func (e *Engine) resolveForQuery(ctx context.Context, input string, seeds []methodid.ID, queryDepth int) (*boundWorkspace, error) {
	snap, err := workspace.Resolve(input)
	if err != nil {
		return nil, err
	}

	if bound := e.lookupBound(ctx, snap); bound != nil {
		return bound, nil
	}

	if len(snap.Files) < scopedBuildFileThreshold || len(seeds) == 0 {
		return e.bindFull(ctx, snap)
	}

	depth := max(e.cfg.Bounds.MaxExpansionDepth, queryDepth)

	g, diag, err := e.builder.BuildScoped(ctx, snap, seeds, depth)
	if err != nil {
		return nil, err
	}

	// Scoped graphs are partial by construction: they are neither bound
	// to the fingerprint nor written to the cache.
	return &boundWorkspace{snapshot: snap, graph: g, diag: diag, analyzer: coverage.NewAnalyzer(g)}, nil
}

// lookupBound returns the full graph bound to snap's fingerprint, from
// the in-process map or the two-tier cache, or nil when neither has it.
func (e *Engine) lookupBound(ctx context.Context, snap *workspace.WorkspaceSnapshot) *boundWorkspace {
	e.mu.RLock()
	bound, ok := e.snapshots[snap.Fingerprint]
	e.mu.RUnlock()

	if ok {
		return bound
	}

	if bound = e.loadCachedGraph(ctx, snap); bound != nil {
		e.mu.Lock()
		e.snapshots[snap.Fingerprint] = bound
		e.mu.Unlock()

		return bound
	}

	return nil
}

func (e *Engine) bindFull(ctx context.Context, snap *workspace.WorkspaceSnapshot) (*boundWorkspace, error) {
	if bound := e.lookupBound(ctx, snap); bound != nil {
		return bound, nil
	}

	bound, err := e.buildAndCache(ctx, snap)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.snapshots[snap.Fingerprint] = bound
	e.mu.Unlock()

	return bound, nil
}

func (e *Engine) loadCachedGraph(ctx context.Context, snap *workspace.WorkspaceSnapshot) *boundWorkspace {
	payload, tier, ok := e.cache.Get(graphCacheKeyPrefix + snap.Fingerprint)
	if !ok {
		e.obs.Metrics.RecordCacheMiss(ctx)

		return nil
	}

	g, diag, err := decodeGraphEnvelope(payload)
	if err != nil {
		// Treated as a miss; the entry is rewritten after the rebuild.
		e.obs.Metrics.RecordCacheMiss(ctx)

		return nil
	}

	e.obs.Metrics.RecordCacheHit(ctx, tierName(tier))

	return &boundWorkspace{snapshot: snap, graph: g, diag: diag, analyzer: coverage.NewAnalyzer(g)}
}

func (e *Engine) buildAndCache(ctx context.Context, snap *workspace.WorkspaceSnapshot) (*boundWorkspace, error) {
	timeout := e.cfg.Bounds.BuildTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	buildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	g, diag, err := e.builder.Build(buildCtx, snap)
	if err != nil {
		return nil, err
	}

	e.obs.Metrics.RecordBuild(ctx, time.Since(start))

	if payload, encErr := encodeGraphEnvelope(g, diag); encErr == nil {
		_ = e.cache.Set(graphCacheKeyPrefix+snap.Fingerprint, payload, 0)
	}

	return &boundWorkspace{snapshot: snap, graph: g, diag: diag, analyzer: coverage.NewAnalyzer(g)}, nil
}

// encodeGraphEnvelope prefixes the graph's deterministic serialization
// with the build diagnostics so a cache hit restores both.
func encodeGraphEnvelope(g *graph.MethodCallGraph, diag callgraph.BuildDiagnostics) ([]byte, error) {
	body, err := g.MarshalBinary()
	if err != nil {
		return nil, err
	}

	head := make([]byte, 20)
	binary.LittleEndian.PutUint32(head[0:], uint32(diag.FilesParsed))
	binary.LittleEndian.PutUint32(head[4:], uint32(diag.FilesSkipped))
	binary.LittleEndian.PutUint32(head[8:], uint32(diag.MethodCacheHits))
	binary.LittleEndian.PutUint32(head[12:], uint32(diag.MethodsIndexed))
	binary.LittleEndian.PutUint32(head[16:], uint32(diag.UnresolvedCalls))

	return append(head, body...), nil
}

func decodeGraphEnvelope(payload []byte) (*graph.MethodCallGraph, callgraph.BuildDiagnostics, error) {
	var diag callgraph.BuildDiagnostics

	if len(payload) < 20 {
		return nil, diag, graph.ErrCorruptGraph
	}

	diag.FilesParsed = int(binary.LittleEndian.Uint32(payload[0:]))
	diag.FilesSkipped = int(binary.LittleEndian.Uint32(payload[4:]))
	diag.MethodCacheHits = int(binary.LittleEndian.Uint32(payload[8:]))
	diag.MethodsIndexed = int(binary.LittleEndian.Uint32(payload[12:]))
	diag.UnresolvedCalls = int(binary.LittleEndian.Uint32(payload[16:]))

	g, err := graph.UnmarshalBinary(payload[20:])
	if err != nil {
		return nil, diag, err
	}

	return g, diag, nil
}

func tierName(t cache.Tier) string {
	if t == cache.TierDisk {
		return "disk"
	}

	return "memory"
}

// AnalysisReport is the result of Analyze: every discovered method,
// grouped by whether the Method Classifier flagged it as a test.
type AnalysisReport struct {
	Workspace         string                 `json:"workspace"`
	TotalMethods      int                    `json:"totalMethods"`
	TestMethods       int                    `json:"testMethods"`
	ProductionMethods int                    `json:"productionMethods"`
	ByTestType        map[string]int         `json:"byTestType"`
	Diagnostics       BuildDiagnosticsReport `json:"diagnostics"`
}

// BuildDiagnosticsReport mirrors callgraph.BuildDiagnostics for JSON
// output.
type BuildDiagnosticsReport struct {
	FilesParsed     int `json:"filesParsed"`
	FilesSkipped    int `json:"filesSkipped"`
	MethodCacheHits int `json:"methodCacheHits"`
	MethodsIndexed  int `json:"methodsIndexed"`
	UnresolvedCalls int `json:"unresolvedCalls"`
}

// Analyze resolves workspace, builds its call graph, and categorizes
// every discovered method.
func (e *Engine) Analyze(ctx context.Context, workspaceInput string) (*AnalysisReport, error) {
	bound, err := e.resolveAndBuild(ctx, workspaceInput)
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		Workspace:  bound.snapshot.Root.Path,
		ByTestType: make(map[string]int),
		Diagnostics: BuildDiagnosticsReport{
			FilesParsed:     bound.diag.FilesParsed,
			FilesSkipped:    bound.diag.FilesSkipped,
			MethodCacheHits: bound.diag.MethodCacheHits,
			MethodsIndexed:  bound.diag.MethodsIndexed,
			UnresolvedCalls: bound.diag.UnresolvedCalls,
		},
	}

	for i := 0; i < bound.graph.NodeCount(); i++ {
		n := bound.graph.Node(int32(i))

		report.TotalMethods++

		if n.IsTest {
			report.TestMethods++
			report.ByTestType[string(n.TestType)]++

			continue
		}

		report.ProductionMethods++
	}

	return report, nil
}

// CallGraphDigest summarizes a built call graph without serializing every
// node: counts plus a small sample of entries.
type CallGraphDigest struct {
	NodeCount       int              `json:"nodeCount"`
	EdgeCount       int              `json:"edgeCount"`
	UnresolvedCalls int              `json:"unresolvedCalls"`
	Sample          []CallGraphEntry `json:"sample"`
}

// CallGraphEntry is one sampled node in a CallGraphDigest.
type CallGraphEntry struct {
	MethodID string `json:"methodId"`
	IsTest   bool   `json:"isTest"`
	Callees  int    `json:"callees"`
	Callers  int    `json:"callers"`
}

// BuildCallGraph resolves workspace, builds its call graph, and returns a
// digest. maxMethods bounds the sample size; 0 means "use the default of
// 20".
func (e *Engine) BuildCallGraph(ctx context.Context, workspaceInput string, maxMethods int) (*CallGraphDigest, error) {
	bound, err := e.resolveAndBuild(ctx, workspaceInput)
	if err != nil {
		return nil, err
	}

	if maxMethods <= 0 {
		maxMethods = 20
	}

	digest := &CallGraphDigest{
		NodeCount:       bound.graph.NodeCount(),
		UnresolvedCalls: bound.graph.UnresolvedCalls(),
	}

	for i := 0; i < bound.graph.NodeCount(); i++ {
		digest.EdgeCount += len(bound.graph.ForwardNeighbors(int32(i)))

		if len(digest.Sample) >= maxMethods {
			continue
		}

		n := bound.graph.Node(int32(i))
		digest.Sample = append(digest.Sample, CallGraphEntry{
			MethodID: n.ID.String(),
			IsTest:   n.IsTest,
			Callees:  len(bound.graph.ForwardNeighbors(int32(i))),
			Callers:  len(bound.graph.ReverseNeighbors(int32(i))),
		})
	}

	return digest, nil
}

// FindTests resolves workspace, builds its call graph, and returns the
// Coverage Analyzer's streaming reverse lookup for pattern. The search's
// Results channel is closed once it completes or ctx is cancelled;
// Diagnostics is readable after that.
func (e *Engine) FindTests(ctx context.Context, workspaceInput, pattern string) (*coverage.TestSearch, error) {
	bound, err := e.resolveForQuery(ctx, workspaceInput, []methodid.ID{methodid.New(pattern)}, e.cfg.Bounds.MaxPathDepth)
	if err != nil {
		return nil, err
	}

	bounds := coverage.Bounds{MaxDepth: e.cfg.Bounds.MaxPathDepth, MaxVisited: e.cfg.Bounds.MaxVisitedNodes}

	return bound.analyzer.FindTests(ctx, pattern, bounds)
}

// TraceExecution resolves workspace, builds its call graph, and returns
// the forward execution trace from testID.
func (e *Engine) TraceExecution(ctx context.Context, workspaceInput, testID string, maxDepth int) (*coverage.ExecutionTrace, error) {
	if maxDepth <= 0 {
		maxDepth = coverage.DefaultTraceMaxDepth
	}

	bound, err := e.resolveForQuery(ctx, workspaceInput, []methodid.ID{methodid.New(testID)}, maxDepth)
	if err != nil {
		return nil, err
	}

	bounds := coverage.Bounds{MaxDepth: maxDepth, MaxVisited: e.cfg.Bounds.MaxVisitedNodes}

	trace, err := bound.analyzer.Trace(ctx, methodid.New(testID), bounds)
	if err != nil {
		return nil, err
	}

	e.obs.Metrics.RecordBFSVisit(ctx, "trace", trace.Diagnostics.VisitedNodes)

	return trace, nil
}

// ConfidenceLevel selects the (time budget, reverse-expansion depth) preset diff_impact
// runs under, trading completeness for latency.
type ConfidenceLevel string

const (
	ConfidenceFast   ConfidenceLevel = "Fast"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceFull   ConfidenceLevel = "Full"
)

// fullExpansionDepth is effectively unbounded: no workspace call chain
// approaches it, so the Full preset's reverse closure reaches every
// transitive caller in the graph.
const fullExpansionDepth = 1 << 20

// confidencePreset is the (build timeout, reverse-expansion depth) tuple
// a ConfidenceLevel maps to.
type confidencePreset struct {
	timeout           time.Duration
	maxExpansionDepth int
}

var confidencePresets = map[ConfidenceLevel]confidencePreset{
	ConfidenceFast:   {timeout: 15 * time.Second, maxExpansionDepth: 4},
	ConfidenceMedium: {timeout: 45 * time.Second, maxExpansionDepth: 10},
	ConfidenceHigh:   {timeout: 2 * time.Minute, maxExpansionDepth: 20},
	ConfidenceFull:   {timeout: 10 * time.Minute, maxExpansionDepth: fullExpansionDepth},
}

func presetFor(level ConfidenceLevel) confidencePreset {
	if p, ok := confidencePresets[level]; ok {
		return p
	}

	return confidencePresets[ConfidenceMedium]
}

// ImpactedTest is one (test, reason) pair in a diff_impact result.
type ImpactedTest struct {
	TestID   string                  `json:"testId"`
	Coverage []coverage.CoverageInfo `json:"coverage"`
}

// DiffImpact parses diffSource (literal diff text), builds the workspace
// call graph, and returns every test the Impact Analyzer believes may be
// affected, at the given confidence level.
func (e *Engine) DiffImpact(ctx context.Context, workspaceInput, diffSource string, level ConfidenceLevel) ([]ImpactedTest, impact.Diagnostics, error) {
	preset := presetFor(level)

	ctx, cancel := context.WithTimeout(ctx, preset.timeout)
	defer cancel()

	bound, err := e.resolveAndBuild(ctx, workspaceInput)
	if err != nil {
		return nil, impact.Diagnostics{}, err
	}

	diff, err := diffparse.ParseText(diffSource)
	if err != nil {
		return nil, impact.Diagnostics{}, fmt.Errorf("parse diff: %w", err)
	}

	analyzer := impact.New(bound.graph, preset.maxExpansionDepth)

	report, err := analyzer.Analyze(ctx, diff)
	if err != nil {
		return nil, impact.Diagnostics{}, err
	}

	impacted := make([]ImpactedTest, 0, len(report.AffectedTests))
	for _, at := range report.AffectedTests {
		impacted = append(impacted, ImpactedTest{TestID: at.TestID.String(), Coverage: at.Coverage})
	}

	return impacted, report.Diagnostics, nil
}

// CoverageReport is the result of AnalyzeCoverage: for each requested
// test, which of the diff's changed methods it actually covers.
type CoverageReport struct {
	Tests []TestCoverageEntry `json:"tests"`
}

// TestCoverageEntry is one test's coverage of the diff's changed methods.
type TestCoverageEntry struct {
	TestID string                  `json:"testId"`
	Covers []coverage.CoverageInfo `json:"covers"`
}

// AnalyzeCoverage resolves workspace, parses diffSource, and reports
// which of testIDs reach which of the diff's changed methods.
func (e *Engine) AnalyzeCoverage(ctx context.Context, workspaceInput string, testIDs []string, diffSource string) (*CoverageReport, error) {
	bound, err := e.resolveAndBuild(ctx, workspaceInput)
	if err != nil {
		return nil, err
	}

	diff, err := diffparse.ParseText(diffSource)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	impactAnalyzer := impact.New(bound.graph, e.cfg.Bounds.MaxExpansionDepth)

	changedReport, err := impactAnalyzer.Analyze(ctx, diff)
	if err != nil {
		return nil, err
	}

	bounds := coverage.Bounds{MaxDepth: e.cfg.Bounds.MaxPathDepth, MaxVisited: e.cfg.Bounds.MaxVisitedNodes}

	report := &CoverageReport{}

	for _, rawID := range testIDs {
		testID := methodid.New(rawID)

		entry := TestCoverageEntry{TestID: rawID}

		for _, changed := range changedReport.ChangedMethods {
			if info, ok := bound.analyzer.PathTo(ctx, testID, changed, bounds); ok {
				entry.Covers = append(entry.Covers, info)
			}
		}

		report.Tests = append(report.Tests, entry)
	}

	return report, nil
}

// CacheAction identifies a cache(workspace, action) operation.
type CacheAction string

const (
	CacheStatus CacheAction = "status"
	CacheClear  CacheAction = "clear"
	CacheInit   CacheAction = "init"
	CacheWarmUp CacheAction = "warm-up"
	CacheStats  CacheAction = "stats"
)

// CacheReport is the result of Cache.
type CacheReport struct {
	Action CacheAction `json:"action"`
	Stats  cache.Stats `json:"stats"`
}

// Cache runs action against the Engine's two-tier cache. "init" and
// "warm-up" both resolve and build the workspace's call graph (priming
// the bound-workspace map and storing the serialized graph in the
// two-tier cache); "clear"
// additionally evicts every Tier 1/Tier 2 payload and the bound-workspace
// entry for this workspace's fingerprint.
func (e *Engine) Cache(ctx context.Context, workspaceInput string, action CacheAction) (*CacheReport, error) {
	switch action {
	case CacheInit, CacheWarmUp:
		if _, err := e.resolveAndBuild(ctx, workspaceInput); err != nil {
			return nil, err
		}
	case CacheClear:
		if err := e.cache.Clear(); err != nil {
			return nil, tierrors.Wrap(tierrors.Internal, "clear cache", err)
		}

		snap, err := workspace.Resolve(workspaceInput)
		if err == nil {
			e.mu.Lock()
			delete(e.snapshots, snap.Fingerprint)
			e.mu.Unlock()
		}
	case CacheStatus, CacheStats:
		// No mutation; Stats below reflects current state either way.
	default:
		return nil, tierrors.New(tierrors.Internal, fmt.Sprintf("unknown cache action %q", action))
	}

	return &CacheReport{Action: action, Stats: e.cache.Stats()}, nil
}
