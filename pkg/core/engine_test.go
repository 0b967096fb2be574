package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/config"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/core"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/observability"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
)

const serviceSource = `
namespace App
{
    public class Calculator
    {
        public int Compute(int amount)
        {
            return Adjust(amount);
        }

        public int Adjust(int amount)
        {
            return amount + 1;
        }
    }
}
`

const calculatorTestSource = `
namespace App.Tests
{
    public class CalculatorTests
    {
        [Fact]
        public void ComputeReturnsAdjustedAmount()
        {
            var calc = new Calculator();
            calc.Compute(10);
        }
    }
}
`

func testConfig(t *testing.T, cacheDir string) *config.Config {
	t.Helper()

	return &config.Config{
		Bounds: config.BoundsConfig{
			MaxPathDepth:      12,
			MaxVisitedNodes:   2000,
			MaxExpansionDepth: 10,
		},
		Cache: config.CacheConfig{
			MemoryEntries: 64,
			Directory:     cacheDir,
			Enabled:       cacheDir != "",
		},
		Concurrency: config.ConcurrencyConfig{MaxWorkers: 2},
	}
}

func newTestEngine(t *testing.T) (*core.Engine, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Calculator.cs"), []byte(serviceSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CalculatorTests.cs"), []byte(calculatorTestSource), 0o644))

	providers, err := observability.Init(observability.Config{ServiceName: "testintel-test", LogFormat: "text", LogLevel: "error"})
	require.NoError(t, err)

	engine, err := core.New(testConfig(t, filepath.Join(dir, ".cache")), providers)
	require.NoError(t, err)

	return engine, dir
}

func TestAnalyze_ReportsTestAndProductionMethods(t *testing.T) {
	engine, dir := newTestEngine(t)

	report, err := engine.Analyze(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalMethods)
	assert.Equal(t, 1, report.TestMethods)
	assert.Equal(t, 2, report.ProductionMethods)
}

func TestBuildCallGraph_CountsEdgesAndSamplesNodes(t *testing.T) {
	engine, dir := newTestEngine(t)

	digest, err := engine.BuildCallGraph(context.Background(), dir, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, digest.NodeCount)
	assert.NotEmpty(t, digest.Sample)
}

func TestFindTests_StreamsCoverageForDirectCall(t *testing.T) {
	engine, dir := newTestEngine(t)

	search, err := engine.FindTests(context.Background(), dir, "Adjust")
	require.NoError(t, err)

	var results []string
	for info := range search.Results() {
		results = append(results, info.TestSimpleName)
	}

	assert.Contains(t, results, "ComputeReturnsAdjustedAmount")
	assert.False(t, search.Diagnostics().DepthLimitReached)
}

func TestFindTests_UnknownPatternFailsWithMethodNotFound(t *testing.T) {
	engine, dir := newTestEngine(t)

	_, err := engine.FindTests(context.Background(), dir, "No.Such.Method")

	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.MethodNotFound))
}

func TestAnalyze_SecondEngineReusesCachedGraph(t *testing.T) {
	engine, dir := newTestEngine(t)

	first, err := engine.Analyze(context.Background(), dir)
	require.NoError(t, err)

	// A fresh engine over the same cache directory must serve the graph
	// from the disk tier instead of rebuilding.
	second, err := core.New(testConfig(t, filepath.Join(dir, ".cache")), observability.Providers{})
	require.NoError(t, err)

	report, err := second.Analyze(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, first.TotalMethods, report.TotalMethods)
	assert.Equal(t, first.TestMethods, report.TestMethods)

	cacheReport, err := second.Cache(context.Background(), dir, core.CacheStats)
	require.NoError(t, err)
	assert.Positive(t, cacheReport.Stats.DiskHits)
}

func TestTraceExecution_VisitsCalleesOfTest(t *testing.T) {
	engine, dir := newTestEngine(t)

	report, err := engine.Analyze(context.Background(), dir)
	require.NoError(t, err)
	require.NotZero(t, report.TestMethods)

	digest, err := engine.BuildCallGraph(context.Background(), dir, 20)
	require.NoError(t, err)

	var testID string
	for _, entry := range digest.Sample {
		if entry.IsTest {
			testID = entry.MethodID
		}
	}
	require.NotEmpty(t, testID)

	trace, err := engine.TraceExecution(context.Background(), dir, testID, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, trace.Executed)
}

func TestDiffImpact_FastPresetFindsAffectedTest(t *testing.T) {
	engine, dir := newTestEngine(t)

	diffText := `--- a/Calculator.cs
+++ b/Calculator.cs
@@ -5,6 +5,6 @@
     public class Calculator
     {
-        public int Adjust(int amount)
+        public int Adjust(int amount)
         {
             return amount + 1;
         }
     }
`

	impacted, diag, err := engine.DiffImpact(context.Background(), dir, diffText, core.ConfidenceFast)
	require.NoError(t, err)

	assert.False(t, diag.BoundsReached)
	require.NotEmpty(t, impacted)
	assert.Contains(t, impacted[0].TestID, "ComputeReturnsAdjustedAmount")
}

func TestAnalyzeCoverage_ReportsCoverageOfChangedMethod(t *testing.T) {
	engine, dir := newTestEngine(t)

	report, err := engine.Analyze(context.Background(), dir)
	require.NoError(t, err)
	require.NotZero(t, report.TestMethods)

	digest, err := engine.BuildCallGraph(context.Background(), dir, 20)
	require.NoError(t, err)

	var testID string
	for _, entry := range digest.Sample {
		if entry.IsTest {
			testID = entry.MethodID
		}
	}
	require.NotEmpty(t, testID)

	diffText := `--- a/Calculator.cs
+++ b/Calculator.cs
@@ -5,6 +5,6 @@
     public class Calculator
     {
-        public int Adjust(int amount)
+        public int Adjust(int amount)
         {
             return amount + 1;
         }
     }
`

	coverageReport, err := engine.AnalyzeCoverage(context.Background(), dir, []string{testID}, diffText)
	require.NoError(t, err)
	require.Len(t, coverageReport.Tests, 1)
	assert.NotEmpty(t, coverageReport.Tests[0].Covers)
}

func TestCache_InitThenClearEmptiesCache(t *testing.T) {
	engine, dir := newTestEngine(t)

	_, err := engine.Cache(context.Background(), dir, core.CacheInit)
	require.NoError(t, err)

	statusReport, err := engine.Cache(context.Background(), dir, core.CacheStatus)
	require.NoError(t, err)
	assert.Equal(t, core.CacheStatus, statusReport.Action)

	clearReport, err := engine.Cache(context.Background(), dir, core.CacheClear)
	require.NoError(t, err)
	assert.Zero(t, clearReport.Stats.EntryCount)
}
