package coverage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/callgraph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/coverage"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

const productionSource = `
namespace A
{
    public class B
    {
        public void Foo()
        {
            Bar();
        }

        public void Bar()
        {
        }
    }
}
`

const testSuiteSource = `
namespace T
{
    public class U
    {
        [Fact]
        public void TestsFoo()
        {
            var b = new A.B();
            b.Foo();
        }
    }
}
`

func buildGraph(t *testing.T) *coverage.Analyzer {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(productionSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.cs"), []byte(testSuiteSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	g, _, err := b.Build(context.Background(), snap)
	require.NoError(t, err)

	return coverage.NewAnalyzer(g)
}

func drain(t *testing.T, search *coverage.TestSearch) []coverage.CoverageInfo {
	t.Helper()

	var results []coverage.CoverageInfo
	for info := range search.Results() {
		results = append(results, info)
	}

	return results
}

func TestFindTests_DirectCallYieldsFullConfidence(t *testing.T) {
	analyzer := buildGraph(t)

	search, err := analyzer.FindTests(context.Background(), "A.B.Foo", coverage.Bounds{})
	require.NoError(t, err)

	results := drain(t, search)

	require.Len(t, results, 1)
	assert.Equal(t, methodid.New("T.U.TestsFoo()"), results[0].TestID)
	assert.Equal(t, classifier.Unit, results[0].TestType)
	require.Len(t, results[0].CallPath, 2)
	assert.InDelta(t, 1.0*1.0*(0.5+0.5*0.95), results[0].Confidence, 0.0001)
}

func TestFindTests_UnknownPatternIsMethodNotFound(t *testing.T) {
	analyzer := buildGraph(t)

	_, err := analyzer.FindTests(context.Background(), "No.Such.Method", coverage.Bounds{})

	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.MethodNotFound))
}

// chainAnalyzer builds test -> M1 -> M2 -> ... -> Mn with the final link
// as the lookup target.
func chainAnalyzer(t *testing.T, n int) (*coverage.Analyzer, methodid.ID) {
	t.Helper()

	b := graph.NewBuilder()

	testID := methodid.New("T.U.LongChainTest()")
	b.AddNode(graph.MethodNode{ID: testID, ContainingType: "T.U", IsTest: true, TestType: classifier.Unit, ClassifierConfidence: 0.95})

	prev := testID

	var last methodid.ID

	for i := 1; i <= n; i++ {
		last = methodid.New(fmt.Sprintf("A.B.M%03d()", i))
		b.AddNode(graph.MethodNode{ID: last, ContainingType: "A.B"})
		b.AddEdge(prev, last, i)
		prev = last
	}

	return coverage.NewAnalyzer(b.Seal()), last
}

func TestFindTests_DepthLimitYieldsEmptyStreamWithDiagnostic(t *testing.T) {
	analyzer, target := chainAnalyzer(t, 50)

	search, err := analyzer.FindTests(context.Background(), target.Raw(), coverage.Bounds{MaxDepth: 10})
	require.NoError(t, err)

	results := drain(t, search)

	assert.Empty(t, results)
	assert.True(t, search.Diagnostics().DepthLimitReached)
}

func TestFindTests_WithinDepthBoundFindsChainTail(t *testing.T) {
	analyzer, target := chainAnalyzer(t, 5)

	search, err := analyzer.FindTests(context.Background(), target.Raw(), coverage.Bounds{MaxDepth: 10})
	require.NoError(t, err)

	results := drain(t, search)

	require.Len(t, results, 1)
	assert.Len(t, results[0].CallPath, 6)
	assert.False(t, search.Diagnostics().DepthLimitReached)
}

func TestTrace_VisitsReachableMethodsExcludingSelf(t *testing.T) {
	analyzer := buildGraph(t)

	trace, err := analyzer.Trace(context.Background(), methodid.New("T.U.TestsFoo()"), coverage.Bounds{})
	require.NoError(t, err)

	var names []string
	for _, m := range trace.Executed {
		names = append(names, m.ID.SimpleName())
		assert.NotEqual(t, "TestsFoo", m.ID.SimpleName())
		assert.Equal(t, methodid.New("T.U.TestsFoo()"), m.CallPath[0])
		assert.LessOrEqual(t, m.CallDepth, 20)
	}

	assert.Contains(t, names, "Foo")
	assert.Equal(t, len(trace.Executed), trace.TotalCalled)
	assert.NotZero(t, trace.EstimatedComplexity)
}

func TestTrace_ProductionMethodIsCategorized(t *testing.T) {
	analyzer := buildGraph(t)

	trace, err := analyzer.Trace(context.Background(), methodid.New("T.U.TestsFoo()"), coverage.Bounds{})
	require.NoError(t, err)

	require.NotEmpty(t, trace.Executed)

	for _, m := range trace.Executed {
		assert.True(t, m.IsProduction)
		assert.Equal(t, classifier.BusinessLogic, m.Category)
	}

	assert.Equal(t, trace.TotalCalled, trace.ProductionCalled)
}

func TestTrace_NonTestIDIsTestNotFound(t *testing.T) {
	analyzer := buildGraph(t)

	_, err := analyzer.Trace(context.Background(), methodid.New("A.B.Foo()"), coverage.Bounds{})

	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.TestNotFound))
}

func TestTrace_ExecutedIDsAreDistinct(t *testing.T) {
	analyzer := buildGraph(t)

	trace, err := analyzer.Trace(context.Background(), methodid.New("T.U.TestsFoo()"), coverage.Bounds{})
	require.NoError(t, err)

	seen := make(map[methodid.ID]bool)
	for _, m := range trace.Executed {
		assert.False(t, seen[m.ID], "duplicate executed id %s", m.ID)
		seen[m.ID] = true
	}
}
