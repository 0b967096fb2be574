// Package coverage answers the two Coverage Analyzer queries: reverse
// lookup (which tests exercise a method) and forward trace (which methods
// a test exercises), both via bounded BFS over a sealed MethodCallGraph.
package coverage

import (
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

// CoverageInfo is one (test, target) relationship discovered by find_tests.
type CoverageInfo struct {
	TestID         methodid.ID         `json:"testId"`
	TestSimpleName string              `json:"testSimpleName"`
	TestClass      string              `json:"testClass"`
	TestAssembly   string              `json:"testAssembly"`
	CallPath       []methodid.ID       `json:"callPath"` // call_path[0] = test, call_path[last] = target.
	Confidence     float64             `json:"confidence"`
	TestType       classifier.TestType `json:"testType"`
}

// ExecutionTrace is the result of trace(test_id, ...): every method
// reachable from a test, in BFS visitation order, excluding the test
// itself.
type ExecutionTrace struct {
	TestID              methodid.ID      `json:"testId"`
	Executed            []ExecutedMethod `json:"executed"`
	TotalCalled         int              `json:"totalCalled"`
	ProductionCalled    int              `json:"productionCalled"`
	EstimatedComplexity float64          `json:"estimatedComplexity"`
	Diagnostics         Diagnostics      `json:"diagnostics"`
}

// ExecutedMethod is one node discovered during a forward trace, with the
// shortest call path that reached it.
type ExecutedMethod struct {
	ID           methodid.ID               `json:"id"`
	IsProduction bool                      `json:"isProduction"`
	Category     classifier.MethodCategory `json:"category"`
	CallDepth    int                       `json:"callDepth"`
	CallPath     []methodid.ID             `json:"callPath"`
}

// Diagnostics reports bound-related soft signals. Hitting a search bound
// is a correctness boundary, not an error, but callers need to see it to
// judge completeness.
type Diagnostics struct {
	VisitedNodes      int  `json:"visitedNodes"`
	DepthLimitReached bool `json:"depthLimitReached"`
	UnresolvedTarget  bool `json:"unresolvedTarget"`
}

// Bounds configures the BFS search limits. Zero values fall back to the
// package defaults.
type Bounds struct {
	MaxDepth   int
	MaxVisited int
}

// DefaultTraceMaxDepth is the forward-trace depth bound applied when a
// caller passes no override.
const DefaultTraceMaxDepth = 20

const (
	defaultFindTestsMaxDepth   = 12
	defaultFindTestsMaxVisited = 2000
	defaultTraceMaxVisited     = 2000
	defaultTraceBreadthCap     = 50

	// complexityPerVisit scales visited-node count into the trace's
	// estimated complexity figure.
	complexityPerVisit = 1.5
)

func (b Bounds) withFindTestsDefaults() Bounds {
	if b.MaxDepth <= 0 {
		b.MaxDepth = defaultFindTestsMaxDepth
	}

	if b.MaxVisited <= 0 {
		b.MaxVisited = defaultFindTestsMaxVisited
	}

	return b
}

func (b Bounds) withTraceDefaults() Bounds {
	if b.MaxDepth <= 0 {
		b.MaxDepth = DefaultTraceMaxDepth
	}

	if b.MaxVisited <= 0 {
		b.MaxVisited = defaultTraceMaxVisited
	}

	return b
}
