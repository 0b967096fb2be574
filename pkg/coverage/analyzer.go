package coverage

import (
	"context"
	"sort"
	"strings"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/alg/lru"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
)

// pathCacheEntries bounds the per-query (from,to) path cache.
const pathCacheEntries = 4096

// Analyzer answers find_tests and trace queries against a sealed
// MethodCallGraph. Test/non-test classification is read directly off each
// MethodNode, which pkg/callgraph bakes in at build time.
type Analyzer struct {
	graph     *graph.MethodCallGraph
	pathCache *lru.Cache[pathKey, *bfsResult]
}

type pathKey struct {
	from, to int32
}

// NewAnalyzer creates an Analyzer over a sealed call graph.
func NewAnalyzer(g *graph.MethodCallGraph) *Analyzer {
	return &Analyzer{
		graph:     g,
		pathCache: lru.New[pathKey, *bfsResult](lru.WithMaxEntries[pathKey, *bfsResult](pathCacheEntries)),
	}
}

// TestSearch is a running find_tests query. Results streams each
// CoverageInfo as it is discovered; Diagnostics blocks until the stream
// has closed and then reports the search's aggregate soft signals.
type TestSearch struct {
	results chan CoverageInfo
	done    chan struct{}
	diag    Diagnostics
}

// Results returns the stream of discovered CoverageInfos. The channel is
// closed when the search completes or its context is cancelled.
func (s *TestSearch) Results() <-chan CoverageInfo {
	return s.results
}

// Diagnostics reports the completed search's counters. It blocks until
// Results has been fully drained or the search was cancelled.
func (s *TestSearch) Diagnostics() Diagnostics {
	<-s.done

	return s.diag
}

// FindTests resolves pattern to one or more MethodIds and streams a
// CoverageInfo for every test candidate whose bounded BFS over forward
// reaches one of them. It returns a MethodNotFound error when the pattern
// matches nothing in the graph.
func (a *Analyzer) FindTests(ctx context.Context, pattern string, bounds Bounds) (*TestSearch, error) {
	bounds = bounds.withFindTestsDefaults()

	targets := a.resolvePattern(pattern)
	if len(targets) == 0 {
		return nil, tierrors.New(tierrors.MethodNotFound, pattern)
	}

	search := &TestSearch{
		results: make(chan CoverageInfo),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(search.results)
		defer close(search.done)

		for i := 0; i < a.graph.NodeCount(); i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			node := a.graph.Node(int32(i))
			if !node.IsTest {
				continue
			}

			for _, targetIdx := range targets {
				if int32(i) == targetIdx {
					continue
				}

				info, result, ok := a.searchOne(ctx, int32(i), targetIdx, bounds)

				search.diag.VisitedNodes += result.visitedNodes
				if result.boundsReached {
					search.diag.DepthLimitReached = true
				}

				if !ok {
					continue
				}

				select {
				case search.results <- info:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return search, nil
}

// resolvePattern resolves a method pattern to every matching node index:
// exact normalized match, match after stripping the candidate's parameter
// list, or dotted-suffix match down to the bare method name.
func (a *Analyzer) resolvePattern(pattern string) []int32 {
	var matches []int32

	for i := 0; i < a.graph.NodeCount(); i++ {
		node := a.graph.Node(int32(i))
		if methodid.MatchesPattern(pattern, node.ID) {
			matches = append(matches, int32(i))
		}
	}

	return matches
}

// PathTo attaches a CoverageInfo for the path from testID to targetID, if
// one exists within bounds. It is the same bounded-BFS-plus-confidence
// machinery find_tests uses, exposed for callers (e.g. the Impact
// Analyzer) that already know both endpoints.
func (a *Analyzer) PathTo(ctx context.Context, testID, targetID methodid.ID, bounds Bounds) (CoverageInfo, bool) {
	bounds = bounds.withFindTestsDefaults()

	from, ok := a.graph.IndexOf(testID)
	if !ok {
		return CoverageInfo{}, false
	}

	to, ok := a.graph.IndexOf(targetID)
	if !ok {
		return CoverageInfo{}, false
	}

	info, _, ok := a.searchOne(ctx, from, to, bounds)

	return info, ok
}

func (a *Analyzer) searchOne(ctx context.Context, from, to int32, bounds Bounds) (CoverageInfo, bfsResult, bool) {
	key := pathKey{from: from, to: to}

	var result *bfsResult

	if cached, ok := a.pathCache.Get(key); ok {
		result = cached
	} else {
		r := shortestPath(ctx, a.graph, from, to, bounds)
		result = &r

		// A cancelled search is partial; caching it would poison later
		// queries with a false negative.
		if ctx.Err() == nil {
			a.pathCache.Put(key, result)
		}
	}

	if result.path == nil {
		return CoverageInfo{}, *result, false
	}

	testNode := a.graph.Node(from)

	path := make([]methodid.ID, len(result.path))
	for i, idx := range result.path {
		path[i] = a.graph.Node(idx).ID
	}

	return CoverageInfo{
		TestID:         testNode.ID,
		TestSimpleName: testNode.ID.SimpleName(),
		TestClass:      testNode.ContainingType,
		TestAssembly:   assemblyHint(testNode.FilePath),
		CallPath:       path,
		Confidence:     confidence(len(path), testNode.TestType, testNode.ClassifierConfidence),
		TestType:       testNode.TestType,
	}, *result, true
}

// Trace performs a forward trace from testID: BFS over forward up to
// bounds, breadth-capped per expansion, recording each discovered
// method's category and the shortest call path that reached it.
func (a *Analyzer) Trace(ctx context.Context, testID methodid.ID, bounds Bounds) (*ExecutionTrace, error) {
	bounds = bounds.withTraceDefaults()

	startIdx, ok := a.graph.IndexOf(testID)
	if !ok {
		return nil, tierrors.New(tierrors.TestNotFound, testID.Raw())
	}

	startNode := a.graph.Node(startIdx)
	if !startNode.IsTest {
		return nil, tierrors.New(tierrors.TestNotFound, testID.Raw()+": not a test method")
	}

	visited := map[int32]bool{startIdx: true}
	parent := map[int32]int32{}
	queue := []queueEntry{{idx: startIdx, depth: 0}}

	var (
		executed     []ExecutedMethod
		visitedCount = 1
		depthLimit   bool
	)

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, tierrors.Wrap(tierrors.Cancelled, "trace "+testID.Raw(), ctx.Err())
		default:
		}

		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= bounds.MaxDepth {
			if len(a.graph.ForwardNeighbors(cur.idx)) > 0 {
				depthLimit = true
			}

			continue
		}

		neighbors := append([]int32(nil), a.graph.ForwardNeighbors(cur.idx)...)
		sort.Slice(neighbors, func(i, j int) bool {
			return a.graph.Node(neighbors[i]).ID < a.graph.Node(neighbors[j]).ID
		})

		if len(neighbors) > defaultTraceBreadthCap {
			neighbors = neighbors[:defaultTraceBreadthCap]
			depthLimit = true
		}

		for _, n := range neighbors {
			if visited[n] {
				continue
			}

			if visitedCount >= bounds.MaxVisited {
				depthLimit = true

				break
			}

			visited[n] = true
			visitedCount++
			parent[n] = cur.idx

			node := a.graph.Node(n)
			executed = append(executed, ExecutedMethod{
				ID:           node.ID,
				IsProduction: !node.IsTest && node.Category != classifier.TestUtility,
				Category:     node.Category,
				CallDepth:    cur.depth + 1,
				CallPath:     a.tracePath(parent, startIdx, n),
			})
			queue = append(queue, queueEntry{idx: n, depth: cur.depth + 1})
		}
	}

	trace := &ExecutionTrace{
		TestID:      testID,
		Executed:    executed,
		TotalCalled: len(executed),
		Diagnostics: Diagnostics{VisitedNodes: visitedCount, DepthLimitReached: depthLimit},
	}

	for _, e := range executed {
		if e.IsProduction {
			trace.ProductionCalled++
		}
	}

	trace.EstimatedComplexity = complexityPerVisit * float64(visitedCount)

	return trace, nil
}

// tracePath reconstructs start -> ... -> idx from the BFS parent links.
func (a *Analyzer) tracePath(parent map[int32]int32, start, idx int32) []methodid.ID {
	var rev []int32

	for cur := idx; ; {
		rev = append(rev, cur)

		if cur == start {
			break
		}

		p, ok := parent[cur]
		if !ok {
			break
		}

		cur = p
	}

	path := make([]methodid.ID, len(rev))
	for i, nodeIdx := range rev {
		path[len(rev)-1-i] = a.graph.Node(nodeIdx).ID
	}

	return path
}

type queueEntry struct {
	idx   int32
	depth int
}

func assemblyHint(filePath string) string {
	dir := filePath

	idx := strings.LastIndexAny(dir, `/\`)
	if idx < 0 {
		return ""
	}

	dir = dir[:idx]

	idx2 := strings.LastIndexAny(dir, `/\`)
	if idx2 < 0 {
		return dir
	}

	return dir[idx2+1:]
}
