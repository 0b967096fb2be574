// Package impact implements the Impact Analyzer: from a parsed
// DiffSet, it produces the over-approximate set of tests that may be
// affected by the change, each with a CoverageInfo path back to a changed
// method. The analyzer prefers false positives to silent omissions.
package impact

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/alg/interval"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/coverage"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/diffparse"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

// defaultMaxExpansionDepth bounds the reverse-transitive closure over the
// call graph's Reverse adjacency when no override is supplied.
const defaultMaxExpansionDepth = 10

// AffectedTest is one test the analyzer believes the diff may affect,
// along with every changed method it was found to reach.
type AffectedTest struct {
	TestID   methodid.ID             `json:"testId"`
	Coverage []coverage.CoverageInfo `json:"coverage"`
}

// Report is the full result of Analyze.
type Report struct {
	ChangedMethods []methodid.ID  `json:"changedMethods"`
	AffectedTests  []AffectedTest `json:"affectedTests"`
	Diagnostics    Diagnostics    `json:"diagnostics"`
}

// Diagnostics reports soft signals about the over-approximation.
type Diagnostics struct {
	FileLevelFallbacks int  `json:"fileLevelFallbacks"` // Number of ChangeRecords with no recognized method, widened to whole-file impact.
	UnmatchedChanges   int  `json:"unmatchedChanges"`   // changed_methods entries that matched no node in the graph.
	BoundsReached      bool `json:"boundsReached"`
}

// Analyzer computes impact reports against a single sealed call graph.
type Analyzer struct {
	graph    *graph.MethodCallGraph
	coverage *coverage.Analyzer

	maxExpansionDepth int
}

// New creates an Analyzer. maxExpansionDepth <= 0 uses the default of 10.
func New(g *graph.MethodCallGraph, maxExpansionDepth int) *Analyzer {
	if maxExpansionDepth <= 0 {
		maxExpansionDepth = defaultMaxExpansionDepth
	}

	return &Analyzer{
		graph:             g,
		coverage:          coverage.NewAnalyzer(g),
		maxExpansionDepth: maxExpansionDepth,
	}
}

// Analyze expands diff into affected tests: changed methods are resolved
// against the graph, their reverse-transitive closure is computed up to
// the configured depth, and the closure is intersected with test nodes.
func (a *Analyzer) Analyze(ctx context.Context, diff *diffparse.DiffSet) (*Report, error) {
	changed, diag := a.resolveChangedMethods(diff)

	closure, boundsReached := a.reverseClosure(changed)
	diag.BoundsReached = boundsReached

	affected := a.affectedTests(ctx, closure, changed)

	return &Report{
		ChangedMethods: a.changedIDs(changed),
		AffectedTests:  affected,
		Diagnostics:    diag,
	}, nil
}

// resolveChangedMethods implements step 1: union changed_methods across
// ChangeRecords. A record with no recognizable method widens to
// file-level impact (every method declared in that file); records with
// recognized signatures are additionally widened by hunk line-range
// overlap, since the signature hints are best-effort and a hunk can
// touch a method body whose signature line never appears in the diff.
func (a *Analyzer) resolveChangedMethods(diff *diffparse.DiffSet) (map[int32]bool, Diagnostics) {
	changed := make(map[int32]bool)

	var diag Diagnostics

	byFile := a.nodesByFile()

	for _, rec := range diff.Files {
		nodes := matchingNodes(byFile, rec.Path)
		if len(nodes) == 0 {
			continue
		}

		if len(rec.ChangedMethods) == 0 {
			diag.FileLevelFallbacks++

			for _, idx := range nodes {
				changed[idx] = true
			}

			continue
		}

		for _, name := range rec.ChangedMethods {
			matched := false

			for _, idx := range nodes {
				if methodid.MatchesPattern(name, a.graph.Node(idx).ID) {
					changed[idx] = true
					matched = true
				}
			}

			if !matched {
				diag.UnmatchedChanges++
			}
		}

		a.widenByLineRanges(rec, nodes, changed)
	}

	return changed, diag
}

// widenByLineRanges adds every method whose declared line range overlaps
// a hunk's new-line range, using a static interval tree built once per
// file. This only ever grows the changed set, keeping the analysis an
// over-approximation.
func (a *Analyzer) widenByLineRanges(rec diffparse.ChangeRecord, nodes []int32, changed map[int32]bool) {
	if len(rec.Hunks) == 0 {
		return
	}

	intervals := make([]interval.Interval[int32], 0, len(nodes))
	for _, idx := range nodes {
		n := a.graph.Node(idx)
		intervals = append(intervals, interval.Interval[int32]{Low: n.StartLine, High: n.EndLine, Value: idx})
	}

	tree := interval.New(intervals)

	for _, h := range rec.Hunks {
		lo := h.NewStart
		hi := h.NewStart + h.NewLines

		if h.NewLines == 0 {
			hi = lo
		}

		for _, idx := range tree.QueryOverlap(lo, hi) {
			changed[idx] = true
		}
	}
}

// reverseClosure implements step 2: the reverse-transitive closure of
// changed over the graph's Reverse adjacency, bounded by
// maxExpansionDepth.
func (a *Analyzer) reverseClosure(changed map[int32]bool) (map[int32]bool, bool) {
	closure := make(map[int32]bool, len(changed))
	depth := make(map[int32]int, len(changed))

	var queue []int32

	for idx := range changed {
		closure[idx] = true
		depth[idx] = 0
		queue = append(queue, idx)
	}

	boundsReached := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if depth[cur] >= a.maxExpansionDepth {
			boundsReached = true

			continue
		}

		for _, caller := range a.graph.ReverseNeighbors(cur) {
			if closure[caller] {
				continue
			}

			closure[caller] = true
			depth[caller] = depth[cur] + 1
			queue = append(queue, caller)
		}
	}

	return closure, boundsReached
}

// affectedTests implements steps 3 and 4: intersect the closure with test
// candidates, then attach a CoverageInfo per changed method each affected
// test can reach.
func (a *Analyzer) affectedTests(ctx context.Context, closure map[int32]bool, changed map[int32]bool) []AffectedTest {
	var tests []int32

	for idx := range closure {
		if a.graph.Node(idx).IsTest {
			tests = append(tests, idx)
		}
	}

	sort.Slice(tests, func(i, j int) bool { return a.graph.Node(tests[i]).ID < a.graph.Node(tests[j]).ID })

	var out []AffectedTest

	for _, testIdx := range tests {
		testID := a.graph.Node(testIdx).ID

		var paths []coverage.CoverageInfo

		for changedIdx := range changed {
			if changedIdx == testIdx {
				continue
			}

			info, ok := a.coverage.PathTo(ctx, testID, a.graph.Node(changedIdx).ID, coverage.Bounds{})
			if !ok {
				continue
			}

			paths = append(paths, info)
		}

		if len(paths) == 0 {
			continue
		}

		sort.Slice(paths, func(i, j int) bool {
			if paths[i].Confidence != paths[j].Confidence {
				return paths[i].Confidence > paths[j].Confidence
			}

			return paths[i].CallPath[len(paths[i].CallPath)-1] < paths[j].CallPath[len(paths[j].CallPath)-1]
		})

		out = append(out, AffectedTest{TestID: testID, Coverage: paths})
	}

	return out
}

// nodesByFile indexes every node by its file's canonicalized path, so
// diff-relative paths ("a/Foo.cs") can be matched against
// workspace-absolute node paths by suffix.
func (a *Analyzer) nodesByFile() map[string][]int32 {
	byFile := make(map[string][]int32)

	for i := 0; i < a.graph.NodeCount(); i++ {
		path := canonicalPath(a.graph.Node(int32(i)).FilePath)
		byFile[path] = append(byFile[path], int32(i))
	}

	return byFile
}

// matchingNodes finds the nodes whose canonicalized file path ends with
// diffPath's canonicalized form (or vice versa), since diff paths are
// typically relative while graph node paths are workspace-absolute.
func matchingNodes(byFile map[string][]int32, diffPath string) []int32 {
	want := canonicalPath(diffPath)

	if nodes, ok := byFile[want]; ok {
		return nodes
	}

	for path, nodes := range byFile {
		if strings.HasSuffix(path, "/"+want) || strings.HasSuffix(want, "/"+path) {
			return nodes
		}
	}

	return nil
}

// canonicalPath normalizes diff-style paths ("a/Foo.cs", "./Foo.cs") and
// workspace-absolute paths to a common suffix-comparable form.
func canonicalPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	p = strings.TrimPrefix(p, "./")

	return p
}

func (a *Analyzer) changedIDs(changed map[int32]bool) []methodid.ID {
	ids := make([]methodid.ID, 0, len(changed))

	for idx := range changed {
		ids = append(ids, a.graph.Node(idx).ID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
