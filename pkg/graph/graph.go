// Package graph provides the arena-based method call graph: an append-only
// node slice addressed by compact int32 indices, with separate forward and
// reverse adjacency lists carrying MethodNode payloads; the reverse
// transpose is maintained alongside the forward edges rather than computed
// on demand.
package graph

import (
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

// MethodNode is a single method discovered during semantic analysis. Test
// classification is computed once at build time (pkg/callgraph) and baked
// in here, since the attribute/namespace facts it depends on are not
// otherwise retained once the graph is sealed.
type MethodNode struct {
	ID                   methodid.ID
	ContainingType       string
	FilePath             string
	StartLine            int
	EndLine              int
	IsTest               bool
	TestType             classifier.TestType
	Category             classifier.MethodCategory
	ClassifierConfidence float64
}

// CallEdge records a call site from one method to another.
type CallEdge struct {
	From int32
	To   int32
	Line int
}

// MethodCallGraph is the sealed, queryable call graph. Nodes are addressed
// by dense int32 indices assigned in insertion order. Forward[i] holds the
// indices of methods called by node i; Reverse[i] holds the indices of
// methods that call node i. Both are maintained in lockstep so Reverse is
// always the exact transpose of Forward by construction, never computed
// lazily.
type MethodCallGraph struct {
	nodes   []MethodNode
	index   map[methodid.ID]int32
	Forward [][]int32
	Reverse [][]int32

	unresolvedCalls int
}

// NodeCount returns the number of methods in the graph.
func (g *MethodCallGraph) NodeCount() int {
	return len(g.nodes)
}

// Node returns the MethodNode at the given index.
func (g *MethodCallGraph) Node(idx int32) MethodNode {
	return g.nodes[idx]
}

// IndexOf returns the node index for a MethodId, using normalized
// comparison, and reports whether it was found.
func (g *MethodCallGraph) IndexOf(id methodid.ID) (int32, bool) {
	idx, ok := g.index[id]
	if ok {
		return idx, true
	}

	norm := methodid.ID(id.Normalized())
	idx, ok = g.index[norm]

	return idx, ok
}

// UnresolvedCalls returns the number of call sites the Call Graph Builder
// could not resolve to a known MethodNode.
func (g *MethodCallGraph) UnresolvedCalls() int {
	return g.unresolvedCalls
}

// ForwardNeighbors returns the node indices directly called by idx.
func (g *MethodCallGraph) ForwardNeighbors(idx int32) []int32 {
	if int(idx) >= len(g.Forward) {
		return nil
	}

	return g.Forward[idx]
}

// ReverseNeighbors returns the node indices that directly call idx.
func (g *MethodCallGraph) ReverseNeighbors(idx int32) []int32 {
	if int(idx) >= len(g.Reverse) {
		return nil
	}

	return g.Reverse[idx]
}
