package graph

import (
	"sort"
	"strings"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

// Builder accumulates nodes and edges before the graph is sealed. Edges
// added before their endpoints are known are held as pending and dropped
// (counted as unresolved) at Seal if never resolved.
type Builder struct {
	nodes []MethodNode
	index map[methodid.ID]int32

	pendingEdges []pendingEdge
}

type pendingEdge struct {
	fromID methodid.ID
	toID   methodid.ID
	line   int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[methodid.ID]int32),
	}
}

// AddNode registers a method, returning its assigned index. If a method
// with the same normalized MethodId was already added, the existing index
// is returned and no duplicate node is created.
func (b *Builder) AddNode(n MethodNode) int32 {
	norm := methodid.ID(n.ID.Normalized())
	if idx, ok := b.index[norm]; ok {
		return idx
	}

	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, n)
	b.index[norm] = idx
	b.index[n.ID] = idx

	return idx
}

// AddEdge records a call from the method identified by fromID to the
// method identified by toID, at the given source line. The edge is
// resolved against known nodes at Seal time; edges referencing unknown
// methods are dropped and counted in UnresolvedCalls.
func (b *Builder) AddEdge(fromID, toID methodid.ID, line int) {
	b.pendingEdges = append(b.pendingEdges, pendingEdge{fromID: fromID, toID: toID, line: line})
}

// Seal finalizes the graph: resolves pending edges against known nodes,
// builds the forward adjacency, and computes the reverse adjacency as its
// exact transpose.
func (b *Builder) Seal() *MethodCallGraph {
	n := len(b.nodes)
	forward := make([][]int32, n)
	reverse := make([][]int32, n)

	simpleNameIdx := b.buildSimpleNameIndex()

	unresolved := 0

	type edgeKey struct {
		from, to int32
	}

	seen := make(map[edgeKey]bool)

	for _, pe := range b.pendingEdges {
		fromIdx, fromOK := b.resolve(pe.fromID)
		if !fromOK {
			unresolved++
			continue
		}

		toIdx, toOK := b.resolve(pe.toID)
		if !toOK {
			toIdx, toOK = b.resolveBySimpleName(pe.toID, fromIdx, simpleNameIdx)
		}

		if !toOK {
			unresolved++
			continue
		}

		key := edgeKey{from: fromIdx, to: toIdx}
		if seen[key] {
			continue
		}

		seen[key] = true
		forward[fromIdx] = append(forward[fromIdx], toIdx)
		reverse[toIdx] = append(reverse[toIdx], fromIdx)
	}

	for i := range forward {
		sort.Slice(forward[i], func(x, y int) bool { return forward[i][x] < forward[i][y] })
		sort.Slice(reverse[i], func(x, y int) bool { return reverse[i][x] < reverse[i][y] })
	}

	finalIndex := make(map[methodid.ID]int32, len(b.index))
	for k, v := range b.index {
		finalIndex[k] = v
	}

	return &MethodCallGraph{
		nodes:           b.nodes,
		index:           finalIndex,
		Forward:         forward,
		Reverse:         reverse,
		unresolvedCalls: unresolved,
	}
}

func (b *Builder) resolve(id methodid.ID) (int32, bool) {
	if idx, ok := b.index[id]; ok {
		return idx, true
	}

	norm := methodid.ID(id.Normalized())

	idx, ok := b.index[norm]

	return idx, ok
}

// buildSimpleNameIndex maps each node's lower-cased simple method name to
// every node index sharing it, used as the call-resolution fallback for
// call sites whose syntax carries no containing-type qualifier (a bare
// "Bar()" invocation from within the same class).
func (b *Builder) buildSimpleNameIndex() map[string][]int32 {
	idx := make(map[string][]int32)

	for i, n := range b.nodes {
		key := strings.ToLower(n.ID.SimpleName())
		idx[key] = append(idx[key], int32(i))
	}

	return idx
}

// resolveBySimpleName resolves an unqualified call target by simple name,
// preferring a candidate in the caller's own containing type (rank 0, the
// common case for a bare method call in C#) before falling back to the
// lexicographically smallest candidate for determinism (rank 1).
func (b *Builder) resolveBySimpleName(toID methodid.ID, fromIdx int32, simpleNameIdx map[string][]int32) (int32, bool) {
	candidates := simpleNameIdx[strings.ToLower(toID.SimpleName())]
	if len(candidates) == 0 {
		return 0, false
	}

	if len(candidates) == 1 {
		return candidates[0], true
	}

	fromType := b.nodes[fromIdx].ContainingType

	var sameType []int32

	for _, c := range candidates {
		if b.nodes[c].ContainingType == fromType {
			sameType = append(sameType, c)
		}
	}

	pool := candidates
	if len(sameType) > 0 {
		pool = sameType
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if b.nodes[c].ID < b.nodes[best].ID {
			best = c
		}
	}

	return best, true
}
