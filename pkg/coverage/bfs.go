package coverage

import (
	"context"
	"sort"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
)

// orderedNeighbors returns idx's forward neighbors sorted so that callees
// whose ContainingType matches targetType come first (rank 0), then all
// others (rank 1); within a rank, ties break lexicographically on
// MethodId so repeated searches pick the same shortest path.
func orderedNeighbors(g *graph.MethodCallGraph, idx int32, targetType string) []int32 {
	neighbors := append([]int32(nil), g.ForwardNeighbors(idx)...)

	sort.Slice(neighbors, func(i, j int) bool {
		ri := rank(g, neighbors[i], targetType)
		rj := rank(g, neighbors[j], targetType)

		if ri != rj {
			return ri < rj
		}

		return g.Node(neighbors[i]).ID < g.Node(neighbors[j]).ID
	})

	return neighbors
}

func rank(g *graph.MethodCallGraph, idx int32, targetType string) int {
	if g.Node(idx).ContainingType == targetType {
		return 0
	}

	return 1
}

// bfsResult is the outcome of a single bounded BFS search.
type bfsResult struct {
	path          []int32 // start ... target, inclusive. Nil if not found.
	visitedNodes  int
	boundsReached bool
}

// shortestPath runs a bounded, deterministically-ordered BFS from start
// seeking target over g's forward adjacency.
func shortestPath(ctx context.Context, g *graph.MethodCallGraph, start, target int32, bounds Bounds) bfsResult {
	targetType := g.Node(target).ContainingType

	visited := map[int32]bool{start: true}
	parent := map[int32]int32{}
	depth := map[int32]int{start: 0}

	queue := []int32{start}
	visitedCount := 1
	pruned := false

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return bfsResult{visitedNodes: visitedCount, boundsReached: true}
		default:
		}

		cur := queue[0]
		queue = queue[1:]

		if depth[cur] >= bounds.MaxDepth {
			// Only a node with somewhere left to go counts as a real
			// truncation; exhausting the reachable set is not.
			if len(g.ForwardNeighbors(cur)) > 0 {
				pruned = true
			}

			continue
		}

		neighbors := orderedNeighbors(g, cur, targetType)

		// Early exit: the target is a direct neighbor of cur.
		for _, n := range neighbors {
			if n == target {
				parent[target] = cur

				return bfsResult{path: reconstructPath(parent, start, target), visitedNodes: visitedCount}
			}
		}

		for _, n := range neighbors {
			if visited[n] {
				continue
			}

			if visitedCount >= bounds.MaxVisited {
				return bfsResult{boundsReached: true, visitedNodes: visitedCount}
			}

			visited[n] = true
			visitedCount++
			parent[n] = cur
			depth[n] = depth[cur] + 1
			queue = append(queue, n)
		}
	}

	return bfsResult{visitedNodes: visitedCount, boundsReached: pruned}
}

func reconstructPath(parent map[int32]int32, start, target int32) []int32 {
	path := []int32{target}

	cur := target
	for cur != start {
		p, ok := parent[cur]
		if !ok {
			break
		}

		path = append(path, p)
		cur = p
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
