package callgraph

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/syntax"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

// BuildScoped constructs a MethodCallGraph restricted to a set of seed
// methods and their bidirectional expansion up to maxExpansionDepth edges,
// parsing only the files the expanding frontier touches rather than the
// whole workspace.
//
// File selection is driven by a simple-name frontier: a file is parsed
// only when its raw content contains a frontier method name (a
// conservative textual pre-filter — any file declaring or calling a
// frontier method necessarily contains its name). Each round grows the
// frontier with the names and callees of the methods just discovered, so
// the parse set tracks the expansion instead of the workspace. The
// assembled graph is then pruned to the exact frontier and re-sealed
// through pkg/graph's Builder so the forward/reverse invariant is
// re-established by construction.
func (b *Builder) BuildScoped(ctx context.Context, snap *workspace.WorkspaceSnapshot, seeds []methodid.ID, maxExpansionDepth int) (*graph.MethodCallGraph, BuildDiagnostics, error) {
	results, diag, err := b.extractFrontier(ctx, snap, seeds, maxExpansionDepth)
	if err != nil {
		return nil, diag, err
	}

	full := b.assemble(results, &diag)

	keep := expandFrontier(full, resolveSeeds(full, seeds), maxExpansionDepth)

	return induceSubgraph(full, keep), diag, nil
}

// resolveSeeds maps seed ids onto node indices. Seeds may be partial
// patterns (a bare method name, a type-qualified suffix), so exact
// lookup falls back to the same pattern matching the Coverage Analyzer
// applies.
func resolveSeeds(g *graph.MethodCallGraph, seeds []methodid.ID) []int32 {
	var out []int32

	for _, s := range seeds {
		if idx, ok := g.IndexOf(s); ok {
			out = append(out, idx)
			continue
		}

		for i := 0; i < g.NodeCount(); i++ {
			if methodid.MatchesPattern(s.Raw(), g.Node(int32(i)).ID) {
				out = append(out, int32(i))
			}
		}
	}

	return out
}

// extractFrontier runs the name-driven lazy parse: starting from the
// seeds' simple names, each round parses the not-yet-parsed files whose
// lowered content mentions a frontier name, then extends the frontier
// with the discovered methods' names and callees. Results come back in
// snapshot file order so node indices stay deterministic.
func (b *Builder) extractFrontier(ctx context.Context, snap *workspace.WorkspaceSnapshot, seeds []methodid.ID, maxExpansionDepth int) ([]fileMethods, BuildDiagnostics, error) {
	var diag BuildDiagnostics

	frontier := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		frontier[strings.ToLower(s.SimpleName())] = true
	}

	seen := make(map[string]bool, len(frontier))
	for name := range frontier {
		seen[name] = true
	}

	lowered := make([]string, len(snap.Files))
	loaded := make([]bool, len(snap.Files))
	unreadable := make([]bool, len(snap.Files))
	extracted := make(map[int]fileMethods, len(snap.Files))

	for depth := 0; depth <= maxExpansionDepth && len(frontier) > 0; depth++ {
		next := make(map[string]bool)

		for i, f := range snap.Files {
			if err := ctx.Err(); err != nil {
				return nil, diag, wrapCtxErr("scoped build", err)
			}

			if _, done := extracted[i]; done || unreadable[i] {
				continue
			}

			if !loaded[i] {
				raw, err := os.ReadFile(f.Path)
				if err != nil {
					unreadable[i] = true
					diag.FilesSkipped++

					continue
				}

				lowered[i] = strings.ToLower(string(raw))
				loaded[i] = true
			}

			if !containsAnyName(lowered[i], frontier) {
				continue
			}

			fr := b.extractFile(ctx, f.Path)
			extracted[i] = fr

			if !fr.parsed {
				continue
			}

			for _, m := range fr.methods {
				growFrontier(m, frontier, seen, next)
			}
		}

		frontier = next
	}

	results := make([]fileMethods, 0, len(extracted))

	for i := range snap.Files {
		if fr, ok := extracted[i]; ok {
			results = append(results, fr)
		}
	}

	return results, diag, nil
}

// growFrontier adds m's own name and its callees' simple names to next
// when m touches the current frontier, so the following round parses the
// files that declare or call them.
func growFrontier(m syntax.MethodInfo, frontier, seen, next map[string]bool) {
	name := strings.ToLower(m.Name)

	touches := frontier[name]

	for _, call := range m.CallSites {
		if frontier[strings.ToLower(methodid.New(call.Name).SimpleName())] {
			touches = true

			break
		}
	}

	if !touches {
		return
	}

	if !seen[name] {
		seen[name] = true
		next[name] = true
	}

	for _, call := range m.CallSites {
		callee := strings.ToLower(methodid.New(call.Name).SimpleName())
		if !seen[callee] {
			seen[callee] = true
			next[callee] = true
		}
	}
}

// containsAnyName reports whether the lowered file content mentions any
// frontier name.
func containsAnyName(lowered string, names map[string]bool) bool {
	for name := range names {
		if name != "" && strings.Contains(lowered, name) {
			return true
		}
	}

	return false
}

// expandFrontier returns the set of node indices reachable from seeds
// within maxDepth edges, following both forward and reverse adjacency.
func expandFrontier(g *graph.MethodCallGraph, seeds []int32, maxDepth int) map[int32]bool {
	visited := make(map[int32]bool, len(seeds))
	frontier := make([]int32, 0, len(seeds))

	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			frontier = append(frontier, s)
		}
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []int32

		for _, n := range frontier {
			for _, nb := range g.ForwardNeighbors(n) {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}

			for _, nb := range g.ReverseNeighbors(n) {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}

		frontier = next
	}

	return visited
}

// induceSubgraph rebuilds a sealed graph containing only the nodes in
// keep and the edges between them, via pkg/graph's Builder so the
// forward/reverse invariant is re-established by construction rather than
// filtered in place.
func induceSubgraph(g *graph.MethodCallGraph, keep map[int32]bool) *graph.MethodCallGraph {
	kept := make([]int32, 0, len(keep))
	for idx := range keep {
		kept = append(kept, idx)
	}

	// Original index order keeps node assignment deterministic.
	sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })

	sb := graph.NewBuilder()

	for _, idx := range kept {
		sb.AddNode(g.Node(idx))
	}

	for _, idx := range kept {
		from := g.Node(idx).ID

		for _, nb := range g.ForwardNeighbors(idx) {
			if keep[nb] {
				sb.AddEdge(from, g.Node(nb).ID, 0)
			}
		}
	}

	return sb.Seal()
}
