// Package callgraph builds a pkg/graph.MethodCallGraph from a resolved
// workspace: files are parsed (pkg/syntax), every method-like declaration
// becomes a node, and each call site inside a method body becomes an edge
// resolved by best-effort name matching against known nodes.
package callgraph

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/cache"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/graph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/syntax"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

// defaultMaxWorkers caps parse parallelism when no override is supplied.
const defaultMaxWorkers = 4

// methodCacheKeyPrefix namespaces extracted-method entries in the shared
// cache, keyed by file content hash so identical content is parsed once.
const methodCacheKeyPrefix = "methods/"

// BuildDiagnostics reports best-effort build statistics: counts that never
// fail the build outright but matter for downstream confidence reporting.
type BuildDiagnostics struct {
	FilesParsed     int
	FilesSkipped    int
	MethodCacheHits int
	MethodsIndexed  int
	UnresolvedCalls int
}

// Builder constructs call graphs from workspace snapshots.
type Builder struct {
	parser     *syntax.Parser
	classifier *classifier.Classifier
	cache      *cache.Cache // nil disables the extracted-method cache.
	workers    int

	flight sync.Map // content-hash -> *flightCall
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers overrides parse parallelism. Values below 1 keep the
// default of min(cpu_count, 4).
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithMethodCache stores extracted methods in c keyed by file content
// hash, so rebuilds and overlapping scoped builds skip re-parsing
// unchanged content.
func WithMethodCache(c *cache.Cache) Option {
	return func(b *Builder) { b.cache = c }
}

// NewBuilder creates a Builder. classifierAttrs overrides the default test
// attribute set recognized when flagging a method as a test candidate.
func NewBuilder(classifierAttrs []string, opts ...Option) (*Builder, error) {
	p, err := syntax.NewParser()
	if err != nil {
		return nil, err
	}

	b := &Builder{
		parser:     p,
		classifier: classifier.New(classifierAttrs),
		workers:    min(runtime.NumCPU(), defaultMaxWorkers),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// fileMethods is one file's extraction result, kept in snapshot file
// order so node indices are assigned deterministically.
type fileMethods struct {
	path    string
	methods []syntax.MethodInfo
	parsed  bool
	cached  bool
}

// Build parses every file in snapshot and constructs a fully sealed
// MethodCallGraph covering the whole workspace. Files are parsed across a
// bounded worker pool; node and edge insertion stays sequential in file
// order so two builds over the same snapshot produce identical graphs.
func (b *Builder) Build(ctx context.Context, snap *workspace.WorkspaceSnapshot) (*graph.MethodCallGraph, BuildDiagnostics, error) {
	results := b.extractAll(ctx, snap)

	if err := ctx.Err(); err != nil {
		return nil, BuildDiagnostics{}, wrapCtxErr("build call graph", err)
	}

	var diag BuildDiagnostics

	g := b.assemble(results, &diag)

	return g, diag, nil
}

// assemble turns per-file extraction results (in snapshot file order)
// into a sealed graph, counting diagnostics along the way. Nodes are
// inserted before any edge so edge resolution sees the full method set.
func (b *Builder) assemble(results []fileMethods, diag *BuildDiagnostics) *graph.MethodCallGraph {
	gb := graph.NewBuilder()

	for _, fr := range results {
		if !fr.parsed {
			diag.FilesSkipped++
			continue
		}

		diag.FilesParsed++

		if fr.cached {
			diag.MethodCacheHits++
		}

		for _, m := range fr.methods {
			id := b.methodID(m)
			cand := candidateFor(m)
			isTest := b.classifier.IsTestCandidate(cand)

			node := graph.MethodNode{
				ID:             id,
				ContainingType: qualifiedType(m),
				FilePath:       fr.path,
				StartLine:      m.StartLine,
				EndLine:        m.EndLine,
				IsTest:         isTest,
				Category:       classifier.Categorize(cand, isTest),
			}

			if isTest {
				node.TestType, node.ClassifierConfidence = b.classifier.Classify(cand)
			}

			gb.AddNode(node)
			diag.MethodsIndexed++
		}
	}

	for _, fr := range results {
		for _, m := range fr.methods {
			fromID := b.methodID(m)

			for _, call := range m.CallSites {
				gb.AddEdge(fromID, methodid.New(call.Name), call.Line)
			}
		}
	}

	g := gb.Seal()
	diag.UnresolvedCalls = g.UnresolvedCalls()

	return g
}

// extractAll fans file extraction out across the worker pool, returning
// per-file results positioned by the snapshot's file order.
func (b *Builder) extractAll(ctx context.Context, snap *workspace.WorkspaceSnapshot) []fileMethods {
	results := make([]fileMethods, len(snap.Files))

	sem := make(chan struct{}, b.workers)

	var wg sync.WaitGroup

	for i, f := range snap.Files {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(slot int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[slot] = b.extractFile(ctx, path)
		}(i, f.Path)
	}

	wg.Wait()

	return results
}

// extractFile loads one file's methods: cache lookup by content hash,
// then a per-hash single-flight parse so concurrent builds of identical
// content do the work once.
func (b *Builder) extractFile(ctx context.Context, path string) fileMethods {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileMethods{path: path}
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if b.cache != nil {
		if payload, _, ok := b.cache.Get(methodCacheKeyPrefix + hash); ok {
			if methods, decErr := decodeMethods(payload); decErr == nil {
				return fileMethods{path: path, methods: methods, parsed: true, cached: true}
			}
		}
	}

	methods, ok := b.parseOnce(ctx, hash, path, content)
	if !ok {
		return fileMethods{path: path}
	}

	if b.cache != nil {
		if payload, encErr := encodeMethods(methods); encErr == nil {
			_ = b.cache.Set(methodCacheKeyPrefix+hash, payload, 0)
		}
	}

	return fileMethods{path: path, methods: methods, parsed: true}
}

// flightCall is the single-flight barrier for one content hash.
type flightCall struct {
	once    sync.Once
	methods []syntax.MethodInfo
	ok      bool
}

func (b *Builder) parseOnce(ctx context.Context, hash, path string, content []byte) ([]syntax.MethodInfo, bool) {
	v, _ := b.flight.LoadOrStore(hash, &flightCall{})
	call := v.(*flightCall)

	call.once.Do(func() {
		defer b.flight.Delete(hash)

		tree, err := b.parser.ParseFile(ctx, path, content)
		if err != nil {
			return
		}
		defer tree.Close()

		call.methods = syntax.ExtractMethods(tree)
		call.ok = true
	})

	return call.methods, call.ok
}

func encodeMethods(methods []syntax.MethodInfo) ([]byte, error) {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(methods); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeMethods(payload []byte) ([]syntax.MethodInfo, error) {
	var methods []syntax.MethodInfo

	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&methods); err != nil {
		return nil, err
	}

	return methods, nil
}

func wrapCtxErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tierrors.Wrap(tierrors.BuildTimedOut, op, err)
	}

	return tierrors.Wrap(tierrors.Cancelled, op, err)
}

func (b *Builder) methodID(m syntax.MethodInfo) methodid.ID {
	return methodid.New(qualifiedType(m) + "." + m.Name + "(" + joinParams(m.ParamTypes) + ")")
}

func qualifiedType(m syntax.MethodInfo) string {
	if m.Namespace == "" {
		return m.ContainingType
	}

	return m.Namespace + "." + m.ContainingType
}

func joinParams(params []string) string {
	out := ""

	for i, p := range params {
		if i > 0 {
			out += ","
		}

		out += p
	}

	return out
}

func candidateFor(m syntax.MethodInfo) classifier.Candidate {
	return classifier.Candidate{
		Name:            m.Name,
		ContainingType:  m.ContainingType,
		Namespace:       m.Namespace,
		Attributes:      m.Attributes,
		IsPublic:        m.IsPublic,
		IsParameterless: len(m.ParamTypes) == 0,
	}
}
