// Package tierrors defines the typed error kinds surfaced by the TestIntel
// analysis core. Query-level problems are returned to callers wrapped in
// Error; parse- and cache-level problems are recovered locally and counted
// in diagnostics instead (see FilesSkipped in pkg/callgraph's
// BuildDiagnostics and the miss count in pkg/cache's Stats).
package tierrors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a core error.
type Kind int

const (
	// Internal marks an unexpected condition that carries debugging context.
	Internal Kind = iota
	// WorkspaceInvalid means no source files were discovered or a manifest
	// could not be parsed.
	WorkspaceInvalid
	// MethodNotFound means a method pattern resolved to zero ids.
	MethodNotFound
	// TestNotFound means a test id is absent from the graph, or present but
	// not classified as a test.
	TestNotFound
	// BuildTimedOut means a full-solution graph build exceeded its timeout.
	BuildTimedOut
	// Cancelled means a caller-supplied cancellation signal fired.
	Cancelled
	// DepthLimitReached is informational: it always accompanies partial
	// results and is never returned on its own as a failure.
	DepthLimitReached
	// CacheCorrupt means a tier-2 cache entry failed header/content
	// validation and was treated as a miss.
	CacheCorrupt
)

// String renders the Kind for logs and error messages.
func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case WorkspaceInvalid:
		return "workspace_invalid"
	case MethodNotFound:
		return "method_not_found"
	case TestNotFound:
		return "test_not_found"
	case BuildTimedOut:
		return "build_timed_out"
	case Cancelled:
		return "cancelled"
	case DepthLimitReached:
		return "depth_limit_reached"
	case CacheCorrupt:
		return "cache_corrupt"
	default:
		return "unknown"
	}
}

// Error is the typed error value returned by core operations. It carries a
// Kind for programmatic dispatch (the outer shell maps Kind to a process
// exit code) plus free-form Context and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind with a context message.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap creates an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// Is reports whether err is a *Error of the given kind, looking through
// the error chain with errors.As.
func Is(err error, kind Kind) bool {
	var te *Error

	if errors.As(err, &te) {
		return te.Kind == kind
	}

	return false
}
