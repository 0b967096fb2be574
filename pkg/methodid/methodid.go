// Package methodid defines the globally unique, normalized identity used as
// the join key for every call-graph operation. Centralizing equality and
// hashing here forbids the ad-hoc string comparisons the design notes call
// out as a defect in the source material.
package methodid

import (
	"strings"
)

// globalPrefix is the global-namespace marker that must be stripped before
// comparison, e.g. "global::Ns.Cls.Foo".
const globalPrefix = "global::"

// ID is a normalized method identity of the form
// "Namespace.Type.Method(paramTypeList)". Two IDs are equal iff their
// Normalized() forms are equal (case-insensitive, global:: stripped,
// parameter-type list canonicalized).
type ID string

// New wraps a raw textual method id.
func New(raw string) ID {
	return ID(raw)
}

// Raw returns the original, unnormalized text.
func (id ID) Raw() string {
	return string(id)
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Normalized returns the canonical comparison form: global:: prefix
// stripped, parameter-type list canonicalized (whitespace around each
// entry trimmed, commas tight), and lower-cased. Normalization is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func (id ID) Normalized() string {
	s := strings.TrimSpace(string(id))
	s = strings.TrimPrefix(s, globalPrefix)

	name, params, hasParams := splitParams(s)
	name = strings.ToLower(strings.TrimSpace(name))

	if !hasParams {
		return name
	}

	return name + "(" + canonicalParams(params) + ")"
}

// Equal reports whether two IDs are the same method identity after
// normalization.
func Equal(a, b ID) bool {
	return a.Normalized() == b.Normalized()
}

// HasParams reports whether the id carries an explicit parameter-type list.
func (id ID) HasParams() bool {
	_, _, ok := splitParams(string(id))
	return ok
}

// WithoutParams returns the id with its parameter-type list (and
// surrounding parens) removed, e.g. "Ns.Cls.Foo(Int32)" -> "Ns.Cls.Foo".
func (id ID) WithoutParams() ID {
	name, _, hasParams := splitParams(strings.TrimPrefix(strings.TrimSpace(string(id)), globalPrefix))
	if !hasParams {
		return ID(strings.TrimPrefix(strings.TrimSpace(string(id)), globalPrefix))
	}

	return ID(name)
}

// SimpleName returns the final dotted segment before any parameter list,
// e.g. "Ns.Cls.Foo(Int32)" -> "Foo".
func (id ID) SimpleName() string {
	name, _, _ := splitParams(strings.TrimPrefix(strings.TrimSpace(string(id)), globalPrefix))

	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}

	return name[idx+1:]
}

// splitParams splits "Name(p1,p2)" into ("Name", "p1,p2", true), or
// ("Name", "", false) when there is no parameter list.
func splitParams(s string) (name, params string, hasParams bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, "", false
	}

	return s[:open], s[open+1 : len(s)-1], true
}

// canonicalParams normalizes a comma-separated parameter-type list: trims
// whitespace around each entry and lower-cases it, joining tightly with
// commas so that "Int32, System.String" and "int32,system.string" compare
// equal.
func canonicalParams(params string) string {
	params = strings.TrimSpace(params)
	if params == "" {
		return ""
	}

	parts := strings.Split(params, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}

	return strings.Join(parts, ",")
}

// MatchesPattern reports whether candidate resolves against pattern under
// the three lookup rules: exact normalized match; equality after stripping
// the candidate's parameter list when the pattern carries none; and
// dotted-suffix match, so "Cls.Foo" and the bare method name "Foo" both
// resolve "Ns.Cls.Foo(Int32)".
func MatchesPattern(pattern string, candidate ID) bool {
	p := ID(pattern)

	if Equal(p, candidate) {
		return true
	}

	if p.HasParams() {
		return false
	}

	stripped := candidate.WithoutParams().Normalized()
	if p.Normalized() == stripped {
		return true
	}

	return strings.HasSuffix(stripped, "."+p.Normalized())
}
