package methodid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

func TestNormalized_StripsGlobalPrefix(t *testing.T) {
	a := methodid.New("global::Ns.Cls.Foo(Int32)")
	b := methodid.New("Ns.Cls.Foo(Int32)")

	assert.True(t, methodid.Equal(a, b))
}

func TestNormalized_CaseInsensitive(t *testing.T) {
	a := methodid.New("Ns.Cls.Foo(Int32)")
	b := methodid.New("NS.CLS.FOO(int32)")

	assert.True(t, methodid.Equal(a, b))
}

func TestNormalized_Idempotent(t *testing.T) {
	id := methodid.New("global::Ns.Cls.Foo(Int32, System.String)")

	once := id.Normalized()
	twice := methodid.New(once).Normalized()

	assert.Equal(t, once, twice)
}

func TestMatchesPattern_PartialQualifiersResolve(t *testing.T) {
	target := methodid.New("global::Ns.Cls.Foo(Int32)")

	patterns := []string{
		"Ns.Cls.Foo",
		"Cls.Foo",
		"Foo",
		"global::Ns.Cls.Foo(Int32)",
	}

	for _, p := range patterns {
		assert.True(t, methodid.MatchesPattern(p, target), "pattern %q should resolve", p)
	}
}

func TestMatchesPattern_SuffixMatchesFullyQualified(t *testing.T) {
	target := methodid.New("Ns.Cls.Foo(Int32)")

	bySuffix := methodid.MatchesPattern("Foo", target)
	byFull := methodid.MatchesPattern("Ns.Cls.Foo(Int32)", target)

	assert.Equal(t, byFull, bySuffix)
}

func TestSimpleName(t *testing.T) {
	id := methodid.New("Ns.Cls.Foo(Int32)")

	assert.Equal(t, "Foo", id.SimpleName())
}

func TestWithoutParams(t *testing.T) {
	id := methodid.New("global::Ns.Cls.Foo(Int32)")

	assert.Equal(t, "Ns.Cls.Foo", id.WithoutParams().Raw())
}
