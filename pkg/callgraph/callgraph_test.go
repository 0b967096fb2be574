package callgraph_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/cache"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/callgraph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

const directCallSource = `
namespace A
{
    public class B
    {
        public void Foo()
        {
            Bar();
        }

        public void Bar()
        {
        }
    }
}
`

const testSource = `
namespace T
{
    public class U
    {
        [Fact]
        public void TestsFoo()
        {
            var b = new A.B();
            b.Foo();
        }
    }
}
`

func TestBuild_DirectCallResolvesEdge(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(directCallSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.cs"), []byte(testSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	g, diag, err := b.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 2, diag.FilesParsed)
	assert.GreaterOrEqual(t, g.NodeCount(), 3)

	fooIdx, ok := g.IndexOf(methodid.New("A.B.Foo()"))
	require.True(t, ok)

	barIdx, ok := g.IndexOf(methodid.New("A.B.Bar()"))
	require.True(t, ok)

	assert.Contains(t, g.ForwardNeighbors(fooIdx), barIdx)
}

func TestBuild_MethodCacheHitSkipsReparse(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(directCallSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	shared := cache.New()

	b1, err := callgraph.NewBuilder(nil, callgraph.WithMethodCache(shared))
	require.NoError(t, err)

	g1, diag1, err := b1.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Zero(t, diag1.MethodCacheHits)

	b2, err := callgraph.NewBuilder(nil, callgraph.WithMethodCache(shared))
	require.NoError(t, err)

	g2, diag2, err := b2.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 1, diag2.MethodCacheHits)
	assert.Equal(t, g1.NodeCount(), g2.NodeCount())
}

func TestBuild_IdenticalSnapshotsSerializeIdentically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(directCallSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.cs"), []byte(testSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	g1, _, err := b.Build(context.Background(), snap)
	require.NoError(t, err)

	g2, _, err := b.Build(context.Background(), snap)
	require.NoError(t, err)

	p1, err := g1.MarshalBinary()
	require.NoError(t, err)

	p2, err := g2.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
}

func TestBuildScoped_KeepsDirectNeighborAtDepthOne(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(directCallSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.cs"), []byte(testSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	scoped, _, err := b.BuildScoped(context.Background(), snap, []methodid.ID{methodid.New("A.B.Foo()")}, 1)
	require.NoError(t, err)

	_, ok := scoped.IndexOf(methodid.New("A.B.Bar()"))
	assert.True(t, ok, "direct neighbor should survive a depth-1 expansion")
}

func TestBuildScoped_LeavesUnrelatedFilesUnparsed(t *testing.T) {
	unrelatedSource := `
namespace Other
{
    public class Widget
    {
        public void Render()
        {
            Paint();
        }

        public void Paint()
        {
        }
    }
}
`

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.cs"), []byte(directCallSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.cs"), []byte(testSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Widget.cs"), []byte(unrelatedSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	scoped, diag, err := b.BuildScoped(context.Background(), snap, []methodid.ID{methodid.New("A.B.Foo()")}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, diag.FilesParsed, "the file never mentioning a frontier name stays unparsed")

	_, ok := scoped.IndexOf(methodid.New("Other.Widget.Render()"))
	assert.False(t, ok)

	_, ok = scoped.IndexOf(methodid.New("T.U.TestsFoo()"))
	assert.True(t, ok, "the calling test is within a depth-2 expansion")
}
