package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

func TestResolve_DirectoryDiscoversSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.cs"), "class Foo {}")
	writeFile(t, filepath.Join(dir, "bin", "Generated.cs"), "class Generated {}")
	writeFile(t, filepath.Join(dir, "Notes.txt"), "not a source file")

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)
	require.Len(t, snap.Files, 1)
	assert.Contains(t, snap.Files[0].Path, "Foo.cs")
}

func TestResolve_EmptyDirectoryIsWorkspaceInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := workspace.Resolve(dir)
	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.WorkspaceInvalid))
}

func TestResolve_MissingPathIsWorkspaceInvalid(t *testing.T) {
	_, err := workspace.Resolve(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.WorkspaceInvalid))
}

func TestResolve_FingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.cs")
	writeFile(t, path, "class Foo { void A() {} }")

	snap1, err := workspace.Resolve(dir)
	require.NoError(t, err)

	writeFile(t, path, "class Foo { void A() { return; } }")

	snap2, err := workspace.Resolve(dir)
	require.NoError(t, err)

	assert.NotEqual(t, snap1.Fingerprint, snap2.Fingerprint)
}

func TestResolve_FingerprintStableForUnchangedWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.cs"), "class Foo {}")

	snap1, err := workspace.Resolve(dir)
	require.NoError(t, err)

	snap2, err := workspace.Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, snap1.Fingerprint, snap2.Fingerprint)
}

func TestResolve_SolutionEnumeratesCSharpProjectsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Lib", "Lib.cs"), "class Lib {}")
	writeFile(t, filepath.Join(root, "Native", "native.cpp"), "// not C#")

	sln := "Microsoft Visual Studio Solution File, Format Version 12.00\n" +
		`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Lib", "Lib\Lib.csproj", "{11111111-1111-1111-1111-111111111111}"` + "\n" +
		"EndProject\n" +
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Native", "Native\Native.vcxproj", "{22222222-2222-2222-2222-222222222222}"` + "\n" +
		"EndProject\n"
	slnPath := filepath.Join(root, "App.sln")
	writeFile(t, slnPath, sln)

	snap, err := workspace.Resolve(slnPath)
	require.NoError(t, err)
	require.Len(t, snap.Files, 1)
	assert.Contains(t, snap.Files[0].Path, "Lib.cs")
}

func TestResolveFiles_IncludesListVerbatim(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A.cs")
	b := filepath.Join(dir, "B.cs")
	writeFile(t, a, "class A {}")
	writeFile(t, b, "class B {}")
	writeFile(t, filepath.Join(dir, "C.cs"), "class C {}")

	snap, err := workspace.ResolveFiles([]string{b, a, b})
	require.NoError(t, err)

	require.Len(t, snap.Files, 2)
	assert.Equal(t, workspace.KindFileList, snap.Root.Kind)
	assert.Contains(t, snap.Files[0].Path, "A.cs")
	assert.Contains(t, snap.Files[1].Path, "B.cs")
}

func TestResolveFiles_EmptyListIsWorkspaceInvalid(t *testing.T) {
	_, err := workspace.ResolveFiles(nil)
	require.Error(t, err)
	assert.True(t, tierrors.Is(err, tierrors.WorkspaceInvalid))
}

func TestResolve_SingleSourceFileActsAsFileList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.cs")
	writeFile(t, path, "class Foo {}")

	snap, err := workspace.Resolve(path)
	require.NoError(t, err)

	require.Len(t, snap.Files, 1)
	assert.Equal(t, workspace.KindFileList, snap.Root.Kind)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
