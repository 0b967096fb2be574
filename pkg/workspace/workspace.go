// Package workspace resolves an analysis target (a solution file, a
// project file, or a bare directory) into a WorkspaceSnapshot: the ordered
// set of source files the rest of the pipeline will parse, plus a
// fingerprint used to key cached call graphs.
package workspace

import (
	"crypto/sha256"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
)

// skippedDirs are directory names never descended into during discovery.
var skippedDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	".git":         true,
	".vs":          true,
	"node_modules": true,
}

// SourceFile is a single discovered source file.
type SourceFile struct {
	Path string // Absolute path.
	Size int64
}

// WorkspaceRoot identifies the resolved analysis target.
type WorkspaceRoot struct {
	Path string // Absolute path to the root directory actually walked.
	Kind RootKind
}

// RootKind classifies how the workspace root was resolved.
type RootKind int

const (
	// KindDirectory means the input was a bare directory, walked in full.
	KindDirectory RootKind = iota
	// KindSolution means the input was a .sln file; the projects it
	// references were enumerated and their directories walked.
	KindSolution
	// KindProject means the input was a single .csproj file.
	KindProject
	// KindFileList means the input was an explicit list of source files,
	// included verbatim.
	KindFileList
)

// WorkspaceSnapshot is the immutable result of resolving a workspace: the
// ordered file list plus a content fingerprint.
type WorkspaceSnapshot struct {
	Root        WorkspaceRoot
	Files       []SourceFile
	Fingerprint string
}

// Resolve inspects input (a path to a .sln, a .csproj, or a directory) and
// returns a WorkspaceSnapshot. It returns a tierrors.WorkspaceInvalid error
// when input does not exist, is empty, or yields no source files.
func Resolve(input string) (*WorkspaceSnapshot, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, tierrors.Wrap(tierrors.WorkspaceInvalid, input, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, tierrors.Wrap(tierrors.WorkspaceInvalid, abs, err)
	}

	var (
		files []SourceFile
		root  WorkspaceRoot
	)

	switch {
	case !info.IsDir() && strings.EqualFold(filepath.Ext(abs), ".sln"):
		dirs, parseErr := parseSolution(abs)
		if parseErr != nil {
			return nil, tierrors.Wrap(tierrors.WorkspaceInvalid, abs, parseErr)
		}

		root = WorkspaceRoot{Path: filepath.Dir(abs), Kind: KindSolution}

		for _, d := range dirs {
			files = append(files, walkDir(d)...)
		}
	case !info.IsDir() && strings.EqualFold(filepath.Ext(abs), ".csproj"):
		root = WorkspaceRoot{Path: filepath.Dir(abs), Kind: KindProject}
		files = filterProjectSources(filepath.Dir(abs), abs)
	case info.IsDir():
		root = WorkspaceRoot{Path: abs, Kind: KindDirectory}
		files = walkDir(abs)
	case strings.EqualFold(filepath.Ext(abs), ".cs"):
		return ResolveFiles([]string{abs})
	default:
		return nil, tierrors.New(tierrors.WorkspaceInvalid, abs+": unsupported workspace input")
	}

	files = dedupeAndSort(files)

	if len(files) == 0 {
		return nil, tierrors.New(tierrors.WorkspaceInvalid, abs+": no source files discovered")
	}

	fp, err := fingerprint(files)
	if err != nil {
		return nil, tierrors.Wrap(tierrors.WorkspaceInvalid, abs, err)
	}

	return &WorkspaceSnapshot{Root: root, Files: files, Fingerprint: fp}, nil
}

// ResolveFiles builds a snapshot from an explicit file list: the paths
// are included verbatim (canonicalized and deduplicated), with no
// manifest or directory discovery.
func ResolveFiles(paths []string) (*WorkspaceSnapshot, error) {
	var files []SourceFile

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}

		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}

		files = append(files, SourceFile{Path: abs, Size: info.Size()})
	}

	files = dedupeAndSort(files)

	if len(files) == 0 {
		return nil, tierrors.New(tierrors.WorkspaceInvalid, "file list: no source files discovered")
	}

	fp, err := fingerprint(files)
	if err != nil {
		return nil, tierrors.Wrap(tierrors.WorkspaceInvalid, "file list", err)
	}

	root := WorkspaceRoot{Path: filepath.Dir(files[0].Path), Kind: KindFileList}

	return &WorkspaceSnapshot{Root: root, Files: files, Fingerprint: fp}, nil
}

// walkDir discovers every .cs source file under dir, skipping build and VCS
// directories.
func walkDir(dir string) []SourceFile {
	var files []SourceFile

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort discovery, unreadable entries are skipped.
		}

		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".cs") {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil //nolint:nilerr
		}

		files = append(files, SourceFile{Path: path, Size: info.Size()})

		return nil
	})

	return files
}

func dedupeAndSort(files []SourceFile) []SourceFile {
	seen := make(map[string]bool, len(files))

	out := make([]SourceFile, 0, len(files))

	for _, f := range files {
		if seen[f.Path] {
			continue
		}

		seen[f.Path] = true
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out
}

// fingerprint folds an ordered (path, size, content-hash) tuple sequence
// into a stable 128-bit identity, used to key cached call graphs so a
// workspace's mutation invalidates exactly the graphs built from it.
func fingerprint(files []SourceFile) (string, error) {
	h := sha256.New()

	for _, f := range files {
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return "", err
		}

		var sizeBuf [8]byte
		binary.LittleEndian.PutUint64(sizeBuf[:], uint64(f.Size))

		h.Write([]byte(f.Path))
		h.Write(sizeBuf[:])
		h.Write(content)
	}

	sum := h.Sum(nil)

	return hexEncode(sum[:16]), nil
}

func hexEncode(b []byte) string {
	const hexChars = "0123456789abcdef"

	buf := make([]byte, len(b)*2)
	for i, v := range b {
		buf[i*2] = hexChars[v>>4]
		buf[i*2+1] = hexChars[v&0x0f]
	}

	return string(buf)
}
