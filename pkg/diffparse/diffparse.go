// Package diffparse extracts per-file change records from unified-diff
// text, accepting the text itself, a path to a diff file, or the output of
// a user-supplied revision-control command run with the workspace root as
// its working directory.
package diffparse

import (
	"bufio"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRe matches a unified-diff hunk header, e.g. "@@ -10,5 +12,7 @@".
var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// csharpSignatureRe is a best-effort heuristic for a C# method signature
// line: an access/static modifier set, a return type, a name, and a
// parameter list. It is intentionally permissive — a hint, not a parser.
var csharpSignatureRe = regexp.MustCompile(`(?:public|private|protected|internal|static)[\w\s<>\[\],]*\s+(\w+)\s*\([^)]*\)\s*\{?\s*$`)

// csharpTypeDeclRe matches a type declaration line.
var csharpTypeDeclRe = regexp.MustCompile(`(?:class|struct|interface|record)\s+(\w+)`)

// Hunk is a single @@ ... @@ block within a file's diff.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	AddedLines         []string
	RemovedLines       []string
}

// ChangeRecord is the per-file result of parsing a diff.
type ChangeRecord struct {
	Path           string
	Hunks          []Hunk
	ChangedMethods []string // Best-effort; empty means "no recognizable signature".
	ChangedTypes   []string
}

// DiffSet is the full parsed result of one diff input.
type DiffSet struct {
	Files []ChangeRecord
}

// ParseText parses literal unified-diff text.
func ParseText(diff string) (*DiffSet, error) {
	return parse(diff)
}

// ParseFile reads and parses a diff file.
func ParseFile(path string) (*DiffSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parse(string(content))
}

// ParseCommand runs an external VCS command (e.g. "git diff") with dir as
// its working directory and parses its stdout as unified-diff text.
func ParseCommand(dir string, name string, args ...string) (*DiffSet, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // caller-supplied VCS command is an accepted input modality.
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	return parse(string(out))
}

// fileHeaderRe matches a "+++ b/path" (or "+++ path") diff file header.
var fileHeaderRe = regexp.MustCompile(`^\+\+\+ (?:b/)?(.+)$`)

func parse(diff string) (*DiffSet, error) {
	var (
		set     DiffSet
		current *ChangeRecord
		hunk    *Hunk
	)

	flushHunk := func() {
		if current != nil && hunk != nil {
			current.Hunks = append(current.Hunks, *hunk)
			hunk = nil
		}
	}

	flushFile := func() {
		flushHunk()

		if current != nil {
			current.ChangedMethods = dedupe(current.ChangedMethods)
			current.ChangedTypes = dedupe(current.ChangedTypes)
			set.Files = append(set.Files, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
		case strings.HasPrefix(line, "+++ "):
			if m := fileHeaderRe.FindStringSubmatch(line); m != nil && m[1] != "/dev/null" {
				if current == nil {
					current = &ChangeRecord{Path: m[1]}
				} else {
					current.Path = m[1]
				}
			}
		case strings.HasPrefix(line, "@@ "):
			flushHunk()

			if current == nil {
				current = &ChangeRecord{}
			}

			hunk = parseHunkHeader(line)
		case hunk != nil && strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			text := line[1:]
			hunk.AddedLines = append(hunk.AddedLines, text)
			scanSignature(current, text)
		case hunk != nil && strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			hunk.RemovedLines = append(hunk.RemovedLines, line[1:])
		}
	}

	flushFile()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &set, nil
}

func parseHunkHeader(line string) *Hunk {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return &Hunk{}
	}

	return &Hunk{
		OldStart: atoiOr(m[1], 0),
		OldLines: atoiOr(m[2], 1),
		NewStart: atoiOr(m[3], 0),
		NewLines: atoiOr(m[4], 1),
	}
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return v
}

func scanSignature(rec *ChangeRecord, line string) {
	if rec == nil {
		return
	}

	if m := csharpSignatureRe.FindStringSubmatch(line); m != nil {
		rec.ChangedMethods = append(rec.ChangedMethods, m[1])
	}

	if m := csharpTypeDeclRe.FindStringSubmatch(line); m != nil {
		rec.ChangedTypes = append(rec.ChangedTypes, m[1])
	}
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(items))

	out := make([]string, 0, len(items))

	for _, it := range items {
		if seen[it] {
			continue
		}

		seen[it] = true
		out = append(out, it)
	}

	return out
}
