package syntax

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// SyntaxTree wraps a parsed file's tree-sitter tree and backing content.
// Callers must call Close when the tree is no longer needed.
type SyntaxTree struct {
	tree      *sitter.Tree
	root      sitter.Node
	content   []byte
	path      string
	hasErrors bool
}

// Path returns the source file path this tree was parsed from.
func (t *SyntaxTree) Path() string {
	return t.path
}

// HasErrors reports whether tree-sitter recovered from a syntax error
// while parsing. The tree is still usable: only the malformed subtree is
// degraded, not the whole file.
func (t *SyntaxTree) HasErrors() bool {
	return t.hasErrors
}

// Close releases the underlying tree-sitter tree.
func (t *SyntaxTree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Text returns the source text spanned by a node.
func (t *SyntaxTree) Text(n sitter.Node) string {
	return string(t.content[n.StartByte():n.EndByte()])
}

// Root returns the tree's root node.
func (t *SyntaxTree) Root() sitter.Node {
	return t.root
}

// LineRange returns the 1-based [start, end] line range spanned by a node.
func (t *SyntaxTree) LineRange(n sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}
