// Package syntax wraps tree-sitter parsing of C#-family source files into
// the method- and attribute-level facts the Call Graph Builder and Method
// Classifier consume. Parsing uses go-tree-sitter-bare with the c_sharp
// grammar from go-sitter-forest; parser instances are pooled to avoid
// repeated grammar initialization across files.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ErrNoRootNode is returned when tree-sitter produces an empty tree.
var ErrNoRootNode = errors.New("syntax: parser produced no root node")

// Parser parses C# source into SyntaxTrees. A Parser is safe for
// concurrent use: each call borrows a *sitter.Parser from an internal pool
// instead of sharing one across goroutines.
type Parser struct {
	language *sitter.Language
	pool     sync.Pool
}

// NewParser constructs a Parser for the C# grammar.
func NewParser() (*Parser, error) {
	lang := forest.GetLanguage("c_sharp")
	if lang == nil {
		return nil, fmt.Errorf("syntax: c_sharp grammar unavailable")
	}

	p := &Parser{language: lang}
	p.pool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return p, nil
}

// ParseFile parses source content and returns its SyntaxTree. A tree with
// ERROR nodes is still returned (HasErrors reports it); only a completely
// unparsable input (no root node) is an error, so one malformed file never
// aborts a workspace-wide build.
func (p *Parser) ParseFile(ctx context.Context, path string, content []byte) (*SyntaxTree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		tsParser = sitter.NewParser()
		tsParser.SetLanguage(p.language)
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("syntax: parsing %s: %w", path, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, ErrNoRootNode
	}

	return &SyntaxTree{tree: tree, root: root, content: content, path: path, hasErrors: root.HasError()}, nil
}
