// Package pyast wraps the Python tree-sitter grammar in a small, single
// language parser. Unlike the teacher's generic multi-language UAST/mapping
// layer, pyast talks directly to go-tree-sitter-bare and go-sitter-forest's
// Python grammar so metric visitors see the exact concrete syntax tree node
// kinds the reference semantics are defined against, with no intermediate
// normalization step that could blur node identity.
package pyast

import (
	"context"
	"errors"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	python "github.com/alexaandru/go-sitter-forest/python"
)

// ErrNoRoot is returned when tree-sitter produced no root node for a parse.
var ErrNoRoot = errors.New("pyast: parser produced no root node")

var language = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(python.GetLanguage())
})

// parserPool recycles tree-sitter parser instances across files; constructing
// a parser allocates a fresh C-side state machine, so pooling avoids that
// cost on every one of the tens of thousands of files a revision may contain.
var parserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(language())

		return p
	},
}

// Tree owns one parsed Python source file. Callers must call Close once done
// traversing it to release the tree-sitter tree.
type Tree struct {
	Source []byte
	tree    sitter.Tree
}

// Parse parses Python source into a Tree. Syntax errors do not make Parse
// fail — tree-sitter is error-tolerant — and HasError reports whether the
// tree contains any ERROR or MISSING node. Parse returns an error only when
// the parser itself fails or produces no root node.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		parser = sitter.NewParser()
		parser.SetLanguage(language())
	}

	tree, err := parser.ParseString(ctx, nil, source)

	parserPool.Put(parser)

	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	if root.IsNull() {
		return nil, ErrNoRoot
	}

	return &Tree{Source: source, tree: tree}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() sitter.Node {
	return t.tree.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// HasError reports whether the parse tree contains any ERROR or MISSING
// node, tree-sitter's universal markers for unparseable input.
func (t *Tree) HasError() bool {
	return t.Root().HasError()
}

// Text returns the verbatim source slice covered by n.
func (t *Tree) Text(n sitter.Node) string {
	if n.IsNull() {
		return ""
	}

	return string(t.Source[n.StartByte():n.EndByte()])
}
