package pyast

import sitter "github.com/alexaandru/go-tree-sitter-bare"

// NamedChildren returns every named child of n, in source order.
func NamedChildren(n sitter.Node) []sitter.Node {
	count := n.NamedChildCount()
	children := make([]sitter.Node, 0, count)

	for i := range count {
		children = append(children, n.NamedChild(i))
	}

	return children
}

// AllChildren returns every child of n, named or anonymous, in source order.
// The raw counter walks this form of the tree because punctuation and
// keyword tokens (anonymous nodes) carry line/position information that
// named-only traversal discards.
func AllChildren(n sitter.Node) []sitter.Node {
	count := n.ChildCount()
	children := make([]sitter.Node, 0, count)

	for i := range count {
		children = append(children, n.Child(i))
	}

	return children
}

// Leaves returns every leaf node (zero children) under n, in source order,
// used as a substitute token stream: go-tree-sitter-bare exposes the
// concrete syntax tree but not a flat lexer token API, so the raw counter
// walks to the leaves of the CST instead.
func Leaves(n sitter.Node) []sitter.Node {
	var leaves []sitter.Node

	var walk func(sitter.Node)

	walk = func(cur sitter.Node) {
		if cur.IsNull() {
			return
		}

		count := cur.ChildCount()
		if count == 0 {
			leaves = append(leaves, cur)

			return
		}

		for i := range count {
			walk(cur.Child(i))
		}
	}

	walk(n)

	return leaves
}

// CollectByType returns every descendant of n (n included) whose Type equals
// typ, in pre-order. Matches are not searched further below a match.
func CollectByType(n sitter.Node, typ string) []sitter.Node {
	var out []sitter.Node

	var walk func(sitter.Node)

	walk = func(cur sitter.Node) {
		if cur.IsNull() {
			return
		}

		if cur.Type() == typ {
			out = append(out, cur)

			return
		}

		count := cur.NamedChildCount()
		for i := range count {
			walk(cur.NamedChild(i))
		}
	}

	walk(n)

	return out
}

// FindChildByType returns the first named child of n whose Type equals typ,
// or a null node if none matches.
func FindChildByType(n sitter.Node, typ string) sitter.Node {
	count := n.NamedChildCount()
	for i := range count {
		child := n.NamedChild(i)
		if child.Type() == typ {
			return child
		}
	}

	return sitter.Node{}
}
