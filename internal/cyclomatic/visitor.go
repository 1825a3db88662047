package cyclomatic

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/basalt-metrics/pyquality/internal/pyast"
)

// Options configures the visitor's optional contributions.
type Options struct {
	// CountAssert includes assert statements in the branch count. The
	// reference behavior suppresses them by default (no_assert=true).
	CountAssert bool
}

// Result holds every function and top-level class discovered in a file.
// Closures (functions nested inside another function's body) are walked
// for the sake of not polluting their enclosing function's count, but are
// never themselves reported here — only top-level functions and methods
// reachable from a class body are.
type Result struct {
	Functions []FunctionComplexity
	Classes   []ClassComplexity
}

// Analyze walks tree's root module body and computes D per spec.md §4.D.
func Analyze(tree *pyast.Tree, opts Options) Result {
	v := &visitor{tree: tree, opts: opts}

	funcs, classes := v.collectDefs(tree.Root(), "")

	// Methods of top-level classes are also listed in the flat function list.
	for _, c := range classes {
		funcs = append(funcs, c.Methods...)
	}

	return Result{Functions: funcs, Classes: classes}
}

type visitor struct {
	tree *pyast.Tree
	opts Options
}

// collectDefs finds every function_definition and class_definition reachable
// from n without descending below one it finds — a function's own nested
// defs are closures and a class's own nested classes are inner classes, each
// analyzed by a fresh recursive call, never flattened into this level's
// result. className is the enclosing class name, or "" if n is module/
// function scope (used to mark methods and to build ClassComplexity.Methods).
func (v *visitor) collectDefs(n sitter.Node, className string) ([]FunctionComplexity, []ClassComplexity) {
	var funcs []FunctionComplexity

	var classes []ClassComplexity

	for _, child := range pyast.NamedChildren(n) {
		def := unwrapDecorated(child)

		switch def.Type() {
		case "function_definition":
			funcs = append(funcs, v.analyzeFunction(def, className))
		case "class_definition":
			classes = append(classes, v.analyzeClass(def))
		default:
			childFuncs, childClasses := v.collectDefs(child, className)
			funcs = append(funcs, childFuncs...)
			classes = append(classes, childClasses...)
		}
	}

	return funcs, classes
}

// unwrapDecorated returns n's wrapped definition if n is a
// decorated_definition, n otherwise.
func unwrapDecorated(n sitter.Node) sitter.Node {
	if n.Type() != "decorated_definition" {
		return n
	}

	def := n.ChildByFieldName("definition")
	if !def.IsNull() {
		return def
	}

	return n
}

func (v *visitor) analyzeFunction(n sitter.Node, className string) FunctionComplexity {
	name := v.tree.Text(n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")

	complexity := 1 + v.walkBranches(body)

	// Nested functions become closures of this function; their complexity
	// does not roll up into this count. Nested classes found inside a
	// function body have no slot in this data model and are not reported.
	closures, _ := v.collectDefs(body, "")

	return FunctionComplexity{
		Name:       name,
		StartByte:  n.StartByte(),
		EndByte:    n.EndByte(),
		StartLine:  int(n.StartPoint().Row) + 1,
		EndLine:    int(n.EndPoint().Row) + 1,
		IsMethod:   className != "",
		ClassName:  className,
		Complexity: complexity,
		Closures:   closures,
	}
}

func (v *visitor) analyzeClass(n sitter.Node) ClassComplexity {
	name := v.tree.Text(n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")

	methods, inner := v.collectDefs(body, name)

	real := 1 + v.walkBranchesSkippingDefs(body)
	for _, m := range methods {
		real += m.Complexity
	}

	for _, c := range inner {
		real += c.RealComplexity
	}

	complexity := real
	if n := len(methods); n > 0 {
		complexity = real / n
		if n > 1 {
			complexity++
		}
	}

	return ClassComplexity{
		Name:           name,
		StartByte:      n.StartByte(),
		EndByte:        n.EndByte(),
		StartLine:      int(n.StartPoint().Row) + 1,
		EndLine:        int(n.EndPoint().Row) + 1,
		Methods:        methods,
		InnerClasses:   inner,
		RealComplexity: real,
		Complexity:     complexity,
	}
}

// walkBranches sums construct contributions over n and its descendants,
// stopping (contributing 0) at any nested function_definition or
// class_definition — those are separate units whose own complexity never
// rolls up into the one being computed here.
func (v *visitor) walkBranches(n sitter.Node) int {
	return v.walkBranchesSkippingDefs(n)
}

func (v *visitor) walkBranchesSkippingDefs(n sitter.Node) int {
	if n.IsNull() {
		return 0
	}

	total := 0

	for _, child := range pyast.AllChildren(n) {
		def := unwrapDecorated(child)
		if def.Type() == "function_definition" || def.Type() == "class_definition" {
			continue
		}

		total += v.nodeContribution(child)
		total += v.walkBranchesSkippingDefs(child)
	}

	return total
}

func (v *visitor) nodeContribution(n sitter.Node) int {
	switch n.Type() {
	case "if_statement":
		contribution := 1
		for _, c := range pyast.NamedChildren(n) {
			if c.Type() == "elif_clause" {
				contribution++
			}
		}

		return contribution

	case "for_statement", "while_statement":
		contribution := 1
		if hasNamedChildOfType(n, "else_clause") {
			contribution++
		}

		return contribution

	case "try_statement":
		contribution := 0
		for _, c := range pyast.NamedChildren(n) {
			if c.Type() == "except_clause" || c.Type() == "except_group_clause" {
				contribution++
			}
		}

		if hasNamedChildOfType(n, "else_clause") {
			contribution++
		}

		return contribution

	case "match_statement":
		return v.matchContribution(n)

	case "assert_statement":
		if v.opts.CountAssert {
			return 1
		}

		return 0

	case "boolean_operator":
		return 1

	case "conditional_expression":
		return 1

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		contribution := 0

		for _, c := range pyast.NamedChildren(n) {
			switch c.Type() {
			case "for_in_clause", "if_clause":
				contribution++
			}
		}

		return contribution

	default:
		return 0
	}
}

func (v *visitor) matchContribution(n sitter.Node) int {
	cases := 0
	hasWildcard := false

	for _, c := range pyast.NamedChildren(n) {
		if c.Type() != "case_clause" {
			continue
		}

		cases++

		if v.isWildcardCase(c) {
			hasWildcard = true
		}
	}

	if hasWildcard {
		cases--
	}

	return cases
}

// isWildcardCase reports whether case_clause c's pattern is the bare "_"
// wildcard with no guard.
func (v *visitor) isWildcardCase(c sitter.Node) bool {
	pattern := c.ChildByFieldName("pattern")
	if pattern.IsNull() {
		children := pyast.NamedChildren(c)
		if len(children) == 0 {
			return false
		}

		pattern = children[0]
	}

	if !c.ChildByFieldName("guard").IsNull() || hasNamedChildOfType(c, "if_clause") {
		return false
	}

	return v.tree.Text(pattern) == "_"
}

func hasNamedChildOfType(n sitter.Node, typ string) bool {
	for _, c := range pyast.NamedChildren(n) {
		if c.Type() == typ {
			return true
		}
	}

	return false
}
