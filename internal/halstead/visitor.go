package halstead

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/basalt-metrics/pyquality/internal/pyast"
)

// moduleContext is the sentinel operand context for code outside any
// function body.
const moduleContext = ""

// Result is one file's Halstead analysis: the cumulative file-level totals
// and the per-function breakdown (including closures and methods, each
// keyed by its own byte range).
type Result struct {
	File      *Metrics
	Functions []FunctionHalstead
}

// Analyze walks tree and computes E per spec.md §4.E.
func Analyze(tree *pyast.Tree) Result {
	w := &walker{tree: tree}
	file := NewMetrics()

	w.walk(tree.Root(), moduleContext, file)

	return Result{File: file, Functions: w.functions}
}

type walker struct {
	tree      *pyast.Tree
	functions []FunctionHalstead
}

func (w *walker) walk(n sitter.Node, ctx string, m *Metrics) {
	if n.IsNull() {
		return
	}

	for _, child := range pyast.AllChildren(n) {
		switch child.Type() {
		case "function_definition":
			w.walkFunction(child, m)
		case "class_definition":
			w.walk(child.ChildByFieldName("body"), ctx, m)
		case "boolean_operator":
			w.walkBooleanChain(child, ctx, m)
		default:
			w.contribute(child, ctx, m)
			w.walk(child, ctx, m)
		}
	}
}

// walkFunction creates a fresh counter for a function body, traverses it
// under a context equal to the function's own (unprefixed) name, records the
// result, then merges the fresh counter into the enclosing scope's counter
// so file-level totals stay cumulative over all code.
func (w *walker) walkFunction(n sitter.Node, enclosing *Metrics) {
	name := w.tree.Text(n.ChildByFieldName("name"))
	fresh := NewMetrics()

	w.walk(n.ChildByFieldName("body"), name, fresh)

	w.functions = append(w.functions, FunctionHalstead{
		Name:      name,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Metrics:   fresh,
	})

	enclosing.Merge(fresh)
}

// walkBooleanChain handles a maximal run of the same boolean operator
// (e.g. "a and b and c", which tree-sitter nests as binary boolean_operator
// nodes) as a single contribution: one operator occurrence and one operand
// per value, each operand being the verbatim source slice of its value
// sub-expression rather than a canonical short form.
func (w *walker) walkBooleanChain(n sitter.Node, ctx string, m *Metrics) {
	op := w.tree.Text(n.ChildByFieldName("operator"))

	var values []sitter.Node

	var collect func(sitter.Node)

	collect = func(cur sitter.Node) {
		if cur.Type() == "boolean_operator" && w.tree.Text(cur.ChildByFieldName("operator")) == op {
			collect(cur.ChildByFieldName("left"))
			collect(cur.ChildByFieldName("right"))

			return
		}

		values = append(values, cur)
	}

	collect(n)

	tag := "BoolOp-" + booleanOpName(op)
	m.addOperatorOccurrence(tag)

	for _, v := range values {
		m.addOperand(ctx, w.tree.Text(v))
	}

	for _, v := range values {
		w.walk(v, ctx, m)
	}
}

func booleanOpName(op string) string {
	if op == "or" {
		return "Or"
	}

	return "And"
}

// contribute adds the operator/operand contribution of n itself, if n is one
// of the kinds spec.md §4.E enumerates. It never recurses; the caller's walk
// loop handles descending into n's own children regardless of outcome.
func (w *walker) contribute(n sitter.Node, ctx string, m *Metrics) {
	switch n.Type() {
	case "binary_operator":
		op := w.tree.Text(n.ChildByFieldName("operator"))
		m.addOperatorOccurrence("BinOp-" + arithmeticOpName(op))
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("left")))
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("right")))

	case "unary_operator":
		op := w.tree.Text(n.ChildByFieldName("operator"))
		m.addOperatorOccurrence("UnaryOp-" + arithmeticOpName(op))
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("argument")))

	case "not_operator":
		m.addOperatorOccurrence("UnaryOp-Not")
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("argument")))

	case "comparison_operator":
		w.contributeComparison(n, ctx, m)

	case "augmented_assignment":
		op := w.tree.Text(n.ChildByFieldName("operator"))
		base := trimAssignEquals(op)
		m.addOperatorOccurrence("BinOp-" + arithmeticOpName(base))
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("left")))
		m.addOperand(ctx, w.operandRepr(n.ChildByFieldName("right")))
	}
}

func (w *walker) contributeComparison(n sitter.Node, ctx string, m *Metrics) {
	children := pyast.AllChildren(n)

	for i := 0; i < len(children); i++ {
		tag, width := comparatorTag(children, i)
		if tag == "" {
			continue
		}

		m.addOperatorOccurrence("CompareOp-" + tag)
		i += width - 1
	}

	for _, v := range pyast.NamedChildren(n) {
		m.addOperand(ctx, w.operandRepr(v))
	}
}

// comparatorTag recognizes the comparator token (or "not in"/"is not" token
// pair) starting at children[i], returning its canonical tag and the number
// of tokens it consumed, or "" if children[i] is not a comparator token.
func comparatorTag(children []sitter.Node, i int) (string, int) {
	switch children[i].Type() {
	case "<":
		return "Lt", 1
	case "<=":
		return "LtE", 1
	case ">":
		return "Gt", 1
	case ">=":
		return "GtE", 1
	case "==":
		return "Eq", 1
	case "!=", "<>":
		return "NotEq", 1
	case "in":
		return "In", 1
	case "is":
		if i+1 < len(children) && children[i+1].Type() == "not" {
			return "IsNot", 2
		}

		return "Is", 1
	case "not":
		if i+1 < len(children) && children[i+1].Type() == "in" {
			return "NotIn", 2
		}

		return "", 1
	default:
		return "", 1
	}
}

// operandRepr returns the canonical short-form representation of n as an
// operand: name text, stringified literal, or attribute name, falling back
// to the verbatim source slice for any other expression kind.
func (w *walker) operandRepr(n sitter.Node) string {
	if n.IsNull() {
		return ""
	}

	switch n.Type() {
	case "attribute":
		return w.tree.Text(n.ChildByFieldName("attribute"))
	default:
		return w.tree.Text(n)
	}
}

var arithmeticOpNames = map[string]string{
	"+": "Add", "-": "Sub", "*": "Mult", "/": "Div", "//": "FloorDiv",
	"%": "Mod", "**": "Pow", "&": "BitAnd", "|": "BitOr", "^": "BitXor",
	"<<": "LShift", ">>": "RShift", "@": "MatMult", "~": "Invert",
}

func arithmeticOpName(op string) string {
	if name, ok := arithmeticOpNames[op]; ok {
		return name
	}

	return op
}

func trimAssignEquals(op string) string {
	if len(op) > 0 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}

	return op
}
