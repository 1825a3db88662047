package rawcount

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/basalt-metrics/pyquality/internal/pyast"
	"github.com/basalt-metrics/pyquality/pkg/mathutil"
)

// statementTypes enumerates the Python grammar's statement-level node kinds.
// Every occurrence, at any nesting depth, is one logical line: a compound
// header (if/for/while/...) and the statements inside its block are each
// counted once, which naturally gives an inline "if x: return 1" a count of
// two without any special-casing, and a semicolon-separated run on one
// physical line a count equal to the number of statements in that run.
var statementTypes = map[string]bool{
	"expression_statement":  true,
	"return_statement":      true,
	"delete_statement":      true,
	"raise_statement":       true,
	"pass_statement":        true,
	"break_statement":       true,
	"continue_statement":    true,
	"import_statement":      true,
	"import_from_statement": true,
	"global_statement":      true,
	"nonlocal_statement":    true,
	"assert_statement":      true,
	"print_statement":       true,
	"exec_statement":        true,
	"if_statement":          true,
	"for_statement":         true,
	"while_statement":       true,
	"try_statement":         true,
	"with_statement":        true,
	"function_definition":   true,
	"class_definition":      true,
	"match_statement":       true,
	"decorator":             true,
}

// Count derives RawMetrics from source and its parsed tree.
func Count(source []byte, tree *pyast.Tree) Metrics {
	lines := splitPhysicalLines(source)

	var m Metrics

	m.LOC = len(lines)
	if m.LOC == 0 {
		return m
	}

	insideMulti := multilineStringLines(tree)
	commentOnly := make(map[int]bool)
	docstringLines := make(map[int]bool)

	for _, n := range pyast.CollectByType(tree.Root(), "comment") {
		m.Comments++

		line := int(n.StartPoint().Row)
		if commentIsLineExclusive(lines, n) {
			commentOnly[line] = true
		}
	}

	for _, n := range pyast.CollectByType(tree.Root(), "expression_statement") {
		if isBareSingleLineString(n) {
			docstringLines[int(n.StartPoint().Row)] = true
		}
	}

	for i, text := range lines {
		trimmed := strings.TrimSpace(text)

		switch {
		case trimmed == "" && !insideMulti[i]:
			m.Blank++
		case insideMulti[i] && trimmed != "":
			m.Multi++
		case commentOnly[i] || docstringLines[i]:
			m.SingleComments++
		}
	}

	m.SLOC = m.LOC - m.Blank - m.Multi - m.SingleComments
	m.LLOC = countLogicalLines(tree.Root())

	return m
}

// splitPhysicalLines splits source into physical lines, normalizing CRLF and
// CR to LF. A source that ends with a terminator yields no trailing empty
// line; one that doesn't ends with one unterminated final line.
func splitPhysicalLines(source []byte) []string {
	normalized := strings.ReplaceAll(string(source), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	if normalized == "" {
		return nil
	}

	lines := strings.Split(normalized, "\n")
	if strings.HasSuffix(normalized, "\n") {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// multilineStringLines returns the set of 0-based line indices covered by
// any string literal token that spans more than one physical line.
func multilineStringLines(tree *pyast.Tree) map[int]bool {
	covered := make(map[int]bool)

	for _, n := range pyast.CollectByType(tree.Root(), "string") {
		start := int(n.StartPoint().Row)
		end := int(n.EndPoint().Row)

		if end == start {
			continue
		}

		for line := start; line <= end; line++ {
			covered[line] = true
		}
	}

	return covered
}

// commentIsLineExclusive reports whether n's line contains nothing but
// leading whitespace before the comment marker.
func commentIsLineExclusive(lines []string, n sitter.Node) bool {
	line := int(n.StartPoint().Row)
	if line < 0 || line >= len(lines) {
		return false
	}

	prefix := lines[line][:mathutil.Min(int(n.StartPoint().Column), len(lines[line]))]

	return strings.TrimSpace(prefix) == ""
}

// isBareSingleLineString reports whether n is an expression statement whose
// sole content is a string literal confined to one physical line — the
// docstring shape that counts toward SingleComments rather than SLOC.
func isBareSingleLineString(n sitter.Node) bool {
	if n.NamedChildCount() != 1 {
		return false
	}

	child := n.NamedChild(0)
	if child.Type() != "string" {
		return false
	}

	return child.StartPoint().Row == child.EndPoint().Row
}

// countLogicalLines counts every statement-level node under n, at any depth.
func countLogicalLines(n sitter.Node) int {
	total := 0

	var walk func(sitter.Node)

	walk = func(cur sitter.Node) {
		if cur.IsNull() {
			return
		}

		if statementTypes[cur.Type()] {
			total++
		}

		count := cur.NamedChildCount()
		for i := range count {
			walk(cur.NamedChild(i))
		}
	}

	walk(n)

	return total
}
