package cyclomatic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-metrics/pyquality/internal/pyast"
)

func parse(t *testing.T, source string) *pyast.Tree {
	t.Helper()

	tree, err := pyast.Parse(context.Background(), []byte(source))
	require.NoError(t, err)

	t.Cleanup(tree.Close)

	return tree
}

func TestAnalyze_SimpleFunctionHasComplexityOne(t *testing.T) {
	t.Parallel()

	tree := parse(t, "def f():\n    return 1\n")
	result := Analyze(tree, Options{})

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "f", result.Functions[0].Name)
	assert.Equal(t, 1, result.Functions[0].Complexity)
}

func TestAnalyze_IfElifAddsBranches(t *testing.T) {
	t.Parallel()

	source := "def f(x):\n    if x == 1:\n        return 1\n    elif x == 2:\n        return 2\n    return 3\n"
	tree := parse(t, source)
	result := Analyze(tree, Options{})

	require.Len(t, result.Functions, 1)
	assert.Equal(t, 3, result.Functions[0].Complexity)
}

func TestAnalyze_AssertSuppressedByDefault(t *testing.T) {
	t.Parallel()

	source := "def f(x):\n    assert x\n    return x\n"
	tree := parse(t, source)

	suppressed := Analyze(tree, Options{CountAssert: false})
	assert.Equal(t, 1, suppressed.Functions[0].Complexity)

	counted := Analyze(tree, Options{CountAssert: true})
	assert.Equal(t, 2, counted.Functions[0].Complexity)
}

func TestAnalyze_NestedFunctionIsClosureNotTopLevel(t *testing.T) {
	t.Parallel()

	source := "def outer():\n    def inner():\n        return 1\n    return inner\n"
	tree := parse(t, source)
	result := Analyze(tree, Options{})

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "outer", result.Functions[0].Name)
	require.Len(t, result.Functions[0].Closures, 1)
	assert.Equal(t, "inner", result.Functions[0].Closures[0].Name)
}

func TestAnalyze_ClassMethodsRollUpIntoClassComplexity(t *testing.T) {
	t.Parallel()

	source := "class C:\n    def a(self):\n        return 1\n\n    def b(self, x):\n        if x:\n            return 1\n        return 0\n"
	tree := parse(t, source)
	result := Analyze(tree, Options{})

	require.Len(t, result.Classes, 1)
	require.Len(t, result.Classes[0].Methods, 2)
	assert.True(t, result.Classes[0].Methods[0].IsMethod)
	assert.Equal(t, "C", result.Classes[0].Methods[0].ClassName)
	assert.Equal(t, 4, result.Classes[0].RealComplexity)
}

func TestAnalyze_MatchStatementWildcardDoesNotAddBranch(t *testing.T) {
	t.Parallel()

	source := "def f(x):\n    match x:\n        case 1:\n            return 1\n        case _:\n            return 0\n"
	tree := parse(t, source)
	result := Analyze(tree, Options{})

	require.Len(t, result.Functions, 1)
	assert.Equal(t, 2, result.Functions[0].Complexity)
}
