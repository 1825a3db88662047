package maintainability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_ZeroVolumeYieldsPerfectScore(t *testing.T) {
	t.Parallel()

	result := Compute(0, 0, 10, 10, 0, 0, DefaultOptions())

	assert.InDelta(t, 100, result.MI, 0.0001)
	assert.Equal(t, "A", result.Rank)
}

func TestCompute_ZeroLLOCYieldsPerfectScore(t *testing.T) {
	t.Parallel()

	result := Compute(50, 5, 0, 10, 0, 0, DefaultOptions())

	assert.InDelta(t, 100, result.MI, 0.0001)
}

func TestCompute_HighComplexityLowersScore(t *testing.T) {
	t.Parallel()

	low := Compute(100, 1, 20, 20, 0, 0, DefaultOptions())
	high := Compute(100, 50, 20, 20, 0, 0, DefaultOptions())

	assert.Less(t, high.MI, low.MI)
}

func TestCompute_CommentsRaiseScore(t *testing.T) {
	t.Parallel()

	uncommented := Compute(100, 5, 20, 20, 0, 0, DefaultOptions())
	commented := Compute(100, 5, 20, 20, 15, 0, DefaultOptions())

	assert.Greater(t, commented.MI, uncommented.MI)
}

func TestCompute_MultiStringOptOutExcludesMultilineCommentCredit(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MultiStringAsComment = false

	withCredit := Compute(100, 5, 20, 20, 0, 15, DefaultOptions())
	withoutCredit := Compute(100, 5, 20, 20, 0, 15, opts)

	assert.Greater(t, withCredit.MI, withoutCredit.MI)
}

func TestRankFor_Boundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", rankFor(20))
	assert.Equal(t, "B", rankFor(19))
	assert.Equal(t, "B", rankFor(10))
	assert.Equal(t, "C", rankFor(9))
	assert.Equal(t, "C", rankFor(0))
}

func TestCompute_ResultNeverExceedsBounds(t *testing.T) {
	t.Parallel()

	result := Compute(1, 0, 1, 1, 100, 100, DefaultOptions())

	assert.GreaterOrEqual(t, result.MI, 0.0)
	assert.LessOrEqual(t, result.MI, 100.0)
}
