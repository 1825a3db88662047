package revision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-metrics/pyquality/internal/analysiscache"
	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/observability"
	"github.com/basalt-metrics/pyquality/internal/store"
	"github.com/basalt-metrics/pyquality/pkg/gitlib"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func TestOrchestrate_EmitsFileFunctionClassAndDirectoryRows(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/mod.py": "class C:\n    def m(self, x):\n        if x:\n            return 1\n        return 0\n",
	})

	refs := []FileRef{{AbsPath: filepath.Join(root, "pkg", "mod.py")}}

	rows, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, Options{
		Base:     root,
		Pipeline: metricspipeline.DefaultOptions(),
	})
	require.NoError(t, err)

	kinds := make(map[string]int)
	for _, r := range rows {
		kinds[r.PathType]++
	}

	assert.Equal(t, 1, kinds[string(store.PathTypeFile)])
	assert.Equal(t, 1, kinds[string(store.PathTypeClass)])
	assert.Equal(t, 1, kinds[string(store.PathTypeFunction)])
	assert.Equal(t, 1, kinds[string(store.PathTypeDirectory)])
	assert.Equal(t, 1, kinds[string(store.PathTypeRoot)])
}

func TestOrchestrate_FunctionRowsCarryHalsteadFields(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/mod.py": "def f(x):\n    return x + 1\n",
	})

	refs := []FileRef{{AbsPath: filepath.Join(root, "pkg", "mod.py")}}

	rows, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, Options{
		Base:     root,
		Pipeline: metricspipeline.DefaultOptions(),
	})
	require.NoError(t, err)

	var fnRow *store.MetricRow

	for i := range rows {
		if rows[i].PathType == string(store.PathTypeFunction) {
			fnRow = &rows[i]
		}
	}

	require.NotNil(t, fnRow, "expected a function row")

	require.NotNil(t, fnRow.H1)
	require.NotNil(t, fnRow.H2)
	require.NotNil(t, fnRow.N1)
	require.NotNil(t, fnRow.N2)
	require.NotNil(t, fnRow.Vocabulary)
	require.NotNil(t, fnRow.Length)
	require.NotNil(t, fnRow.Volume)
	require.NotNil(t, fnRow.Difficulty)
	require.NotNil(t, fnRow.Effort)
	assert.Positive(t, *fnRow.N1)
	assert.Positive(t, *fnRow.N2)
}

func TestOrchestrate_ReadFailureSkipsFileButNotSiblings(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"ok.py": "x = 1\n",
	})

	refs := []FileRef{
		{AbsPath: filepath.Join(root, "ok.py")},
		{AbsPath: filepath.Join(root, "missing.py")},
	}

	rows, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, Options{
		Base:     root,
		Pipeline: metricspipeline.DefaultOptions(),
	})
	require.NoError(t, err)

	var fileRows int
	for _, r := range rows {
		if r.PathType == string(store.PathTypeFile) {
			fileRows++
			assert.Equal(t, "ok.py", r.Path)
		}
	}

	assert.Equal(t, 1, fileRows)
}

func TestOrchestrate_UsesOpenOverDiskWhenSet(t *testing.T) {
	t.Parallel()

	called := false

	refs := []FileRef{{
		RelPath: "virtual.py",
		Open: func() ([]byte, error) {
			called = true
			return []byte("x = 1\n"), nil
		},
	}}

	rows, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, Options{
		Pipeline: metricspipeline.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.True(t, called)

	var found bool
	for _, r := range rows {
		if r.PathType == string(store.PathTypeFile) && r.Path == "virtual.py" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestOrchestrate_CacheHitSkipsReopenAndReanalysis(t *testing.T) {
	t.Parallel()

	cache := analysiscache.NewBlobCache[*metricspipeline.AnalyzedFile]()

	hash := gitlib.NewHash("0123456789abcdef0123456789abcdef01234567")

	opens := 0

	refs := []FileRef{{
		RelPath: "mod.py",
		Hash:    hash,
		Open: func() ([]byte, error) {
			opens++
			return []byte("x = 1\n"), nil
		},
	}}

	opts := Options{Pipeline: metricspipeline.DefaultOptions(), Cache: cache}

	_, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, cache.Len())

	_, err = Orchestrate(context.Background(), refs, Meta{Key: "r2", Date: 2}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, opens, "second revision should hit the cache, not reopen the blob")
}

func TestOrchestrate_MetricsCountReadAndParseFailures(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics()

	refs := []FileRef{
		{RelPath: "bad-read.py", Open: func() ([]byte, error) { return nil, errors.New("boom") }},
		{RelPath: "bad-parse.py", Open: func() ([]byte, error) { return []byte("def f(:\n"), nil }},
		{RelPath: "ok.py", Open: func() ([]byte, error) { return []byte("x = 1\n"), nil }},
	}

	_, err := Orchestrate(context.Background(), refs, Meta{Key: "r1", Date: 1}, Options{
		Pipeline: metricspipeline.DefaultOptions(),
		Metrics:  metrics,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReadFailures), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ParseFailures), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FilesAnalyzed), 0)
}

func TestDirectorySet_IncludesAllAncestorsAndRoot(t *testing.T) {
	t.Parallel()

	dirs := directorySet([]string{"a/b/c.py", "a/d.py", "e.py"})

	assert.Contains(t, dirs, "")
	assert.Contains(t, dirs, "a")
	assert.Contains(t, dirs, "a/b")
}

func TestModeRank_BreaksTiesByLexicalMinimum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", modeRank(map[string]int{"A": 2, "B": 2}))
	assert.Equal(t, "C", modeRank(map[string]int{"C": 3, "A": 1}))
}
