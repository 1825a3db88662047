// Package revision implements the revision orchestrator (component H):
// data-parallel per-file analysis fan-out plus directory roll-up for one
// checked-out working tree.
package revision

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/basalt-metrics/pyquality/internal/analysiscache"
	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/observability"
	"github.com/basalt-metrics/pyquality/internal/store"
	"github.com/basalt-metrics/pyquality/pkg/gitlib"
)

// FileRef is one candidate file handed to the orchestrator. RelPath, when
// set, is used verbatim instead of computing it from AbsPath against
// Options.Base — the history runner supplies file content straight from a
// git tree (no real working-tree checkout exists to compute paths against).
// Open, when set, supplies the file's contents directly (e.g. from a git
// blob); otherwise the orchestrator reads AbsPath from disk.
type FileRef struct {
	AbsPath string
	RelPath string
	Open    func() ([]byte, error)
	// Hash, when non-zero, is the file's git blob hash; it is the cache
	// key for Options.Cache (spec.md §1 Non-goals permits skipping
	// re-analysis of unchanged files as an optimization).
	Hash gitlib.Hash
}

// Meta is the revision metadata attached to every row emitted for this
// working tree.
type Meta struct {
	Key     string
	Date    int64
	Author  *string
	Message *string
}

// Options configures one Orchestrate call.
type Options struct {
	// Base is the working-tree root; relative paths are computed against it.
	Base string
	// Workers bounds the analysis fan-out pool; zero means
	// runtime.GOMAXPROCS(0).
	Workers  int
	Pipeline metricspipeline.Options
	// Metrics, if set, receives per-file throughput counts.
	Metrics *observability.Metrics
	// Cache, if set, short-circuits analysis for a FileRef whose Hash is
	// already present from a prior revision's run of this same session.
	Cache *analysiscache.BlobCache[*metricspipeline.AnalyzedFile]
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}

	return runtime.GOMAXPROCS(0)
}

type fileResult struct {
	relPath string
	file    *metricspipeline.AnalyzedFile
	err     error
}

// Orchestrate implements spec.md §4.H: fan out file analysis across a
// bounded worker pool, emit file/function/class rows, then directory
// roll-up rows computed from the file rows.
func Orchestrate(ctx context.Context, files []FileRef, meta Meta, opts Options) ([]store.MetricRow, error) {
	relPaths := make([]string, len(files))

	for i, f := range files {
		if f.RelPath != "" {
			relPaths[i] = f.RelPath
			continue
		}

		rel, err := filepath.Rel(opts.Base, f.AbsPath)
		if err != nil {
			rel = f.AbsPath
		}

		relPaths[i] = filepath.ToSlash(rel)
	}

	dirSet := directorySet(relPaths)

	results := analyzeAll(ctx, files, relPaths, opts)

	var rows []store.MetricRow

	fileRows := make([]fileAggregate, 0, len(results))

	for _, r := range results {
		if r.err != nil || r.file == nil {
			continue
		}

		row, agg := fileRow(meta, r.relPath, r.file)
		rows = append(rows, row)
		fileRows = append(fileRows, agg)

		rows = append(rows, functionRows(meta, r.relPath, r.file)...)
		rows = append(rows, classRows(meta, r.relPath, r.file)...)
	}

	rows = append(rows, directoryRows(meta, dirSet, fileRows)...)

	return rows, nil
}

// analyzeAll reads and analyzes every file in a bounded worker pool. A
// file's I/O or parse failure is recorded but never aborts its siblings.
func analyzeAll(ctx context.Context, files []FileRef, relPaths []string, opts Options) []fileResult {
	results := make([]fileResult, len(files))

	workers := opts.workers()
	if workers > len(files) {
		workers = len(files)
	}

	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indices {
				hasHash := opts.Cache != nil && !files[i].Hash.IsZero()

				if hasHash {
					if cached, ok := opts.Cache.Get(files[i].Hash); ok {
						results[i] = fileResult{relPath: relPaths[i], file: cached}
						continue
					}
				}

				read := files[i].Open
				if read == nil {
					read = func() ([]byte, error) { return os.ReadFile(files[i].AbsPath) }
				}

				source, err := read()
				if err != nil {
					if opts.Metrics != nil {
						opts.Metrics.ReadFailures.Inc()
					}

					results[i] = fileResult{relPath: relPaths[i], err: err}
					continue
				}

				analyzed, err := metricspipeline.Analyze(ctx, source, opts.Pipeline)
				if opts.Metrics != nil {
					if err != nil {
						opts.Metrics.ParseFailures.Inc()
					} else {
						opts.Metrics.FilesAnalyzed.Inc()
					}
				}

				if err == nil && hasHash {
					opts.Cache.Set(files[i].Hash, analyzed)
				}

				results[i] = fileResult{relPath: relPaths[i], file: analyzed, err: err}
			}
		}()
	}

	for i := range files {
		indices <- i
	}

	close(indices)
	wg.Wait()

	return results
}

// directorySet returns the full set of ancestor directories (including the
// empty-string root) covered by relPaths, per spec.md §4.H step 2.
func directorySet(relPaths []string) []string {
	seen := map[string]bool{"": true}

	for _, p := range relPaths {
		dir := dirOf(p)
		for {
			seen[dir] = true
			if dir == "" {
				break
			}

			dir = dirOf(dir)
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}

	sort.Strings(dirs)

	return dirs
}

// dirOf returns the Unix-style parent directory of p, or "" for a
// top-level path or the root itself.
func dirOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}

	return p[:idx]
}
