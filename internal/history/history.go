// Package history implements the history runner (component J): drives the
// VCS driver across a commit range, fans each commit's tree out through
// the revision orchestrator, and streams the resulting rows into the
// columnar store.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/basalt-metrics/pyquality/internal/analysiscache"
	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/observability"
	"github.com/basalt-metrics/pyquality/internal/revision"
	"github.com/basalt-metrics/pyquality/internal/store"
	"github.com/basalt-metrics/pyquality/internal/vcsdriver"
	"github.com/basalt-metrics/pyquality/internal/walker"
	"github.com/basalt-metrics/pyquality/pkg/gitlib"
	"github.com/basalt-metrics/pyquality/pkg/mathutil"
)

// Options configures one Run call.
type Options struct {
	// Start is a branch name, tag, or commit-ish to walk from; "HEAD" if empty.
	Start string
	// MaxRevisions bounds how many commits are visited; <=0 means unbounded.
	MaxRevisions int
	// Walker selects which of a revision's files are analyzed.
	Walker walker.Options
	// Pipeline selects which operators run and how MI is computed.
	Pipeline metricspipeline.Options
	// Workers bounds the per-revision analysis fan-out; zero means GOMAXPROCS.
	Workers int
	// Metrics, if set, receives per-file and per-revision throughput counts.
	Metrics *observability.Metrics
	// Cache, if set, is consulted/populated by blob hash so a file whose
	// content hasn't changed since an earlier revision in this same run
	// is not re-analyzed (spec.md §1 Non-goals permits this optimization).
	Cache *analysiscache.BlobCache[*metricspipeline.AnalyzedFile]
	// BlobCache, if set, holds raw blob content across commits in this run,
	// bounded by memory rather than growing without limit the way a plain
	// map would. A revision's files are loaded through it, so a file whose
	// blob hash repeats across consecutive commits costs one libgit2 read
	// instead of one per commit.
	BlobCache *analysiscache.LRUBlobCache
	// Progress, if set, is called once per visited commit after its rows
	// have been appended to the store.
	Progress func(index, total int, commitKey string)
}

// bloomElementsPerCommit estimates how many distinct blobs a commit
// contributes, for sizing the run's unique-blob Bloom filter up front.
const bloomElementsPerCommit = 200

// bloomFPRate is the false-positive rate of the run's unique-blob estimate;
// it only feeds a diagnostic gauge, so a generous rate keeps the filter small.
const bloomFPRate = 0.01

// Run implements spec.md §4.J: ask the VCS driver for up to MaxRevisions
// commits oldest-first, and for each one check out its tree, filter its
// files through the walker rules, invoke the revision orchestrator, and
// append the resulting rows to sess. The next checkout never begins until
// the current revision's rows have been appended, since this loop is
// strictly sequential.
func Run(ctx context.Context, repo *vcsdriver.Repository, sess *store.Session, opts Options) error {
	start := opts.Start
	if start == "" {
		start = "HEAD"
	}

	commits, err := repo.Commits(start, opts.MaxRevisions)
	if err != nil {
		return fmt.Errorf("history: list commits: %w", err)
	}

	// uniqueBlobs tracks, approximately and in bounded memory, how many
	// distinct file blobs this run has visited across all commits so far;
	// it only ever feeds a diagnostic gauge, never a skip decision.
	uniqueBlobs, _ := analysiscache.NewBloomHashSet(uint(mathutil.Max(len(commits), 1))*bloomElementsPerCommit, bloomFPRate)
	distinctBlobs := 0

	for i, commit := range commits {
		if err := ctx.Err(); err != nil {
			return err
		}

		tree, err := repo.CheckoutRevision(commit.Key)
		if err != nil {
			return fmt.Errorf("history: checkout %s: %w", commit.Key, err)
		}

		refs, err := fileRefs(repo, tree, opts.Walker, opts.BlobCache)
		tree.Free()

		if err != nil {
			return fmt.Errorf("history: list files at %s: %w", commit.Key, err)
		}

		if uniqueBlobs != nil {
			for _, ref := range refs {
				if uniqueBlobs.Add(ref.Hash) {
					distinctBlobs++
				}
			}

			if opts.Metrics != nil {
				opts.Metrics.UniqueBlobs.Set(float64(distinctBlobs))
			}
		}

		started := time.Now()

		rows, err := revision.Orchestrate(ctx, refs, revision.Meta{
			Key:     commit.Key,
			Date:    commit.Date,
			Author:  commit.Author,
			Message: commit.Message,
		}, revision.Options{
			Workers:  opts.Workers,
			Pipeline: opts.Pipeline,
			Metrics:  opts.Metrics,
			Cache:    opts.Cache,
		})
		if err != nil {
			return fmt.Errorf("history: analyze %s: %w", commit.Key, err)
		}

		if opts.Metrics != nil {
			opts.Metrics.RevisionSeconds.Observe(time.Since(started).Seconds())
			opts.Metrics.RevisionsTotal.Inc()
		}

		if err := sess.Append(rows); err != nil {
			return fmt.Errorf("history: append rows for %s: %w", commit.Key, err)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(commits), commit.Key)
		}
	}

	return nil
}

// fileRefs lists tree's source files (per the walker rules, applied to the
// tree's virtual paths since no real working-tree checkout exists) and
// wraps each as a revision.FileRef backed by its git blob content. When
// blobCache is non-nil, a file whose blob hash was already loaded by an
// earlier commit in this run is served from the cache instead of issuing
// another libgit2 read.
func fileRefs(repo *vcsdriver.Repository, tree *gitlib.Tree, opts walker.Options, blobCache *analysiscache.LRUBlobCache) ([]revision.FileRef, error) {
	files, err := gitlib.TreeFiles(repo.Native(), tree)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(files))
	byPath := make(map[string]*gitlib.File, len(files))

	for i, f := range files {
		paths[i] = f.Name
		byPath[f.Name] = f
	}

	selected := walker.FilterTreePaths(paths, opts)

	refs := make([]revision.FileRef, 0, len(selected))

	for _, p := range selected {
		f := byPath[p]
		hash := f.Hash

		refs = append(refs, revision.FileRef{
			RelPath: f.Name,
			Open:    cachedOpen(f, blobCache),
			Hash:    hash,
		})
	}

	return refs, nil
}

// cachedOpen returns a FileRef.Open function for f. When blobCache is set,
// a cache hit is returned directly and a miss is loaded once from f and
// stored back into the cache for later commits in this run to reuse.
func cachedOpen(f *gitlib.File, blobCache *analysiscache.LRUBlobCache) func() ([]byte, error) {
	if blobCache == nil {
		return f.Contents
	}

	if blob := blobCache.Get(f.Hash); blob != nil {
		return func() ([]byte, error) { return blob.Data, nil }
	}

	return func() ([]byte, error) {
		data, err := f.Contents()
		if err != nil {
			return nil, err
		}

		blobCache.Put(f.Hash, gitlib.NewCachedBlob(f.Hash, data))

		return data, nil
	}
}
