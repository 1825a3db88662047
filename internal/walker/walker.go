// Package walker implements the source-tree walker contract of spec.md
// §6 (component A): enumerate candidate source files under a set of
// roots, honoring include/exclude glob rules and directory skip rules.
package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Options configures one Walk call. ExcludeGlobs and SkipDirs are
// comma-separated shell-style glob lists, matched against normalized path
// strings (ExcludeGlobs) or directory names (SkipDirs), per spec.md §6.
type Options struct {
	ExcludeGlobs     string
	SkipDirs         string
	IncludeNotebooks bool
}

// Walk enumerates source files reachable from roots (each either a file or
// a directory), returning normalized absolute paths whose filename ends in
// .py, or also .ipynb when opts.IncludeNotebooks is set. Dotted/hidden
// directories are always skipped in addition to any name listed in
// opts.SkipDirs. A root that does not exist is silently skipped rather
// than treated as fatal, matching spec.md §7's "skip, never fatal" policy
// for filesystem surprises outside the walker's control.
func Walk(roots []string, opts Options) ([]string, error) {
	excludes := splitPatterns(opts.ExcludeGlobs)
	skipDirs := splitPatterns(opts.SkipDirs)

	var files []string

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}

		info, statErr := os.Stat(abs)
		if statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				continue
			}

			return nil, statErr
		}

		if !info.IsDir() {
			if accept(abs, opts, excludes) {
				files = append(files, normalize(abs))
			}

			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
			return visit(abs, path, entry, err, opts, excludes, skipDirs, &files)
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return files, nil
}

func visit(root, path string, entry fs.DirEntry, walkErr error, opts Options, excludes, skipDirs []string, files *[]string) error {
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrPermission) || errors.Is(walkErr, fs.ErrNotExist) {
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		return walkErr
	}

	if entry == nil {
		return nil
	}

	if entry.IsDir() {
		if path != root && shouldSkipDir(entry.Name(), skipDirs) {
			return filepath.SkipDir
		}

		return nil
	}

	if accept(path, opts, excludes) {
		*files = append(*files, normalize(path))
	}

	return nil
}

// shouldSkipDir reports whether a directory entry should not be descended
// into: every dotted/hidden directory, plus anything matching skipDirs.
func shouldSkipDir(name string, skipDirs []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}

	for _, pattern := range skipDirs {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

// FilterTreePaths applies the same extension, skip-dir, and exclude-glob
// rules as Walk to a list of already-enumerated virtual paths (e.g. the
// file list of a git tree, which has no real directory entries to walk).
// Paths are assumed already "/"-separated.
func FilterTreePaths(paths []string, opts Options) []string {
	excludes := splitPatterns(opts.ExcludeGlobs)
	skipDirs := splitPatterns(opts.SkipDirs)

	var out []string

	for _, p := range paths {
		if pathHasSkippedDir(p, skipDirs) {
			continue
		}

		if accept(p, opts, excludes) {
			out = append(out, normalize(p))
		}
	}

	return out
}

func pathHasSkippedDir(path string, skipDirs []string) bool {
	segments := strings.Split(path, "/")
	if len(segments) <= 1 {
		return false
	}

	for _, dir := range segments[:len(segments)-1] {
		if shouldSkipDir(dir, skipDirs) {
			return true
		}
	}

	return false
}

func accept(path string, opts Options, excludes []string) bool {
	if !hasSourceExtension(path, opts.IncludeNotebooks) {
		return false
	}

	normalized := normalize(path)

	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, normalized); ok {
			return false
		}
	}

	return true
}

func hasSourceExtension(path string, includeNotebooks bool) bool {
	if strings.HasSuffix(path, ".py") {
		return true
	}

	return includeNotebooks && strings.HasSuffix(path, ".ipynb")
}

// normalize strips a Windows verbatim ("\\?\") prefix and replaces
// backslashes with forward slashes, per spec.md §6's path normalization
// rule — applied uniformly so exclude patterns written with forward
// slashes match on every platform.
func normalize(path string) string {
	path = strings.TrimPrefix(path, `\\?\`)
	return strings.ReplaceAll(path, `\`, "/")
}

// splitPatterns splits a comma-separated pattern list, trimming whitespace
// and dropping empty entries. A malformed pattern (rejected by
// filepath.Match at match time) is simply never matched, never fatal.
func splitPatterns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
