// Package vcsdriver adapts pkg/gitlib to the VCS driver contract of
// spec.md §6 (component B): commit enumeration, revision lookup, and
// working-tree snapshots exposed without ever writing to a real working
// directory on disk — gitlib reads blob contents straight out of git
// objects, so "checkout" here means resolving a tree, not touching the
// filesystem.
package vcsdriver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/basalt-metrics/pyquality/pkg/gitlib"
)

// ErrRevisionNotFound is returned by FindRevision when no commit matches.
var ErrRevisionNotFound = errors.New("vcsdriver: revision not found")

// CommitRecord is the (key, date, author?, message?) tuple of spec.md §3,
// plus the file-level change set relative to its first parent (or, for a
// root commit, relative to an empty tree).
type CommitRecord struct {
	Key     string
	Date    int64
	Author  *string
	Message *string
	Changes gitlib.Changes
}

// Repository is a handle on one git repository.
type Repository struct {
	repo *gitlib.Repository
}

// Open opens the repository at path.
func Open(path string) (*Repository, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, err
	}

	return &Repository{repo: repo}, nil
}

// Close releases the repository handle.
func (r *Repository) Close() {
	r.repo.Free()
}

// Native exposes the underlying repository for the small number of
// operations (ref/hash resolution) gitlib doesn't itself wrap.
func (r *Repository) Native() *gitlib.Repository {
	return r.repo
}

// FindRevision resolves a branch name, a full or abbreviated commit hash,
// or "HEAD" to its CommitRecord, or ErrRevisionNotFound if ref resolves to
// nothing.
func (r *Repository) FindRevision(ref string) (*CommitRecord, error) {
	obj, err := r.repo.Native().RevparseSingle(ref)
	if err != nil {
		return nil, ErrRevisionNotFound
	}
	defer obj.Free()

	commit, err := obj.AsCommit()
	if err != nil {
		return nil, ErrRevisionNotFound
	}
	defer commit.Free()

	return r.recordFor(commit)
}

// Commits returns up to maxRevisions commits reachable from start, oldest
// first, per spec.md §6.
func (r *Repository) Commits(start string, maxRevisions int) ([]*CommitRecord, error) {
	startHash, err := r.resolveHash(start)
	if err != nil {
		return nil, err
	}

	walk, err := r.repo.Walk()
	if err != nil {
		return nil, err
	}
	defer walk.Free()

	if err := walk.Push(startHash); err != nil {
		return nil, err
	}

	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	var records []*CommitRecord

	for maxRevisions <= 0 || len(records) < maxRevisions {
		hash, err := walk.Next()
		if err != nil {
			break
		}

		commit, err := r.repo.LookupCommit(context.Background(), hash)
		if err != nil {
			return nil, err
		}

		record, err := r.recordFor(commit.Native())
		commit.Free()

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })

	return records, nil
}

// CheckoutRevision resolves hash to the tree of that commit.
func (r *Repository) CheckoutRevision(hash string) (*gitlib.Tree, error) {
	h, err := r.resolveHash(hash)
	if err != nil {
		return nil, err
	}

	commit, err := r.repo.LookupCommit(context.Background(), h)
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	return commit.Tree()
}

// CheckoutBranch resolves name (a branch name or HEAD) to its tree.
func (r *Repository) CheckoutBranch(name string) (*gitlib.Tree, error) {
	return r.CheckoutRevision(name)
}

func (r *Repository) resolveHash(ref string) (gitlib.Hash, error) {
	obj, err := r.repo.Native().RevparseSingle(ref)
	if err != nil {
		return gitlib.Hash{}, fmt.Errorf("vcsdriver: resolve %q: %w", ref, err)
	}
	defer obj.Free()

	return gitlib.HashFromOid(obj.Id()), nil
}

func (r *Repository) recordFor(commit *git2go.Commit) (*CommitRecord, error) {
	author := commit.Author()
	message := commit.Message()

	changes, err := r.changesFor(commit)
	if err != nil {
		return nil, err
	}

	return &CommitRecord{
		Key:     commit.Id().String(),
		Date:    author.When.Unix(),
		Author:  strPtr(author.Name),
		Message: strPtr(message),
		Changes: changes,
	}, nil
}

// changesFor computes the change set of commit relative to its first
// parent (an empty tree for a root commit).
func (r *Repository) changesFor(commit *git2go.Commit) (gitlib.Changes, error) {
	newTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer newTree.Free()

	var oldTreePtr *gitlib.Tree

	if commit.ParentCount() > 0 {
		parent := commit.Parent(0)
		defer parent.Free()

		parentTree, err := parent.Tree()
		if err != nil {
			return nil, err
		}
		defer parentTree.Free()

		oldWrapped, err := r.repo.LookupTree(gitlib.HashFromOid(parentTree.Id()))
		if err != nil {
			return nil, err
		}

		oldTreePtr = oldWrapped
	}

	newWrapped, err := r.repo.LookupTree(gitlib.HashFromOid(newTree.Id()))
	if err != nil {
		return nil, err
	}

	return gitlib.TreeDiff(r.repo, oldTreePtr, newWrapped)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
