package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/parquet-go/parquet-go"
)

// Session is a single-writer scoped handle on one store file: opening loads
// existing rows, Append buffers new rows in memory, and Close flushes the
// full row set (loaded plus buffered) back to disk as one parquet file.
// Concurrent sessions against the same path have undefined behavior, per
// spec.md §5.
type Session struct {
	path string

	mu       sync.Mutex
	loaded   []MetricRow
	buffered []MetricRow
}

// OpenSession opens path, loading any rows already on disk. A
// nonexistent file is treated as an empty store.
func OpenSession(path string) (*Session, error) {
	rows, err := loadAll(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	return &Session{path: path, loaded: rows}, nil
}

func loadAll(path string) ([]MetricRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[MetricRow](f)
	defer reader.Close()

	rows := make([]MetricRow, 0, reader.NumRows())
	buf := make([]MetricRow, 256)

	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, err
		}

		if n == 0 {
			break
		}
	}

	return rows, nil
}

// Append buffers rows for the session; they are visible to RowsFor and
// Iterate immediately but only written to disk on Close.
func (s *Session) Append(rows []MetricRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffered = append(s.buffered, rows...)

	return nil
}

// RowsFor returns every row whose Path equals path, across both loaded and
// buffered rows, ordered by RevisionDate ascending.
func (s *Session) RowsFor(path string) ([]MetricRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []MetricRow

	for _, r := range s.loaded {
		if r.Path == path {
			out = append(out, r)
		}
	}

	for _, r := range s.buffered {
		if r.Path == path {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RevisionDate < out[j].RevisionDate
	})

	return out, nil
}

// Iterate calls fn with every row in the session, loaded then buffered, and
// stops at the first error fn returns.
func (s *Session) Iterate(fn func(MetricRow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.loaded {
		if err := fn(r); err != nil {
			return err
		}
	}

	for _, r := range s.buffered {
		if err := fn(r); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes buffered rows to disk and releases the session. If no rows
// were ever buffered, nothing is written — the store is left in its
// pre-session state. The write is atomic: a temp file is written in full
// and renamed over path so a crash mid-write never corrupts the existing
// store.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffered) == 0 {
		return nil
	}

	all := make([]MetricRow, 0, len(s.loaded)+len(s.buffered))
	all = append(all, s.loaded...)
	all = append(all, s.buffered...)

	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, ".store-*.parquet.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	writer := parquet.NewGenericWriter[MetricRow](tmp)

	if _, err := writer.Write(all); err != nil {
		writer.Close()
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("store: write rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("store: close writer: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("store: rename into place: %w", err)
	}

	s.loaded = all
	s.buffered = nil

	return nil
}
