// Package store persists datasets and merges new batches into them without duplicates.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"solarintel/internal/models"
)

// Store errors.
var (
	ErrPersist         = errors.New("failed to persist dataset")
	ErrUnknownKind     = errors.New("unknown store kind")
	ErrDirNotWritable  = errors.New("dataset directory is not writable")
	ErrDirNotDirectory = errors.New("dataset directory path is not a directory")
)

// Kinds.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// Store loads and replaces a whole dataset. Implementations are safe to lock
// for the duration of a load-merge-save sequence.
type Store interface {
	sync.Locker
	Load(ctx context.Context) (models.Dataset, error)
	Save(ctx context.Context, ds models.Dataset) error
	Path() string
	Close() error
}

// Layout describes optional columns of a persisted dataset.
type Layout struct {
	GroupColumn string
	KeyMode     KeyMode
	KeepQuery   bool
	KeepSnippet bool
}

// Open returns a store of the given kind at path.
func Open(kind, path, table string, layout Layout) (Store, error) {
	switch kind {
	case KindCSV, "":
		return NewCSVStore(path, layout), nil
	case KindSQLite:
		return OpenSQLite(path, table, layout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Check verifies that the directory holding path exists, creating it when
// missing, and that a file can be written there.
func Check(path string) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirNotWritable, dir, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirNotWritable, dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirNotDirectory, dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirNotWritable, dir, err)
	}

	name := probe.Name()
	probe.Close()

	if err := os.Remove(name); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirNotWritable, dir, err)
	}

	return nil
}

// MergeAndPersist merges batch into the stored dataset. An empty batch does
// nothing. On save failure the merged result is discarded and the stored
// dataset is left as it was.
func MergeAndPersist(ctx context.Context, s Store, batch []models.Record, opts MergeOptions) (MergeStats, error) {
	if len(batch) == 0 {
		return MergeStats{}, nil
	}

	s.Lock()
	defer s.Unlock()

	existing, err := s.Load(ctx)
	if err != nil {
		return MergeStats{}, fmt.Errorf("%w: load %s: %w", ErrPersist, s.Path(), err)
	}

	merged, stats := Merge(existing, batch, opts)

	if err := s.Save(ctx, merged); err != nil {
		return stats, fmt.Errorf("%w: save %s: %w", ErrPersist, s.Path(), err)
	}

	return stats, nil
}
