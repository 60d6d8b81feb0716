package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"solarintel/internal/models"
	"solarintel/internal/normalizer"
)

// CSVStore keeps a dataset in a flat CSV file with canonical headers.
type CSVStore struct {
	sync.Mutex

	path   string
	layout Layout

	// wrap, when set, wraps the temp file writer. Tests use it to inject write failures.
	wrap func(io.Writer) io.Writer
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore creates a CSV store at path.
func NewCSVStore(path string, layout Layout) *CSVStore {
	return &CSVStore{path: path, layout: layout}
}

// Path returns the dataset file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Close is a no-op.
func (s *CSVStore) Close() error {
	return nil
}

// Load reads the dataset. A missing file is an empty dataset. Legacy headers
// are resolved through the column synonym table.
func (s *CSVStore) Load(_ context.Context) (models.Dataset, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Dataset{}, nil
	}

	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read dataset: %w", err)
	}

	if len(rows) == 0 {
		return models.Dataset{}, nil
	}

	return models.Dataset{Records: normalizer.NormalizeRows(rows[0], rows[1:])}, nil
}

// Save writes ds to a temp file in the same directory, syncs it and renames
// it over the dataset. On any error the temp file is removed and the
// existing dataset is untouched.
func (s *CSVStore) Save(_ context.Context, ds models.Dataset) (err error) {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	var w io.Writer = tmp
	if s.wrap != nil {
		w = s.wrap(tmp)
	}

	if err = writeCSV(w, ds, s.layout); err != nil {
		return err
	}

	if err = tmp.Chmod(datasetMode(s.path)); err != nil {
		return fmt.Errorf("failed to set dataset mode: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace dataset: %w", err)
	}

	return nil
}

// datasetMode keeps the permissions of an existing dataset, 0644 for a new one.
func datasetMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil {
		return fi.Mode().Perm()
	}

	return 0o644
}

// Header returns the column order for a dataset under layout.
func Header(ds models.Dataset, layout Layout) []string {
	header := []string{models.ColumnDateScraped}

	if layout.GroupColumn != "" {
		header = append(header, layout.GroupColumn)
	}

	header = append(header, models.ColumnTitle, models.ColumnSource, models.ColumnLink)

	if hasPublished(ds) {
		header = append(header, models.ColumnPublishedAt)
	}

	if layout.KeepQuery {
		header = append(header, models.ColumnQuery)
	}

	if layout.KeepSnippet {
		header = append(header, models.ColumnSnippet)
	}

	return header
}

// Row renders rec in header order.
func Row(rec models.Record, header []string) []string {
	row := make([]string, len(header))

	for i, col := range header {
		switch col {
		case models.ColumnDateScraped:
			row[i] = rec.CollectedAt.String()
		case models.ColumnPublishedAt:
			row[i] = rec.PublishedAt.String()
		case models.ColumnTitle:
			row[i] = rec.Title
		case models.ColumnSource:
			row[i] = rec.Source
		case models.ColumnLink:
			row[i] = rec.Link
		case models.ColumnSnippet:
			row[i] = rec.Snippet
		case models.ColumnQuery:
			row[i] = rec.Query
		case models.ColumnCompany, models.ColumnCountry:
			row[i] = rec.GroupKey
		}
	}

	return row
}

func writeCSV(w io.Writer, ds models.Dataset, layout Layout) error {
	header := Header(ds, layout)
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range ds.Records {
		if err := cw.Write(Row(rec, header)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}

	return nil
}

func hasPublished(ds models.Dataset) bool {
	for _, rec := range ds.Records {
		if rec.PublishedAt.Valid {
			return true
		}
	}

	return false
}
