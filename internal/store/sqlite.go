package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"solarintel/internal/models"
	"solarintel/internal/normalizer"
)

var tableNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// SQLiteStore keeps a dataset in one SQLite table keyed by uniqueness key.
type SQLiteStore struct {
	sync.Mutex

	db     *sql.DB
	path   string
	table  string
	layout Layout
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating when needed) the database at path with a table for the dataset.
func OpenSQLite(path, table string, layout Layout) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		path:   path,
		table:  sanitizeTable(table),
		layout: layout,
	}

	if err := s.init(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func sanitizeTable(name string) string {
	name = strings.Trim(tableNameSanitizer.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "records"
	}

	return "records_" + strings.ToLower(name)
}

func (s *SQLiteStore) init() error {
	//nolint:gosec // table name is sanitized
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			uniqueness_key TEXT PRIMARY KEY,
			position       INTEGER NOT NULL,
			collected_at   TEXT NOT NULL DEFAULT '',
			published_at   TEXT NOT NULL DEFAULT '',
			title          TEXT NOT NULL,
			source         TEXT NOT NULL DEFAULT '',
			link           TEXT NOT NULL,
			group_key      TEXT NOT NULL DEFAULT '',
			snippet        TEXT NOT NULL DEFAULT '',
			query          TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_` + s.table + `_position ON ` + s.table + `(position);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Table returns the table holding the dataset.
func (s *SQLiteStore) Table() string {
	return s.table
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the dataset in stored order.
func (s *SQLiteStore) Load(ctx context.Context) (models.Dataset, error) {
	//nolint:gosec // table name is sanitized
	rows, err := s.db.QueryContext(ctx, `
		SELECT collected_at, published_at, title, source, link, group_key, snippet, query
		FROM `+s.table+` ORDER BY position`)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("querying dataset: %w", err)
	}
	defer rows.Close()

	var ds models.Dataset

	for rows.Next() {
		var (
			rec                  models.Record
			collected, published string
		)

		if err := rows.Scan(&collected, &published, &rec.Title, &rec.Source, &rec.Link,
			&rec.GroupKey, &rec.Snippet, &rec.Query); err != nil {
			return models.Dataset{}, fmt.Errorf("scanning record: %w", err)
		}

		rec.CollectedAt = normalizer.ParseTimestamp(collected)
		rec.PublishedAt = normalizer.ParseTimestamp(published)
		ds.Records = append(ds.Records, rec)
	}

	if err := rows.Err(); err != nil {
		return models.Dataset{}, fmt.Errorf("iterating dataset: %w", err)
	}

	return ds, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, ds models.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.table); err != nil { //nolint:gosec
		return fmt.Errorf("clearing dataset: %w", err)
	}

	//nolint:gosec // table name is sanitized
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+s.table+` (uniqueness_key, position, collected_at, published_at,
			title, source, link, group_key, snippet, query)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range ds.Records {
		snippet, query := rec.Snippet, rec.Query
		if !s.layout.KeepSnippet {
			snippet = ""
		}

		if !s.layout.KeepQuery {
			query = ""
		}

		_, err := stmt.ExecContext(ctx, Key(rec, s.layout.KeyMode), i,
			rec.CollectedAt.String(), rec.PublishedAt.String(),
			rec.Title, rec.Source, rec.Link, rec.GroupKey, snippet, query)
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dataset: %w", err)
	}

	return nil
}
