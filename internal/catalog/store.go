// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the SQLite-backed book catalog. It serves catalog
// search, batch record fetches, cluster and title/author lookups, canonical
// book resolution, and the writes issued by search fallback and the
// recommendation engine.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pdiddy/bookfinder/pkg/types"
)

const dbFile = "catalog.db"

// ErrNotFound is returned by writes that target a missing book.
var ErrNotFound = errors.New("book not found")

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates dataDir/catalog.db and applies the schema.
// MaxOpenConns bounds concurrent blocking store calls.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open(driverName, dsn(filepath.Join(dataDir, dbFile)))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id TEXT PRIMARY KEY,
			slug TEXT,
			title TEXT NOT NULL DEFAULT '',
			authors TEXT,
			description TEXT NOT NULL DEFAULT '',
			isbn10 TEXT NOT NULL DEFAULT '',
			isbn13 TEXT NOT NULL DEFAULT '',
			categories TEXT,
			language TEXT NOT NULL DEFAULT '',
			page_count INTEGER NOT NULL DEFAULT 0,
			publisher TEXT NOT NULL DEFAULT '',
			published_year INTEGER NOT NULL DEFAULT 0,
			cover_url TEXT NOT NULL DEFAULT '',
			cover_width INTEGER NOT NULL DEFAULT 0,
			cover_height INTEGER NOT NULL DEFAULT 0,
			cover_high_res INTEGER NOT NULL DEFAULT 0,
			cover_grayscale INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT 'catalog',
			provenance TEXT NOT NULL DEFAULT '',
			cached_recommendation_ids TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_slug ON books(slug) WHERE slug IS NOT NULL AND slug != ''`,
		`CREATE INDEX IF NOT EXISTS idx_books_isbn13 ON books(isbn13)`,
		`CREATE INDEX IF NOT EXISTS idx_books_isbn10 ON books(isbn10)`,
		`CREATE TABLE IF NOT EXISTS book_clusters (
			book_id TEXT PRIMARY KEY REFERENCES books(id) ON DELETE CASCADE,
			cluster_id TEXT NOT NULL,
			is_primary INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_book_clusters_cluster ON book_clusters(cluster_id)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			source_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			book_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			score REAL NOT NULL,
			reasons TEXT,
			PRIMARY KEY (source_id, book_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// bookColumns is the column list scanned by scanBook, in order.
const bookColumns = `b.id, COALESCE(b.slug, ''), b.title, b.authors, b.description, b.isbn10, b.isbn13,
	b.categories, b.language, b.page_count, b.publisher, b.published_year,
	b.cover_url, b.cover_width, b.cover_height, b.cover_high_res, b.cover_grayscale,
	b.source, b.cached_recommendation_ids`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, extra ...any) (types.Book, error) {
	var (
		b                                types.Book
		authors, categories, recommended sql.NullString
		highRes, grayscale               int
	)
	dest := []any{
		&b.ID, &b.Slug, &b.Title, &authors, &b.Description, &b.ISBN10, &b.ISBN13,
		&categories, &b.Language, &b.PageCount, &b.Publisher, &b.PublishedYear,
		&b.Cover.URL, &b.Cover.Width, &b.Cover.Height, &highRes, &grayscale,
		&b.Source, &recommended,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return types.Book{}, err
	}
	b.Cover.HighResolution = highRes != 0
	b.Cover.Grayscale = grayscale != 0
	b.Authors = decodeList(authors)
	b.Categories = decodeList(categories)
	b.CachedRecommendationIDs = decodeList(recommended)
	return b, nil
}

func decodeList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

func encodeList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return string(data)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// batchSize keeps IN lists below SQLite's default variable limit.
const batchSize = 500

// inBatches calls fn for consecutive chunks of ids.
func inBatches(ids []string, fn func(chunk []string) error) error {
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}
