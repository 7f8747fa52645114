// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/bookfinder/internal/persist"
	"github.com/pdiddy/bookfinder/internal/search"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const upsertBookSQL = `INSERT INTO books (id, slug, title, authors, description, isbn10, isbn13,
		categories, language, page_count, publisher, published_year,
		cover_url, cover_width, cover_height, cover_high_res, cover_grayscale,
		source, provenance, cached_recommendation_ids)
	VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func bookArgs(b types.Book, provenance string) []any {
	source := b.Source
	if source == "" {
		source = "catalog"
	}
	return []any{
		b.ID, b.Slug, b.Title, encodeList(b.Authors), b.Description, b.ISBN10, b.ISBN13,
		encodeList(b.Categories), b.Language, b.PageCount, b.Publisher, b.PublishedYear,
		b.Cover.URL, b.Cover.Width, b.Cover.Height, boolInt(b.Cover.HighResolution), boolInt(b.Cover.Grayscale),
		source, provenance, encodeList(b.CachedRecommendationIDs),
	}
}

// upsertBook replaces every column of the book.
func upsertBook(ctx context.Context, ex execer, b types.Book, provenance string) error {
	_, err := ex.ExecContext(ctx, upsertBookSQL+`
		ON CONFLICT(id) DO UPDATE SET
			slug=excluded.slug, title=excluded.title, authors=excluded.authors,
			description=excluded.description, isbn10=excluded.isbn10, isbn13=excluded.isbn13,
			categories=excluded.categories, language=excluded.language, page_count=excluded.page_count,
			publisher=excluded.publisher, published_year=excluded.published_year,
			cover_url=excluded.cover_url, cover_width=excluded.cover_width, cover_height=excluded.cover_height,
			cover_high_res=excluded.cover_high_res, cover_grayscale=excluded.cover_grayscale,
			source=excluded.source, provenance=excluded.provenance,
			cached_recommendation_ids=excluded.cached_recommendation_ids`,
		bookArgs(b, provenance)...)
	if err != nil {
		return fmt.Errorf("upserting book %s: %w", b.ID, err)
	}
	return nil
}

// insertNew adds a book unless its ID, ISBN-13 or ISBN-10 is already cataloged.
func insertNew(ctx context.Context, ex execer, b types.Book, provenance string) error {
	for _, id := range []struct{ column, value string }{
		{"isbn13", b.ISBN13},
		{"isbn10", b.ISBN10},
	} {
		if id.value == "" {
			continue
		}
		var exists int
		err := ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE `+id.column+` = ?`, id.value).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking %s %s: %w", id.column, id.value, err)
		}
		if exists > 0 {
			return nil
		}
	}
	_, err := ex.ExecContext(ctx, upsertBookSQL+` ON CONFLICT(id) DO NOTHING`, bookArgs(b, provenance)...)
	if err != nil {
		return fmt.Errorf("inserting book %s: %w", b.ID, err)
	}
	return nil
}

// refreshMetadata applies only the fields that improve the stored record:
// a longer description, any page count, publisher or language the record
// lacks, and a cover when the stored one is missing or a placeholder. A
// missing record is inserted.
func refreshMetadata(ctx context.Context, ex execer, b types.Book) error {
	var (
		stored           types.Cover
		hiRes, grayscale int
	)
	err := ex.QueryRowContext(ctx,
		`SELECT cover_url, cover_width, cover_height, cover_high_res, cover_grayscale FROM books WHERE id = ?`, b.ID).
		Scan(&stored.URL, &stored.Width, &stored.Height, &hiRes, &grayscale)
	if errors.Is(err, sql.ErrNoRows) {
		return insertNew(ctx, ex, b, persist.TagMetadataRefresh)
	}
	if err != nil {
		return fmt.Errorf("reading book %s: %w", b.ID, err)
	}
	stored.HighResolution = hiRes != 0
	stored.Grayscale = grayscale != 0

	cover := stored
	if search.CoverRank(stored) == search.CoverNone && search.CoverRank(b.Cover) > search.CoverNone {
		cover = b.Cover
	}

	_, err = ex.ExecContext(ctx,
		`UPDATE books SET
			description = CASE WHEN length(?) > length(description) THEN ? ELSE description END,
			page_count = CASE WHEN page_count <= 0 THEN ? ELSE page_count END,
			publisher = CASE WHEN publisher = '' THEN ? ELSE publisher END,
			language = CASE WHEN language = '' THEN ? ELSE language END,
			cover_url = ?, cover_width = ?, cover_height = ?, cover_high_res = ?, cover_grayscale = ?,
			provenance = ?
		WHERE id = ?`,
		b.Description, b.Description,
		b.PageCount, b.Publisher, b.Language,
		cover.URL, cover.Width, cover.Height, boolInt(cover.HighResolution), boolInt(cover.Grayscale),
		persist.TagMetadataRefresh, b.ID)
	if err != nil {
		return fmt.Errorf("refreshing book %s: %w", b.ID, err)
	}
	return nil
}

// Persist writes fallback candidates in one transaction. Books tagged
// metadata-refresh only fill gaps in their existing record; any other tag
// inserts books the catalog does not have yet.
func (s *Store) Persist(ctx context.Context, books []types.Book, tag string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range books {
		if b.ID == "" {
			continue
		}
		if tag == persist.TagMetadataRefresh {
			err = refreshMetadata(ctx, tx, b)
		} else {
			err = insertNew(ctx, tx, b, tag)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PersistRecommendations replaces the scored recommendation records of source.
func (s *Store) PersistRecommendations(ctx context.Context, source types.Book, records []types.ScoredBook) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE source_id = ?`, source.ID); err != nil {
		return fmt.Errorf("clearing recommendations for %s: %w", source.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO recommendations (source_id, book_id, rank, score, reasons) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		reasons := make([]string, 0, len(r.Reasons))
		for _, reason := range r.ReasonList() {
			reasons = append(reasons, string(reason))
		}
		if _, err := stmt.ExecContext(ctx, source.ID, r.Book.ID, i, r.Score, encodeList(reasons)); err != nil {
			return fmt.Errorf("inserting recommendation %s -> %s: %w", source.ID, r.Book.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateCachedRecommendations stores the ordered candidate IDs on the source book.
func (s *Store) UpdateCachedRecommendations(ctx context.Context, sourceID string, ids []string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET cached_recommendation_ids = ? WHERE id = ?`, encodeList(ids), sourceID)
	if err != nil {
		return fmt.Errorf("caching recommendations for %s: %w", sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("caching recommendations for %s: %w", sourceID, ErrNotFound)
	}
	return nil
}

// Recommendation is a stored recommendation record.
type Recommendation struct {
	BookID  string   `json:"book_id" yaml:"book_id"`
	Rank    int      `json:"rank" yaml:"rank"`
	Score   float64  `json:"score" yaml:"score"`
	Reasons []string `json:"reasons" yaml:"reasons"`
}

// Recommendations returns the stored records for sourceID in rank order.
func (s *Store) Recommendations(ctx context.Context, sourceID string) ([]Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, rank, score, reasons FROM recommendations WHERE source_id = ? ORDER BY rank`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		var (
			r       Recommendation
			reasons sql.NullString
		)
		if err := rows.Scan(&r.BookID, &r.Rank, &r.Score, &reasons); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		r.Reasons = decodeList(reasons)
		out = append(out, r)
	}
	return out, rows.Err()
}
