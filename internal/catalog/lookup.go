// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/bookfinder/internal/dedup"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// FetchByIDs returns the records for ids in no particular order. Unknown
// IDs are skipped; callers re-apply their own ordering.
func (s *Store) FetchByIDs(ctx context.Context, ids []string) ([]types.Book, error) {
	var books []types.Book
	err := inBatches(ids, func(chunk []string) error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books b WHERE b.id IN (`+placeholders(len(chunk))+`)`,
			stringArgs(chunk)...)
		if err != nil {
			return fmt.Errorf("fetching books: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				return fmt.Errorf("scanning book: %w", err)
			}
			books = append(books, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// FetchClusterMappings resolves cluster membership for ids. The primary is
// the flagged edition when the cluster has one; otherwise the member with
// the highest confidence, then the lowest ID.
func (s *Store) FetchClusterMappings(ctx context.Context, ids []string) (map[string]types.ClusterMapping, error) {
	out := make(map[string]types.ClusterMapping, len(ids))
	err := inBatches(ids, func(chunk []string) error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT c.book_id, c.cluster_id,
				(SELECT COUNT(*) FROM book_clusters m WHERE m.cluster_id = c.cluster_id),
				(SELECT m.book_id FROM book_clusters m
					WHERE m.cluster_id = c.cluster_id AND m.is_primary = 1
					ORDER BY m.book_id LIMIT 1),
				(SELECT m.book_id FROM book_clusters m
					WHERE m.cluster_id = c.cluster_id
					ORDER BY m.confidence DESC, m.book_id ASC LIMIT 1)
			FROM book_clusters c
			WHERE c.book_id IN (`+placeholders(len(chunk))+`)`,
			stringArgs(chunk)...)
		if err != nil {
			return fmt.Errorf("fetching cluster mappings: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				bookID, clusterID string
				count             int
				primary, fallback sql.NullString
			)
			if err := rows.Scan(&bookID, &clusterID, &count, &primary, &fallback); err != nil {
				return fmt.Errorf("scanning cluster mapping: %w", err)
			}
			m := types.ClusterMapping{ClusterID: clusterID, EditionCount: count}
			if primary.Valid {
				m.PrimaryID, m.HasExplicitPrimary = primary.String, true
			} else {
				m.PrimaryID = fallback.String
			}
			out[bookID] = m
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTitleAuthorKeys returns the normalized title::authors signature for
// each id. Books missing a title or authors have no entry.
func (s *Store) FetchTitleAuthorKeys(ctx context.Context, ids []string) (map[string]types.TitleAuthorKey, error) {
	books, err := s.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching title/author keys: %w", err)
	}
	out := make(map[string]types.TitleAuthorKey, len(books))
	for _, b := range books {
		if k := dedup.TitleAuthorKeyOf(b); k != "" {
			out[b.ID] = k
		}
	}
	return out, nil
}

// Resolve returns the canonical book for an ID or slug, or nil when neither
// matches. An exact ID match wins over a slug match.
func (s *Store) Resolve(ctx context.Context, identifier string) (*types.Book, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books b
		WHERE b.id = ? OR b.slug = ?
		ORDER BY (b.id = ?) DESC LIMIT 1`,
		identifier, identifier, identifier)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", identifier, err)
	}
	return &b, nil
}
