// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/bookfinder/internal/dedup"
	"github.com/pdiddy/bookfinder/internal/query"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// Search runs q against the catalog and returns up to limit hits ordered by
// relevance, ties broken by book ID. A blank or "*" query matches every book.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]types.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	wildcard := query.IsWildcard(q)

	var alts []query.Alternative
	if !wildcard {
		alts = query.Parse(q)
		if len(alts) == 0 {
			return nil, nil
		}
	}

	where, args := prefilter(alts)
	stmt := `SELECT ` + bookColumns + `,
			COALESCE(c.cluster_id, ''),
			CASE WHEN c.cluster_id IS NULL THEN 1
				ELSE (SELECT COUNT(*) FROM book_clusters m WHERE m.cluster_id = c.cluster_id) END
		FROM books b
		LEFT JOIN book_clusters c ON c.book_id = b.id`
	if where != "" {
		stmt += ` WHERE ` + where
	}
	if wildcard {
		stmt += ` ORDER BY b.id LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		var (
			clusterID string
			editions  int
		)
		b, err := scanBook(rows, &clusterID, &editions)
		if err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}

		r := types.SearchResult{BookID: b.ID, ClusterID: clusterID, EditionCount: editions}
		if wildcard {
			r.RelevanceScore, r.MatchType = 0.1, types.MatchAll
		} else {
			score, mt, ok := scoreBook(b, alts)
			if !ok {
				continue
			}
			r.RelevanceScore, r.MatchType = score, mt
		}
		results = append(results, r.Normalized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].BookID < results[j].BookID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// prefilter builds a coarse SQL condition that every real match satisfies.
// Exact matching and scoring happen in scoreBook.
func prefilter(alts []query.Alternative) (string, []any) {
	var (
		conds []string
		args  []any
	)
	like := func(column, value string) {
		for _, w := range strings.Fields(dedup.NormalizeTitle(value)) {
			conds = append(conds, column+` LIKE ?`)
			args = append(args, "%"+w+"%")
		}
	}

	for _, alt := range alts {
		for _, c := range alt {
			switch c.Field {
			case query.ISBN:
				isbn := dedup.SanitizeISBN(c.Value)
				conds = append(conds, `(b.isbn13 = ? OR b.isbn10 = ?)`)
				args = append(args, isbn, isbn)
			case query.Author:
				like("b.authors", c.Value)
			case query.Category:
				like("b.categories", c.Value)
			case query.Title:
				like("b.title", c.Value)
			case query.Text:
				like("b.title", c.Value)
				like("b.description", c.Value)
				like("b.authors", c.Value)
			}
		}
	}
	return strings.Join(conds, " OR "), args
}

// scoreBook returns the best score over the alternatives b fully matches.
func scoreBook(b types.Book, alts []query.Alternative) (float64, types.MatchType, bool) {
	var (
		best    float64
		bestMT  types.MatchType
		matched bool
	)
	for _, alt := range alts {
		altScore, altMT, ok := scoreAlternative(b, alt)
		if !ok {
			continue
		}
		if !matched || altScore > best {
			best, bestMT, matched = altScore, altMT, true
		}
	}
	return best, bestMT, matched
}

func scoreAlternative(b types.Book, alt query.Alternative) (float64, types.MatchType, bool) {
	var (
		best   float64
		bestMT types.MatchType
	)
	for _, c := range alt {
		score, mt, ok := scoreClause(b, c)
		if !ok {
			return 0, "", false
		}
		if score > best {
			best, bestMT = score, mt
		}
	}
	return best, bestMT, true
}

func scoreClause(b types.Book, c query.Clause) (float64, types.MatchType, bool) {
	value := dedup.NormalizeTitle(c.Value)

	switch c.Field {
	case query.ISBN:
		isbn := dedup.SanitizeISBN(c.Value)
		if isbn != "" && (dedup.SanitizeISBN(b.ISBN13) == isbn || dedup.SanitizeISBN(b.ISBN10) == isbn) {
			return 1.0, types.MatchISBN, true
		}
	case query.Author:
		for _, a := range b.Authors {
			n := dedup.NormalizeTitle(a)
			if n == value {
				return 0.9, types.MatchAuthor, true
			}
			if value != "" && strings.Contains(n, value) {
				return 0.7, types.MatchAuthor, true
			}
		}
	case query.Category:
		var partial bool
		for _, cat := range b.Categories {
			for _, seg := range strings.Split(cat, "/") {
				n := dedup.NormalizeTitle(seg)
				if n == value {
					return 0.6, types.MatchCategory, true
				}
				if value != "" && strings.Contains(n, value) {
					partial = true
				}
			}
		}
		if partial {
			return 0.5, types.MatchCategory, true
		}
	case query.Title:
		title := dedup.NormalizeTitle(b.Title)
		if title == value {
			return 0.85, types.MatchTitle, true
		}
		if value != "" && strings.Contains(title, value) {
			return 0.75, types.MatchTitle, true
		}
	case query.Text:
		return scoreText(b, value)
	}
	return 0, "", false
}

// scoreText matches free text: a title phrase match ranks above a partial
// keyword match, which scales with the fraction of words found.
func scoreText(b types.Book, value string) (float64, types.MatchType, bool) {
	if value == "" {
		return 0, "", false
	}
	title := dedup.NormalizeTitle(b.Title)
	if strings.Contains(title, value) {
		return 0.8, types.MatchTitle, true
	}

	haystack := title + " " + dedup.NormalizeTitle(b.Description) + " " + dedup.NormalizeAuthors(b.Authors)
	words := strings.Fields(value)
	hits := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			hits++
		}
	}
	if hits == 0 {
		return 0, "", false
	}
	return 0.5 * float64(hits) / float64(len(words)), types.MatchText, true
}
