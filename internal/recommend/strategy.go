// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/internal/query"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// Searcher is the catalog capability candidate discovery runs against.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]types.SearchResult, error)
	FetchByIDs(ctx context.Context, ids []string) ([]types.Book, error)
}

// Strategy names, also used as metric labels.
const (
	StrategyAuthor   = "author"
	StrategyCategory = "category"
	StrategyText     = "text"
)

var catalogFields = map[query.Field]string{
	query.Author:   "author",
	query.Category: "category",
}

// StrategyChain discovers scored candidates for a source book.
type StrategyChain struct {
	searcher Searcher
	scorer   Scorer
	limit    int
}

// NewStrategyChain returns a chain over searcher. Each strategy keeps at
// most cfg.CandidateLimit hits.
func NewStrategyChain(searcher Searcher, cfg types.RecommendConfig) *StrategyChain {
	cfg = cfg.WithDefaults()
	return &StrategyChain{
		searcher: searcher,
		scorer:   NewScorer(cfg),
		limit:    cfg.CandidateLimit,
	}
}

// Run executes the three strategies concurrently and returns their results
// in author, category, text order. A failing strategy is logged and
// contributes nothing.
func (c *StrategyChain) Run(ctx context.Context, source types.Book) [][]types.ScoredBook {
	type strategy struct {
		name string
		run  func(context.Context, types.Book) ([]types.ScoredBook, error)
	}
	strategies := []strategy{
		{StrategyAuthor, c.ByAuthor},
		{StrategyCategory, c.ByCategory},
		{StrategyText, c.ByText},
	}

	results := make([][]types.ScoredBook, len(strategies))
	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() error {
			scored, err := s.run(ctx, source)
			if err != nil {
				metrics.StrategyErrors.WithLabelValues(s.name).Inc()
				zerolog.Ctx(ctx).Warn().Err(err).Str("strategy", s.name).Msg("candidate discovery failed")
				return nil
			}
			results[i] = scored
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ByAuthor searches each source author and scores every hit with the flat
// author bonus.
func (c *StrategyChain) ByAuthor(ctx context.Context, source types.Book) ([]types.ScoredBook, error) {
	var (
		out  []types.ScoredBook
		seen = make(map[string]struct{})
	)
	for _, author := range source.Authors {
		if strings.TrimSpace(author) == "" {
			continue
		}
		q := query.Render([]query.Alternative{{{Field: query.Author, Value: author}}}, catalogFields)
		books, err := c.find(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("author %q: %w", author, err)
		}
		for _, b := range books {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			out = append(out, types.NewScoredBook(b, c.scorer.AuthorMatchScore(), types.ReasonAuthor))
		}
		if len(out) >= c.limit {
			return out[:c.limit], nil
		}
	}
	return out, nil
}

// ByCategory searches any of the source's main categories and scores hits
// by category overlap.
func (c *StrategyChain) ByCategory(ctx context.Context, source types.Book) ([]types.ScoredBook, error) {
	mains := ExtractMainCategories(source)
	if len(mains) == 0 {
		return nil, nil
	}
	alts := make([]query.Alternative, len(mains))
	for i, m := range mains {
		alts[i] = query.Alternative{{Field: query.Category, Value: m}}
	}

	books, err := c.find(ctx, query.Render(alts, catalogFields))
	if err != nil {
		return nil, fmt.Errorf("categories %v: %w", mains, err)
	}
	out := make([]types.ScoredBook, 0, len(books))
	for _, b := range books {
		out = append(out, types.NewScoredBook(b, c.scorer.CategoryOverlapScore(source, b), types.ReasonCategory))
	}
	return out, nil
}

// ByText searches the source's keywords and re-scores each hit by how many
// keywords its own title and description contain. Hits with none are dropped.
func (c *StrategyChain) ByText(ctx context.Context, source types.Book) ([]types.ScoredBook, error) {
	keywords := ExtractKeywords(source)
	if len(keywords) == 0 {
		return nil, nil
	}

	books, err := c.find(ctx, strings.Join(keywords, " "))
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	var out []types.ScoredBook
	for _, b := range books {
		n := countKeywordMatches(b, keywords)
		if n == 0 {
			continue
		}
		out = append(out, types.NewScoredBook(b, c.scorer.TextMatchScore(n), types.ReasonText))
	}
	return out, nil
}

// find runs q and hydrates the hits in search order.
func (c *StrategyChain) find(ctx context.Context, q string) ([]types.Book, error) {
	results, err := c.searcher.Search(ctx, q, c.limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.BookID
	}
	return hydrate(ctx, c.searcher, ids)
}

// hydrate fetches ids and returns the records in ids order, skipping
// unknown and repeated IDs.
func hydrate(ctx context.Context, searcher Searcher, ids []string) ([]types.Book, error) {
	records, err := searcher.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	byID := make(map[string]types.Book, len(records))
	for _, b := range records {
		byID[b.ID] = b
	}

	books := make([]types.Book, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		books = append(books, b)
	}
	return books, nil
}
