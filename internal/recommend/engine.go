// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recommend ranks content-based similar books for a source book.
// Candidates come from three catalog searches (shared author, overlapping
// categories, description keywords); scores from the strategies add up per
// book. Results are cached on the source book as an ordered ID list and
// served from that cache until regenerated.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bookfinder/internal/logging"
	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/internal/search"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// ErrNoCanonicalBook is returned by Regenerate when the identifier resolves
// to no catalog book.
var ErrNoCanonicalBook = errors.New("no canonical book found")

// Store is the catalog capability the engine reads from.
type Store interface {
	Searcher
	Resolve(ctx context.Context, identifier string) (*types.Book, error)
}

// RecommendationStore receives computed recommendations.
type RecommendationStore interface {
	PersistRecommendations(ctx context.Context, source types.Book, records []types.ScoredBook) error
	UpdateCachedRecommendations(ctx context.Context, sourceID string, ids []string) error
}

// Options holds the optional collaborators of an Engine.
type Options struct {
	// Recommendations stores results. Nil disables persistence and caching.
	Recommendations RecommendationStore

	// ExternalFallback answers for identifiers the catalog does not know.
	ExternalFallback search.Provider
}

// Engine computes and caches similar-book recommendations.
type Engine struct {
	store    Store
	recs     RecommendationStore
	external search.Provider
	chain    *StrategyChain
	cfg      types.RecommendConfig
	logger   zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an Engine over store.
func NewEngine(store Store, cfg types.RecommendConfig, opts Options) *Engine {
	cfg = cfg.WithDefaults()
	return &Engine{
		store:    store,
		recs:     opts.Recommendations,
		external: opts.ExternalFallback,
		chain:    NewStrategyChain(store, cfg),
		cfg:      cfg,
		logger:   logging.Component("recommend"),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}
}

// GetSimilarBooks returns up to count books similar to the book identified
// by identifier (an ID or slug). Count defaults when not positive. Unknown
// identifiers yield no books and no error.
//
// When persisting the computed ranking fails, the ranking is still returned
// together with the error.
func (e *Engine) GetSimilarBooks(ctx context.Context, identifier string, count int) ([]types.Book, error) {
	return e.similar(ctx, identifier, count, true)
}

// Regenerate recomputes recommendations for identifier, ignoring any
// cached ranking. It returns ErrNoCanonicalBook for unknown identifiers.
func (e *Engine) Regenerate(ctx context.Context, identifier string, count int) ([]types.Book, error) {
	return e.similar(ctx, identifier, count, false)
}

func (e *Engine) similar(ctx context.Context, identifier string, count int, useCache bool) ([]types.Book, error) {
	if count <= 0 {
		count = e.cfg.DefaultCount
	}
	identifier = strings.TrimSpace(identifier)

	logger := e.logger.With().Str("book", identifier).Bool("regenerate", !useCache).Logger()
	ctx = logger.WithContext(ctx)

	var source *types.Book
	if identifier != "" {
		var err error
		if source, err = e.store.Resolve(ctx, identifier); err != nil {
			return nil, fmt.Errorf("resolving source book: %w", err)
		}
	}
	if source == nil {
		if !useCache {
			return nil, fmt.Errorf("%w: %q", ErrNoCanonicalBook, identifier)
		}
		return e.fromExternal(ctx, identifier, count)
	}

	if useCache && len(source.CachedRecommendationIDs) > 0 {
		books, err := e.fromCache(ctx, *source, count)
		if err != nil {
			return nil, err
		}
		if len(books) > 0 {
			metrics.RecommendRequests.WithLabelValues("cache_hit").Inc()
			logger.Debug().Int("returned", len(books)).Msg("served cached recommendations")
			return books, nil
		}
	}

	return e.compute(ctx, *source, count)
}

// fromCache hydrates the cached IDs in shuffled order, dropping the source
// itself and IDs that no longer resolve.
func (e *Engine) fromCache(ctx context.Context, source types.Book, count int) ([]types.Book, error) {
	ids := make([]string, 0, len(source.CachedRecommendationIDs))
	for _, id := range source.CachedRecommendationIDs {
		if id != "" && id != source.ID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	e.shuffle(ids)

	books, err := hydrate(ctx, e.store, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating cached recommendations: %w", err)
	}
	if len(books) > count {
		books = books[:count]
	}
	return books, nil
}

func (e *Engine) shuffle(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// compute runs the strategies under the similar-books timeout, ranks the
// merged candidates and persists the outcome.
func (e *Engine) compute(ctx context.Context, source types.Book, count int) ([]types.Book, error) {
	started := time.Now()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.SimilarTimeout)
	ranked := Rank(source, e.chain.Run(sctx, source)...)
	cancel()

	top := ranked
	if len(top) > count {
		top = top[:count]
	}
	books := make([]types.Book, len(top))
	for i, s := range top {
		books[i] = s.Book
	}

	metrics.RecommendRequests.WithLabelValues("computed").Inc()
	zerolog.Ctx(ctx).Info().
		Int("candidates", len(ranked)).
		Int("returned", len(books)).
		Int64("elapsed_ms", time.Since(started).Milliseconds()).
		Msg("recommendations computed")

	if err := e.persist(ctx, source, ranked, top); err != nil {
		return books, err
	}
	return books, nil
}

// persist caches the full ranked ID list on the source and stores the
// scored records of the returned subset. Both writes finish before it
// returns; their errors are joined.
func (e *Engine) persist(ctx context.Context, source types.Book, ranked, top []types.ScoredBook) error {
	if e.recs == nil {
		return nil
	}
	ids := make([]string, len(ranked))
	for i, s := range ranked {
		ids[i] = s.Book.ID
	}

	var (
		g                 errgroup.Group
		cacheErr, recsErr error
	)
	g.Go(func() error {
		cacheErr = e.recs.UpdateCachedRecommendations(ctx, source.ID, ids)
		return nil
	})
	g.Go(func() error {
		recsErr = e.recs.PersistRecommendations(ctx, source, top)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(cacheErr, recsErr); err != nil {
		return fmt.Errorf("persisting recommendations for %s: %w", source.ID, err)
	}
	return nil
}

// fromExternal answers for identifiers outside the catalog from the
// external provider, without caching.
func (e *Engine) fromExternal(ctx context.Context, identifier string, count int) ([]types.Book, error) {
	if e.external == nil || identifier == "" {
		metrics.RecommendRequests.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.SimilarTimeout)
	defer cancel()
	hits, err := e.external.Search(sctx, identifier, types.OrderRelevance, 0, count+1)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider", e.external.Name()).Msg("external recommendations failed")
		metrics.RecommendRequests.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	out := make([]types.Book, 0, count)
	for _, b := range hits {
		if refersTo(b, identifier) {
			continue
		}
		out = append(out, b)
		if len(out) == count {
			break
		}
	}
	metrics.RecommendRequests.WithLabelValues("external").Inc()
	return out, nil
}

func refersTo(b types.Book, identifier string) bool {
	return b.ID == identifier || b.Slug == identifier || b.ISBN13 == identifier || b.ISBN10 == identifier
}

// Rank merges strategy results by book ID, drops the source and candidates
// in another language, and sorts the rest. Candidates without a language
// are kept.
func Rank(source types.Book, groups ...[]types.ScoredBook) []types.ScoredBook {
	index := make(map[string]int)
	var merged []types.ScoredBook
	for _, group := range groups {
		for _, s := range group {
			id := s.Book.ID
			if id == "" || id == source.ID {
				continue
			}
			if i, ok := index[id]; ok {
				merged[i] = merged[i].MergeWith(s)
				continue
			}
			index[id] = len(merged)
			merged = append(merged, s)
		}
	}

	lang := strings.ToLower(strings.TrimSpace(source.Language))
	out := merged[:0]
	for _, s := range merged {
		cl := strings.ToLower(strings.TrimSpace(s.Book.Language))
		if lang != "" && cl != "" && cl != lang {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ca, cb := search.HasRenderableCover(a.Book), search.HasRenderableCover(b.Book); ca != cb {
			return ca
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ra, rb := search.CoverRank(a.Book.Cover), search.CoverRank(b.Book.Cover); ra != rb {
			return ra > rb
		}
		return a.Book.ID < b.Book.ID
	})
	return out
}
