// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search assembles paginated book search pages from the catalog,
// falling back to external providers when the catalog cannot fill a page
// or fills it with records missing covers or metadata.
package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bookfinder/internal/dedup"
	"github.com/pdiddy/bookfinder/internal/logging"
	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/internal/persist"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// Catalog is the catalog search and hydration capability.
type Catalog interface {
	Search(ctx context.Context, q string, limit int) ([]types.SearchResult, error)
	FetchByIDs(ctx context.Context, ids []string) ([]types.Book, error)
}

// Submitter hands fallback candidates to background persistence.
type Submitter interface {
	Submit(ctx context.Context, books []types.Book, tag string) *persist.Task
}

// Options holds the optional collaborators of an Orchestrator.
type Options struct {
	// Primary and Secondary are the fallback providers; either may be nil.
	Primary   Provider
	Secondary Provider

	// Persister receives net-new and refreshed candidates. Nil disables
	// persistence.
	Persister Submitter
}

// Orchestrator runs paginated searches.
type Orchestrator struct {
	catalog   Catalog
	dedup     *dedup.Deduplicator
	primary   Provider
	secondary Provider
	persister Submitter
	cfg       types.SearchConfig
	logger    zerolog.Logger
}

// NewOrchestrator returns an Orchestrator over catalog, using lookup for
// cluster and title/author deduplication.
func NewOrchestrator(catalog Catalog, lookup dedup.Lookup, cfg types.SearchConfig, opts Options) *Orchestrator {
	primary, secondary := opts.Primary, opts.Secondary
	if primary == nil {
		primary, secondary = secondary, nil
	}
	return &Orchestrator{
		catalog:   catalog,
		dedup:     dedup.New(lookup),
		primary:   primary,
		secondary: secondary,
		persister: opts.Persister,
		cfg:       cfg.WithDefaults(),
		logger:    logging.Component("search"),
	}
}

// Search returns the page of unique results for req.
func (o *Orchestrator) Search(ctx context.Context, req types.SearchRequest) (*types.SearchPage, error) {
	page, _, err := o.SearchAndTrack(ctx, req)
	return page, err
}

// SearchAndTrack is Search that also returns the handles of the background
// writes it started. Callers may wait on them or ignore them.
func (o *Orchestrator) SearchAndTrack(ctx context.Context, req types.SearchRequest) (*types.SearchPage, []*persist.Task, error) {
	started := time.Now()
	req = types.NewSearchRequest(req)
	w := ComputeWindow(req.StartIndex, req.MaxResults, o.cfg)

	logger := o.logger.With().
		Str("request_id", uuid.NewString()).
		Str("query", req.Query).
		Logger()
	ctx = logger.WithContext(ctx)

	raw, err := o.catalog.Search(ctx, req.Query, w.TotalRequested)
	if err != nil {
		return nil, nil, fmt.Errorf("searching catalog: %w", err)
	}
	fetched := len(raw)

	if req.PublishedYear != 0 {
		raw, err = o.filterYear(ctx, raw, req.PublishedYear)
		if err != nil {
			return nil, nil, err
		}
	}

	unique, err := o.dedup.Deduplicate(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("deduplicating results: %w", err)
	}
	books, err := o.hydrate(ctx, unique)
	if err != nil {
		return nil, nil, err
	}
	books = filterBooks(books, req)
	orderBooks(books, req.OrderBy)
	page := BuildPage(req.Query, req.OrderBy, req.CoverFilter, req.ResolutionFilter, books, w)

	var tasks []*persist.Task
	reasons := fallbackReasons(req, page, w, o.primary != nil)
	if len(reasons) > 0 {
		for _, r := range reasons {
			metrics.FallbackTriggered.WithLabelValues(r).Inc()
		}
		logger.Debug().Strs("reasons", reasons).Msg("falling back to external providers")

		candidates := filterBooks(o.fetchFallback(ctx, req, w, books), req)
		fetched += len(candidates)

		merged := mergeFallback(books, candidates)
		metrics.FallbackCandidates.WithLabelValues("new").Add(float64(len(merged.NetNew)))
		metrics.FallbackCandidates.WithLabelValues("refresh").Add(float64(len(merged.Refreshes)))
		tasks = o.persist(ctx, merged)

		orderBooks(merged.Unique, req.OrderBy)
		page = BuildPage(req.Query, req.OrderBy, req.CoverFilter, req.ResolutionFilter, merged.Unique, w)
	}

	elapsed := time.Since(started)
	fellBack := len(reasons) > 0
	metrics.SearchDuration.WithLabelValues(strconv.FormatBool(fellBack)).Observe(elapsed.Seconds())
	metrics.SearchPrefetched.Observe(float64(page.PrefetchedCount))
	logger.Info().
		Int("start", w.StartIndex).
		Int("limit", w.Limit).
		Int("total_requested", w.TotalRequested).
		Int("fetched", fetched).
		Int("total_unique", page.TotalUnique).
		Int("prefetched", page.PrefetchedCount).
		Bool("has_more", page.HasMore).
		Bool("fallback", fellBack).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Msg("search complete")

	return page, tasks, nil
}

// filterYear drops raw hits not published in year.
func (o *Orchestrator) filterYear(ctx context.Context, raw []types.SearchResult, year int) ([]types.SearchResult, error) {
	books, err := o.hydrate(ctx, raw)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(books))
	for _, b := range books {
		if b.PublishedYear == year {
			keep[b.ID] = struct{}{}
		}
	}
	out := raw[:0:0]
	for _, r := range raw {
		if _, ok := keep[r.BookID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// hydrate fetches the records for results in result order, carrying the
// search metadata onto each book. Results whose record is gone are dropped.
func (o *Orchestrator) hydrate(ctx context.Context, results []types.SearchResult) ([]types.Book, error) {
	if len(results) == 0 {
		return nil, nil
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.BookID
	}

	records, err := o.catalog.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	byID := make(map[string]types.Book, len(records))
	for _, b := range records {
		byID[b.ID] = b
	}

	books := make([]types.Book, 0, len(results))
	for _, r := range results {
		b, ok := byID[r.BookID]
		if !ok {
			continue
		}
		b.RelevanceScore = r.RelevanceScore
		b.MatchType = r.MatchType
		b.EditionCount = r.EditionCount
		b.ClusterID = r.ClusterID
		books = append(books, b)
	}
	return books, nil
}

// fetchFallback queries the providers from offset 0. The secondary runs
// alongside the primary when EagerSecondary is set, otherwise only when
// the primary leaves the window short. Primary results always precede
// secondary results.
func (o *Orchestrator) fetchFallback(ctx context.Context, req types.SearchRequest, w types.Window, existing []types.Book) []types.Book {
	limit := providerFetchLimit(w)

	if o.secondary != nil && o.cfg.EagerSecondary {
		var primary, secondary []types.Book
		var g errgroup.Group
		g.Go(func() error {
			primary = o.callProvider(ctx, o.primary, req, limit)
			return nil
		})
		g.Go(func() error {
			secondary = o.callProvider(ctx, o.secondary, req, limit)
			return nil
		})
		_ = g.Wait()
		return append(primary, secondary...)
	}

	candidates := o.callProvider(ctx, o.primary, req, limit)
	if o.secondary == nil || countKeys(existing, candidates) >= w.TotalRequested {
		return candidates
	}
	return append(candidates, o.callProvider(ctx, o.secondary, req, limit)...)
}

// callProvider runs one provider under the provider timeout. Failures are
// logged and yield no candidates.
func (o *Orchestrator) callProvider(ctx context.Context, p Provider, req types.SearchRequest, limit int) []types.Book {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
	defer cancel()

	books, err := p.Search(ctx, req.Query, req.OrderBy, 0, limit)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider", p.Name()).Msg("fallback provider failed")
		return nil
	}
	if len(books) > limit {
		books = books[:limit]
	}
	return books
}

// persist submits net-new and refreshed records for background writes.
func (o *Orchestrator) persist(ctx context.Context, m fallbackMerge) []*persist.Task {
	if o.persister == nil {
		return nil
	}
	var tasks []*persist.Task
	if len(m.NetNew) > 0 {
		tasks = append(tasks, o.persister.Submit(ctx, m.NetNew, persist.TagNewFromSearch))
	}
	if len(m.Refreshes) > 0 {
		tasks = append(tasks, o.persister.Submit(ctx, m.Refreshes, persist.TagMetadataRefresh))
	}
	return tasks
}

// countKeys counts the distinct candidate keys across groups.
func countKeys(groups ...[]types.Book) int {
	seen := make(map[string]struct{})
	for _, books := range groups {
		for _, b := range books {
			if k, ok := dedup.ResolveKey(b); ok {
				seen[k] = struct{}{}
			}
		}
	}
	return len(seen)
}
