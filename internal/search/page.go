// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"github.com/pdiddy/bookfinder/pkg/types"
)

// ComputeWindow clamps a request's offset and page size against cfg. The
// limit is bounded by the configured min/max and never exceeds
// types.ProviderWindowCap.
func ComputeWindow(startIndex, maxResults int, cfg types.SearchConfig) types.Window {
	cfg = cfg.WithDefaults()

	limit := maxResults
	if limit <= 0 {
		limit = cfg.DefaultResults
	}
	limit = min(max(limit, cfg.MinResults), cfg.MaxResults)
	limit = min(max(limit, 1), types.ProviderWindowCap)

	start := max(startIndex, 0)
	return types.Window{StartIndex: start, Limit: limit, TotalRequested: start + limit}
}

// providerFetchLimit is how many records to ask each fallback provider for.
// Providers are always queried from offset 0, so deep windows need more
// than one page, bounded by types.ProviderWindowCap.
func providerFetchLimit(w types.Window) int {
	return min(max(w.Limit, w.TotalRequested, 1), types.ProviderWindowCap)
}

// BuildPage slices unique at the window's absolute offset.
func BuildPage(q string, orderBy types.OrderBy, cover types.CoverFilter, resolution types.ResolutionFilter, unique []types.Book, w types.Window) *types.SearchPage {
	if unique == nil {
		unique = []types.Book{}
	}

	items := []types.Book{}
	if w.StartIndex < len(unique) {
		end := min(w.End(), len(unique))
		items = unique[w.StartIndex:end]
	}

	page := &types.SearchPage{
		Query:            q,
		OrderBy:          orderBy,
		CoverFilter:      cover,
		ResolutionFilter: resolution,
		StartIndex:       w.StartIndex,
		MaxResults:       w.Limit,
		TotalRequested:   w.TotalRequested,
		TotalUnique:      len(unique),
		PageItems:        items,
		UniqueResults:    unique,
		HasMore:          len(unique) > w.End(),
		PrefetchedCount:  len(unique) - len(items),
	}
	if page.HasMore {
		page.NextStartIndex = w.End()
	}
	return page
}
