// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/bookfinder/internal/dedup"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// fallbackMerge is the outcome of folding provider candidates into a page.
type fallbackMerge struct {
	// Unique is the merged, key-deduplicated result list.
	Unique []types.Book

	// NetNew holds candidates whose key the page did not have.
	NetNew []types.Book

	// Refreshes holds existing records improved by a candidate.
	Refreshes []types.Book
}

// mergeFallback classifies candidates against existing and merges them.
// Existing records come first, refreshed in place; net-new candidates follow
// in provider order. Candidates without a key are dropped.
func mergeFallback(existing, candidates []types.Book) fallbackMerge {
	candidates = dedup.ByKey(candidates)

	merged := make([]types.Book, len(existing))
	existingKeys := make(map[string]struct{}, len(existing))
	byFingerprint := make(map[string]int, len(existing))
	for i, b := range existing {
		merged[i] = b
		if k, ok := dedup.ResolveKey(b); ok {
			existingKeys[k] = struct{}{}
		}
		if fp := dedup.Fingerprint(b); fp != "" {
			if _, dup := byFingerprint[fp]; !dup {
				byFingerprint[fp] = i
			}
		}
	}

	var (
		out       fallbackMerge
		refreshed = make(map[int]bool)
	)
	for _, c := range candidates {
		key, ok := dedup.ResolveKey(c)
		if !ok {
			continue
		}

		if idx, found := byFingerprint[dedup.Fingerprint(c)]; found {
			if improved, changed := improveRecord(merged[idx], c); changed {
				merged[idx] = improved
				refreshed[idx] = true
				continue
			}
		}

		if _, dup := existingKeys[key]; dup {
			continue
		}
		existingKeys[key] = struct{}{}
		out.NetNew = append(out.NetNew, c)
	}

	for i := range merged {
		if refreshed[i] {
			out.Refreshes = append(out.Refreshes, merged[i])
		}
	}
	out.Unique = dedup.ByKey(append(merged, out.NetNew...))
	return out
}

// improveRecord fills gaps in existing from candidate. It reports whether
// anything changed: a longer description, or a page count, publisher,
// language or cover the existing record lacks.
func improveRecord(existing, candidate types.Book) (types.Book, bool) {
	out := existing.Clone()
	changed := false

	if len(strings.TrimSpace(candidate.Description)) > len(strings.TrimSpace(existing.Description)) {
		out.Description = candidate.Description
		changed = true
	}
	if existing.PageCount <= 0 && candidate.PageCount > 0 {
		out.PageCount = candidate.PageCount
		changed = true
	}
	if strings.TrimSpace(existing.Publisher) == "" && strings.TrimSpace(candidate.Publisher) != "" {
		out.Publisher = candidate.Publisher
		changed = true
	}
	if strings.TrimSpace(existing.Language) == "" && strings.TrimSpace(candidate.Language) != "" {
		out.Language = candidate.Language
		changed = true
	}
	if !HasRenderableCover(existing) && HasRenderableCover(candidate) {
		out.Cover = candidate.Cover
		changed = true
	}
	return out, changed
}

// orderBooks applies the request ordering. Relevance keeps the incoming
// order; newest sorts by published year, stable for ties.
func orderBooks(books []types.Book, orderBy types.OrderBy) {
	if orderBy != types.OrderNewest {
		return
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].PublishedYear > books[j].PublishedYear
	})
}
