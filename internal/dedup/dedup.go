// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses catalog search hits and external candidates into
// unique works. Catalog hits go through two passes: cluster membership first,
// then normalized title+author. External candidates, which have no cluster
// membership, are keyed by ISBN or title via ResolveKey.
package dedup

import (
	"context"
	"fmt"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// Lookup resolves cluster and title/author signals for a batch of edition
// IDs. Missing map entries mean "no signal" for that ID.
type Lookup interface {
	FetchClusterMappings(ctx context.Context, ids []string) (map[string]types.ClusterMapping, error)
	FetchTitleAuthorKeys(ctx context.Context, ids []string) (map[string]types.TitleAuthorKey, error)
}

// Deduplicator runs the two-pass collapse over a Lookup.
type Deduplicator struct {
	lookup Lookup
}

// New returns a Deduplicator backed by lookup.
func New(lookup Lookup) *Deduplicator {
	return &Deduplicator{lookup: lookup}
}

// Deduplicate collapses raw hits into one representative per work, keeping
// the order in which each work first appeared. Lookup failures are returned:
// they mean the store is unreachable, not that there is no signal.
func (d *Deduplicator) Deduplicate(ctx context.Context, raw []types.SearchResult) ([]types.SearchResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	clustered, err := d.collapseClusters(ctx, raw)
	if err != nil {
		return nil, err
	}
	return d.collapseTitleAuthor(ctx, clustered)
}

// collapseClusters maps every edition to its canonical ID and merges hits
// that share one. Edition counts take the max: the larger cluster wins.
func (d *Deduplicator) collapseClusters(ctx context.Context, raw []types.SearchResult) ([]types.SearchResult, error) {
	mappings, err := d.lookup.FetchClusterMappings(ctx, uniqueIDs(raw))
	if err != nil {
		return nil, fmt.Errorf("fetching cluster mappings: %w", err)
	}

	// fallbackByCluster pins the first-resolved member of a cluster without
	// an explicit primary so every member maps to the same ID.
	fallbackByCluster := make(map[string]string)
	index := make(map[string]int)
	var out []types.SearchResult

	for _, r := range raw {
		r = r.Normalized()
		canonical := r.BookID

		if m, ok := mappings[r.BookID]; ok {
			if r.ClusterID == "" {
				r.ClusterID = m.ClusterID
			}
			if m.EditionCount > r.EditionCount {
				r.EditionCount = m.EditionCount
			}
			switch {
			case m.HasExplicitPrimary && m.PrimaryID != "":
				canonical = m.PrimaryID
			case m.ClusterID != "":
				fb, seen := fallbackByCluster[m.ClusterID]
				if !seen {
					fb = m.PrimaryID
					if fb == "" {
						fb = r.BookID
					}
					fallbackByCluster[m.ClusterID] = fb
				}
				canonical = fb
			}
		}
		r.BookID = canonical

		idx, ok := index[canonical]
		if !ok {
			index[canonical] = len(out)
			out = append(out, r)
			continue
		}
		mergeCluster(&out[idx], r)
	}
	return out, nil
}

// mergeCluster folds src into dst for two editions of the same work.
func mergeCluster(dst *types.SearchResult, src types.SearchResult) {
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
		dst.MatchType = src.MatchType
	}
	if src.EditionCount > dst.EditionCount {
		dst.EditionCount = src.EditionCount
	}
	if dst.ClusterID == "" {
		dst.ClusterID = src.ClusterID
	}
}

// collapseTitleAuthor merges survivors sharing a normalized title+author key.
// Distinct works are being folded, so edition counts add up.
func (d *Deduplicator) collapseTitleAuthor(ctx context.Context, results []types.SearchResult) ([]types.SearchResult, error) {
	keys, err := d.lookup.FetchTitleAuthorKeys(ctx, uniqueIDs(results))
	if err != nil {
		return nil, fmt.Errorf("fetching title/author keys: %w", err)
	}

	index := make(map[string]int)
	var out []types.SearchResult

	for _, r := range results {
		group := "id:" + r.BookID
		if k := keys[r.BookID]; k != "" {
			group = "ta:" + string(k)
		}

		idx, ok := index[group]
		if !ok {
			index[group] = len(out)
			out = append(out, r)
			continue
		}
		mergeTitleAuthor(&out[idx], r)
	}
	return out, nil
}

// mergeTitleAuthor folds src into dst; the higher-scored entry supplies the
// ID and match type.
func mergeTitleAuthor(dst *types.SearchResult, src types.SearchResult) {
	clusterID := dst.ClusterID
	if clusterID == "" {
		clusterID = src.ClusterID
	}
	editions := dst.EditionCount + src.EditionCount

	if src.RelevanceScore > dst.RelevanceScore {
		dst.BookID = src.BookID
		dst.RelevanceScore = src.RelevanceScore
		dst.MatchType = src.MatchType
	}
	dst.EditionCount = editions
	dst.ClusterID = clusterID
}

func uniqueIDs(results []types.SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.BookID]; ok {
			continue
		}
		seen[r.BookID] = struct{}{}
		ids = append(ids, r.BookID)
	}
	return ids
}

// ByKey keeps the first book for every ResolveKey key. Books without a key
// are kept by identity: a repeated non-empty ID is dropped, an empty ID is
// always kept.
func ByKey(books []types.Book) []types.Book {
	seenKeys := make(map[string]struct{}, len(books))
	seenIDs := make(map[string]struct{}, len(books))
	out := make([]types.Book, 0, len(books))

	for _, b := range books {
		if key, ok := ResolveKey(b); ok {
			if _, dup := seenKeys[key]; dup {
				continue
			}
			seenKeys[key] = struct{}{}
		} else if b.ID != "" {
			if _, dup := seenIDs[b.ID]; dup {
				continue
			}
		}
		if b.ID != "" {
			seenIDs[b.ID] = struct{}{}
		}
		out = append(out, b)
	}
	return out
}
