// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// --- fake lookup ---

type fakeLookup struct {
	clusters map[string]types.ClusterMapping
	keys     map[string]types.TitleAuthorKey
	err      error
}

func (f *fakeLookup) FetchClusterMappings(_ context.Context, ids []string) (map[string]types.ClusterMapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]types.ClusterMapping)
	for _, id := range ids {
		if m, ok := f.clusters[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeLookup) FetchTitleAuthorKeys(_ context.Context, ids []string) (map[string]types.TitleAuthorKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]types.TitleAuthorKey)
	for _, id := range ids {
		if k, ok := f.keys[id]; ok {
			out[id] = k
		}
	}
	return out, nil
}

// clusterOf builds consistent mappings for every member of one cluster.
func clusterOf(clusterID, primary string, explicit bool, members ...string) map[string]types.ClusterMapping {
	out := make(map[string]types.ClusterMapping, len(members))
	for _, m := range members {
		out[m] = types.ClusterMapping{
			PrimaryID:          primary,
			ClusterID:          clusterID,
			EditionCount:       len(members),
			HasExplicitPrimary: explicit,
		}
	}
	return out
}

func merge(maps ...map[string]types.ClusterMapping) map[string]types.ClusterMapping {
	out := make(map[string]types.ClusterMapping)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func TestDeduplicateEmpty(t *testing.T) {
	d := New(&fakeLookup{})
	out, err := d.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDeduplicateClusterMergeKeepsMaxScore(t *testing.T) {
	lookup := &fakeLookup{clusters: clusterOf("c1", "p", true, "p", "a", "b")}
	d := New(lookup)

	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "a", RelevanceScore: 0.4, MatchType: types.MatchText, EditionCount: 1},
		{BookID: "b", RelevanceScore: 0.9, MatchType: types.MatchTitle, EditionCount: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "p", out[0].BookID)
	assert.Equal(t, 0.9, out[0].RelevanceScore)
	assert.Equal(t, types.MatchTitle, out[0].MatchType)
	assert.Equal(t, 3, out[0].EditionCount, "edition count is the max, raised to cluster size")
	assert.Equal(t, "c1", out[0].ClusterID)
}

func TestDeduplicateClusterEditionCountIsMaxNotSum(t *testing.T) {
	lookup := &fakeLookup{clusters: map[string]types.ClusterMapping{
		"a": {PrimaryID: "a", ClusterID: "c1", EditionCount: 1, HasExplicitPrimary: true},
		"b": {PrimaryID: "a", ClusterID: "c1", EditionCount: 1, HasExplicitPrimary: true},
	}}
	d := New(lookup)

	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "a", RelevanceScore: 0.5, EditionCount: 4},
		{BookID: "b", RelevanceScore: 0.6, EditionCount: 7},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].EditionCount)
}

func TestDeduplicateFallbackMemberWithoutExplicitPrimary(t *testing.T) {
	// The store resolved "m1" as the deterministic fallback member.
	lookup := &fakeLookup{clusters: clusterOf("c9", "m1", false, "m1", "m2", "m3")}
	d := New(lookup)

	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "m3", RelevanceScore: 0.7},
		{BookID: "m2", RelevanceScore: 0.2},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m1", out[0].BookID)
	assert.Equal(t, 0.7, out[0].RelevanceScore)
}

func TestDeduplicateFirstResolvedMemberWhenStoreHasNoPrimary(t *testing.T) {
	lookup := &fakeLookup{clusters: clusterOf("c2", "", false, "x", "y")}
	d := New(lookup)

	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "y", RelevanceScore: 0.3},
		{BookID: "x", RelevanceScore: 0.8},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "y", out[0].BookID, "first-resolved member is canonical")
	assert.Equal(t, 0.8, out[0].RelevanceScore)
}

func TestDeduplicateTitleAuthorSumsEditionCounts(t *testing.T) {
	lookup := &fakeLookup{keys: map[string]types.TitleAuthorKey{
		"a": "dune::frank herbert",
		"b": "dune::frank herbert",
		"c": "emma::jane austen",
	}}
	d := New(lookup)

	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "a", RelevanceScore: 0.5, MatchType: types.MatchText, EditionCount: 2, ClusterID: ""},
		{BookID: "c", RelevanceScore: 0.4, EditionCount: 1},
		{BookID: "b", RelevanceScore: 0.9, MatchType: types.MatchTitle, EditionCount: 3, ClusterID: "cb"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "b", out[0].BookID, "winner supplies the ID")
	assert.Equal(t, 0.9, out[0].RelevanceScore)
	assert.Equal(t, types.MatchTitle, out[0].MatchType)
	assert.Equal(t, 5, out[0].EditionCount)
	assert.Equal(t, "cb", out[0].ClusterID)
	assert.Equal(t, "c", out[1].BookID)
}

func TestDeduplicateMissingKeysStayUnique(t *testing.T) {
	d := New(&fakeLookup{})
	out, err := d.Deduplicate(context.Background(), []types.SearchResult{
		{BookID: "a", RelevanceScore: 0.5},
		{BookID: "b", RelevanceScore: 0.5},
		{BookID: "a", RelevanceScore: 0.7},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0.7, out[0].RelevanceScore)
	assert.Equal(t, 1, out[0].EditionCount, "edition count is raised to at least 1")
}

func TestDeduplicateIdempotent(t *testing.T) {
	lookup := &fakeLookup{
		clusters: merge(
			clusterOf("c1", "p", true, "p", "a", "b"),
			clusterOf("c2", "q", false, "q", "r"),
		),
		keys: map[string]types.TitleAuthorKey{
			"p": "dune::frank herbert",
			"q": "dune::frank herbert",
			"z": "emma::jane austen",
		},
	}
	d := New(lookup)

	in := []types.SearchResult{
		{BookID: "a", RelevanceScore: 0.3, EditionCount: 1},
		{BookID: "r", RelevanceScore: 0.8, EditionCount: 1},
		{BookID: "z", RelevanceScore: 0.6, EditionCount: 1},
		{BookID: "b", RelevanceScore: 0.5, EditionCount: 2},
		{BookID: "loose", RelevanceScore: 0.1},
	}

	once, err := d.Deduplicate(context.Background(), in)
	require.NoError(t, err)
	twice, err := d.Deduplicate(context.Background(), once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	require.Len(t, once, 3)
	assert.Equal(t, "q", once[0].BookID)
	assert.Equal(t, 5, once[0].EditionCount, "cluster sizes 3 and 2 add up at the title/author pass")
}

func TestDeduplicateLookupError(t *testing.T) {
	d := New(&fakeLookup{err: errors.New("database is locked")})
	_, err := d.Deduplicate(context.Background(), []types.SearchResult{{BookID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster mappings")
}

func TestByKey(t *testing.T) {
	books := []types.Book{
		{ID: "1", ISBN13: "978-0-14-312774-1", Title: "A"},
		{ID: "2", ISBN13: "9780143127741", Title: "A (reprint)"},
		{ID: "3", Title: "The Road!"},
		{ID: "4", Title: "the road"},
		{ID: "5"},
		{ID: "5"},
		{},
		{},
	}

	out := ByKey(books)
	ids := make([]string, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"1", "3", "5", "", ""}, ids)
}
