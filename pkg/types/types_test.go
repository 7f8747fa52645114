// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSearchRequestNormalizes(t *testing.T) {
	r := NewSearchRequest(SearchRequest{
		Query:            "  dune  ",
		StartIndex:       -3,
		MaxResults:       -1,
		OrderBy:          "popular",
		CoverFilter:      "maybe",
		ResolutionFilter: "ultra",
		PublishedYear:    -1965,
	})

	assert.Equal(t, "dune", r.Query)
	assert.Equal(t, 0, r.StartIndex)
	assert.Equal(t, 0, r.MaxResults)
	assert.Equal(t, OrderRelevance, r.OrderBy)
	assert.Equal(t, CoverAny, r.CoverFilter)
	assert.Equal(t, ResolutionAny, r.ResolutionFilter)
	assert.Equal(t, 0, r.PublishedYear)
}

func TestNewSearchRequestKeepsValidValues(t *testing.T) {
	in := SearchRequest{
		Query:            "author:herbert",
		StartIndex:       10,
		MaxResults:       5,
		OrderBy:          OrderNewest,
		CoverFilter:      CoverRequired,
		ResolutionFilter: ResolutionHigh,
		PublishedYear:    1965,
	}
	assert.Equal(t, in, NewSearchRequest(in))
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, SearchRequest{}.IsWildcard())
	assert.True(t, NewSearchRequest(SearchRequest{Query: " * "}).IsWildcard())
	assert.False(t, SearchRequest{Query: "dune"}.IsWildcard())
}

func TestScoredBookMergeWith(t *testing.T) {
	a := NewScoredBook(Book{ID: "b1", Title: "Dune"}, 5, ReasonAuthor)
	b := NewScoredBook(Book{ID: "b1", Title: "other"}, 1.5, ReasonCategory)

	m := a.MergeWith(b)
	assert.Equal(t, 6.5, m.Score)
	assert.Equal(t, "Dune", m.Book.Title)
	assert.Equal(t, []Reason{ReasonAuthor, ReasonCategory}, m.ReasonList())

	// Inputs are not modified.
	assert.False(t, a.HasReason(ReasonCategory))
	assert.Equal(t, 5.0, a.Score)
}

func TestAddReasonOnZeroValue(t *testing.T) {
	var s ScoredBook
	s.AddReason(ReasonText)
	s.AddReason(ReasonText)
	assert.Equal(t, []Reason{ReasonText}, s.ReasonList())
}

func TestBookClone(t *testing.T) {
	b := Book{ID: "b1", Authors: []string{"Frank Herbert"}, CachedRecommendationIDs: []string{"b2"}}
	c := b.Clone()
	c.Authors[0] = "changed"
	c.CachedRecommendationIDs[0] = "changed"

	assert.Equal(t, "Frank Herbert", b.FirstAuthor())
	assert.Equal(t, "b2", b.CachedRecommendationIDs[0])
	assert.Equal(t, "", Book{}.FirstAuthor())
	assert.False(t, Book{Description: "  "}.HasDescription())
}

func TestSearchResultNormalized(t *testing.T) {
	assert.Equal(t, 1, SearchResult{}.Normalized().EditionCount)
	assert.Equal(t, 3, SearchResult{EditionCount: 3}.Normalized().EditionCount)
}

func TestSearchConfigDefaults(t *testing.T) {
	c := SearchConfig{}.WithDefaults()
	assert.Equal(t, 1, c.MinResults)
	assert.Equal(t, 20, c.DefaultResults)
	assert.Equal(t, 40, c.MaxResults)
	assert.Equal(t, 3*time.Second, c.ProviderTimeout)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, 0, c.ProviderCacheSize)

	c = SearchConfig{MinResults: 2, MaxResults: 10, DefaultResults: 50}.WithDefaults()
	assert.Equal(t, 10, c.DefaultResults)
}

func TestRecommendConfigDefaults(t *testing.T) {
	c := RecommendConfig{}.WithDefaults()
	assert.Equal(t, 6, c.DefaultCount)
	assert.Equal(t, 40, c.CandidateLimit)
	assert.Equal(t, 1500*time.Millisecond, c.SimilarTimeout)
	assert.Equal(t, 1.0, c.CategoryBase)
	assert.Equal(t, 2.0, c.CategoryRange)
}
