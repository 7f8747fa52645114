// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/bookfinder/pkg/types"
)

func withCategories(categories ...string) types.Book {
	return types.Book{Categories: categories}
}

func TestCategoryOverlapScore(t *testing.T) {
	s := NewScorer(types.RecommendConfig{})
	tests := []struct {
		name      string
		source    types.Book
		candidate types.Book
		want      float64
	}{
		{"identical compound", withCategories("Fiction / Science Fiction"), withCategories("Fiction / Science Fiction"), 3.0},
		{"disjoint", withCategories("History"), withCategories("Cooking"), 1.0},
		{"case insensitive", withCategories("FICTION"), withCategories("fiction"), 3.0},
		{"subset of smaller side", withCategories("Fiction / Fantasy", "Adventure"), withCategories("Fiction"), 3.0},
		{"half overlap", withCategories("Fiction / Fantasy"), withCategories("Fiction / Horror"), 2.0},
		{"source empty", types.Book{}, withCategories("Fiction"), 1.0},
		{"candidate empty", withCategories("Fiction"), types.Book{}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.CategoryOverlapScore(tt.source, tt.candidate), 1e-9)
		})
	}
}

func TestCategoryOverlapScoreBounds(t *testing.T) {
	s := NewScorer(types.RecommendConfig{})
	sets := [][]string{
		{"Fiction"},
		{"Fiction / Fantasy"},
		{"Science / Physics", "History"},
		{"Poetry", "Drama", "Fiction / Classics"},
		{"fantasy / epic / fiction"},
	}
	for _, a := range sets {
		for _, b := range sets {
			score := s.CategoryOverlapScore(withCategories(a...), withCategories(b...))
			assert.GreaterOrEqual(t, score, 1.0)
			assert.LessOrEqual(t, score, 3.0)
		}
	}
}

func TestAuthorAndTextScores(t *testing.T) {
	s := NewScorer(types.RecommendConfig{})
	assert.Equal(t, 5.0, s.AuthorMatchScore())
	assert.Equal(t, 0.0, s.TextMatchScore(0))
	assert.Equal(t, 1.5, s.TextMatchScore(3))

	custom := NewScorer(types.RecommendConfig{AuthorScore: 2, TextMultiplier: 1})
	assert.Equal(t, 2.0, custom.AuthorMatchScore())
	assert.Equal(t, 3.0, custom.TextMatchScore(3))
}

func TestExtractMainCategories(t *testing.T) {
	b := withCategories("Fiction / Fantasy", "fiction / epic", " ", "Adventure", "Young Adult / Fiction", "Classics")
	assert.Equal(t, []string{"Fiction", "Adventure", "Young Adult"}, ExtractMainCategories(b))
	assert.Empty(t, ExtractMainCategories(types.Book{}))
}

func TestExtractKeywords(t *testing.T) {
	b := types.Book{
		Title:       "The Left Hand of Darkness",
		Description: "A lone human ambassador is sent to Winter, an alien world. Winter is cold.",
	}
	assert.Equal(t,
		[]string{"left", "hand", "darkness", "lone", "human", "ambassador", "sent", "winter", "alien", "cold"},
		ExtractKeywords(b))
}

func TestExtractKeywordsCapped(t *testing.T) {
	b := types.Book{Description: "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima"}
	got := ExtractKeywords(b)
	assert.Len(t, got, 10)
	assert.Equal(t, "alpha", got[0])
	assert.Equal(t, "juliett", got[9])
}

func TestCountKeywordMatches(t *testing.T) {
	b := types.Book{Title: "Winter's Tale", Description: "An alien envoy."}
	assert.Equal(t, 2, countKeywordMatches(b, []string{"winter", "alien", "darkness"}))
	assert.Zero(t, countKeywordMatches(b, []string{"spice"}))
	assert.Zero(t, countKeywordMatches(b, nil))
}
