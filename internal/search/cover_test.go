// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/bookfinder/pkg/types"
)

func TestCoverRank(t *testing.T) {
	tests := []struct {
		name  string
		cover types.Cover
		want  int
	}{
		{"no cover", types.Cover{}, CoverNone},
		{"blank url", types.Cover{URL: "  "}, CoverNone},
		{"placeholder", types.Cover{URL: "https://img.example/placeholder.png", Width: 800}, CoverNone},
		{"no_cover marker", types.Cover{URL: "https://img.example/NO_COVER.jpg"}, CoverNone},
		{"unknown dimensions", types.Cover{URL: "https://img.example/a.jpg"}, CoverLow},
		{"small", types.Cover{URL: "https://img.example/a.jpg", Width: 128, Height: 190}, CoverLow},
		{"medium by width", types.Cover{URL: "https://img.example/a.jpg", Width: 300}, CoverMedium},
		{"medium by height", types.Cover{URL: "https://img.example/a.jpg", Height: 450}, CoverMedium},
		{"high by width", types.Cover{URL: "https://img.example/a.jpg", Width: 600}, CoverHigh},
		{"high by flag", types.Cover{URL: "https://img.example/a.jpg", HighResolution: true}, CoverHigh},
		{"grayscale high", types.Cover{URL: "https://img.example/a.jpg", Width: 900, Grayscale: true}, CoverMedium},
		{"grayscale small stays renderable", types.Cover{URL: "https://img.example/a.jpg", Grayscale: true}, CoverLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoverRank(tt.cover))
		})
	}
}

func TestPassesFilters(t *testing.T) {
	none := types.Book{}
	low := types.Book{Cover: types.Cover{URL: "u"}}
	medium := types.Book{Cover: types.Cover{URL: "u", Width: 300}}
	high := types.Book{Cover: types.Cover{URL: "u", Width: 600}}

	assert.True(t, passesFilters(none, types.CoverAny, types.ResolutionAny))
	assert.False(t, passesFilters(none, types.CoverRequired, types.ResolutionAny))
	assert.True(t, passesFilters(low, types.CoverRequired, types.ResolutionAny))

	assert.False(t, passesFilters(low, types.CoverAny, types.ResolutionMedium))
	assert.True(t, passesFilters(medium, types.CoverAny, types.ResolutionMedium))
	assert.False(t, passesFilters(medium, types.CoverAny, types.ResolutionHigh))
	assert.True(t, passesFilters(high, types.CoverAny, types.ResolutionHigh))
}

func TestFilterBooksByYear(t *testing.T) {
	books := []types.Book{{ID: "a", PublishedYear: 2001}, {ID: "b", PublishedYear: 2002}, {ID: "c"}}
	req := types.NewSearchRequest(types.SearchRequest{PublishedYear: 2001})

	assert.Equal(t, []string{"a"}, bookIDs(filterBooks(books, req)))
	assert.Len(t, books, 3)
}
