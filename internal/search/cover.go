// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// Cover quality ranks.
const (
	CoverNone   = 0
	CoverLow    = 1
	CoverMedium = 2
	CoverHigh   = 3
)

var placeholderMarkers = []string{"placeholder", "no_cover", "nocover", "no-cover", "image_not_available"}

// CoverRank scores a cover from 0 (none or placeholder) to 3 (high
// resolution). Grayscale covers drop one rank but stay renderable.
func CoverRank(c types.Cover) int {
	url := strings.ToLower(strings.TrimSpace(c.URL))
	if url == "" {
		return CoverNone
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(url, m) {
			return CoverNone
		}
	}

	rank := CoverLow
	switch {
	case c.HighResolution || c.Width >= 600:
		rank = CoverHigh
	case c.Width >= 300 || c.Height >= 450:
		rank = CoverMedium
	}
	if c.Grayscale && rank > CoverLow {
		rank--
	}
	return rank
}

// HasRenderableCover reports whether b has a cover worth showing.
func HasRenderableCover(b types.Book) bool {
	return CoverRank(b.Cover) > CoverNone
}

// passesFilters applies the cover and resolution filters of a request.
func passesFilters(b types.Book, cover types.CoverFilter, resolution types.ResolutionFilter) bool {
	rank := CoverRank(b.Cover)
	if cover == types.CoverRequired && rank == CoverNone {
		return false
	}
	switch resolution {
	case types.ResolutionMedium:
		return rank >= CoverMedium
	case types.ResolutionHigh:
		return rank >= CoverHigh
	}
	return true
}

// filterBooks keeps the books matching req's filters, in order.
func filterBooks(books []types.Book, req types.SearchRequest) []types.Book {
	out := books[:0:0]
	for _, b := range books {
		if req.PublishedYear != 0 && b.PublishedYear != req.PublishedYear {
			continue
		}
		if !passesFilters(b, req.CoverFilter, req.ResolutionFilter) {
			continue
		}
		out = append(out, b)
	}
	return out
}
