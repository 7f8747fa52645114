// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bookfinder search and
// recommendation core.
package types

import "strings"

// Book is a full catalog record for one edition.
type Book struct {
	// ID is the opaque catalog identifier of the edition.
	ID string `json:"id" yaml:"id"`

	// Slug is the URL-friendly identifier; lookups accept either ID or Slug.
	Slug string `json:"slug,omitempty" yaml:"slug,omitempty"`

	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	ISBN10 string `json:"isbn10,omitempty" yaml:"isbn10,omitempty"`
	ISBN13 string `json:"isbn13,omitempty" yaml:"isbn13,omitempty"`

	// Categories holds subject strings; compound categories use "/" as a
	// separator (e.g. "Fiction / Science Fiction").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Language is an ISO 639-1 code; empty means unknown.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	PageCount     int    `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	Publisher     string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublishedYear int    `json:"published_year,omitempty" yaml:"published_year,omitempty"`

	// Cover describes the best known cover image.
	Cover Cover `json:"cover,omitempty" yaml:"cover,omitempty"`

	// Source names where the record came from ("catalog", "openlibrary", "google_books").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// CachedRecommendationIDs is the ordered list of previously computed
	// similar-book IDs. Written only through the recommendation store.
	CachedRecommendationIDs []string `json:"cached_recommendation_ids,omitempty" yaml:"cached_recommendation_ids,omitempty"`

	// Search metadata, populated on page items only.
	RelevanceScore float64   `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
	MatchType      MatchType `json:"match_type,omitempty" yaml:"match_type,omitempty"`
	EditionCount   int       `json:"edition_count,omitempty" yaml:"edition_count,omitempty"`
	ClusterID      string    `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
}

// Cover holds cover image metadata used by the cover-quality heuristic.
type Cover struct {
	URL            string `json:"url,omitempty" yaml:"url,omitempty"`
	Width          int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height         int    `json:"height,omitempty" yaml:"height,omitempty"`
	HighResolution bool   `json:"high_resolution,omitempty" yaml:"high_resolution,omitempty"`
	Grayscale      bool   `json:"grayscale,omitempty" yaml:"grayscale,omitempty"`
}

// FirstAuthor returns the first listed author or "".
func (b Book) FirstAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0]
}

// HasDescription reports whether the book carries a non-blank description.
func (b Book) HasDescription() bool {
	return strings.TrimSpace(b.Description) != ""
}

// Clone returns a copy whose slices do not alias b.
func (b Book) Clone() Book {
	c := b
	c.Authors = append([]string(nil), b.Authors...)
	c.Categories = append([]string(nil), b.Categories...)
	c.CachedRecommendationIDs = append([]string(nil), b.CachedRecommendationIDs...)
	return c
}
