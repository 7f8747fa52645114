// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// MatchType tags which query clause produced a catalog hit.
type MatchType string

const (
	MatchISBN     MatchType = "isbn"
	MatchAuthor   MatchType = "author"
	MatchTitle    MatchType = "title"
	MatchCategory MatchType = "category"
	MatchText     MatchType = "text"
	MatchAll      MatchType = "all"
)

// SearchResult is one row returned by the catalog search function.
type SearchResult struct {
	// BookID is the edition identifier of the hit.
	BookID string `json:"book_id" yaml:"book_id"`

	// RelevanceScore orders hits; higher is better.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	MatchType MatchType `json:"match_type" yaml:"match_type"`

	// EditionCount is the number of editions this hit stands for. Always >= 1.
	EditionCount int `json:"edition_count" yaml:"edition_count"`

	// ClusterID is the work cluster of the edition, if known.
	ClusterID string `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
}

// Normalized returns r with EditionCount raised to at least 1.
func (r SearchResult) Normalized() SearchResult {
	if r.EditionCount < 1 {
		r.EditionCount = 1
	}
	return r
}

// ClusterMapping is the resolved cluster membership for one edition.
type ClusterMapping struct {
	// PrimaryID is the canonical edition: the flagged primary when the
	// cluster has one, otherwise the store's deterministic fallback member.
	PrimaryID          string `json:"primary_id" yaml:"primary_id"`
	ClusterID          string `json:"cluster_id" yaml:"cluster_id"`
	EditionCount       int    `json:"edition_count" yaml:"edition_count"`
	HasExplicitPrimary bool   `json:"has_explicit_primary" yaml:"has_explicit_primary"`
}

// TitleAuthorKey is the normalized "title::authors" signature of a book.
type TitleAuthorKey string

// OrderBy selects the ordering of search pages.
type OrderBy string

const (
	OrderRelevance OrderBy = "relevance"
	OrderNewest    OrderBy = "newest"
)

// CoverFilter restricts results by cover presence.
type CoverFilter string

const (
	CoverAny      CoverFilter = "any"
	CoverRequired CoverFilter = "required"
)

// ResolutionFilter restricts results by minimum cover quality.
type ResolutionFilter string

const (
	ResolutionAny    ResolutionFilter = "any"
	ResolutionMedium ResolutionFilter = "medium"
	ResolutionHigh   ResolutionFilter = "high"
)

// SearchRequest is the normalized input to a paginated search. Build it
// with NewSearchRequest so defaults are applied.
type SearchRequest struct {
	Query string `json:"query" yaml:"query"`

	// StartIndex is the zero-based absolute offset of the first item.
	StartIndex int `json:"start_index" yaml:"start_index"`

	// MaxResults is the requested page size. Zero means "use the default".
	MaxResults int `json:"max_results" yaml:"max_results"`

	OrderBy          OrderBy          `json:"order_by" yaml:"order_by"`
	CoverFilter      CoverFilter      `json:"cover_filter" yaml:"cover_filter"`
	ResolutionFilter ResolutionFilter `json:"resolution_filter" yaml:"resolution_filter"`

	// PublishedYear keeps only books published in that year when non-zero.
	PublishedYear int `json:"published_year,omitempty" yaml:"published_year,omitempty"`
}

// NewSearchRequest returns r with whitespace trimmed, negative offsets
// clamped, and unknown enum values replaced by their defaults.
func NewSearchRequest(r SearchRequest) SearchRequest {
	r.Query = strings.TrimSpace(r.Query)
	if r.StartIndex < 0 {
		r.StartIndex = 0
	}
	if r.MaxResults < 0 {
		r.MaxResults = 0
	}
	switch r.OrderBy {
	case OrderRelevance, OrderNewest:
	default:
		r.OrderBy = OrderRelevance
	}
	switch r.CoverFilter {
	case CoverAny, CoverRequired:
	default:
		r.CoverFilter = CoverAny
	}
	switch r.ResolutionFilter {
	case ResolutionAny, ResolutionMedium, ResolutionHigh:
	default:
		r.ResolutionFilter = ResolutionAny
	}
	if r.PublishedYear < 0 {
		r.PublishedYear = 0
	}
	return r
}

// IsWildcard reports whether the query matches everything.
func (r SearchRequest) IsWildcard() bool {
	return r.Query == "" || r.Query == "*"
}

// Window is the absolute [StartIndex, StartIndex+Limit) slice of a request.
type Window struct {
	StartIndex int `json:"start_index" yaml:"start_index"`
	Limit      int `json:"limit" yaml:"limit"`

	// TotalRequested is StartIndex+Limit: how many unique results must exist
	// for the window to be full.
	TotalRequested int `json:"total_requested" yaml:"total_requested"`
}

// End returns the exclusive end offset of the window.
func (w Window) End() int { return w.StartIndex + w.Limit }

// SearchPage is the paginated output of a search.
type SearchPage struct {
	Query            string           `json:"query" yaml:"query"`
	OrderBy          OrderBy          `json:"order_by" yaml:"order_by"`
	CoverFilter      CoverFilter      `json:"cover_filter" yaml:"cover_filter"`
	ResolutionFilter ResolutionFilter `json:"resolution_filter" yaml:"resolution_filter"`

	StartIndex     int `json:"start_index" yaml:"start_index"`
	MaxResults     int `json:"max_results" yaml:"max_results"`
	TotalRequested int `json:"total_requested" yaml:"total_requested"`
	TotalUnique    int `json:"total_unique" yaml:"total_unique"`

	// PageItems is the requested slice of UniqueResults.
	PageItems []Book `json:"page_items" yaml:"page_items"`

	// UniqueResults is the full deduplicated window the page was cut from.
	UniqueResults []Book `json:"unique_results" yaml:"unique_results"`

	HasMore         bool `json:"has_more" yaml:"has_more"`
	NextStartIndex  int  `json:"next_start_index,omitempty" yaml:"next_start_index,omitempty"`
	PrefetchedCount int  `json:"prefetched_count" yaml:"prefetched_count"`
}
