// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// Reason tags the strategy that contributed evidence for a recommendation.
type Reason string

const (
	ReasonAuthor   Reason = "AUTHOR"
	ReasonCategory Reason = "CATEGORY"
	ReasonText     Reason = "TEXT"
)

// ScoredBook is a recommendation candidate with accumulated evidence.
type ScoredBook struct {
	Book  Book    `json:"book" yaml:"book"`
	Score float64 `json:"score" yaml:"score"`

	// Reasons is a set; use AddReason and ReasonList rather than writing it directly.
	Reasons map[Reason]struct{} `json:"-" yaml:"-"`
}

// NewScoredBook returns a candidate scored by a single strategy.
func NewScoredBook(b Book, score float64, reason Reason) ScoredBook {
	return ScoredBook{
		Book:    b,
		Score:   score,
		Reasons: map[Reason]struct{}{reason: {}},
	}
}

// AddReason records r in the reason set.
func (s *ScoredBook) AddReason(r Reason) {
	if s.Reasons == nil {
		s.Reasons = make(map[Reason]struct{})
	}
	s.Reasons[r] = struct{}{}
}

// HasReason reports whether r contributed to the candidate.
func (s ScoredBook) HasReason(r Reason) bool {
	_, ok := s.Reasons[r]
	return ok
}

// ReasonList returns the reasons sorted for stable output.
func (s ScoredBook) ReasonList() []Reason {
	out := make([]Reason, 0, len(s.Reasons))
	for r := range s.Reasons {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MergeWith returns the combination of s and other for the same book:
// scores add and reasons union. The receiver's book record is kept.
func (s ScoredBook) MergeWith(other ScoredBook) ScoredBook {
	merged := ScoredBook{
		Book:    s.Book,
		Score:   s.Score + other.Score,
		Reasons: make(map[Reason]struct{}, len(s.Reasons)+len(other.Reasons)),
	}
	for r := range s.Reasons {
		merged.Reasons[r] = struct{}{}
	}
	for r := range other.Reasons {
		merged.Reasons[r] = struct{}{}
	}
	return merged
}
