// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recommend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/bookfinder/pkg/types"
)

const (
	maxMainCategories = 3
	maxKeywords       = 10
	minKeywordLen     = 3
)

// stopWords are dropped from extracted keywords.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about after again against all also an and any are as at be because been
		before being between both but by can could did do does during each few for
		from further had has have having he her here hers him his how into its
		itself just more most new not now off once only other our out over own same
		she should some such than that the their them then there these they this
		those through too under until very was were what when where which while who
		whom why will with would you your book books novel story edition volume
		series first one two life world`) {
		stopWords[w] = struct{}{}
	}
}

// Scorer holds the scoring constants of the recommendation strategies.
type Scorer struct {
	cfg types.RecommendConfig
}

// NewScorer returns a Scorer with cfg's defaults applied.
func NewScorer(cfg types.RecommendConfig) Scorer {
	return Scorer{cfg: cfg.WithDefaults()}
}

// AuthorMatchScore is the flat bonus for sharing an author.
func (s Scorer) AuthorMatchScore() float64 {
	return s.cfg.AuthorScore
}

// CategoryOverlapScore scales the category overlap of source and candidate
// into [base, base+range]. Compound categories count each "/" segment. When
// either side has no categories the base score is returned.
func (s Scorer) CategoryOverlapScore(source, candidate types.Book) float64 {
	a := categorySet(source.Categories)
	b := categorySet(candidate.Categories)
	if len(a) == 0 || len(b) == 0 {
		return s.cfg.CategoryBase
	}

	shared := 0
	for c := range a {
		if _, ok := b[c]; ok {
			shared++
		}
	}
	overlap := float64(shared) / float64(max(1, min(len(a), len(b))))
	return s.cfg.CategoryBase + s.cfg.CategoryRange*overlap
}

// TextMatchScore is linear in the number of keywords a candidate contains.
func (s Scorer) TextMatchScore(matches int) float64 {
	return s.cfg.TextMultiplier * float64(matches)
}

func categorySet(categories []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range categories {
		for _, seg := range strings.Split(c, "/") {
			if seg = strings.ToLower(strings.TrimSpace(seg)); seg != "" {
				set[seg] = struct{}{}
			}
		}
	}
	return set
}

// ExtractMainCategories returns the first segment of each category,
// deduplicated case-insensitively, at most three.
func ExtractMainCategories(b types.Book) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range b.Categories {
		main, _, _ := strings.Cut(c, "/")
		main = strings.TrimSpace(main)
		key := strings.ToLower(main)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, main)
		if len(out) == maxMainCategories {
			break
		}
	}
	return out
}

// ExtractKeywords returns up to ten lower-cased words from the title and
// description in order of first appearance. Words shorter than three
// characters and stop words are skipped.
func ExtractKeywords(b types.Book) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range words(b.Title + " " + b.Description) {
		if utf8.RuneCountInString(w) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// countKeywordMatches counts the keywords literally present in the
// candidate's own title and description.
func countKeywordMatches(b types.Book, keywords []string) int {
	present := make(map[string]struct{})
	for _, w := range words(b.Title + " " + b.Description) {
		present[w] = struct{}{}
	}
	n := 0
	for _, k := range keywords {
		if _, ok := present[k]; ok {
			n++
		}
	}
	return n
}

// words splits s into lower-cased alphanumeric runs.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
