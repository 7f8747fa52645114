// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"
	"unicode"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// Key prefixes keep ISBN and title keys from colliding.
const (
	keyPrefixISBN13 = "isbn13:"
	keyPrefixISBN10 = "isbn10:"
	keyPrefixTitle  = "title:"
)

// ResolveKey returns the dedup key of a book: sanitized ISBN-13, else
// sanitized ISBN-10, else the normalized title. The second result is false
// when the book carries none of these.
func ResolveKey(b types.Book) (string, bool) {
	if isbn := SanitizeISBN(b.ISBN13); isbn != "" {
		return keyPrefixISBN13 + isbn, true
	}
	if isbn := SanitizeISBN(b.ISBN10); isbn != "" {
		return keyPrefixISBN10 + isbn, true
	}
	if title := compactTitle(b.Title); title != "" {
		return keyPrefixTitle + title, true
	}
	return "", false
}

// SanitizeISBN strips everything but digits and a trailing check character X.
func SanitizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(isbn) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// compactTitle lower-cases the title and drops every non-alphanumeric rune.
func compactTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTitle lower-cases the title, folds punctuation to spaces and
// collapses runs of whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeAuthors normalizes each author like a title and joins them with ",".
func NormalizeAuthors(authors []string) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := NormalizeTitle(a); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ",")
}

// TitleAuthorKeyOf computes the "title::authors" signature. It returns ""
// when either side is empty.
func TitleAuthorKeyOf(b types.Book) types.TitleAuthorKey {
	title := NormalizeTitle(b.Title)
	authors := NormalizeAuthors(b.Authors)
	if title == "" || authors == "" {
		return ""
	}
	return types.TitleAuthorKey(title + "::" + authors)
}

// Fingerprint is the content signature used to spot metadata refreshes:
// normalized title plus normalized first author. Empty when there is no title.
func Fingerprint(b types.Book) string {
	title := NormalizeTitle(b.Title)
	if title == "" {
		return ""
	}
	return title + "|" + NormalizeTitle(b.FirstAuthor())
}
