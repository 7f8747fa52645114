// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// FormatTable writes a search page as a human-readable table to w.
func FormatTable(page *types.SearchPage, w io.Writer) {
	if len(page.PageItems) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	FormatBooks(page.PageItems, page.StartIndex, w)

	fmt.Fprintf(w, "\n%d-%d of %d unique results",
		page.StartIndex+1, page.StartIndex+len(page.PageItems), page.TotalUnique)
	if page.HasMore {
		fmt.Fprintf(w, " (next: --start %d)", page.NextStartIndex)
	}
	fmt.Fprintln(w)
}

// FormatBooks writes books as a ranked table, numbering from offset+1.
func FormatBooks(books []types.Book, offset int, w io.Writer) {
	fmt.Fprintf(w, "%-4s  %-50s  %-20s  %-4s  %-5s  %-8s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cover", "Editions", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, b := range books {
		year := ""
		if b.PublishedYear > 0 {
			year = fmt.Sprintf("%d", b.PublishedYear)
		}
		editions := ""
		if b.EditionCount > 0 {
			editions = fmt.Sprintf("%d", b.EditionCount)
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-20s  %-4s  %-5d  %-8s  %s\n",
			offset+i+1, truncate(b.Title, 50), formatAuthors(b.Authors), year,
			CoverRank(b.Cover), editions, b.Source)
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatYAML writes v as YAML to w.
func FormatYAML(v any, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
