// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pdiddy/bookfinder/internal/httputil"
	"github.com/pdiddy/bookfinder/internal/query"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// openLibrarySearchBase is the Open Library search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openLibrarySearchBase = "https://openlibrary.org/search.json"

// openLibraryCoverBase serves cover images by cover ID.
var openLibraryCoverBase = "https://covers.openlibrary.org/b/id/"

const openLibraryFields = "key,title,author_name,first_publish_year,isbn,subject,language," +
	"number_of_pages_median,publisher,cover_i,first_sentence"

var openLibraryFieldNames = map[query.Field]string{
	query.ISBN:     "isbn",
	query.Author:   "author",
	query.Title:    "title",
	query.Category: "subject",
}

// OpenLibrary queries the Open Library search API.
type OpenLibrary struct {
	Client *http.Client

	UserAgent string

	// ContactEmail is appended to the User-Agent as Open Library asks of
	// heavy clients.
	ContactEmail string

	MaxRetries int
}

// Name returns the provider identifier.
func (p *OpenLibrary) Name() string { return "openlibrary" }

// Search queries Open Library and returns one record per work.
func (p *OpenLibrary) Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error) {
	text := query.Render(query.Parse(q), openLibraryFieldNames)
	if text == "" {
		return nil, fmt.Errorf("empty Open Library query")
	}
	if limit <= 0 {
		return nil, nil
	}

	params := url.Values{
		"q":      {text},
		"fields": {openLibraryFields},
		"offset": {strconv.Itoa(max(startIndex, 0))},
		"limit":  {strconv.Itoa(limit)},
	}
	if orderBy == types.OrderNewest {
		params.Set("sort", "new")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openLibrarySearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := p.UserAgent
	if p.ContactEmail != "" {
		ua += " (" + p.ContactEmail + ")"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Open Library request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library returned HTTP %d", resp.StatusCode)
	}

	var olr openLibraryResponse
	if err := json.NewDecoder(resp.Body).Decode(&olr); err != nil {
		return nil, fmt.Errorf("parsing Open Library response: %w", err)
	}

	books := make([]types.Book, 0, len(olr.Docs))
	for _, doc := range olr.Docs {
		if doc.Key == "" || doc.Title == "" {
			continue
		}
		books = append(books, doc.toBook())
		if len(books) == limit {
			break
		}
	}
	return books, nil
}

func (doc openLibraryDoc) toBook() types.Book {
	b := types.Book{
		ID:            "ol:" + strings.TrimPrefix(doc.Key, "/works/"),
		Title:         doc.Title,
		Authors:       doc.AuthorName,
		PageCount:     doc.NumberOfPagesMedian,
		PublishedYear: doc.FirstPublishYear,
		Source:        "openlibrary",
	}
	b.ISBN13, b.ISBN10 = splitISBNs(doc.ISBN)
	if len(doc.FirstSentence) > 0 {
		b.Description = doc.FirstSentence[0]
	}
	if len(doc.Publisher) > 0 {
		b.Publisher = doc.Publisher[0]
	}
	for _, lang := range doc.Language {
		if code := languageCode(lang); code != "" {
			b.Language = code
			break
		}
	}
	if n := min(len(doc.Subject), 5); n > 0 {
		b.Categories = append([]string(nil), doc.Subject[:n]...)
	}
	if doc.CoverID > 0 {
		b.Cover = types.Cover{URL: fmt.Sprintf("%s%d-L.jpg", openLibraryCoverBase, doc.CoverID)}
	}
	return b
}

// bibliographicCodes maps the MARC language codes Open Library uses to
// ISO 639-1.
var bibliographicCodes = map[string]string{
	"eng": "en", "fre": "fr", "fra": "fr", "ger": "de", "deu": "de",
	"spa": "es", "ita": "it", "por": "pt", "dut": "nl", "nld": "nl",
	"rus": "ru", "jpn": "ja", "chi": "zh", "zho": "zh", "kor": "ko",
	"pol": "pl", "swe": "sv", "dan": "da", "nor": "no", "fin": "fi",
}

func languageCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) == 2 {
		return code
	}
	return bibliographicCodes[code]
}

// Open Library API JSON structures.
type openLibraryResponse struct {
	NumFound int              `json:"numFound"`
	Docs     []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	ISBN                []string `json:"isbn"`
	Subject             []string `json:"subject"`
	Language            []string `json:"language"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	Publisher           []string `json:"publisher"`
	CoverID             int      `json:"cover_i"`
	FirstSentence       []string `json:"first_sentence"`
}
