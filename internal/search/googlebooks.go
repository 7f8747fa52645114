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

// googleBooksBase is the Google Books volumes endpoint. Declared as a var
// so tests can substitute an httptest server.
var googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// googleBooksPageCap is the largest maxResults the volumes API accepts.
const googleBooksPageCap = 40

var googleBooksFieldNames = map[query.Field]string{
	query.ISBN:     "isbn",
	query.Author:   "inauthor",
	query.Title:    "intitle",
	query.Category: "subject",
}

// GoogleBooks queries the Google Books volumes API.
type GoogleBooks struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxRetries int
}

// Name returns the provider identifier.
func (p *GoogleBooks) Name() string { return "google_books" }

// Search queries Google Books and returns one record per volume.
func (p *GoogleBooks) Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error) {
	text := query.Render(query.Parse(q), googleBooksFieldNames)
	if text == "" {
		return nil, fmt.Errorf("empty Google Books query")
	}
	if limit <= 0 {
		return nil, nil
	}

	order := "relevance"
	if orderBy == types.OrderNewest {
		order = "newest"
	}
	params := url.Values{
		"q":          {text},
		"startIndex": {strconv.Itoa(max(startIndex, 0))},
		"maxResults": {strconv.Itoa(min(limit, googleBooksPageCap))},
		"orderBy":    {order},
		"printType":  {"books"},
	}
	if p.APIKey != "" {
		params.Set("key", p.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleBooksBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Google Books request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Books returned HTTP %d", resp.StatusCode)
	}

	var gbr googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&gbr); err != nil {
		return nil, fmt.Errorf("parsing Google Books response: %w", err)
	}

	books := make([]types.Book, 0, len(gbr.Items))
	for _, item := range gbr.Items {
		if item.ID == "" || item.VolumeInfo.Title == "" {
			continue
		}
		books = append(books, item.toBook())
	}
	return books, nil
}

func (item googleBooksVolume) toBook() types.Book {
	info := item.VolumeInfo
	title := info.Title
	if info.Subtitle != "" {
		title += ": " + info.Subtitle
	}

	b := types.Book{
		ID:            "gb:" + item.ID,
		Title:         title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		Language:      languageCode(info.Language),
		PageCount:     info.PageCount,
		Publisher:     info.Publisher,
		PublishedYear: parseYear(info.PublishedDate),
		Cover:         googleCover(info.ImageLinks),
		Source:        "google_books",
	}
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			b.ISBN13 = id.Identifier
		case "ISBN_10":
			b.ISBN10 = id.Identifier
		}
	}
	return b
}

// googleCover picks the largest image link. Google does not report pixel
// sizes, so the nominal width of each size class is recorded instead.
func googleCover(links googleBooksImageLinks) types.Cover {
	switch {
	case links.ExtraLarge != "":
		return types.Cover{URL: cleanCoverURL(links.ExtraLarge), Width: 1280, HighResolution: true}
	case links.Large != "":
		return types.Cover{URL: cleanCoverURL(links.Large), Width: 800, HighResolution: true}
	case links.Medium != "":
		return types.Cover{URL: cleanCoverURL(links.Medium), Width: 575}
	case links.Small != "":
		return types.Cover{URL: cleanCoverURL(links.Small), Width: 300}
	case links.Thumbnail != "":
		return types.Cover{URL: cleanCoverURL(links.Thumbnail), Width: 128}
	case links.SmallThumbnail != "":
		return types.Cover{URL: cleanCoverURL(links.SmallThumbnail), Width: 80}
	}
	return types.Cover{}
}

// cleanCoverURL forces https and drops the page-curl effect.
func cleanCoverURL(raw string) string {
	raw = strings.Replace(raw, "http://", "https://", 1)
	return strings.Replace(raw, "&edge=curl", "", 1)
}

// Google Books API JSON structures.
type googleBooksResponse struct {
	TotalItems int                 `json:"totalItems"`
	Items      []googleBooksVolume `json:"items"`
}

type googleBooksVolume struct {
	ID         string                `json:"id"`
	VolumeInfo googleBooksVolumeInfo `json:"volumeInfo"`
}

type googleBooksVolumeInfo struct {
	Title               string                  `json:"title"`
	Subtitle            string                  `json:"subtitle"`
	Authors             []string                `json:"authors"`
	Publisher           string                  `json:"publisher"`
	PublishedDate       string                  `json:"publishedDate"`
	Description         string                  `json:"description"`
	IndustryIdentifiers []googleBooksIdentifier `json:"industryIdentifiers"`
	PageCount           int                     `json:"pageCount"`
	Categories          []string                `json:"categories"`
	Language            string                  `json:"language"`
	ImageLinks          googleBooksImageLinks   `json:"imageLinks"`
}

type googleBooksIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleBooksImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
	Small          string `json:"small"`
	Medium         string `json:"medium"`
	Large          string `json:"large"`
	ExtraLarge     string `json:"extraLarge"`
}
