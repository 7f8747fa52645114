// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookfinder/pkg/types"
)

// --- test helpers ---

type fakeProvider struct {
	name  string
	books []types.Book
	err   error
	delay time.Duration

	calls atomic.Int32
	mu    sync.Mutex
	last  providerCall
}

type providerCall struct {
	query   string
	orderBy types.OrderBy
	start   int
	limit   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = providerCall{query: q, orderBy: orderBy, start: startIndex, limit: limit}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := cloneBooks(f.books)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProvider) lastCall() providerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func jsonServer(t *testing.T, body string, seen *url.Values) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- OpenLibrary ---

const sampleOpenLibraryJSON = `{
  "numFound": 2,
  "docs": [
    {
      "key": "/works/OL893415W",
      "title": "Dune",
      "author_name": ["Frank Herbert"],
      "first_publish_year": 1965,
      "isbn": ["0441013597", "9780441013593", "9780441172719"],
      "subject": ["Science fiction", "Desert", "Ecology", "Politics", "Religion", "Spice"],
      "language": ["eng"],
      "number_of_pages_median": 604,
      "publisher": ["Ace Books", "Chilton"],
      "cover_i": 11481354,
      "first_sentence": ["In the week before their departure to Arrakis..."]
    },
    {"key": "", "title": "Skipped"}
  ]
}`

func TestOpenLibrarySearch(t *testing.T) {
	var seen url.Values
	ts := jsonServer(t, sampleOpenLibraryJSON, &seen)

	old := openLibrarySearchBase
	openLibrarySearchBase = ts.URL
	defer func() { openLibrarySearchBase = old }()

	p := &OpenLibrary{Client: ts.Client(), UserAgent: "test", ContactEmail: "me@example.com"}
	books, err := p.Search(context.Background(), `author:"Frank Herbert" intitle:dune`, types.OrderNewest, 0, 10)
	require.NoError(t, err)
	require.Len(t, books, 1)

	assert.Equal(t, `author:"Frank Herbert" title:dune`, seen.Get("q"))
	assert.Equal(t, "new", seen.Get("sort"))
	assert.Equal(t, "0", seen.Get("offset"))
	assert.Equal(t, "10", seen.Get("limit"))

	b := books[0]
	assert.Equal(t, "ol:OL893415W", b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, []string{"Frank Herbert"}, b.Authors)
	assert.Equal(t, "9780441013593", b.ISBN13)
	assert.Equal(t, "0441013597", b.ISBN10)
	assert.Equal(t, "en", b.Language)
	assert.Equal(t, 604, b.PageCount)
	assert.Equal(t, "Ace Books", b.Publisher)
	assert.Equal(t, 1965, b.PublishedYear)
	assert.Len(t, b.Categories, 5)
	assert.Equal(t, "openlibrary", b.Source)
	assert.Contains(t, b.Cover.URL, "11481354-L.jpg")
	assert.True(t, HasRenderableCover(b))
	assert.True(t, b.HasDescription())
}

func TestOpenLibraryHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := openLibrarySearchBase
	openLibrarySearchBase = ts.URL
	defer func() { openLibrarySearchBase = old }()

	p := &OpenLibrary{Client: ts.Client()}
	_, err := p.Search(context.Background(), "dune", types.OrderRelevance, 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOpenLibraryEmptyQuery(t *testing.T) {
	p := &OpenLibrary{Client: http.DefaultClient}
	_, err := p.Search(context.Background(), `author:""`, types.OrderRelevance, 0, 5)
	assert.Error(t, err)
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "en", languageCode("eng"))
	assert.Equal(t, "fr", languageCode("FRE"))
	assert.Equal(t, "de", languageCode("de"))
	assert.Equal(t, "", languageCode("xxx"))
}

// --- GoogleBooks ---

const sampleGoogleBooksJSON = `{
  "totalItems": 1,
  "items": [
    {
      "id": "B1hSG45JCX4C",
      "volumeInfo": {
        "title": "Sapiens",
        "subtitle": "A Brief History of Humankind",
        "authors": ["Yuval Noah Harari"],
        "publisher": "Harper",
        "publishedDate": "2015-02-10",
        "description": "From a renowned historian comes a groundbreaking narrative.",
        "industryIdentifiers": [
          {"type": "ISBN_10", "identifier": "0062316095"},
          {"type": "ISBN_13", "identifier": "9780062316097"}
        ],
        "pageCount": 464,
        "categories": ["History / World"],
        "language": "en",
        "imageLinks": {
          "smallThumbnail": "http://books.google.com/books/content?id=B1&zoom=5&edge=curl",
          "thumbnail": "http://books.google.com/books/content?id=B1&zoom=1&edge=curl"
        }
      }
    },
    {"id": "", "volumeInfo": {"title": "No ID"}}
  ]
}`

func TestGoogleBooksSearch(t *testing.T) {
	var seen url.Values
	ts := jsonServer(t, sampleGoogleBooksJSON, &seen)

	old := googleBooksBase
	googleBooksBase = ts.URL
	defer func() { googleBooksBase = old }()

	p := &GoogleBooks{Client: ts.Client(), APIKey: "k"}
	books, err := p.Search(context.Background(), "isbn:9780062316097", types.OrderRelevance, 0, 100)
	require.NoError(t, err)
	require.Len(t, books, 1)

	assert.Equal(t, "isbn:9780062316097", seen.Get("q"))
	assert.Equal(t, "40", seen.Get("maxResults"), "capped at the API page limit")
	assert.Equal(t, "relevance", seen.Get("orderBy"))
	assert.Equal(t, "k", seen.Get("key"))

	b := books[0]
	assert.Equal(t, "gb:B1hSG45JCX4C", b.ID)
	assert.Equal(t, "Sapiens: A Brief History of Humankind", b.Title)
	assert.Equal(t, "9780062316097", b.ISBN13)
	assert.Equal(t, "0062316095", b.ISBN10)
	assert.Equal(t, 2015, b.PublishedYear)
	assert.Equal(t, 464, b.PageCount)
	assert.Equal(t, "google_books", b.Source)
	assert.Equal(t, "https://books.google.com/books/content?id=B1&zoom=1", b.Cover.URL)
	assert.Equal(t, CoverLow, CoverRank(b.Cover))
}

func TestGoogleCoverPrefersLargest(t *testing.T) {
	c := googleCover(googleBooksImageLinks{Thumbnail: "http://t", Large: "http://l"})
	assert.Equal(t, "https://l", c.URL)
	assert.Equal(t, CoverHigh, CoverRank(c))
	assert.Equal(t, types.Cover{}, googleCover(googleBooksImageLinks{}))
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, 2004, parseYear("2004-05-01"))
	assert.Equal(t, 1999, parseYear("1999"))
	assert.Equal(t, 0, parseYear("19"))
	assert.Equal(t, 0, parseYear("circa 1900"))
}

// --- wrappers ---

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeProvider{name: "flaky-test", err: errors.New("boom")}
	p := NewBreakerProviderWith(inner, BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.Search(context.Background(), "q", types.OrderRelevance, 0, 5)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.Search(context.Background(), "q", types.OrderRelevance, 0, 5)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), inner.calls.Load(), "open circuit does not reach the provider")
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	inner := &fakeProvider{name: "cancel-test", err: context.Canceled}
	p := NewBreakerProviderWith(inner, BreakerSettings{ConsecutiveFailures: 1})

	for i := 0; i < 3; i++ {
		_, _ = p.Search(context.Background(), "q", types.OrderRelevance, 0, 5)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestCachedProvider(t *testing.T) {
	inner := &fakeProvider{name: "cache-test", books: []types.Book{{ID: "a", Authors: []string{"X"}}}}
	p := NewCachedProvider(inner, 8, time.Minute)
	ctx := context.Background()

	first, err := p.Search(ctx, "q", types.OrderRelevance, 0, 5)
	require.NoError(t, err)
	first[0].Authors[0] = "mutated"

	second, err := p.Search(ctx, "q", types.OrderRelevance, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "X", second[0].Authors[0])
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err = p.Search(ctx, "q", types.OrderNewest, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load(), "ordering is part of the key")
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &fakeProvider{name: "cache-err", err: errors.New("down")}
	p := NewCachedProvider(inner, 8, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := p.Search(context.Background(), "q", types.OrderRelevance, 0, 5)
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestNewProviders(t *testing.T) {
	primary, secondary := NewProviders(types.SearchConfig{}, http.DefaultClient, "")
	assert.Nil(t, primary)
	assert.Nil(t, secondary)

	primary, secondary = NewProviders(types.SearchConfig{EnableGoogleBooks: true}, http.DefaultClient, "")
	require.NotNil(t, primary)
	assert.Equal(t, "google_books", primary.Name())
	assert.Nil(t, secondary)

	primary, secondary = NewProviders(types.SearchConfig{EnableGoogleBooks: true, EnableOpenLibrary: true}, http.DefaultClient, "")
	assert.Equal(t, "openlibrary", primary.Name())
	assert.Equal(t, "google_books", secondary.Name())
}
