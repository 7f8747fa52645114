// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/bookfinder/internal/dedup"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// Provider searches one external book source. Implementations return
// records in the provider's own relevance order and may return fewer than
// limit. Errors are absorbed by the caller.
type Provider interface {
	Name() string
	Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error)
}

// NewHTTPClient returns the client shared by the providers.
func NewHTTPClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// NewProviders builds the configured providers, each wrapped in a response
// cache and a circuit breaker. The first return is the primary provider;
// either may be nil.
func NewProviders(cfg types.SearchConfig, client *http.Client, contactEmail string) (primary, secondary Provider) {
	cfg = cfg.WithDefaults()

	var enabled []Provider
	if cfg.EnableOpenLibrary {
		enabled = append(enabled, &OpenLibrary{
			Client:       client,
			UserAgent:    cfg.UserAgent,
			ContactEmail: contactEmail,
			MaxRetries:   cfg.MaxRetries,
		})
	}
	if cfg.EnableGoogleBooks {
		enabled = append(enabled, &GoogleBooks{
			Client:     client,
			APIKey:     cfg.GoogleBooksAPIKey,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		})
	}

	for i, p := range enabled {
		p = NewBreakerProvider(p)
		if cfg.ProviderCacheSize > 0 {
			p = NewCachedProvider(p, cfg.ProviderCacheSize, cfg.ProviderCacheTTL)
		}
		enabled[i] = p
	}

	switch len(enabled) {
	case 0:
		return nil, nil
	case 1:
		return enabled[0], nil
	default:
		return enabled[0], enabled[1]
	}
}

// splitISBNs picks the first ISBN-13 and ISBN-10 out of a provider list.
func splitISBNs(isbns []string) (isbn13, isbn10 string) {
	for _, raw := range isbns {
		s := dedup.SanitizeISBN(raw)
		switch {
		case len(s) == 13 && isbn13 == "":
			isbn13 = s
		case len(s) == 10 && isbn10 == "":
			isbn10 = s
		}
	}
	return isbn13, isbn10
}

// parseYear reads the leading four-digit year of a date such as "2004-05-01".
func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}
