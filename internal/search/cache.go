// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// CachedProvider memoizes successful provider responses for a TTL so that
// paging through one query does not re-hit the provider for every page.
type CachedProvider struct {
	inner Provider
	cache *expirable.LRU[string, []types.Book]
}

// NewCachedProvider wraps p with an LRU of size entries expiring after ttl.
func NewCachedProvider(p Provider, size int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: p,
		cache: expirable.NewLRU[string, []types.Book](size, nil, ttl),
	}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// Search serves from the cache when possible. Errors are never cached.
func (c *CachedProvider) Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error) {
	key := fmt.Sprintf("%s|%d|%d|%s", orderBy, startIndex, limit, q)
	if books, ok := c.cache.Get(key); ok {
		metrics.ProviderRequests.WithLabelValues(c.Name(), "cached").Inc()
		return cloneBooks(books), nil
	}

	books, err := c.inner.Search(ctx, q, orderBy, startIndex, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneBooks(books))
	return books, nil
}

func cloneBooks(books []types.Book) []types.Book {
	if books == nil {
		return nil
	}
	out := make([]types.Book, len(books))
	for i, b := range books {
		out[i] = b.Clone()
	}
	return out
}
