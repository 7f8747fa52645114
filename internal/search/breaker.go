// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pdiddy/bookfinder/internal/logging"
	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// BreakerSettings tunes the circuit breaker around a provider.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit (default 5).
	ConsecutiveFailures uint32

	// OpenTimeout is how long the circuit stays open before a probe (default 30s).
	OpenTimeout time.Duration
}

// BreakerProvider stops calling a provider that keeps failing. While the
// circuit is open, Search fails fast with gobreaker.ErrOpenState.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[[]types.Book]
}

// NewBreakerProvider wraps p with default breaker settings.
func NewBreakerProvider(p Provider) *BreakerProvider {
	return NewBreakerProviderWith(p, BreakerSettings{})
}

// NewBreakerProviderWith wraps p with the given settings.
func NewBreakerProviderWith(p Provider, s BreakerSettings) *BreakerProvider {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	name := p.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	logger := logging.Component("search")

	cb := gobreaker.NewCircuitBreaker[[]types.Book](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// A caller giving up is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerProvider{inner: p, cb: cb}
}

// Name returns the wrapped provider's name.
func (b *BreakerProvider) Name() string { return b.inner.Name() }

// Search calls the wrapped provider through the breaker.
func (b *BreakerProvider) Search(ctx context.Context, q string, orderBy types.OrderBy, startIndex, limit int) ([]types.Book, error) {
	books, err := b.cb.Execute(func() ([]types.Book, error) {
		return b.inner.Search(ctx, q, orderBy, startIndex, limit)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ProviderRequests.WithLabelValues(b.Name(), "rejected").Inc()
	case err != nil:
		metrics.ProviderRequests.WithLabelValues(b.Name(), "error").Inc()
	default:
		metrics.ProviderRequests.WithLabelValues(b.Name(), "ok").Inc()
	}
	return books, err
}

// State reports the breaker state.
func (b *BreakerProvider) State() gobreaker.State { return b.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
