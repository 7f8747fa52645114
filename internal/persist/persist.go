// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist runs catalog writes in the background so search pages are
// never blocked on them. Each submission returns a Task whose completion and
// failure the caller may observe; failures are also logged.
package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/bookfinder/internal/metrics"
	"github.com/pdiddy/bookfinder/pkg/types"
)

// Provenance tags recorded with persisted candidates.
const (
	TagNewFromSearch   = "new-from-search"
	TagMetadataRefresh = "metadata-refresh"
)

// Persister stores candidate books under a provenance tag.
type Persister interface {
	Persist(ctx context.Context, books []types.Book, tag string) error
}

// Task is the handle of one background write.
type Task struct {
	ID    string
	Tag   string
	Count int

	done chan struct{}
	err  error
}

// Done is closed when the write has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the write error. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Dispatcher bounds concurrent writes with a weighted semaphore.
type Dispatcher struct {
	target Persister
	sem    *semaphore.Weighted
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher returns a Dispatcher writing to target with at most
// maxConcurrent writes in flight (default 4).
func NewDispatcher(target Persister, maxConcurrent int64, logger zerolog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Dispatcher{
		target: target,
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger.With().Str("component", "persist").Logger(),
	}
}

// Submit starts a background write of books under tag and returns at once.
// The write outlives ctx cancellation but keeps its values.
func (d *Dispatcher) Submit(ctx context.Context, books []types.Book, tag string) *Task {
	t := &Task{
		ID:    uuid.NewString(),
		Tag:   tag,
		Count: len(books),
		done:  make(chan struct{}),
	}
	if len(books) == 0 {
		t.finish(nil)
		return t
	}

	batch := make([]types.Book, len(books))
	for i, b := range books {
		batch[i] = b.Clone()
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		t.finish(d.run(bg, t, batch))
	}()
	return t
}

func (d *Dispatcher) run(ctx context.Context, t *Task, books []types.Book) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring write slot: %w", err)
	}
	defer d.sem.Release(1)

	if err := d.target.Persist(ctx, books, t.Tag); err != nil {
		metrics.PersistTasks.WithLabelValues(t.Tag, "error").Inc()
		d.logger.Error().Err(err).
			Str("task", t.ID).
			Str("tag", t.Tag).
			Int("count", t.Count).
			Msg("background persist failed")
		return fmt.Errorf("persisting %d books (%s): %w", t.Count, t.Tag, err)
	}

	metrics.PersistTasks.WithLabelValues(t.Tag, "ok").Inc()
	d.logger.Debug().Str("task", t.ID).Str("tag", t.Tag).Int("count", t.Count).Msg("persisted")
	return nil
}

// Wait blocks until every submitted write has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
