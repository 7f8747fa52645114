// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookfinder/pkg/types"
)

type recordingPersister struct {
	mu       sync.Mutex
	calls    map[string][]types.Book
	err      error
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (r *recordingPersister) Persist(_ context.Context, books []types.Book, tag string) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(r.delay)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string][]types.Book)
	}
	r.calls[tag] = append(r.calls[tag], books...)
	return r.err
}

func TestSubmitCompletes(t *testing.T) {
	p := &recordingPersister{}
	d := NewDispatcher(p, 2, zerolog.Nop())

	task := d.Submit(context.Background(), []types.Book{{ID: "a"}, {ID: "b"}}, TagNewFromSearch)
	require.NoError(t, task.Wait(context.Background()))

	assert.Equal(t, 2, task.Count)
	assert.NotEmpty(t, task.ID)
	assert.Len(t, p.calls[TagNewFromSearch], 2)
}

func TestSubmitEmptyIsDone(t *testing.T) {
	d := NewDispatcher(&recordingPersister{}, 1, zerolog.Nop())
	task := d.Submit(context.Background(), nil, TagMetadataRefresh)

	select {
	case <-task.Done():
	default:
		t.Fatal("empty submission should be finished immediately")
	}
	assert.NoError(t, task.Err())
}

func TestSubmitReportsFailure(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	d := NewDispatcher(p, 1, zerolog.Nop())

	task := d.Submit(context.Background(), []types.Book{{ID: "a"}}, TagMetadataRefresh)
	err := task.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, err, task.Err())
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	p := &recordingPersister{delay: 20 * time.Millisecond}
	d := NewDispatcher(p, 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	task := d.Submit(ctx, []types.Book{{ID: "a"}}, TagNewFromSearch)
	cancel()

	require.NoError(t, task.Wait(context.Background()))
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	p := &recordingPersister{delay: 10 * time.Millisecond}
	d := NewDispatcher(p, 2, zerolog.Nop())

	for i := 0; i < 8; i++ {
		d.Submit(context.Background(), []types.Book{{ID: "x"}}, TagNewFromSearch)
	}
	d.Wait()

	assert.LessOrEqual(t, p.peak.Load(), int32(2))
	assert.Len(t, p.calls[TagNewFromSearch], 8)
}

func TestSubmitCopiesBooks(t *testing.T) {
	p := &recordingPersister{delay: 5 * time.Millisecond}
	d := NewDispatcher(p, 1, zerolog.Nop())

	books := []types.Book{{ID: "a", Authors: []string{"Ann"}}}
	task := d.Submit(context.Background(), books, TagNewFromSearch)
	books[0].Authors[0] = "changed"

	require.NoError(t, task.Wait(context.Background()))
	assert.Equal(t, "Ann", p.calls[TagNewFromSearch][0].Authors[0])
}
