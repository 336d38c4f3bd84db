package queue

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"
)

// EnqueueResult reports whether a batch was queued.
type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	EnqueueDropped  EnqueueResult = "dropped"
)

// ChangeQueue buffers batches of changed file paths between the file watcher
// and the analysis loop. A full queue drops new batches.
type ChangeQueue struct {
	ch     chan []string
	mu     sync.RWMutex
	closed bool
}

func NewChangeQueue(capacity int) *ChangeQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &ChangeQueue{ch: make(chan []string, capacity)}
}

func (q *ChangeQueue) Enqueue(paths []string) EnqueueResult {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || len(paths) == 0 {
		return EnqueueDropped
	}
	select {
	case q.ch <- append([]string(nil), paths...):
		return EnqueueAccepted
	default:
		return EnqueueDropped
	}
}

// DequeueBatch waits for one batch, then takes up to maxItems-1 more without
// waiting. A positive wait bounds the first wait and yields (nil, nil) on
// timeout; otherwise it blocks until a batch arrives or ctx is done. io.EOF
// is returned once the queue is closed, alongside any final batches.
func (q *ChangeQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([][]string, error) {
	if maxItems <= 0 {
		maxItems = 1
	}
	batch := make([][]string, 0, maxItems)

	var timer <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timer = t.C
	}

	select {
	case paths, ok := <-q.ch:
		if !ok {
			return nil, io.EOF
		}
		batch = append(batch, paths)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer:
		return nil, nil
	}

	for len(batch) < maxItems {
		select {
		case paths, ok := <-q.ch:
			if !ok {
				return batch, io.EOF
			}
			batch = append(batch, paths)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

// Merge flattens batches into one sorted, de-duplicated path list.
func Merge(batches [][]string) []string {
	seen := make(map[string]struct{})
	for _, b := range batches {
		for _, p := range b {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (q *ChangeQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

func (q *ChangeQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ch)
}
