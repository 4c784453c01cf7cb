// Package queue provides the bounded in-memory work queue drained by the
// fetch pool.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/telcokit/specsync/internal/catalog"
)

// ErrClosed signals that the queue is closed and fully drained. Workers treat
// it as the normal exit condition instead of polling for emptiness.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded multi-consumer queue with context-aware operations. It
// is fully seeded before the pool starts, then closed; items buffered at
// close time remain consumable.
type Queue struct {
	ch      chan catalog.Item
	closeMu sync.Mutex
	closed  bool
}

// New constructs a queue with the provided capacity.
func New(capacity int) *Queue {
	return &Queue{
		ch: make(chan catalog.Item, capacity),
	}
}

// Enqueue pushes an item into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, item catalog.Item) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Dequeue pops the next item, respecting context cancellation. Once the
// queue is closed and drained it returns ErrClosed.
func (q *Queue) Dequeue(ctx context.Context) (catalog.Item, error) {
	select {
	case <-ctx.Done():
		return catalog.Item{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return catalog.Item{}, ErrClosed
		}
		return item, nil
	}
}

// Close marks the queue as fully seeded. Safe to call multiple times.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
