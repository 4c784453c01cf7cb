package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/telcokit/specsync/internal/progress"
	"github.com/telcokit/specsync/internal/queue"
	"github.com/telcokit/specsync/internal/state"
)

// Pool fans a work queue out to a fixed number of fetch workers. The size is
// a configured constant, bounded to avoid overwhelming the remote server;
// it is never auto-scaled.
type Pool struct {
	workers  []*worker
	counters *Counters
}

// NewPool constructs size workers sharing the same queue, ledger, and
// counters.
func NewPool(
	size int,
	q *queue.Queue,
	ledger *state.Ledger,
	client Getter,
	emitter progress.Emitter,
	runID [16]byte,
	logger *zap.Logger,
) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	counters := &Counters{}
	workers := make([]*worker, 0, size)
	for i := 0; i < size; i++ {
		workers = append(workers, &worker{
			queue:    q,
			ledger:   ledger,
			client:   client,
			emitter:  emitter,
			counters: counters,
			runID:    runID,
			logger:   logger.With(zap.Int("worker", i)),
		})
	}
	return &Pool{workers: workers, counters: counters}
}

// Run starts all workers and blocks until the queue is drained and every
// in-flight transfer has finished. Cancellation stops workers from dequeuing
// further items; the ledger stays consistent with whatever subset committed.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(wk *worker) {
			defer wg.Done()
			wk.run(ctx)
		}(w)
	}
	wg.Wait()
}

// Counters exposes the shared outcome counters.
func (p *Pool) Counters() *Counters {
	return p.counters
}
