// Package syncer orchestrates a sync run: discover, diff, fetch, cleanup.
package syncer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telcokit/specsync/internal/catalog"
	"github.com/telcokit/specsync/internal/progress"
	"github.com/telcokit/specsync/internal/queue"
	"github.com/telcokit/specsync/internal/state"
	"github.com/telcokit/specsync/internal/worker"
)

// Options configures an Engine.
type Options struct {
	SeriesDirs  []string
	ContentRoot string
	Workers     int
	// DryRun reports discovered/pending counts without fetching anything.
	DryRun bool
}

// Engine wires discovery, the progress store, and the fetch pool into a
// single resumable run.
type Engine struct {
	builder *catalog.Builder
	store   *state.FileStore
	client  worker.Getter
	emitter progress.Emitter
	logger  *zap.Logger
	opts    Options
}

// New constructs an Engine.
func New(
	builder *catalog.Builder,
	store *state.FileStore,
	client worker.Getter,
	emitter progress.Emitter,
	logger *zap.Logger,
	opts Options,
) *Engine {
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{
		builder: builder,
		store:   store,
		client:  client,
		emitter: emitter,
		logger:  logger,
		opts:    opts,
	}
}

// Run executes one sync pass. Per-item and per-directory failures are
// contained and logged; only a corrupt progress record, an unusable content
// root, or cancellation abort the run. The durable record is deleted only
// after a fully clean run, so a surviving state file marks a partial run.
func (e *Engine) Run(ctx context.Context) error {
	runID := progress.UUIDToBytes(uuid.New())
	start := time.Now()

	if err := os.MkdirAll(e.opts.ContentRoot, 0o750); err != nil {
		return fmt.Errorf("create content root %s: %w", e.opts.ContentRoot, err)
	}

	ledger, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("load progress record: %w", err)
	}

	e.emit(runID, progress.Event{Stage: progress.StageRunStart})
	e.logger.Info("scanning series directories",
		zap.Int("dirs", len(e.opts.SeriesDirs)),
		zap.Int("recorded", ledger.Len()))

	cat, err := e.builder.Build(ctx, e.opts.SeriesDirs)
	if err != nil {
		return err
	}
	for i := 0; i < cat.FailedDirs; i++ {
		e.emit(runID, progress.Event{Stage: progress.StageScanError})
	}
	e.emit(runID, progress.Event{Stage: progress.StageScanDone, Items: int64(len(cat.Items))})

	if len(cat.Items) == 0 {
		e.logger.Info("no items discovered, nothing to do")
		return nil
	}

	pending := e.diff(cat.Items, ledger)
	e.logger.Info("catalog built",
		zap.Int("discovered", len(cat.Items)),
		zap.Int("pending", len(pending)),
		zap.Int("failed_dirs", cat.FailedDirs))

	if e.opts.DryRun {
		e.logger.Info("dry run, skipping downloads")
		return nil
	}

	counters := &worker.Counters{}
	if len(pending) > 0 {
		q := queue.New(len(pending))
		for _, item := range pending {
			if err := q.Enqueue(ctx, item); err != nil {
				return fmt.Errorf("seed work queue: %w", err)
			}
		}
		q.Close()

		pool := worker.NewPool(e.opts.Workers, q, ledger, e.client, e.emitter, runID, e.logger)
		pool.Run(ctx)
		counters = pool.Counters()
	}

	if err := ctx.Err(); err != nil {
		e.logger.Warn("run canceled, progress record retained",
			zap.Int64("fetched", counters.Fetched.Load()))
		return fmt.Errorf("sync canceled: %w", err)
	}

	e.emit(runID, progress.Event{
		Stage: progress.StageRunDone,
		Items: counters.Fetched.Load(),
		Dur:   time.Since(start),
	})
	e.logger.Info("run complete",
		zap.Int("discovered", len(cat.Items)),
		zap.Int("pending", len(pending)),
		zap.Int64("fetched", counters.Fetched.Load()),
		zap.Int64("failed", counters.Failed.Load()),
		zap.Int64("skipped", counters.Skipped.Load()),
		zap.Duration("dur", time.Since(start)))

	// Terminal cleanup. Deleting the record after a partial run would forget
	// completed items: failed fetches still need it for the next diff, and
	// unscanned directories may hold items it already records.
	if counters.Failed.Load() > 0 || cat.FailedDirs > 0 {
		e.logger.Warn("partial run, progress record retained",
			zap.String("record", e.store.Path()),
			zap.Int64("failed_items", counters.Failed.Load()),
			zap.Int("failed_dirs", cat.FailedDirs))
		return nil
	}
	if err := e.store.Delete(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) diff(items []catalog.Item, ledger *state.Ledger) []catalog.Item {
	pending := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if !ledger.Contains(item.LocalPath) {
			pending = append(pending, item)
		}
	}
	return pending
}

func (e *Engine) emit(runID [16]byte, evt progress.Event) {
	evt.RunID = runID
	evt.TS = time.Now().UTC()
	e.emitter.Emit(evt)
}
