// Package worker implements the bounded concurrent fetch pool that drains
// the work queue and commits completed items to the progress ledger.
package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/telcokit/specsync/internal/catalog"
	"github.com/telcokit/specsync/internal/progress"
	"github.com/telcokit/specsync/internal/queue"
	"github.com/telcokit/specsync/internal/state"
)

// copyBufSize is the chunk size for streaming response bodies to disk.
const copyBufSize = 32 * 1024

// Getter performs a streaming GET against an item URL.
type Getter interface {
	GetStream(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Counters tracks per-run item outcomes across all workers.
type Counters struct {
	Fetched atomic.Int64
	Failed  atomic.Int64
	Skipped atomic.Int64
}

// worker drains queue items one at a time until the queue is closed or the
// context ends.
type worker struct {
	queue    *queue.Queue
	ledger   *state.Ledger
	client   Getter
	emitter  progress.Emitter
	counters *Counters
	runID    [16]byte
	logger   *zap.Logger
}

func (w *worker) run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			// Closed-and-drained or canceled; either way this worker is done.
			return
		}
		w.process(ctx, item)
	}
}

func (w *worker) process(ctx context.Context, item catalog.Item) {
	// Idempotent short-circuit keyed on presence in the ledger, not file
	// existence: a partial file from an interrupted run must be re-fetched.
	if w.ledger.Contains(item.LocalPath) {
		w.counters.Skipped.Add(1)
		w.logger.Debug("item already recorded, skipping", zap.String("url", item.URL))
		return
	}

	w.emit(progress.Event{Stage: progress.StageItemStart, Series: item.Series, URL: item.URL})
	start := time.Now()

	written, err := w.fetch(ctx, item)
	if err != nil {
		w.counters.Failed.Add(1)
		w.logger.Error("item download failed",
			zap.String("url", item.URL),
			zap.String("dest", item.LocalPath),
			zap.Error(err))
		w.emit(progress.Event{
			Stage:  progress.StageItemError,
			Series: item.Series,
			URL:    item.URL,
			Note:   err.Error(),
		})
		return
	}

	// The bytes are fully on disk; record and persist before touching the
	// next item so a crash costs at most this one in-flight fetch.
	if err := w.ledger.Commit(item.LocalPath); err != nil {
		w.counters.Failed.Add(1)
		w.logger.Error("progress commit failed",
			zap.String("dest", item.LocalPath), zap.Error(err))
		w.emit(progress.Event{
			Stage:  progress.StageItemError,
			Series: item.Series,
			URL:    item.URL,
			Note:   err.Error(),
		})
		return
	}

	w.counters.Fetched.Add(1)
	w.logger.Info("item downloaded",
		zap.String("url", item.URL),
		zap.String("dest", item.LocalPath),
		zap.Int64("bytes", written),
		zap.Duration("dur", time.Since(start)))
	w.emit(progress.Event{
		Stage:  progress.StageItemDone,
		Series: item.Series,
		URL:    item.URL,
		Bytes:  written,
		Dur:    time.Since(start),
	})
}

// fetch streams the item to its destination path. On failure any partial
// file is left in place; the ledger check is by record presence, so a later
// run simply overwrites it.
func (w *worker) fetch(ctx context.Context, item catalog.Item) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(item.LocalPath), 0o750); err != nil {
		return 0, fmt.Errorf("create series dir: %w", err)
	}

	body, _, err := w.client.GetStream(ctx, item.URL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	dest, err := os.Create(item.LocalPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", item.LocalPath, err)
	}

	written, copyErr := w.copyWithProgress(dest, body, item)
	closeErr := dest.Close()
	if copyErr != nil {
		return written, fmt.Errorf("write %s: %w", item.LocalPath, copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", item.LocalPath, closeErr)
	}
	return written, nil
}

// copyWithProgress copies body to dest, emitting byte deltas as they arrive.
func (w *worker) copyWithProgress(dest io.Writer, body io.Reader, item catalog.Item) (int64, error) {
	buf := make([]byte, copyBufSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			wn, writeErr := dest.Write(buf[:n])
			written += int64(wn)
			if wn > 0 {
				w.emit(progress.Event{
					Stage:  progress.StageItemBytes,
					Series: item.Series,
					URL:    item.URL,
					Bytes:  int64(wn),
				})
			}
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func (w *worker) emit(evt progress.Event) {
	if w.emitter == nil {
		return
	}
	evt.RunID = w.runID
	evt.TS = time.Now().UTC()
	w.emitter.Emit(evt)
}
