// Package sinks provides progress.Sink implementations: structured logs and
// Prometheus collectors.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/telcokit/specsync/internal/progress"
)

// LogSink emits structured logs for progress streams. Byte-level transfer
// events are logged at debug to keep interactive output readable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("series", evt.Series),
			zap.String("url", evt.URL),
			zap.Int64("bytes", evt.Bytes),
			zap.Int64("items", evt.Items),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		}
		switch evt.Stage {
		case progress.StageItemBytes, progress.StageItemStart:
			s.logger.Debug("progress event", fields...)
		case progress.StageItemError, progress.StageScanError:
			s.logger.Warn("progress event", fields...)
		default:
			s.logger.Info("progress event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
