package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/telcokit/specsync/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are
// incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now()
	batch := []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
		{RunID: runID, TS: now, Stage: progress.StageScanError},
		{RunID: runID, TS: now, Stage: progress.StageScanDone, Items: 42},
		{
			RunID:  runID,
			TS:     now,
			Stage:  progress.StageItemBytes,
			Series: "21_series",
			URL:    "https://host/21_series/x.zip",
			Bytes:  2048,
		},
		{
			RunID:  runID,
			TS:     now,
			Stage:  progress.StageItemDone,
			Series: "21_series",
			URL:    "https://host/21_series/x.zip",
			Bytes:  2048,
			Dur:    300 * time.Millisecond,
		},
		{
			RunID:  runID,
			TS:     now,
			Stage:  progress.StageItemError,
			Series: "38_series",
			URL:    "https://host/38_series/y.zip",
			Note:   "connection reset",
		},
		{RunID: runID, TS: now, Stage: progress.StageRunDone, Items: 1, Dur: 12 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.scanErrors))
	require.Equal(t, 42.0, testutil.ToFloat64(sink.itemsDiscovered))
	require.InDelta(t, 2048.0,
		testutil.ToFloat64(sink.transferBytes.WithLabelValues("21_series")), 1e-9)
	require.InDelta(t, 1.0,
		testutil.ToFloat64(sink.itemsFetched.WithLabelValues("21_series")), 1e-9)
	require.InDelta(t, 1.0,
		testutil.ToFloat64(sink.itemErrors.WithLabelValues("38_series")), 1e-9)
	require.Equal(t, 1,
		testutil.CollectAndCount(sink.itemDuration, "specsync_item_duration_seconds"))
	require.Equal(t, 1,
		testutil.CollectAndCount(sink.runDuration, "specsync_run_duration_seconds"))
}

func TestPrometheusSinkDoubleRegisterFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
