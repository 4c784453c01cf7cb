// Package progress defines the event structures emitted during a sync run.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageScanError Stage = "SCAN_ERROR"
	StageScanDone  Stage = "SCAN_DONE"
	StageItemStart Stage = "ITEM_START"
	StageItemBytes Stage = "ITEM_BYTES"
	StageItemDone  Stage = "ITEM_DONE"
	StageItemError Stage = "ITEM_ERROR"
	StageRunDone   Stage = "RUN_DONE"
)

// Event captures a single milestone of sync progress.
type Event struct {
	// RunID uniquely identifies a sync run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or item milestone occurred.
	Stage Stage
	// Series scopes item events to their series directory label.
	Series string
	// URL is the item source URL for item events.
	URL string
	// Bytes carries the transferred size delta for ITEM_BYTES and the total
	// for ITEM_DONE.
	Bytes int64
	// Items carries discovered/pending counts on scan and run events.
	Items int64
	// Dur captures execution latency for item completions and run totals.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageScanError, StageScanDone, StageRunDone:
	case StageItemStart, StageItemBytes, StageItemDone, StageItemError:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Stage)
		}
		if e.Series == "" {
			return fmt.Errorf("%s requires series", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for sinks and logs.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
