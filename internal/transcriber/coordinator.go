package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"videoscribe/internal/segmenter"
)

// ErrRunCancelled indicates the coordinator's own context was cancelled
// while workers were outstanding.
var ErrRunCancelled = errors.New("transcription run cancelled")

// PartialFailureError aggregates per-segment transcription failures so a
// single error reports every failing segment, not just the first.
type PartialFailureError struct {
	// Failed and Succeeded hold 1-based segment indices in ascending order.
	Failed    []int
	Succeeded []int
	// Causes maps each failed index to the worker error behind it.
	Causes map[int]error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("transcription failed for segments %v (succeeded: %v)", e.Failed, e.Succeeded)
}

// Unwrap exposes the per-segment causes so errors.Is can see, for example,
// ErrTranscriptionTimeout through the aggregate.
func (e *PartialFailureError) Unwrap() []error {
	causes := make([]error, 0, len(e.Causes))
	for _, index := range e.Failed {
		causes = append(causes, e.Causes[index])
	}
	return causes
}

// SegmentTranscriber is the per-segment operation the coordinator fans out.
type SegmentTranscriber interface {
	Transcribe(ctx context.Context, handle segmenter.SegmentHandle, timeout time.Duration) (TranscriptFragment, error)
}

// FanOutCoordinator launches one transcription worker per segment handle,
// waits for all of them, and reassembles results in original segment order
// regardless of completion order.
type FanOutCoordinator struct {
	worker SegmentTranscriber
	logger *zap.Logger
}

// NewFanOutCoordinator creates a FanOutCoordinator dispatching to worker.
func NewFanOutCoordinator(worker SegmentTranscriber, logger *zap.Logger) *FanOutCoordinator {
	return &FanOutCoordinator{
		worker: worker,
		logger: logger,
	}
}

// Run transcribes every handle concurrently and returns the assembled
// transcript in ascending segment-index order.
//
// All workers start at once: each one spends its life waiting on a remote
// operation, so local resources never bound the fan-out. The join is
// all-or-nothing — if any segment fails, Run waits for the rest anyway and
// returns a PartialFailureError naming every failed and succeeded index
// rather than a transcript with silent gaps.
func (c *FanOutCoordinator) Run(ctx context.Context, handles []segmenter.SegmentHandle, timeout time.Duration) (Transcript, error) {
	if len(handles) == 0 {
		return Transcript{}, nil
	}

	c.logger.Info("dispatching transcription workers",
		zap.Int("segments", len(handles)),
		zap.Duration("per_segment_timeout", timeout))

	// Results are keyed by slot, never by completion order.
	fragments := make([]TranscriptFragment, len(handles))
	failures := make([]error, len(handles))

	var wg sync.WaitGroup
	for i, handle := range handles {
		wg.Add(1)
		go func(slot int, handle segmenter.SegmentHandle) {
			defer wg.Done()
			fragment, err := c.worker.Transcribe(ctx, handle, timeout)
			if err != nil {
				failures[slot] = err
				return
			}
			fragments[slot] = fragment
		}(i, handle)
	}
	wg.Wait()

	var failed, succeeded []int
	causes := make(map[int]error)
	for slot, handle := range handles {
		if failures[slot] != nil {
			failed = append(failed, handle.Window.Index)
			causes[handle.Window.Index] = failures[slot]
		} else {
			succeeded = append(succeeded, handle.Window.Index)
		}
	}

	if len(failed) > 0 {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRunCancelled, ctx.Err())
		}
		for index, cause := range causes {
			c.logger.Error("segment transcription failed",
				zap.Int("index", index),
				zap.Error(cause))
		}
		return nil, &PartialFailureError{Failed: failed, Succeeded: succeeded, Causes: causes}
	}

	c.logger.Info("all segments transcribed", zap.Int("segments", len(handles)))
	return Assemble(fragments), nil
}
