package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"videoscribe/internal/segmenter"
)

// ErrTranscriptionTimeout indicates a segment's recognition operation did
// not complete within its per-segment budget.
var ErrTranscriptionTimeout = errors.New("transcription timed out")

// Worker transcribes a single uploaded segment. Workers share nothing: each
// consumes its own handle and produces its own fragment, so no locking is
// needed around them.
type Worker struct {
	recognizer Recognizer
	logger     *zap.Logger
}

// NewWorker creates a Worker on top of the given recognizer.
func NewWorker(recognizer Recognizer, logger *zap.Logger) *Worker {
	return &Worker{
		recognizer: recognizer,
		logger:     logger,
	}
}

// Transcribe submits the handle's URI to the recognition service and waits
// up to timeout for the ordered phrases. The timeout is per segment; it does
// not shorten any other worker's budget.
func (w *Worker) Transcribe(ctx context.Context, handle segmenter.SegmentHandle, timeout time.Duration) (TranscriptFragment, error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w.logger.Debug("transcribing segment",
		zap.Int("index", handle.Window.Index),
		zap.String("uri", handle.URI),
		zap.Duration("timeout", timeout))

	phrases, err := w.recognizer.Recognize(opCtx, handle.URI)
	if err != nil {
		// Distinguish our own deadline from a caller cancellation: the
		// parent context stays clean when only the per-segment budget ran out.
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return TranscriptFragment{}, fmt.Errorf("%w: segment %d (%s) after %s",
				ErrTranscriptionTimeout, handle.Window.Index, handle.StartLabel, timeout)
		}
		return TranscriptFragment{}, fmt.Errorf("failed to recognize segment %d (%s): %w",
			handle.Window.Index, handle.StartLabel, err)
	}

	return TranscriptFragment{
		StartLabel: handle.StartLabel,
		Phrases:    phrases,
	}, nil
}
