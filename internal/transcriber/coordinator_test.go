package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videoscribe/internal/planner"
	"videoscribe/internal/segmenter"
)

// fakeSegmentTranscriber completes segments with configurable per-index
// delays, failures, and phrases.
type fakeSegmentTranscriber struct {
	mu       sync.Mutex
	delays   map[int]time.Duration
	failures map[int]error
	phrases  map[int][]string
	order    []int
}

func (f *fakeSegmentTranscriber) Transcribe(ctx context.Context, handle segmenter.SegmentHandle, _ time.Duration) (TranscriptFragment, error) {
	index := handle.Window.Index
	if delay := f.delays[index]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return TranscriptFragment{}, ctx.Err()
		}
	}

	f.mu.Lock()
	f.order = append(f.order, index)
	f.mu.Unlock()

	if err := f.failures[index]; err != nil {
		return TranscriptFragment{}, err
	}
	return TranscriptFragment{
		StartLabel: handle.StartLabel,
		Phrases:    f.phrases[index],
	}, nil
}

func makeHandles(count int) []segmenter.SegmentHandle {
	handles := make([]segmenter.SegmentHandle, 0, count)
	for i := 1; i <= count; i++ {
		window := planner.SegmentWindow{Index: i, Start: float64((i - 1) * 62), End: float64(i * 62)}
		handles = append(handles, segmenter.SegmentHandle{
			Window:     window,
			URI:        fmt.Sprintf("gs://test-bucket/run/audio_%d.wav", i),
			StartLabel: window.StartLabel(),
		})
	}
	return handles
}

func TestFanOutCoordinator_Run(t *testing.T) {
	t.Run("should emit segments in index order despite reverse completion order", func(t *testing.T) {
		// Arrange: the first segment finishes last, the last finishes first.
		fake := &fakeSegmentTranscriber{
			delays: map[int]time.Duration{
				1: 60 * time.Millisecond,
				2: 40 * time.Millisecond,
				3: 20 * time.Millisecond,
			},
			phrases: map[int][]string{
				1: {"first"},
				2: {"second"},
				3: {"third"},
			},
		}
		coordinator := NewFanOutCoordinator(fake, zap.NewNop())

		// Act
		transcript, err := coordinator.Run(context.Background(), makeHandles(3), time.Second)

		// Assert: completion order leaked nowhere into output order.
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1}, fake.order, "fake should have completed in reverse")
		require.Len(t, transcript, 3)
		assert.Equal(t, "first", transcript[0].Phrase)
		assert.Equal(t, "second", transcript[1].Phrase)
		assert.Equal(t, "third", transcript[2].Phrase)
		assert.Equal(t, "00:00:00", transcript[0].StartLabel)
		assert.Equal(t, "00:01:02", transcript[1].StartLabel)
		assert.Equal(t, "00:02:04", transcript[2].StartLabel)
	})

	t.Run("should report all failed and succeeded indices when a segment fails", func(t *testing.T) {
		fake := &fakeSegmentTranscriber{
			failures: map[int]error{2: fmt.Errorf("%w: segment 2", ErrTranscriptionTimeout)},
			phrases:  map[int][]string{1: {"a"}, 3: {"c"}},
		}
		coordinator := NewFanOutCoordinator(fake, zap.NewNop())

		transcript, err := coordinator.Run(context.Background(), makeHandles(3), time.Second)

		assert.Nil(t, transcript, "no partial transcript may be returned")
		var partial *PartialFailureError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, []int{2}, partial.Failed)
		assert.Equal(t, []int{1, 3}, partial.Succeeded)
		assert.ErrorIs(t, partial.Causes[2], ErrTranscriptionTimeout)
	})

	t.Run("should surface timeouts through the aggregate error", func(t *testing.T) {
		fake := &fakeSegmentTranscriber{
			failures: map[int]error{1: ErrTranscriptionTimeout},
		}
		coordinator := NewFanOutCoordinator(fake, zap.NewNop())

		_, err := coordinator.Run(context.Background(), makeHandles(1), time.Second)

		assert.ErrorIs(t, err, ErrTranscriptionTimeout)
	})

	t.Run("should report every failing segment, not only the first", func(t *testing.T) {
		fake := &fakeSegmentTranscriber{
			failures: map[int]error{
				1: errors.New("remote error"),
				3: errors.New("remote error"),
			},
			phrases: map[int][]string{2: {"b"}},
		}
		coordinator := NewFanOutCoordinator(fake, zap.NewNop())

		_, err := coordinator.Run(context.Background(), makeHandles(3), time.Second)

		var partial *PartialFailureError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, []int{1, 3}, partial.Failed)
		assert.Equal(t, []int{2}, partial.Succeeded)
	})

	t.Run("should return RunCancelled when the run context is cancelled", func(t *testing.T) {
		fake := &fakeSegmentTranscriber{
			delays: map[int]time.Duration{1: time.Minute, 2: time.Minute},
		}
		coordinator := NewFanOutCoordinator(fake, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		transcript, err := coordinator.Run(ctx, makeHandles(2), time.Hour)

		assert.Nil(t, transcript)
		assert.ErrorIs(t, err, ErrRunCancelled)
		assert.Less(t, time.Since(start), 5*time.Second, "cancellation must surface promptly")
	})

	t.Run("should return an empty transcript for no handles", func(t *testing.T) {
		coordinator := NewFanOutCoordinator(&fakeSegmentTranscriber{}, zap.NewNop())

		transcript, err := coordinator.Run(context.Background(), nil, time.Second)

		require.NoError(t, err)
		assert.Empty(t, transcript)
	})
}

func TestPartialFailureError(t *testing.T) {
	t.Run("should describe failed and succeeded segments", func(t *testing.T) {
		err := &PartialFailureError{
			Failed:    []int{2},
			Succeeded: []int{1, 3},
			Causes:    map[int]error{2: ErrTranscriptionTimeout},
		}

		assert.Contains(t, err.Error(), "[2]")
		assert.Contains(t, err.Error(), "[1 3]")
		assert.ErrorIs(t, err, ErrTranscriptionTimeout)
	})
}
