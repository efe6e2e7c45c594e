package performance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStageTimer_Track(t *testing.T) {
	t.Run("should record the elapsed time of a stage", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())

		err := st.Track(StageExtract, func() error {
			time.Sleep(10 * time.Millisecond)
			return nil
		})

		require.NoError(t, err)
		assert.GreaterOrEqual(t, st.StageDuration(StageExtract), 10*time.Millisecond)
	})

	t.Run("should pass stage errors through unchanged", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())
		stageErr := errors.New("probe exploded")

		err := st.Track(StageProbe, func() error { return stageErr })

		assert.ErrorIs(t, err, stageErr)
		assert.GreaterOrEqual(t, st.StageDuration(StageProbe), time.Duration(0))
	})

	t.Run("should accumulate repeated stages", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())

		for i := 0; i < 3; i++ {
			require.NoError(t, st.Track(StageSegment, func() error {
				time.Sleep(2 * time.Millisecond)
				return nil
			}))
		}

		assert.GreaterOrEqual(t, st.StageDuration(StageSegment), 6*time.Millisecond)
	})

	t.Run("should report an unrecorded stage as zero", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())
		assert.Zero(t, st.StageDuration(StageTranscribe))
	})
}

func TestStageTimer_Total(t *testing.T) {
	t.Run("should grow with wall-clock time", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())
		time.Sleep(5 * time.Millisecond)

		assert.GreaterOrEqual(t, st.Total(), 5*time.Millisecond)
	})
}

func TestStageTimer_Report(t *testing.T) {
	t.Run("should not panic with no stages recorded", func(t *testing.T) {
		st := NewStageTimer(zap.NewNop())
		st.Report()
	})
}
