package performance

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pipeline stage names recorded by the StageTimer.
const (
	StageExtract    = "extract"
	StageConvert    = "convert"
	StageProbe      = "probe"
	StageSegment    = "segment"
	StageTranscribe = "transcribe"
)

// StageTimer records wall-clock durations for the stages of a pipeline run
// and reports them once the run finishes.
type StageTimer struct {
	logger   *zap.Logger
	mu       sync.Mutex
	started  time.Time
	stages   map[string]time.Duration
	sequence []string
}

// NewStageTimer creates a StageTimer. The run clock starts immediately.
func NewStageTimer(logger *zap.Logger) *StageTimer {
	return &StageTimer{
		logger:  logger,
		started: time.Now(),
		stages:  make(map[string]time.Duration),
	}
}

// Track runs fn and records how long the named stage took. Errors pass
// through untouched so call sites keep their normal error flow.
func (st *StageTimer) Track(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	st.mu.Lock()
	if _, seen := st.stages[stage]; !seen {
		st.sequence = append(st.sequence, stage)
	}
	st.stages[stage] += elapsed
	st.mu.Unlock()

	st.logger.Debug("stage completed",
		zap.String("stage", stage),
		zap.Duration("elapsed", elapsed),
		zap.Error(err))
	return err
}

// StageDuration returns the accumulated duration for a stage.
func (st *StageTimer) StageDuration(stage string) time.Duration {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.stages[stage]
}

// Total returns the wall-clock time since the timer was created.
func (st *StageTimer) Total() time.Duration {
	return time.Since(st.started)
}

// Report logs every recorded stage in first-seen order plus the total
// run time.
func (st *StageTimer) Report() {
	st.mu.Lock()
	fields := make([]zap.Field, 0, len(st.sequence)+1)
	for _, stage := range st.sequence {
		fields = append(fields, zap.Duration(stage, st.stages[stage]))
	}
	st.mu.Unlock()

	fields = append(fields, zap.Duration("total", st.Total()))
	st.logger.Info("pipeline run timing", fields...)
}
