package planner

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration indicates a non-positive duration or segment divider.
var ErrInvalidConfiguration = errors.New("invalid segmentation configuration")

// ErrDegenerateSegmentation indicates the divider is too large for the audio
// duration, producing a zero-second segment length.
var ErrDegenerateSegmentation = errors.New("degenerate segmentation")

// SegmentWindow represents one contiguous time slice of the source audio.
// Windows partition [0, duration) with no gaps or overlaps.
type SegmentWindow struct {
	Index int     // 1-based ordinal within the plan
	Start float64 // seconds, inclusive
	End   float64 // seconds, exclusive
}

// Length returns the window span in seconds.
func (w SegmentWindow) Length() float64 {
	return w.End - w.Start
}

// StartLabel returns the window start formatted as a zero-padded HH:MM:SS
// timestamp, truncated to whole seconds.
func (w SegmentWindow) StartLabel() string {
	return FormatStartLabel(w.Start)
}

// Plan holds the segmentation computed once per run. SegmentLength is the
// common length in whole seconds; the final window may be shorter.
type Plan struct {
	Duration      float64
	SegmentLength int
	Windows       []SegmentWindow
}

// NewPlan computes the ordered list of segment windows for the given audio
// duration and segment divider. The segment length is floor(duration/divider)
// whole seconds; windows are generated greedily from zero until the full
// duration is covered.
func NewPlan(duration float64, divider int) (*Plan, error) {
	if divider <= 0 {
		return nil, fmt.Errorf("%w: segment divider must be positive, got %d", ErrInvalidConfiguration, divider)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: audio duration must be positive, got %.3f", ErrInvalidConfiguration, duration)
	}

	segmentLength := int(math.Floor(duration / float64(divider)))
	if segmentLength <= 0 {
		return nil, fmt.Errorf("%w: divider %d yields zero-second segments for %.3fs of audio", ErrDegenerateSegmentation, divider, duration)
	}

	var windows []SegmentWindow
	start := 0.0
	index := 1
	for start < duration {
		end := math.Min(start+float64(segmentLength), duration)
		windows = append(windows, SegmentWindow{Index: index, Start: start, End: end})
		start = end
		index++
	}

	return &Plan{
		Duration:      duration,
		SegmentLength: segmentLength,
		Windows:       windows,
	}, nil
}

// FormatStartLabel formats a second offset as zero-padded HH:MM:SS,
// truncating fractional seconds.
func FormatStartLabel(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
