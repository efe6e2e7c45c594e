package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"videoscribe/internal/planner"
)

// ErrExtractionFailed indicates ffmpeg could not produce the requested audio.
var ErrExtractionFailed = errors.New("audio extraction failed")

// ErrConversionFailed indicates the stereo-to-mono conversion failed.
var ErrConversionFailed = errors.New("mono conversion failed")

// ErrProbeFailed indicates ffprobe could not determine the audio duration.
var ErrProbeFailed = errors.New("duration probe failed")

// FFmpeg drives the ffmpeg and ffprobe binaries for one-shot media
// operations: audio extraction, mono conversion, duration probing and
// segment cutting.
type FFmpeg struct {
	logger      *zap.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates an FFmpeg instance using the binaries found on PATH.
func NewFFmpeg(logger *zap.Logger) *FFmpeg {
	return &FFmpeg{
		logger:      logger,
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

// ExtractAudio strips the audio track from a video file into audioPath.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	f.logger.Info("extracting audio track",
		zap.String("video", videoPath),
		zap.String("audio", audioPath))

	args := []string{"-y", "-i", videoPath, "-vn", audioPath}
	if err := f.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, videoPath, err)
	}
	return nil
}

// ConvertToMono downmixes audioPath to a single channel at monoPath. The
// source file is removed once the conversion succeeds; on failure it is left
// in place for inspection.
func (f *FFmpeg) ConvertToMono(ctx context.Context, audioPath, monoPath string) error {
	f.logger.Info("converting audio to mono",
		zap.String("source", audioPath),
		zap.String("mono", monoPath))

	args := []string{"-y", "-i", audioPath, "-ac", "1", monoPath}
	if err := f.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConversionFailed, audioPath, err)
	}

	if err := os.Remove(audioPath); err != nil {
		f.logger.Warn("failed to remove intermediate stereo file",
			zap.String("path", audioPath),
			zap.Error(err))
	}
	return nil
}

// ProbeDuration returns the duration of the audio file in seconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, audioPath string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v: %s", ErrProbeFailed, audioPath, err, stderrTail(stderr.String()))
	}

	duration, err := parseProbeOutput(stdout.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbeFailed, audioPath, err)
	}

	f.logger.Info("probed audio duration",
		zap.String("path", audioPath),
		zap.Float64("duration_sec", duration))
	return duration, nil
}

// CutSegment extracts the window from the source audio into outPath as mono
// 16-bit PCM, the encoding the recognition service expects.
func (f *FFmpeg) CutSegment(ctx context.Context, sourceAudio string, window planner.SegmentWindow, outPath string) error {
	args := []string{
		"-y",
		"-ss", window.StartLabel(),
		"-i", sourceAudio,
		"-to", strconv.FormatFloat(window.Length(), 'f', -1, 64),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		outPath,
	}
	if err := f.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("%w: segment %d of %s: %v", ErrExtractionFailed, window.Index, sourceAudio, err)
	}

	f.logger.Debug("cut audio segment",
		zap.Int("index", window.Index),
		zap.String("start", window.StartLabel()),
		zap.Float64("length_sec", window.Length()),
		zap.String("path", outPath))
	return nil
}

// runFFmpeg executes ffmpeg with the given arguments, capturing stderr so
// failures carry the tool's own diagnostics.
func (f *FFmpeg) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("ffmpeg not found on PATH: %w", err)
		}
		return fmt.Errorf("%v: %s", err, stderrTail(stderr.String()))
	}

	f.logger.Debug("ffmpeg completed", zap.Strings("args", args))
	return nil
}

// parseProbeOutput parses the single duration value printed by ffprobe.
func parseProbeOutput(out string) (float64, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0, fmt.Errorf("ffprobe produced no duration")
	}
	duration, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable ffprobe duration %q: %v", trimmed, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive ffprobe duration %q", trimmed)
	}
	return duration, nil
}

// stderrTail keeps error messages bounded while preserving the final, most
// relevant lines of tool output.
func stderrTail(s string) string {
	const maxLen = 512
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = "..." + s[len(s)-maxLen:]
	}
	return s
}
