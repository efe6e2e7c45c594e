package segmenter

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"videoscribe/internal/planner"
	"videoscribe/internal/storage"
)

// SegmentHandle identifies one uploaded audio segment: the time window it
// was cut from, the remote locator of its bytes, and the human-readable
// start label carried into the final transcript.
type SegmentHandle struct {
	Window     planner.SegmentWindow
	URI        string
	StartLabel string
}

// Cutter extracts one time window of the source audio into a local file.
type Cutter interface {
	CutSegment(ctx context.Context, sourceAudio string, window planner.SegmentWindow, outPath string) error
}

// SegmentUploader cuts segment windows out of the source audio and publishes
// each one to object storage. Object names are grouped under a per-run prefix
// so concurrent runs over the same source cannot collide.
type SegmentUploader struct {
	cutter  Cutter
	store   storage.ObjectStore
	logger  *zap.Logger
	workDir string
	runID   string
}

// NewSegmentUploader creates a SegmentUploader writing temporary cut files
// into workDir.
func NewSegmentUploader(cutter Cutter, store storage.ObjectStore, workDir string, logger *zap.Logger) *SegmentUploader {
	return &SegmentUploader{
		cutter:  cutter,
		store:   store,
		logger:  logger,
		workDir: workDir,
		runID:   uuid.NewString(),
	}
}

// CutAndPublish extracts one window from the source audio, uploads the
// resulting file, and removes the local copy. There is no internal retry:
// retry policy lives in the object store.
func (u *SegmentUploader) CutAndPublish(ctx context.Context, sourceAudio string, window planner.SegmentWindow) (SegmentHandle, error) {
	name := segmentFileName(sourceAudio, window.Index)
	localPath := filepath.Join(u.workDir, name)

	if err := u.cutter.CutSegment(ctx, sourceAudio, window, localPath); err != nil {
		return SegmentHandle{}, fmt.Errorf("failed to cut segment %d: %w", window.Index, err)
	}

	uri, err := u.store.Put(ctx, localPath, path.Join(u.runID, name))
	if err != nil {
		return SegmentHandle{}, fmt.Errorf("failed to publish segment %d: %w", window.Index, err)
	}

	if err := os.Remove(localPath); err != nil {
		u.logger.Warn("failed to remove local segment file",
			zap.String("path", localPath),
			zap.Error(err))
	}

	return SegmentHandle{
		Window:     window,
		URI:        uri,
		StartLabel: window.StartLabel(),
	}, nil
}

// PublishAll cuts and publishes every window in order, aborting on the first
// failure. A missing segment would make the transcript ordering contract
// unsatisfiable, so there is no value in continuing past an error.
func (u *SegmentUploader) PublishAll(ctx context.Context, sourceAudio string, windows []planner.SegmentWindow) ([]SegmentHandle, error) {
	handles := make([]SegmentHandle, 0, len(windows))
	for _, window := range windows {
		handle, err := u.CutAndPublish(ctx, sourceAudio, window)
		if err != nil {
			return nil, err
		}
		u.logger.Info("segment published",
			zap.Int("index", handle.Window.Index),
			zap.String("start", handle.StartLabel),
			zap.String("uri", handle.URI))
		handles = append(handles, handle)
	}
	return handles, nil
}

// segmentFileName derives the per-segment file name from the source audio
// base name and the 1-based segment index.
func segmentFileName(sourceAudio string, index int) string {
	base := strings.TrimSuffix(filepath.Base(sourceAudio), filepath.Ext(sourceAudio))
	return fmt.Sprintf("%s_%d.wav", base, index)
}
