package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"videoscribe/internal/config"
	"videoscribe/internal/logger"
	"videoscribe/internal/media"
	"videoscribe/internal/performance"
	"videoscribe/internal/planner"
	"videoscribe/internal/segmenter"
	"videoscribe/internal/storage"
	"videoscribe/internal/transcriber"
)

// MediaProcessor defines the external media-tool operations the pipeline
// depends on: audio extraction, mono conversion, duration probing and
// segment cutting.
type MediaProcessor interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
	ConvertToMono(ctx context.Context, audioPath, monoPath string) error
	ProbeDuration(ctx context.Context, audioPath string) (float64, error)
	CutSegment(ctx context.Context, sourceAudio string, window planner.SegmentWindow, outPath string) error
}

// Application represents the video transcription pipeline orchestrator
type Application struct {
	config     *config.Configuration
	logger     *zap.Logger
	media      MediaProcessor
	store      storage.ObjectStore
	recognizer transcriber.Recognizer
	output     io.Writer
}

// NewApplication creates an application instance with all components
// initialized. Configuration comes from configPath when given, from the
// CONFIG_PATH environment variable when set, and from environment variables
// otherwise.
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	var cfg *config.Configuration
	var err error
	if configPath != "" {
		cfg, err = config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.NewConfigurationFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	zapLogger := logger.NewLoggerForMode(cfg.GetDebugMode())

	store, err := storage.NewGCSStore(ctx, cfg.GetBucketName(), zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	recognizer, err := transcriber.NewGoogleRecognizer(ctx, cfg.GetLanguageCode(), zapLogger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	return &Application{
		config:     cfg,
		logger:     zapLogger,
		media:      media.NewFFmpeg(zapLogger),
		store:      store,
		recognizer: recognizer,
		output:     os.Stdout,
	}, nil
}

// NewApplicationWithComponents creates an application from pre-built
// collaborators, used by tests to substitute fakes.
func NewApplicationWithComponents(cfg *config.Configuration, zapLogger *zap.Logger, mediaProc MediaProcessor, store storage.ObjectStore, recognizer transcriber.Recognizer, output io.Writer) *Application {
	return &Application{
		config:     cfg,
		logger:     zapLogger,
		media:      mediaProc,
		store:      store,
		recognizer: recognizer,
		output:     output,
	}
}

// Run executes the full pipeline for one video file: extract audio, convert
// to mono, plan segment windows, cut and upload every segment, transcribe
// all segments concurrently, and write the ordered transcript.
//
// Extraction, conversion and upload failures abort the run immediately; a
// transcription run only fails after every segment has been attempted, so
// the error names all failing segments at once.
func (app *Application) Run(ctx context.Context, videoPath string) error {
	app.logger.Info("starting transcription run",
		zap.String("video", videoPath),
		zap.Int("segment_divider", app.config.GetSegmentDivider()),
		zap.String("language", app.config.GetLanguageCode()))

	timer := performance.NewStageTimer(app.logger)
	defer timer.Report()

	workDir := app.config.GetWorkDir()
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	stereoPath := filepath.Join(workDir, base+"-tmp_audio.wav")
	monoPath := filepath.Join(workDir, base+"-audio.wav")

	err := timer.Track(performance.StageExtract, func() error {
		return app.media.ExtractAudio(ctx, videoPath, stereoPath)
	})
	if err != nil {
		return fmt.Errorf("audio extraction stage failed: %w", err)
	}

	err = timer.Track(performance.StageConvert, func() error {
		return app.media.ConvertToMono(ctx, stereoPath, monoPath)
	})
	if err != nil {
		return fmt.Errorf("mono conversion stage failed: %w", err)
	}

	var duration float64
	err = timer.Track(performance.StageProbe, func() error {
		var probeErr error
		duration, probeErr = app.media.ProbeDuration(ctx, monoPath)
		return probeErr
	})
	if err != nil {
		return fmt.Errorf("duration probe stage failed: %w", err)
	}

	plan, err := planner.NewPlan(duration, app.config.GetSegmentDivider())
	if err != nil {
		return fmt.Errorf("segmentation planning failed: %w", err)
	}
	app.logger.Info("segmentation planned",
		zap.Float64("duration_sec", duration),
		zap.Int("segment_length_sec", plan.SegmentLength),
		zap.Int("segments", len(plan.Windows)))

	uploader := segmenter.NewSegmentUploader(app.media, app.store, workDir, app.logger)
	var handles []segmenter.SegmentHandle
	err = timer.Track(performance.StageSegment, func() error {
		var publishErr error
		handles, publishErr = uploader.PublishAll(ctx, monoPath, plan.Windows)
		return publishErr
	})
	if err != nil {
		return fmt.Errorf("segment publishing stage failed: %w", err)
	}

	worker := transcriber.NewWorker(app.recognizer, app.logger)
	coordinator := transcriber.NewFanOutCoordinator(worker, app.logger)
	var transcript transcriber.Transcript
	err = timer.Track(performance.StageTranscribe, func() error {
		var runErr error
		transcript, runErr = coordinator.Run(ctx, handles, app.config.GetRecognitionTimeout())
		return runErr
	})
	if err != nil {
		return fmt.Errorf("transcription stage failed: %w", err)
	}

	output := transcriber.NewTextOutput(app.output, app.logger)
	if err := output.WriteTranscript(transcript); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	app.logger.Info("transcription run completed",
		zap.Int("segments", len(handles)),
		zap.Int("lines", len(transcript)))
	return nil
}

// Shutdown releases the remote service clients.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down application components")

	var firstErr error
	if closer, ok := app.recognizer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing recognizer", zap.Error(err))
			firstErr = err
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("error closing object store", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	app.logger.Info("application shutdown completed")
	return firstErr
}
