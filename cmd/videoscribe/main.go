package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"videoscribe/internal/app"
)

// main is the application entry point and orchestrator setup
func main() {
	var (
		helpFlag    = flag.Bool("help", false, "Show help message")
		versionFlag = flag.Bool("version", false, "Show version information")
		configFlag  = flag.String("config", "", "Path to a YAML config file")
	)
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one video file argument")
		printHelp()
		os.Exit(2)
	}

	if err := runApplication(*configFlag, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// runApplication contains the core application logic that can be tested
func runApplication(configPath, videoPath string) error {
	// Local overrides for bucket, divider etc. may live in a .env file
	_ = godotenv.Load()

	// Create structured logger for main
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("videoscribe starting up",
		zap.String("component", "main"),
		zap.String("video", videoPath))

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal",
			zap.String("signal", sig.String()),
			zap.String("component", "main"))
		cancel()
	}()

	application, err := app.NewApplication(ctx, configPath)
	if err != nil {
		logger.Error("failed to create application",
			zap.Error(err),
			zap.String("component", "main"))
		return fmt.Errorf("failed to create application: %w", err)
	}

	start := time.Now()
	runErr := application.Run(ctx, videoPath)

	if err := application.Shutdown(); err != nil {
		logger.Error("error during application shutdown",
			zap.Error(err),
			zap.String("component", "main"))
	}

	if runErr != nil {
		logger.Error("transcription run failed",
			zap.Error(runErr),
			zap.String("component", "main"))
		return runErr
	}

	logger.Info("videoscribe finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("component", "main"))
	return nil
}

// printHelp displays command line usage information
func printHelp() {
	fmt.Println("videoscribe - Video to Time-Ordered Transcript Pipeline")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    videoscribe [OPTIONS] <video-file>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    -help      Show this help message")
	fmt.Println("    -version   Show version information")
	fmt.Println("    -config    Path to a YAML config file")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("    Settings come from the config file when given, otherwise from")
	fmt.Println("    environment variables (optionally via a .env file):")
	fmt.Println("        BUCKET_NAME              object storage bucket for segments (required)")
	fmt.Println("        SEGMENT_DIVIDER          segment granularity divider (default 6)")
	fmt.Println("        RECOGNITION_LANGUAGE     BCP-47 language code (default fr-FR)")
	fmt.Println("        RECOGNITION_TIMEOUT_SEC  per-segment timeout (default 3600)")
	fmt.Println("        WORK_DIR                 directory for intermediate audio files")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("    videoscribe lecture.mp4")
	fmt.Println("    BUCKET_NAME=my-bucket SEGMENT_DIVIDER=4 videoscribe lecture.mp4")
}

// printVersion displays version and build information
func printVersion() {
	fmt.Println("videoscribe")
	fmt.Println("Version: 1.0")
	fmt.Println("Architecture: Go 1.24 + FFmpeg + Google Cloud Speech")
}
