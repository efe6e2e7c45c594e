package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.bucket", "")
	v.SetDefault("segment.divider", 6)
	v.SetDefault("recognition.language", "fr-FR")
	v.SetDefault("recognition.timeout_sec", 3600)
	v.SetDefault("work.dir", os.TempDir())
	v.SetDefault("debug.enabled", false)
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	// Set up environment variable mapping
	v.SetEnvPrefix("VIDEOSCRIBE")
	v.AutomaticEnv()

	// Map specific environment variables, keeping the bare names the
	// pipeline has historically been configured with
	v.BindEnv("storage.bucket", "BUCKET_NAME")
	v.BindEnv("segment.divider", "SEGMENT_DIVIDER")
	v.BindEnv("recognition.language", "RECOGNITION_LANGUAGE")
	v.BindEnv("recognition.timeout_sec", "RECOGNITION_TIMEOUT_SEC")
	v.BindEnv("work.dir", "WORK_DIR")
	v.BindEnv("debug.enabled", "DEBUG_MODE")

	return &Configuration{viper: v}, nil
}

// GetBucketName returns the object storage bucket segments are uploaded to
func (c *Configuration) GetBucketName() string {
	return c.viper.GetString("storage.bucket")
}

// GetSegmentDivider returns the divider controlling segment granularity
func (c *Configuration) GetSegmentDivider() int {
	return c.viper.GetInt("segment.divider")
}

// GetLanguageCode returns the BCP-47 language code for speech recognition
func (c *Configuration) GetLanguageCode() string {
	return c.viper.GetString("recognition.language")
}

// GetRecognitionTimeout returns the per-segment recognition timeout
func (c *Configuration) GetRecognitionTimeout() time.Duration {
	return time.Duration(c.viper.GetInt("recognition.timeout_sec")) * time.Second
}

// GetWorkDir returns the directory intermediate audio files are written to
func (c *Configuration) GetWorkDir() string {
	return c.viper.GetString("work.dir")
}

// GetDebugMode returns whether verbose debug logging is enabled
func (c *Configuration) GetDebugMode() bool {
	return c.viper.GetBool("debug.enabled")
}

// Validate checks that the configuration can drive a pipeline run
func (c *Configuration) Validate() error {
	if c.GetBucketName() == "" {
		return fmt.Errorf("storage bucket must be configured (BUCKET_NAME)")
	}
	if c.GetSegmentDivider() <= 0 {
		return fmt.Errorf("segment divider must be positive, got %d", c.GetSegmentDivider())
	}
	if c.GetRecognitionTimeout() <= 0 {
		return fmt.Errorf("recognition timeout must be positive")
	}
	if c.GetLanguageCode() == "" {
		return fmt.Errorf("recognition language must be configured")
	}
	return nil
}
