package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	// BaseURL is the externally visible address used to build image display
	// URLs in summaries and the transcription callback URL.
	BaseURL string `toml:"base_url"`
}

// VisualRecognition configures the face detection and classification service.
type VisualRecognition struct {
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Version string `toml:"version"`
}

// SpeechToText configures the asynchronous transcription service.
type SpeechToText struct {
	URL            string `toml:"url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	CallbackSecret string `toml:"callback_secret"`
	// ResultsTTLMinutes asks the service to drop stored results after this delay.
	ResultsTTLMinutes int `toml:"results_ttl_minutes"`
}

// TextAnalysis configures the entity/concept/emotion extraction service.
type TextAnalysis struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// Extractor tunes the video extraction worker.
type Extractor struct {
	FFmpegCommand  string `toml:"ffmpeg_command"`
	FFprobeCommand string `toml:"ffprobe_command"`
	// TargetFrameCount controls the sampling cadence: one frame per
	// ceil(duration/TargetFrameCount) seconds.
	TargetFrameCount       int   `toml:"target_frame_count"`
	SpeechDurationSeconds  int   `toml:"speech_duration_seconds"`
	ThumbnailWidth         int   `toml:"thumbnail_width"`
	FrameUploadConcurrency int   `toml:"frame_upload_concurrency"`
	MaxAnalysisImageBytes  int64 `toml:"max_analysis_image_bytes"`
}

// Dispatcher tunes the change feed poll loop.
type Dispatcher struct {
	PollIntervalSeconds       int `toml:"poll_interval_seconds"`
	ErrorRetryIntervalSeconds int `toml:"error_retry_interval_seconds"`
	FeedBatchSize             int `toml:"feed_batch_size"`
}

// Config is the root configuration object.
type Config struct {
	Paths             Paths             `toml:"paths"`
	VisualRecognition VisualRecognition `toml:"visual_recognition"`
	SpeechToText      SpeechToText      `toml:"speech_to_text"`
	TextAnalysis      TextAnalysis      `toml:"text_analysis"`
	Extractor         Extractor         `toml:"extractor"`
	Dispatcher        Dispatcher        `toml:"dispatcher"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "visionpipe", "config.toml")
}

// Load reads configuration from path (or the default location when empty),
// creating the file from the embedded sample when it does not exist. It
// returns the loaded config, the resolved path, and whether the file was
// created by this call.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	}

	created := false
	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		if writeErr := writeSample(resolved); writeErr != nil {
			return nil, resolved, false, writeErr
		}
		created = true
		data = []byte(sampleConfig)
	} else if err != nil {
		return nil, resolved, false, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, resolved, created, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, created, err
	}
	return cfg, resolved, created, nil
}

// EnsureDirectories creates the data, scratch, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ScratchDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CallbackURL returns the absolute URL transcription results are posted to.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Paths.BaseURL, "/") + "/stt/results"
}

func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
