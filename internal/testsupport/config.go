package testsupport

import (
	"path/filepath"
	"testing"

	"visionpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.BaseURL = "http://127.0.0.1:0"
	cfg.VisualRecognition.APIKey = "test"
	cfg.SpeechToText.Username = "test"
	cfg.SpeechToText.Password = "test"
	cfg.SpeechToText.CallbackSecret = "test-secret"
	cfg.TextAnalysis.APIKey = "test"

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithCallbackSecret overrides the speech callback signing secret.
func WithCallbackSecret(secret string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.SpeechToText.CallbackSecret = secret
	}
}

// WithTargetFrameCount overrides the number of frames extracted per video.
func WithTargetFrameCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Extractor.TargetFrameCount = count
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
