package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants shared by the daemon and CLI.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if c.Paths.ScratchDir == "" {
		problems = append(problems, "paths.scratch_dir must be set")
	}
	if c.Paths.APIBind == "" {
		problems = append(problems, "paths.api_bind must be set")
	}
	if c.Extractor.TargetFrameCount <= 0 {
		problems = append(problems, "extractor.target_frame_count must be positive")
	}
	if c.Extractor.SpeechDurationSeconds <= 0 {
		problems = append(problems, "extractor.speech_duration_seconds must be positive")
	}
	if c.Extractor.ThumbnailWidth <= 0 {
		problems = append(problems, "extractor.thumbnail_width must be positive")
	}
	if c.Extractor.FrameUploadConcurrency <= 0 {
		problems = append(problems, "extractor.frame_upload_concurrency must be positive")
	}
	if c.Extractor.MaxAnalysisImageBytes <= 0 {
		problems = append(problems, "extractor.max_analysis_image_bytes must be positive")
	}
	if c.Dispatcher.PollIntervalSeconds <= 0 {
		problems = append(problems, "dispatcher.poll_interval_seconds must be positive")
	}
	if c.Dispatcher.FeedBatchSize <= 0 {
		problems = append(problems, "dispatcher.feed_batch_size must be positive")
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q is not supported", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
