package config

import (
	"os"
	"path/filepath"
)

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	dataRoot := defaultDataRoot()
	return &Config{
		Paths: Paths{
			DataDir:    filepath.Join(dataRoot, "data"),
			ScratchDir: filepath.Join(dataRoot, "scratch"),
			LogDir:     filepath.Join(dataRoot, "logs"),
			APIBind:    "127.0.0.1:8080",
			BaseURL:    "http://127.0.0.1:8080",
		},
		VisualRecognition: VisualRecognition{
			Version: "2016-05-20",
		},
		SpeechToText: SpeechToText{
			ResultsTTLMinutes: 5,
		},
		Extractor: Extractor{
			FFmpegCommand:          "ffmpeg",
			FFprobeCommand:         "ffprobe",
			TargetFrameCount:       15,
			SpeechDurationSeconds:  15 * 60,
			ThumbnailWidth:         640,
			FrameUploadConcurrency: 5,
			MaxAnalysisImageBytes:  900 * 1024,
		},
		Dispatcher: Dispatcher{
			PollIntervalSeconds:       2,
			ErrorRetryIntervalSeconds: 5,
			FeedBatchSize:             50,
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

func defaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".visionpipe"
	}
	return filepath.Join(home, ".local", "share", "visionpipe")
}
