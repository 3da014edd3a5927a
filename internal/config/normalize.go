package config

import (
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() {
	c.Paths.DataDir = expandPath(c.Paths.DataDir)
	c.Paths.ScratchDir = expandPath(c.Paths.ScratchDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
	c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.BaseURL), "/")
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.VisualRecognition.URL = trimURL(c.VisualRecognition.URL)
	c.SpeechToText.URL = trimURL(c.SpeechToText.URL)
	c.TextAnalysis.URL = trimURL(c.TextAnalysis.URL)

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func trimURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}
