// Package config loads and validates visionpipe configuration.
//
// Configuration is a TOML file, by default ~/.config/visionpipe/config.toml.
// Load applies defaults, normalizes paths, and validates values; a missing
// file is created from the embedded sample so a fresh install starts from a
// documented baseline.
package config
