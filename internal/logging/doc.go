// Package logging wraps log/slog construction for the daemon and CLI.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for log files. Loggers carry a standardized
// "component" attribute, and WithContext derives document/stage fields
// from a context annotated by the services package.
package logging
